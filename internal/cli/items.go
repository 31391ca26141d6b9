package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/idilsaglam/tada/internal/gateway"
	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/state"
	"github.com/idilsaglam/tada/internal/tui"
	"github.com/idilsaglam/tada/internal/ui"
)

const lsHint = "Hint: run `tada ls` to see valid ids"

// ---------------------------------------------------
// Core subcommands (remote CRUD through the container)
// ---------------------------------------------------

func (a *app) lsCommand() *cobra.Command {
	var (
		group  bool
		format string
	)
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List items",
		Args:  exactArgs(0, "ls [--group] [--format table|json|yaml]"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.container()
			if err != nil {
				return err
			}
			if err := c.Dispatch(cmd.Context(), state.FetchAll()); err != nil {
				return fmt.Errorf("ls: %w", err)
			}
			items := state.Items(c.Snapshot())
			switch format {
			case "json":
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(items)
			case "yaml":
				return yaml.NewEncoder(a.stdout).Encode(items)
			case "table", "":
				a.printItems(items, group)
				return nil
			}
			return usagef("ls: unknown format %q", format)
		},
	}
	cmd.Flags().BoolVar(&group, "group", false, "group output by owner")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table|json|yaml")
	return cmd
}

func (a *app) addCommand() *cobra.Command {
	var owner int
	cmd := &cobra.Command{
		Use:   "add --user <id> <title...>",
		Short: "Add a new item (title can be multiple words)",
		Args:  minArgs(1, "add --user <id> <title...>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := model.Draft{UserID: owner, Title: strings.Join(args, " ")}
			if err := d.Validate(); err != nil {
				return usagef("add: %s", oneLine(err))
			}
			c, err := a.container()
			if err != nil {
				return err
			}
			if err := c.Dispatch(cmd.Context(), state.Create(d)); err != nil {
				return fmt.Errorf("add: %w", err)
			}
			items := state.Items(c.Snapshot())
			ui.OK(fmt.Sprintf("added #%d", items[len(items)-1].ID))
			return nil
		},
	}
	cmd.Flags().IntVarP(&owner, "user", "u", 0, "owner user id (required)")
	return cmd
}

func (a *app) editCommand() *cobra.Command {
	var (
		owner int
		title string
	)
	cmd := &cobra.Command{
		Use:   "edit <id> [--user <id>] [--title <title>]",
		Short: "Replace an item's owner and/or title",
		Args:  exactArgs(1, "edit <id> [--user <id>] [--title <title>]"),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("edit", args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("user") && !cmd.Flags().Changed("title") {
				return usagef("edit: nothing to change, pass --user and/or --title")
			}
			c, err := a.container()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := c.Dispatch(ctx, state.FetchAll()); err != nil {
				return fmt.Errorf("edit: %w", err)
			}
			items := state.Items(c.Snapshot())
			i := model.IndexOf(items, id)
			if i < 0 {
				return withHint(fmt.Errorf("edit: no item #%d", id), lsHint)
			}
			d := items[i].Draft()
			if cmd.Flags().Changed("user") {
				d.UserID = owner
			}
			if cmd.Flags().Changed("title") {
				d.Title = title
			}
			if err := d.Validate(); err != nil {
				return usagef("edit: %s", oneLine(err))
			}
			if err := c.Dispatch(ctx, state.Update(d, id)); err != nil {
				return fmt.Errorf("edit: %w", err)
			}
			ui.OK(fmt.Sprintf("updated #%d", id))
			return nil
		},
	}
	cmd.Flags().IntVarP(&owner, "user", "u", 0, "new owner user id")
	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	return cmd
}

func (a *app) rmCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove the item with the given id",
		Args:  exactArgs(1, "rm <id>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("rm", args[0])
			if err != nil {
				return err
			}
			c, err := a.container()
			if err != nil {
				return err
			}
			if err := c.Dispatch(cmd.Context(), state.Delete(id)); err != nil {
				if errors.Is(err, gateway.ErrNotFound) {
					return withHint(fmt.Errorf("rm: no item #%d", id), lsHint)
				}
				return fmt.Errorf("rm: %w", err)
			}
			ui.OK(fmt.Sprintf("removed #%d", id))
			return nil
		},
	}
}

func (a *app) tuiCommand() *cobra.Command {
	var inline bool
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Interactive list and form",
		Args:  exactArgs(0, "tui"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.container()
			if err != nil {
				return err
			}
			return tui.Run(cmd.Context(), c, tui.Options{AltScreen: !inline})
		},
	}
	cmd.Flags().BoolVar(&inline, "inline", false, "render inline instead of the alternate screen")
	return cmd
}

func parseID(op, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, usagef("%s: not a valid id: %s", op, s)
	}
	return n, nil
}

func oneLine(err error) string {
	return strings.ReplaceAll(err.Error(), "\n", "; ")
}

// -------------- rendering helpers --------------

func (a *app) printItems(items []model.Item, group bool) {
	t := ui.Current()
	header := fmt.Sprintf("%s  %s %d  %s %d",
		ui.C(t.Title, "Todos"),
		ui.C(t.Accent, t.Owner), countOwners(items),
		ui.C(t.Accent, "Total"), len(items),
	)

	lines := []string{header, ""}
	if group {
		lines = append(lines, groupLines(items)...)
	} else {
		lines = append(lines, flatLines(items)...)
	}
	lines = append(lines, "", ui.C(t.Muted, "Tip: add with `tada add --user 1 \"Buy milk\"`"))
	ui.Panel(a.stdout, lines)
}

func countOwners(items []model.Item) int {
	seen := map[int]bool{}
	for _, it := range items {
		seen[it.UserID] = true
	}
	return len(seen)
}

func flatLines(items []model.Item) []string {
	if len(items) == 0 {
		return []string{ui.C(ui.Current().Muted, "no items")}
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		title := runewidth.Truncate(it.Title, 80, "...")
		out = append(out, fmt.Sprintf("%s %s %s",
			ui.Dim(fmt.Sprintf("#%-3d", it.ID)),
			ui.C(ui.Current().Accent, fmt.Sprintf("[%d]", it.UserID)),
			title))
	}
	return out
}

// groupLines lists items per owner with each owner's share of the total.
func groupLines(items []model.Item) []string {
	if len(items) == 0 {
		return flatLines(items)
	}
	byOwner := map[int][]model.Item{}
	for _, it := range items {
		byOwner[it.UserID] = append(byOwner[it.UserID], it)
	}
	ownerIDs := make([]int, 0, len(byOwner))
	for id := range byOwner {
		ownerIDs = append(ownerIDs, id)
	}
	sort.Ints(ownerIDs)

	t := ui.Current()
	var lines []string
	for i, id := range ownerIDs {
		if i > 0 {
			lines = append(lines, "")
		}
		own := byOwner[id]
		lines = append(lines, fmt.Sprintf("%s %s  %s",
			ui.C(t.Accent, fmt.Sprintf("%s user %d", t.Owner, id)),
			ui.C(t.Muted, fmt.Sprintf("(%d)", len(own))),
			ui.C(t.Muted, ui.ProgressBar(len(own), len(items), 20))))
		for _, it := range own {
			lines = append(lines, fmt.Sprintf("  %s %s %s", ui.C(t.Pending, t.Bullet), ui.Dim(fmt.Sprintf("#%-3d", it.ID)), it.Title))
		}
	}
	return lines
}
