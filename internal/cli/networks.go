package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/idilsaglam/tada/internal/netconfig"
	"github.com/idilsaglam/tada/internal/ui"
)

// networksCommand inspects the deployment profiles; it does not talk to the
// items API.
func (a *app) networksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "networks",
		Short: "Inspect deployment network profiles",
		Args:  exactArgs(0, "networks ls|show <name>"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return usagef("usage: tada networks ls|show <name>")
		},
	}
	cmd.PersistentFlags().String("networks-file", "", "network profile file (default built-in profiles)")
	_ = a.v.BindPFlag("networks-file", cmd.PersistentFlags().Lookup("networks-file"))

	ls := &cobra.Command{
		Use:   "ls",
		Short: "List profile names",
		Args:  exactArgs(0, "networks ls"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := netconfig.Load(a.v.GetString("networks-file"))
			if err != nil {
				return err
			}
			t := ui.Current()
			lines := []string{ui.C(t.Title, "Networks") + ui.C(t.Muted, "  compiler "+cfg.Compiler), ""}
			for _, name := range cfg.Names() {
				n := cfg.Networks[name]
				line := fmt.Sprintf("%s %s", ui.C(t.Accent, t.Bullet), name)
				if n.ChainID != 0 {
					line += ui.C(t.Muted, fmt.Sprintf("  chain %d", n.ChainID))
				}
				lines = append(lines, line)
			}
			ui.Panel(a.stdout, lines)
			return nil
		},
	}

	var resolve bool
	show := &cobra.Command{
		Use:   "show <name>",
		Short: "Print one profile (accounts masked)",
		Args:  exactArgs(1, "networks show <name> [--resolve]"),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := netconfig.Load(a.v.GetString("networks-file"))
			if err != nil {
				return err
			}
			n, ok := cfg.Networks[args[0]]
			if !ok {
				err = fmt.Errorf("%w: %q", netconfig.ErrUnknownNetwork, args[0])
			} else if resolve {
				n, err = cfg.Resolve(args[0], os.LookupEnv)
			}
			if errors.Is(err, netconfig.ErrUnknownNetwork) {
				return withHint(err, "Hint: run `tada networks ls`")
			}
			if err != nil {
				return err
			}
			if resolve {
				for i, acct := range n.Accounts {
					n.Accounts[i] = netconfig.Mask(acct)
				}
			}
			return yaml.NewEncoder(a.stdout).Encode(map[string]netconfig.Network{args[0]: n})
		},
	}
	show.Flags().BoolVar(&resolve, "resolve", false, "expand ${VAR} references from the environment")

	cmd.AddCommand(ls, show)
	return cmd
}
