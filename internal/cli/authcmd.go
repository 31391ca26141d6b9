package cli

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/tada/internal/auth"
	"github.com/idilsaglam/tada/internal/ui"
)

func (a *app) authCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the bearer token sent to the items API",
		Args:  exactArgs(0, "auth login|logout|status"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return usagef("usage: tada auth login|logout|status")
		},
	}

	var ttl time.Duration
	login := &cobra.Command{
		Use:   "login [token]",
		Short: "Store a token (read from stdin when omitted)",
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) > 1 {
				return usagef("usage: tada auth login [token] [--ttl 24h]")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var tok string
			if len(args) == 1 {
				tok = args[0]
			} else {
				fmt.Fprint(cmd.ErrOrStderr(), "Token: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && strings.TrimSpace(line) == "" {
					return usagef("auth login: no token given")
				}
				tok = line
			}
			var expires *time.Time
			if ttl > 0 {
				t := time.Now().Add(ttl)
				expires = &t
			}
			if err := (auth.Credentials{}).Set(tok, expires); err != nil {
				return fmt.Errorf("auth login: %w", err)
			}
			a.log.Info("token stored", "expires", expires)
			ui.OK("logged in")
			return nil
		},
	}
	login.Flags().DurationVar(&ttl, "ttl", 0, "optional token lifetime (e.g. 24h)")

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		Args:  exactArgs(0, "auth logout"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := (auth.Credentials{}).Delete(); err != nil {
				return fmt.Errorf("auth logout: %w", err)
			}
			ui.OK("logged out")
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show where the active token comes from",
		Args:  exactArgs(0, "auth status"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if t := strings.TrimSpace(a.v.GetString("token")); t != "" {
				fmt.Fprintf(a.stdout, "token: %s (source: config)\n", maskToken(t))
				return nil
			}
			ti, err := auth.Credentials{}.Get()
			if err != nil {
				return fmt.Errorf("auth status: %w", err)
			}
			if ti == nil {
				return withHint(fmt.Errorf("not logged in"), "Hint: run `tada auth login`")
			}
			fmt.Fprintf(a.stdout, "token: %s (source: %s)\n", maskToken(ti.Token), ti.Source)
			if ti.ExpiresAt != nil {
				left := time.Until(*ti.ExpiresAt).Round(time.Second)
				if left <= 0 {
					fmt.Fprintln(a.stdout, ui.C(ui.Current().Error, "expired"))
				} else {
					fmt.Fprintf(a.stdout, "expires in %s\n", left)
				}
			}
			return nil
		},
	}

	cmd.AddCommand(login, logout, status)
	return cmd
}

func maskToken(s string) string {
	if len(s) <= 8 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + strings.Repeat("*", len(s)-8) + s[len(s)-4:]
}
