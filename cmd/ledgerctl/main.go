// Command ledgerctl is the operator CLI for the inventory ledger: seed the
// sheet, run bot commands without Messenger, and mint admin API tokens.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tbourn/go-ledger-bot/internal/app"
	"github.com/tbourn/go-ledger-bot/internal/config"
	"github.com/tbourn/go-ledger-bot/internal/sysutil"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

// cli carries state shared by subcommands for one invocation.
type cli struct {
	out io.Writer
	cfg config.Config
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}
	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Operate the inventory ledger behind the Messenger bot",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// the webhook token is irrelevant here but required by Load
			if os.Getenv("VERIFY_TOKEN") == "" {
				os.Setenv("VERIFY_TOKEN", "ledgerctl")
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			sysutil.SetupLogger(cmd.ErrOrStderr(), cfg.LogLevel, true)
			c.cfg = cfg
			return nil
		},
	}
	root.SetOut(out)
	root.AddCommand(c.seedCmd(), c.execCmd(), c.showCmd(), c.tokenCmd())
	return root
}

// withLedger opens the configured ledger for the duration of fn.
func (c *cli) withLedger(ctx context.Context, fn func(*app.Ledger) error) error {
	led, err := app.OpenLedger(ctx, c.cfg)
	if err != nil {
		return err
	}
	defer led.Close()
	return fn(led)
}
