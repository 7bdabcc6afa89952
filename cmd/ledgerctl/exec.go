package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tbourn/go-ledger-bot/internal/app"
	"github.com/tbourn/go-ledger-bot/internal/command"
	"github.com/tbourn/go-ledger-bot/internal/domain"
	"github.com/tbourn/go-ledger-bot/internal/ledger"
)

var errMultiTurn = errors.New("multi-turn commands need SESSION_BACKEND=redis; the memory session does not outlive one exec")

func (c *cli) execCmd() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   `exec "Add 10 Pandecoco"`,
		Short: "Run one bot message against the configured ledger and print the reply",
		Long: "Run one bot message against the configured ledger and print the reply.\n\n" +
			"Each invocation is a separate process, so multi-turn commands such as\n" +
			"\"Make Request\" need SESSION_BACKEND=redis to carry the session to the next exec.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if c.cfg.Session.Backend == "memory" {
				if _, ok := command.Interpret(text).(command.BeginBulkUpdate); ok {
					return errMultiTurn
				}
			}
			return c.withLedger(cmd.Context(), func(led *app.Ledger) error {
				return printReply(cmd, led.Manager.Handle(cmd.Context(), user, text))
			})
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "ledgerctl", "user id the message is attributed to")
	return cmd
}

func (c *cli) showCmd() *cobra.Command {
	var totals bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the inventory listing (or the totals with --total)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var q command.Command = command.ShowInventory{}
			if totals {
				q = command.ShowTotal{}
			}
			return c.withLedger(cmd.Context(), func(led *app.Ledger) error {
				return printReply(cmd, led.Manager.Execute(cmd.Context(), "ledgerctl", q))
			})
		},
	}
	cmd.Flags().BoolVar(&totals, "total", false, "print subtotals and the grand total")
	return cmd
}

// printReply writes the reply text and turns failed outcomes into a
// non-zero exit.
func printReply(cmd *cobra.Command, r ledger.Reply) error {
	fmt.Fprintln(cmd.OutOrStdout(), r.Text)
	if r.Outcome == domain.OutcomeFailed {
		if r.Err != nil {
			return r.Err
		}
		return errors.New("command failed")
	}
	return nil
}
