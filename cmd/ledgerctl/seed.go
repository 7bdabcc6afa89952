package main

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tbourn/go-ledger-bot/internal/app"
	"github.com/tbourn/go-ledger-bot/internal/command"
	"github.com/tbourn/go-ledger-bot/internal/sheet"
)

// seedFile is the YAML accepted by `ledgerctl seed`:
//
//	items:
//	  - name: Pandecoco
//	    price: "12.50"
//	    quantity: 5
type seedFile struct {
	Items []seedItem `yaml:"items"`
}

type seedItem struct {
	Name     string `yaml:"name"`
	Price    string `yaml:"price"`
	Quantity int    `yaml:"quantity"`
}

func loadSeed(path string) ([]seedItem, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for i, it := range f.Items {
		if it.Name == "" {
			return nil, fmt.Errorf("item %d: name is required", i+1)
		}
	}
	return f.Items, nil
}

func (c *cli) seedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Append items from a YAML file, writing the header row when the sheet is empty",
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := loadSeed(file)
			if err != nil {
				return err
			}
			return c.withLedger(cmd.Context(), func(led *app.Ledger) error {
				ctx := cmd.Context()
				rows, err := led.Store.GetRows(ctx, led.Layout.Range())
				if err != nil {
					return err
				}
				sheetName := led.Layout.Sheet
				if len(sheet.TrimRows(rows)) == 0 {
					if err := led.Store.AppendRow(ctx, sheetName, led.Layout.Header()); err != nil {
						return err
					}
				}
				existing := map[string]bool{}
				for _, e := range led.Layout.Entries(rows) {
					existing[command.Fold(e.Name)] = true
				}

				added := 0
				for _, it := range items {
					if existing[command.Fold(it.Name)] {
						fmt.Fprintf(cmd.OutOrStdout(), "skip %s (already present)\n", it.Name)
						continue
					}
					price := decimal.Zero
					if it.Price != "" {
						if price, err = decimal.NewFromString(it.Price); err != nil {
							return fmt.Errorf("item %s: price: %w", it.Name, err)
						}
					}
					if err := led.Store.AppendRow(ctx, sheetName, led.Layout.Row(it.Name, price, it.Quantity)); err != nil {
						return err
					}
					existing[command.Fold(it.Name)] = true
					added++
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d item(s)\n", added)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "items.yaml", "YAML file with the items to seed")
	return cmd
}
