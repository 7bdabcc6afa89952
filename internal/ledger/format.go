package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Fixed replies.
const (
	HelpText = "Commands:\n" +
		"- Add [qty] [item]\n" +
		"- Sold [qty] [item]\n" +
		"- Show inventory\n" +
		"- Total\n" +
		"- Make Request"

	NoItemsText     = "No items found."
	UnavailableText = "Sorry, the inventory sheet is unavailable right now. Please try again later."
	NoBulkLinesText = "No valid lines found, so the request was cancelled. Send \"Make Request\" to start again."
	RetryBulkText   = "No valid lines found. Send one item per line, e.g. \"Pandecoco 10\"."
)

func notFoundText(item, suggestion string) string {
	msg := fmt.Sprintf("Item %q not found.", item)
	if suggestion != "" {
		msg += fmt.Sprintf(" Did you mean %q?", suggestion)
	}
	return msg
}

func changeText(verb string, delta int, name string, from, to int) string {
	return fmt.Sprintf("%s %d %s: %d → %d", verb, delta, name, from, to)
}

func insufficientText(e Entry, delta int) string {
	return fmt.Sprintf("Cannot sell %d %s: only %d in stock.", delta, e.Name, e.Quantity)
}

func inventoryText(entries []Entry) string {
	if len(entries) == 0 {
		return NoItemsText
	}
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		qty := e.RawQty
		if qty == "" {
			qty = "0"
		}
		fmt.Fprintf(&b, "%s - %s", e.Name, qty)
	}
	return b.String()
}

// totalsText lists each item's subtotal and the grand total. Items without
// a usable price show a subtotal of 0.
func totalsText(entries []Entry) string {
	if len(entries) == 0 {
		return NoItemsText
	}
	var b strings.Builder
	grand := decimal.Zero
	for _, e := range entries {
		sub := e.Total()
		grand = grand.Add(sub)
		if e.HasPrice {
			fmt.Fprintf(&b, "%s: %d × %s = %s\n", e.Name, e.Quantity, money(e.Price), money(sub))
		} else {
			fmt.Fprintf(&b, "%s: %d × ? = %s\n", e.Name, e.Quantity, money(sub))
		}
	}
	fmt.Fprintf(&b, "Grand total: %s", money(grand))
	return b.String()
}

func templateText(entries []Entry) string {
	if len(entries) == 0 {
		return "Send the new quantities, one item per line, e.g. \"Pandecoco 10\"."
	}
	var b strings.Builder
	b.WriteString("Send the new quantities, one item per line:")
	for _, e := range entries {
		fmt.Fprintf(&b, "\n%s %d", e.Name, e.Quantity)
	}
	return b.String()
}

type bulkChange struct {
	name     string
	from, to int
}

type bulkMiss struct {
	item, suggestion string
}

func bulkText(changes []bulkChange, misses []bulkMiss, rejected []string) string {
	var b strings.Builder
	if len(changes) == 0 {
		b.WriteString("No items were updated.")
	} else {
		b.WriteString("Updated:")
		for _, c := range changes {
			fmt.Fprintf(&b, "\n%s: %d → %d", c.name, c.from, c.to)
		}
	}
	if len(misses) > 0 {
		b.WriteString("\nNot updated:")
		for _, m := range misses {
			b.WriteString("\n" + notFoundText(m.item, m.suggestion))
		}
	}
	if len(rejected) > 0 {
		b.WriteString("\nSkipped lines:")
		for _, r := range rejected {
			b.WriteString("\n- " + r)
		}
	}
	return b.String()
}

func batchFailureText(applied, total int) string {
	if applied > 0 && applied < total {
		return fmt.Sprintf("Bulk update failed after %d of %d cells were written. Please check the sheet before retrying.", applied, total)
	}
	return "Bulk update failed and nothing was changed. Please try again."
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }
