package command

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// Fixed phrases, compared after case folding and whitespace collapsing.
var phrases = map[string]func() Command{
	"show request":   func() Command { return ShowInventory{} },
	"show inventory": func() Command { return ShowInventory{} },
	"total":          func() Command { return ShowTotal{} },
	"make request":   func() Command { return BeginBulkUpdate{} },
}

// Fold case-folds s for case-insensitive comparison. It is shared with the
// ledger so command verbs and item names compare under the same rules.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// Interpret parses a message sent outside a bulk-update session.
//
//	Add <qty> <item...>     -> AddQuantity
//	Sold <qty> <item...>    -> SoldQuantity
//	Show Request | Show Inventory -> ShowInventory
//	Total                   -> ShowTotal
//	Make Request            -> BeginBulkUpdate
//
// Anything else, including multi-line text, is Unrecognized.
func Interpret(raw string) Command {
	text := strings.TrimSpace(raw)
	if text == "" || strings.ContainsAny(text, "\r\n") {
		return Unrecognized{Raw: raw}
	}
	fields := strings.Fields(text)

	folded := make([]string, len(fields))
	for i, f := range fields {
		folded[i] = Fold(f)
	}
	if mk, ok := phrases[strings.Join(folded, " ")]; ok {
		return mk()
	}

	if len(fields) < 3 {
		return Unrecognized{Raw: raw}
	}
	qty, ok := parseQuantity(fields[1])
	if !ok {
		return Unrecognized{Raw: raw}
	}
	item := strings.Join(fields[2:], " ")
	switch folded[0] {
	case "add":
		return AddQuantity{Item: item, Delta: qty}
	case "sold":
		return SoldQuantity{Item: item, Delta: qty}
	}
	return Unrecognized{Raw: raw}
}

// InterpretBulk parses a message sent while a bulk-update session is open:
// one "<item> <qty>" pair per line. Separators ":", "-" and "=" between the
// item and the quantity are tolerated. Blank lines are ignored.
func InterpretBulk(raw string) BulkUpdate {
	var out BulkUpdate
	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if l, ok := parseBulkLine(line); ok {
			out.Lines = append(out.Lines, l)
		} else {
			out.Rejected = append(out.Rejected, line)
		}
	}
	return out
}

func parseBulkLine(line string) (BulkUpdateLine, bool) {
	fields := strings.Fields(line)
	qty, ok := 0, false
	if len(fields) >= 2 {
		qty, ok = parseQuantity(fields[len(fields)-1])
	}
	if !ok {
		// Separator glued to the quantity: "Monay:3", "Ube Pandesal:4", "Ube =4".
		n := len(fields) - 1
		last := fields[n]
		i := strings.LastIndexAny(last, ":=")
		if i < 0 || (i == 0 && n == 0) {
			return BulkUpdateLine{}, false
		}
		if qty, ok = parseQuantity(last[i+1:]); !ok {
			return BulkUpdateLine{}, false
		}
		fields = append(fields[:n:n], last[:i], last[i+1:])
	}
	itemFields := fields[:len(fields)-1]
	if n := len(itemFields); n > 1 && isSeparator(itemFields[n-1]) {
		itemFields = itemFields[:n-1]
	}
	item := strings.TrimRight(strings.Join(itemFields, " "), ":=-")
	item = strings.TrimSpace(item)
	if item == "" {
		return BulkUpdateLine{}, false
	}
	return BulkUpdateLine{Item: item, Quantity: qty}, true
}

func isSeparator(s string) bool { return s == ":" || s == "-" || s == "=" }

// parseQuantity accepts a plain non-negative decimal integer ("+5", "-5",
// and "5.0" are rejected).
func parseQuantity(s string) (int, bool) {
	n, err := strconv.ParseUint(s, 10, 31)
	if err != nil {
		return 0, false
	}
	return int(n), true
}
