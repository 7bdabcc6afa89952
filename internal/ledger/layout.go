package ledger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tbourn/go-ledger-bot/internal/command"
	"github.com/tbourn/go-ledger-bot/internal/sheet"
)

// Layout maps ledger fields to sheet columns. Row 1 is the header.
type Layout struct {
	Sheet    string
	Name     string
	Price    string
	Quantity string
	Total    string

	rng sheet.Range
	// offsets into a row of rng
	name, price, qty, total int
}

// DefaultColumns is the A..D layout: name, unit price, quantity, total.
var DefaultColumns = []string{"A", "B", "C", "D"}

// NewLayout validates cols (name, price, quantity, total column letters)
// and precomputes the range covering all four.
func NewLayout(sheetName string, cols []string) (Layout, error) {
	if len(cols) != 4 {
		return Layout{}, fmt.Errorf("%w: want 4 columns, got %d", ErrInvalidLayout, len(cols))
	}
	l := Layout{Sheet: sheetName, Name: cols[0], Price: cols[1], Quantity: cols[2], Total: cols[3]}

	nums := make([]int, 4)
	seen := map[int]bool{}
	lo, hi := 0, 0
	for i, c := range cols {
		ref, err := sheet.Ref(sheetName, c, 1)
		if err != nil {
			return Layout{}, fmt.Errorf("%w: column %q", ErrInvalidLayout, c)
		}
		if seen[ref.Col] {
			return Layout{}, fmt.Errorf("%w: column %q used twice", ErrInvalidLayout, c)
		}
		seen[ref.Col] = true
		nums[i] = ref.Col
		if i == 0 || ref.Col < lo {
			lo = ref.Col
		}
		if ref.Col > hi {
			hi = ref.Col
		}
	}
	l.rng = sheet.Range{Sheet: sheetName, StartCol: lo, EndCol: hi, StartRow: 1}
	l.name, l.price, l.qty, l.total = nums[0]-lo, nums[1]-lo, nums[2]-lo, nums[3]-lo
	return l, nil
}

// Range is the whole-column range read for every command.
func (l Layout) Range() sheet.Range { return l.rng }

// Entry is one ledger row.
type Entry struct {
	Row      int // 1-based sheet row
	Name     string
	Price    decimal.Decimal
	HasPrice bool
	Quantity int
	RawQty   string
}

// Total is Price × Quantity, or zero when the row has no usable price.
func (e Entry) Total() decimal.Decimal {
	if !e.HasPrice {
		return decimal.Zero
	}
	return e.Price.Mul(decimal.NewFromInt(int64(e.Quantity)))
}

// Entries converts rows read from Range into entries, skipping the header
// and rows with an empty name.
func (l Layout) Entries(rows [][]string) []Entry {
	if len(rows) <= 1 {
		return nil
	}
	out := make([]Entry, 0, len(rows)-1)
	for i, row := range rows[1:] {
		name := strings.Join(strings.Fields(cell(row, l.name)), " ")
		if name == "" {
			continue
		}
		e := Entry{Row: l.rng.StartRow + 1 + i, Name: name}
		if p, err := decimal.NewFromString(strings.TrimSpace(cell(row, l.price))); err == nil && !p.IsNegative() {
			e.Price, e.HasPrice = p, true
		}
		e.RawQty = strings.TrimSpace(cell(row, l.qty))
		e.Quantity = parseQty(e.RawQty)
		out = append(out, e)
	}
	return out
}

// Writes returns the cell updates that store qty for e, including the
// recomputed total when e has a price.
func (l Layout) Writes(e Entry, qty int) ([]sheet.CellUpdate, error) {
	qref, err := sheet.Ref(l.Sheet, l.Quantity, e.Row)
	if err != nil {
		return nil, err
	}
	ups := []sheet.CellUpdate{{Ref: qref, Value: strconv.Itoa(qty)}}
	if e.HasPrice {
		tref, err := sheet.Ref(l.Sheet, l.Total, e.Row)
		if err != nil {
			return nil, err
		}
		e.Quantity = qty
		ups = append(ups, sheet.CellUpdate{Ref: tref, Value: e.Total().String()})
	}
	return ups, nil
}

// Header is the row written by seeding when the sheet is empty. It starts
// at column A.
func (l Layout) Header() []string {
	return l.row("Item", "Price", "Quantity", "Total")
}

// Row lays out one item's values for AppendRow. Like Header, the slice
// starts at column A, so columns before the layout are left empty.
func (l Layout) Row(name string, price decimal.Decimal, qty int) []string {
	total := price.Mul(decimal.NewFromInt(int64(qty)))
	return l.row(name, price.String(), strconv.Itoa(qty), total.String())
}

func (l Layout) row(name, price, qty, total string) []string {
	pad := l.rng.StartCol - 1
	out := make([]string, l.rng.EndCol)
	out[pad+l.name], out[pad+l.price], out[pad+l.qty], out[pad+l.total] = name, price, qty, total
	return out
}

// find returns the entry whose name matches item case-insensitively.
func find(entries []Entry, item string) (Entry, bool) {
	key := foldName(item)
	for _, e := range entries {
		if foldName(e.Name) == key {
			return e, true
		}
	}
	return Entry{}, false
}

func foldName(s string) string {
	return command.Fold(strings.Join(strings.Fields(s), " "))
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// parseQty reads a quantity cell. Empty or unparseable cells count as 0;
// decimal values are truncated.
func parseQty(s string) int {
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return int(d.IntPart())
	}
	return 0
}
