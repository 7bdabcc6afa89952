// Package command turns inbound chat text into typed ledger commands. Parsing
// is pure: the same input always yields the same Command, and unparseable
// input yields Unrecognized rather than an error.
//
// BulkUpdateLine is a Command in its own right, but Interpret never returns
// one: lines only exist inside an open bulk-update session, and InterpretBulk
// delivers a whole message of them as a single BulkUpdate so they are
// applied in one batch.
package command

// Kind names a command variant. Values double as metric and log labels.
type Kind string

const (
	KindAdd           Kind = "add"
	KindSold          Kind = "sold"
	KindShowInventory Kind = "show_inventory"
	KindShowTotal     Kind = "show_total"
	KindBeginBulk     Kind = "begin_bulk_update"
	KindBulkUpdate    Kind = "bulk_update"
	KindUnrecognized  Kind = "unrecognized"
)

// Command is one of the concrete command types below.
type Command interface {
	Kind() Kind
}

// AddQuantity increases an item's quantity by Delta.
type AddQuantity struct {
	Item  string
	Delta int
}

// SoldQuantity decreases an item's quantity by Delta.
type SoldQuantity struct {
	Item  string
	Delta int
}

// ShowInventory lists every item with its quantity.
type ShowInventory struct{}

// ShowTotal reports per-item subtotals and the grand total.
type ShowTotal struct{}

// BeginBulkUpdate opens a bulk-update session for the sender.
type BeginBulkUpdate struct{}

// BulkUpdateLine sets an item's quantity to an absolute value.
type BulkUpdateLine struct {
	Item     string
	Quantity int
}

// BulkUpdate is one message of bulk lines, only produced inside a session.
// Rejected holds the non-blank lines that did not parse.
type BulkUpdate struct {
	Lines    []BulkUpdateLine
	Rejected []string
}

// Unrecognized carries text that matched no command.
type Unrecognized struct {
	Raw string
}

func (AddQuantity) Kind() Kind     { return KindAdd }
func (SoldQuantity) Kind() Kind    { return KindSold }
func (ShowInventory) Kind() Kind   { return KindShowInventory }
func (ShowTotal) Kind() Kind       { return KindShowTotal }
func (BeginBulkUpdate) Kind() Kind { return KindBeginBulk }
func (BulkUpdateLine) Kind() Kind  { return KindBulkUpdate }
func (BulkUpdate) Kind() Kind      { return KindBulkUpdate }
func (Unrecognized) Kind() Kind    { return KindUnrecognized }
