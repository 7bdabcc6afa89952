package command

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestInterpret_Commands(t *testing.T) {
	cases := []struct {
		in   string
		want Command
	}{
		{"Add 10 Pandecoco", AddQuantity{Item: "Pandecoco", Delta: 10}},
		{"  add   10   pandecoco  ", AddQuantity{Item: "pandecoco", Delta: 10}},
		{"ADD 0 Ube Cheese Pandesal", AddQuantity{Item: "Ube Cheese Pandesal", Delta: 0}},
		{"Sold 3 Cheesebread", SoldQuantity{Item: "Cheesebread", Delta: 3}},
		{"sOLD 3 Spanish  bread", SoldQuantity{Item: "Spanish bread", Delta: 3}},
		{"Show Request", ShowInventory{}},
		{"show   inventory", ShowInventory{}},
		{"SHOW INVENTORY", ShowInventory{}},
		{"Total", ShowTotal{}},
		{" total ", ShowTotal{}},
		{"Make Request", BeginBulkUpdate{}},
		{"make request", BeginBulkUpdate{}},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, Interpret(tc.in)); diff != "" {
				t.Fatalf("Interpret(%q) mismatch (-want +got):\n%s", tc.in, diff)
			}
		})
	}
}

func TestInterpret_Unrecognized(t *testing.T) {
	for _, in := range []string{
		"",
		"   ",
		"hello",
		"Add",
		"Add 10",
		"Add ten Pandecoco",
		"Add -5 Pandecoco",
		"Add +5 Pandecoco",
		"Add 2.5 Pandecoco",
		"Add 99999999999 Pandecoco",
		"Remove 5 Pandecoco",
		"Show",
		"Show Request please",
		"Totals",
		"Pandecoco 10\nCheesebread 30",
	} {
		got := Interpret(in)
		u, ok := got.(Unrecognized)
		if !ok {
			t.Fatalf("Interpret(%q) = %#v; want Unrecognized", in, got)
		}
		if u.Raw != in {
			t.Fatalf("Unrecognized.Raw = %q; want %q", u.Raw, in)
		}
		if got.Kind() != KindUnrecognized {
			t.Fatalf("Kind() = %q", got.Kind())
		}
	}
}

func TestInterpret_IsDeterministic(t *testing.T) {
	inputs := []string{"Add 10 Pandecoco", "Show Request", "Total", "nonsense", "Make Request", "Sold 1 X"}
	for _, in := range inputs {
		a, b := Interpret(in), Interpret(in)
		if diff := cmp.Diff(a, b); diff != "" {
			t.Fatalf("Interpret(%q) not deterministic:\n%s", in, diff)
		}
	}
	bulk := "Pandecoco 10\nCheesebread 30\nbad line"
	if diff := cmp.Diff(InterpretBulk(bulk), InterpretBulk(bulk)); diff != "" {
		t.Fatalf("InterpretBulk not deterministic:\n%s", diff)
	}
}

func TestInterpretBulk(t *testing.T) {
	got := InterpretBulk("Pandecoco 10\r\nCheesebread 30\n\n  Ube Pandesal: 4 \nSpanish bread - 2\nEnsaymada=7\nMonay:3\nnot a line\nCoco bread ten")
	// "Ensaymada=7" has no whitespace and is split on the separator.
	want := BulkUpdate{
		Lines: []BulkUpdateLine{
			{Item: "Pandecoco", Quantity: 10},
			{Item: "Cheesebread", Quantity: 30},
			{Item: "Ube Pandesal", Quantity: 4},
			{Item: "Spanish bread", Quantity: 2},
			{Item: "Ensaymada", Quantity: 7},
			{Item: "Monay", Quantity: 3},
		},
		Rejected: []string{"not a line", "Coco bread ten"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("InterpretBulk mismatch (-want +got):\n%s", diff)
	}
	if got.Kind() != KindBulkUpdate {
		t.Fatalf("Kind() = %q", got.Kind())
	}
}

func TestInterpretBulk_EmptyAndAllInvalid(t *testing.T) {
	if got := InterpretBulk("  \n\n"); len(got.Lines) != 0 || len(got.Rejected) != 0 {
		t.Fatalf("blank message should produce nothing, got %#v", got)
	}
	got := InterpretBulk("Make Request")
	if len(got.Lines) != 0 || len(got.Rejected) != 1 {
		t.Fatalf("expected one rejected line, got %#v", got)
	}
	if got := InterpretBulk(":5"); len(got.Lines) != 0 {
		t.Fatalf("line without item must be rejected, got %#v", got)
	}
}

func TestInterpretBulk_GluedSeparatorOnMultiWordItems(t *testing.T) {
	got := InterpretBulk("Monay:3\nUbe Pandesal:4\nPan de Sal=12\nCheese bread =2\nUbe Pandesal:four\nspaced out:")
	want := BulkUpdate{
		Lines: []BulkUpdateLine{
			{Item: "Monay", Quantity: 3},
			{Item: "Ube Pandesal", Quantity: 4},
			{Item: "Pan de Sal", Quantity: 12},
			{Item: "Cheese bread", Quantity: 2},
		},
		Rejected: []string{"Ube Pandesal:four", "spaced out:"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("InterpretBulk mismatch (-want +got):\n%s", diff)
	}
}

func TestFold(t *testing.T) {
	if Fold("PANDECOCO") != Fold("pandecoco") {
		t.Fatalf("Fold must be case-insensitive")
	}
	if Fold("Straße") != Fold("STRASSE") {
		t.Fatalf("Fold should apply full Unicode case folding")
	}
}

func TestKinds(t *testing.T) {
	cases := []struct {
		c    Command
		want Kind
	}{
		{AddQuantity{}, KindAdd},
		{SoldQuantity{}, KindSold},
		{ShowInventory{}, KindShowInventory},
		{ShowTotal{}, KindShowTotal},
		{BeginBulkUpdate{}, KindBeginBulk},
		{BulkUpdate{}, KindBulkUpdate},
		{BulkUpdateLine{}, KindBulkUpdate},
		{Unrecognized{}, KindUnrecognized},
	}
	for _, tc := range cases {
		if tc.c.Kind() != tc.want {
			t.Fatalf("%T.Kind() = %q; want %q", tc.c, tc.c.Kind(), tc.want)
		}
	}
}
