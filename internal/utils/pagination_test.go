package utils

import "testing"

func TestParsePage(t *testing.T) {
	cases := []struct {
		page, size string
		want       Page
	}{
		{"", "", Page{1, DefaultPageSize}},
		{"3", "50", Page{3, 50}},
		{"0", "0", Page{1, DefaultPageSize}},
		{"-2", "-1", Page{1, DefaultPageSize}},
		{"x", " 42", Page{1, DefaultPageSize}},
		{"2", "1000", Page{2, MaxPageSize}},
		{"999999999999999999999999", "1", Page{1, 1}},
	}
	for _, tc := range cases {
		if got := ParsePage(tc.page, tc.size); got != tc.want {
			t.Fatalf("ParsePage(%q, %q) = %+v; want %+v", tc.page, tc.size, got, tc.want)
		}
	}
}

func TestPage_Arithmetic(t *testing.T) {
	p := NewPage(2, 10)
	if p.Offset() != 10 {
		t.Fatalf("offset = %d", p.Offset())
	}
	for _, tc := range []struct {
		total int64
		pages int
		next  bool
	}{
		{0, 0, false},
		{10, 1, false},
		{20, 2, false},
		{21, 3, true},
	} {
		if got := p.TotalPages(tc.total); got != tc.pages {
			t.Fatalf("TotalPages(%d) = %d; want %d", tc.total, got, tc.pages)
		}
		if got := p.HasNext(tc.total); got != tc.next {
			t.Fatalf("HasNext(%d) = %v; want %v", tc.total, got, tc.next)
		}
	}
}
