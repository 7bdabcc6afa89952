// Package utils holds small helpers shared by the HTTP and service layers.
package utils

import "strconv"

// Paging bounds for list endpoints.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is a normalized 1-based page request.
type Page struct {
	Number int
	Size   int
}

// ParsePage reads raw page and size query values. Missing or malformed
// values take the defaults; the size is clamped to [1, MaxPageSize].
func ParsePage(rawPage, rawSize string) Page {
	return NewPage(atoiOr(rawPage, 1), atoiOr(rawSize, DefaultPageSize))
}

// NewPage clamps number and size. A size of zero or less means the default.
func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	switch {
	case size <= 0:
		size = DefaultPageSize
	case size > MaxPageSize:
		size = MaxPageSize
	}
	return Page{Number: number, Size: size}
}

// Offset is the number of rows to skip.
func (p Page) Offset() int { return (p.Number - 1) * p.Size }

// TotalPages is ceil(total/size).
func (p Page) TotalPages(total int64) int {
	return int((total + int64(p.Size) - 1) / int64(p.Size))
}

// HasNext reports whether another page follows for total rows.
func (p Page) HasNext(total int64) bool { return p.Number < p.TotalPages(total) }

func atoiOr(s string, def int) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
