package ledger

import (
	"fmt"
	"strings"
)

// SoldPolicy decides what happens when a sale exceeds the stock on hand.
type SoldPolicy string

const (
	// AllowNegative lets the quantity go below zero.
	AllowNegative SoldPolicy = "allow_negative"
	// Clamp stops the quantity at zero.
	Clamp SoldPolicy = "clamp"
	// Reject refuses the sale and leaves the row unchanged.
	Reject SoldPolicy = "reject"
)

// ParseSoldPolicy maps a SOLD_POLICY value to a SoldPolicy. Empty means
// AllowNegative.
func ParseSoldPolicy(s string) (SoldPolicy, error) {
	switch p := SoldPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return AllowNegative, nil
	case AllowNegative, Clamp, Reject:
		return p, nil
	default:
		return "", fmt.Errorf("unknown sold policy %q", s)
	}
}

// Apply returns the quantity left after selling delta from current.
// Under Clamp a quantity that is already negative is left as is.
func (p SoldPolicy) Apply(current, delta int) (int, error) {
	next := current - delta
	if next >= 0 {
		return next, nil
	}
	switch p {
	case Clamp:
		return max(next, min(current, 0)), nil
	case Reject:
		return current, ErrInsufficientStock
	default:
		return next, nil
	}
}
