// Package tax splits GST on an order into CGST/SGST (intrastate) or IGST
// (interstate). Calculate is pure: it performs no I/O and never logs.
package tax

import (
	"strings"

	"restaurant-ordering/internal/pkg/money"
)

// Line is one taxable line: its pre-tax subtotal and GST rate.
type Line struct {
	SubtotalMinor int64
	RateBps       int64
}

type Breakdown struct {
	CGST int64
	SGST int64
	IGST int64
}

func (b Breakdown) Total() int64 {
	return b.CGST + b.SGST + b.IGST
}

func (b Breakdown) Add(other Breakdown) Breakdown {
	return Breakdown{
		CGST: b.CGST + other.CGST,
		SGST: b.SGST + other.SGST,
		IGST: b.IGST + other.IGST,
	}
}

// IsIntrastate compares two state codes ignoring case and surrounding space.
func IsIntrastate(destinationState, originState string) bool {
	return normalizeState(destinationState) == normalizeState(originState)
}

// Calculate taxes every line at round-half-up(subtotal × rate / 10000) and
// splits the sum. Intrastate sums are halved into CGST and SGST with the odd
// minor unit going to CGST; interstate sums are all IGST.
func Calculate(lines []Line, destinationState, originState string) Breakdown {
	var sum int64
	for _, l := range lines {
		sum += money.ApplyRate(l.SubtotalMinor, l.RateBps)
	}
	if sum == 0 {
		return Breakdown{}
	}

	if IsIntrastate(destinationState, originState) {
		sgst := sum / 2
		return Breakdown{CGST: sum - sgst, SGST: sgst}
	}
	return Breakdown{IGST: sum}
}

func normalizeState(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
