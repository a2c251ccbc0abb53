package coupon

import (
	"errors"
	"strings"

	"restaurant-ordering/internal/pkg/money"
)

var (
	ErrInvalidCouponCode      = errors.New("invalid coupon code")
	ErrInvalidDiscountType    = errors.New("invalid discount type")
	ErrInvalidDiscountAmount  = errors.New("discount amount cannot be negative")
	ErrInvalidDiscountPercent = errors.New("percentage discount must be between 0 and 10000 basis points")
)

type Code string

// NewCouponCode trims and upper-cases raw input; codes are stored upper-cased.
func NewCouponCode(code string) (Code, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return Code(""), ErrInvalidCouponCode
	}
	return Code(code), nil
}

func (c Code) String() string {
	return string(c)
}

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

func ParseDiscountType(s string) (DiscountType, error) {
	switch DiscountType(strings.ToLower(strings.TrimSpace(s))) {
	case DiscountPercentage:
		return DiscountPercentage, nil
	case DiscountFixed:
		return DiscountFixed, nil
	default:
		return "", ErrInvalidDiscountType
	}
}

// Discount is either a percentage in basis points or a fixed minor-unit amount.
type Discount struct {
	kind        DiscountType
	value       int64
	maxDiscount *int64
}

func NewFixedDiscount(amountMinor int64) (Discount, error) {
	if amountMinor < 0 {
		return Discount{}, ErrInvalidDiscountAmount
	}
	return Discount{kind: DiscountFixed, value: amountMinor}, nil
}

// NewPercentageDiscount takes the rate in basis points and an optional cap.
func NewPercentageDiscount(bp int64, maxDiscountMinor *int64) (Discount, error) {
	if bp < 0 || bp > money.BasisPointsScale {
		return Discount{}, ErrInvalidDiscountPercent
	}
	if maxDiscountMinor != nil && *maxDiscountMinor < 0 {
		return Discount{}, ErrInvalidDiscountAmount
	}
	return Discount{kind: DiscountPercentage, value: bp, maxDiscount: maxDiscountMinor}, nil
}

func NewDiscount(kind DiscountType, value int64, maxDiscountMinor *int64) (Discount, error) {
	switch kind {
	case DiscountPercentage:
		return NewPercentageDiscount(value, maxDiscountMinor)
	case DiscountFixed:
		return NewFixedDiscount(value)
	default:
		return Discount{}, ErrInvalidDiscountType
	}
}

func (d Discount) Kind() DiscountType { return d.kind }
func (d Discount) Value() int64       { return d.value }
func (d Discount) MaxDiscount() *int64 {
	return d.maxDiscount
}

func (d Discount) IsPercentage() bool {
	return d.kind == DiscountPercentage
}

// AmountFor returns the discount on orderAmount. It never exceeds orderAmount.
func (d Discount) AmountFor(orderAmount int64) int64 {
	if orderAmount <= 0 {
		return 0
	}

	var amount int64
	if d.IsPercentage() {
		amount = money.ApplyRate(orderAmount, d.value)
		if d.maxDiscount != nil && *d.maxDiscount > 0 {
			amount = money.Min(amount, *d.maxDiscount)
		}
	} else {
		amount = d.value
	}

	return money.Min(money.NonNegative(amount), orderAmount)
}
