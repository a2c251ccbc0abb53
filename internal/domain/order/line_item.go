package order

import (
	"errors"

	"restaurant-ordering/internal/pkg/money"
)

// MaxQuantity caps a single cart entry.
const MaxQuantity = 999

var (
	ErrNoItems         = errors.New("order must contain at least one item")
	ErrInvalidQuantity = errors.New("quantity must be between 1 and 999")
	ErrMissingMenuItem = errors.New("menu item id is required")
)

type SelectedOption struct {
	OptionGroupID  string
	OptionValueIDs []string
}

// LineItemRequest is one cart entry as submitted by the client.
type LineItemRequest struct {
	MenuItemID      string
	Quantity        int64
	SelectedOptions []SelectedOption
}

func (r LineItemRequest) Validate() error {
	if r.MenuItemID == "" {
		return ErrMissingMenuItem
	}
	if r.Quantity < 1 || r.Quantity > MaxQuantity {
		return ErrInvalidQuantity
	}
	return nil
}

// ValidateRequests rejects an empty cart or any malformed entry.
func ValidateRequests(reqs []LineItemRequest) error {
	if len(reqs) == 0 {
		return ErrNoItems
	}
	for _, r := range reqs {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return nil
}

type OptionSnapshot struct {
	OptionGroupID string `json:"optionGroupId"`
	OptionValueID string `json:"optionValueId"`
	Name          string `json:"name"`
	PriceDelta    int64  `json:"priceDelta"`
}

// ResolvedLineItem is a priced cart entry. Name, description and prices are
// snapshots taken at order time.
type ResolvedLineItem struct {
	MenuItemID          string
	NameSnapshot        string
	DescriptionSnapshot string
	CategoryID          string
	Quantity            int64
	UnitPriceMinor      int64
	OptionsSnapshot     []OptionSnapshot
	TaxRateBasisPoints  int64
}

// Subtotal is unit price × quantity. Items built by the resolver are known
// to fit; use CheckedSubtotal for anything else.
func (l ResolvedLineItem) Subtotal() int64 {
	return l.UnitPriceMinor * l.Quantity
}

func (l ResolvedLineItem) CheckedSubtotal() (int64, error) {
	return money.Mul(l.UnitPriceMinor, l.Quantity)
}

// PersistedLineItem is a resolved item after its orderItem row was written.
type PersistedLineItem struct {
	ResolvedLineItem
	ID string
}

// LineItemResult reports the outcome of persisting one line item. Exactly one
// of OrderItemID and Err is set.
type LineItemResult struct {
	Index       int
	MenuItemID  string
	OrderItemID string
	Err         error
}

func (r LineItemResult) Succeeded() bool {
	return r.Err == nil && r.OrderItemID != ""
}
