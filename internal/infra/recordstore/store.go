// Package recordstore is the client side of the shared document store the
// ordering pipeline reads menus from and writes orders to.
package recordstore

import "context"

// Collections used by the ordering pipeline.
const (
	CollectionTenant       = "tenant"
	CollectionLocation     = "location"
	CollectionTable        = "diningTable"
	CollectionMenuCategory = "menuCategory"
	CollectionMenuItem     = "menuItem"
	CollectionOptionValue  = "optionValue"
	CollectionCoupon       = "coupon"
	CollectionOrders       = "orders"
	CollectionOrderItem    = "orderItem"
	CollectionKDSTicket    = "kdsTicket"
)

// Store is the minimal record-store contract.
type Store interface {
	Get(ctx context.Context, collection, id string) (Record, error)
	List(ctx context.Context, collection string, opts ListOptions) (*Page, error)
	Create(ctx context.Context, collection string, fields Record) (Record, error)
	Update(ctx context.Context, collection, id string, fields Record) (Record, error)
}

// MutateFunc receives the current record and returns the fields to write.
// Returning an error aborts the mutation without writing.
type MutateFunc func(current Record) (Record, error)

// Mutator is implemented by stores that can apply a read-modify-write
// atomically with respect to other Mutate calls on the same record.
// fn must not call back into the store.
type Mutator interface {
	Mutate(ctx context.Context, collection, id string, fn MutateFunc) (Record, error)
}

// Cond is an equality condition. For relation fields stored as arrays it
// matches when any element equals Value.
type Cond struct {
	Field string
	Value any
}

func Eq(field string, value any) Cond {
	return Cond{Field: field, Value: value}
}

type ListOptions struct {
	Filter  []Cond
	Sort    string // field name, "-" prefix for descending
	Page    int    // 1-based
	PerPage int
}

const (
	DefaultPerPage = 30
	MaxPerPage     = 500
)

func (o ListOptions) normalized() ListOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.PerPage < 1 {
		o.PerPage = DefaultPerPage
	}
	if o.PerPage > MaxPerPage {
		o.PerPage = MaxPerPage
	}
	return o
}

type Page struct {
	Items      []Record
	Page       int
	PerPage    int
	TotalItems int
}

// First lists with PerPage 1 and returns the first match, or nil.
func First(ctx context.Context, s Store, collection string, opts ListOptions) (Record, error) {
	opts.Page = 1
	opts.PerPage = 1
	page, err := s.List(ctx, collection, opts)
	if err != nil {
		return nil, err
	}
	if len(page.Items) == 0 {
		return nil, nil
	}
	return page.Items[0], nil
}
