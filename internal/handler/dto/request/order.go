package request

import (
	"strings"

	"restaurant-ordering/internal/domain/order"
)

type SelectedOption struct {
	OptionGroupID  string   `json:"optionGroupId"`
	OptionValueIDs []string `json:"optionValueIds" binding:"required,min=1"`
}

type LineItem struct {
	MenuItemID string           `json:"menuItemId" binding:"required"`
	Quantity   int64            `json:"quantity" binding:"required,min=1,max=999"`
	Options    []SelectedOption `json:"options,omitempty" binding:"omitempty,dive"`
}

type TableContext struct {
	TableID string `json:"tableId" binding:"required"`
}

type CreateOrderRequest struct {
	Items        []LineItem    `json:"items" binding:"required,min=1,dive"`
	CouponCode   *string       `json:"couponCode,omitempty"`
	TableContext *TableContext `json:"tableContext,omitempty"`
}

func (r CreateOrderRequest) GetCouponCode() string {
	if r.CouponCode == nil {
		return ""
	}
	return strings.TrimSpace(*r.CouponCode)
}

func (r CreateOrderRequest) GetTableID() string {
	if r.TableContext == nil {
		return ""
	}
	return strings.TrimSpace(r.TableContext.TableID)
}

func (r CreateOrderRequest) ToLineItems() []order.LineItemRequest {
	return toLineItems(r.Items)
}

type AddItemsRequest struct {
	Items []LineItem `json:"items" binding:"required,min=1,dive"`
}

func (r AddItemsRequest) ToLineItems() []order.LineItemRequest {
	return toLineItems(r.Items)
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type ValidateCouponRequest struct {
	Code        string `json:"code" binding:"required"`
	OrderAmount int64  `json:"orderAmount" binding:"min=0"`
}

func toLineItems(items []LineItem) []order.LineItemRequest {
	out := make([]order.LineItemRequest, len(items))
	for i, it := range items {
		opts := make([]order.SelectedOption, 0, len(it.Options))
		for _, o := range it.Options {
			opts = append(opts, order.SelectedOption{
				OptionGroupID:  o.OptionGroupID,
				OptionValueIDs: o.OptionValueIDs,
			})
		}
		out[i] = order.LineItemRequest{
			MenuItemID:      strings.TrimSpace(it.MenuItemID),
			Quantity:        it.Quantity,
			SelectedOptions: opts,
		}
	}
	return out
}
