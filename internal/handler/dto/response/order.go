package response

import (
	"time"

	"restaurant-ordering/internal/domain/kitchen"
	"restaurant-ordering/internal/domain/order"
	"restaurant-ordering/internal/usecase/commands"

	"github.com/jinzhu/copier"
)

type OrderResponse struct {
	OrderID        string               `json:"orderId"`
	TenantID       string               `json:"tenantId"`
	LocationID     string               `json:"locationId"`
	TableID        string               `json:"tableId,omitempty"`
	Channel        string               `json:"channel"`
	Source         string               `json:"source"`
	Status         string               `json:"status"`
	Subtotal       int64                `json:"subtotal"`
	CGST           int64                `json:"cgst"`
	SGST           int64                `json:"sgst"`
	IGST           int64                `json:"igst"`
	DiscountAmount int64                `json:"discountAmount"`
	Total          int64                `json:"total"`
	CouponID       string               `json:"couponId,omitempty"`
	CouponCode     string               `json:"couponCode,omitempty"`
	Timestamps     map[string]time.Time `json:"timestamps"`
}

type OptionResponse struct {
	OptionGroupID string `json:"optionGroupId"`
	OptionValueID string `json:"optionValueId"`
	Name          string `json:"name"`
	PriceDelta    int64  `json:"priceDelta"`
}

type LineItemResultResponse struct {
	Index       int    `json:"index"`
	MenuItemID  string `json:"menuItemId"`
	OrderItemID string `json:"orderItemId,omitempty"`
	Error       string `json:"error,omitempty"`
}

type TicketItemResponse struct {
	OrderItemID string           `json:"orderItemId"`
	MenuItemID  string           `json:"menuItemId"`
	Name        string           `json:"name"`
	Quantity    int64            `json:"quantity"`
	Options     []OptionResponse `json:"options,omitempty"`
}

type TicketResponse struct {
	ID       string               `json:"id"`
	Station  string               `json:"station"`
	Status   string               `json:"status"`
	Priority bool                 `json:"priority"`
	Items    []TicketItemResponse `json:"items"`
}

// CheckoutResponse answers order creation and item additions.
type CheckoutResponse struct {
	OrderResponse
	LineItems    []LineItemResultResponse `json:"lineItems"`
	Tickets      []TicketResponse         `json:"tickets"`
	Warnings     []string                 `json:"warnings,omitempty"`
	CouponReason string                   `json:"couponReason,omitempty"`
}

type OrderItemResponse struct {
	ID                  string           `json:"id"`
	MenuItemID          string           `json:"menuItemId"`
	NameSnapshot        string           `json:"name"`
	DescriptionSnapshot string           `json:"description,omitempty"`
	CategoryID          string           `json:"categoryId,omitempty"`
	Quantity            int64            `json:"quantity"`
	UnitPriceMinor      int64            `json:"unitPrice"`
	LineSubtotal        int64            `json:"lineSubtotal"`
	TaxRateBasisPoints  int64            `json:"taxRateBps"`
	OptionsSnapshot     []OptionResponse `json:"options"`
}

type OrderDetailResponse struct {
	OrderResponse
	Items   []OrderItemResponse `json:"items"`
	Tickets []TicketResponse    `json:"tickets"`
}

type CouponValidationResponse struct {
	Valid          bool   `json:"valid"`
	DiscountAmount int64  `json:"discountAmount"`
	CouponID       string `json:"couponId,omitempty"`
	Code           string `json:"code,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

func FromOrder(o *order.Order) OrderResponse {
	t := o.Totals()
	return OrderResponse{
		OrderID:        o.ID(),
		TenantID:       o.TenantID(),
		LocationID:     o.LocationID(),
		TableID:        o.TableID(),
		Channel:        o.Channel().String(),
		Source:         o.Source().String(),
		Status:         o.Status().String(),
		Subtotal:       t.Subtotal,
		CGST:           t.Tax.CGST,
		SGST:           t.Tax.SGST,
		IGST:           t.Tax.IGST,
		DiscountAmount: t.Discount,
		Total:          o.Total(),
		CouponID:       o.CouponID(),
		CouponCode:     o.CouponCode(),
		Timestamps:     o.Timestamps(),
	}
}

func FromOrderResult(res *commands.OrderResult) *CheckoutResponse {
	resp := &CheckoutResponse{
		OrderResponse: FromOrder(res.Order),
		LineItems:     make([]LineItemResultResponse, len(res.LineItems)),
		Tickets:       FromTickets(res.Tickets),
		Warnings:      res.Warnings,
		CouponReason:  commands.CouponReasonCode(res.CouponReason),
	}
	for i, li := range res.LineItems {
		resp.LineItems[i] = LineItemResultResponse{
			Index:       li.Index,
			MenuItemID:  li.MenuItemID,
			OrderItemID: li.OrderItemID,
		}
		if li.Err != nil {
			resp.LineItems[i].Error = "failed to save line item"
		}
	}
	return resp
}

func FromOrderDetail(d *commands.OrderDetail) (*OrderDetailResponse, error) {
	resp := &OrderDetailResponse{
		OrderResponse: FromOrder(d.Order),
		Items:         make([]OrderItemResponse, len(d.Items)),
		Tickets:       FromTickets(d.Tickets),
	}
	for i, item := range d.Items {
		if err := copier.Copy(&resp.Items[i], &item.ResolvedLineItem); err != nil {
			return nil, err
		}
		resp.Items[i].ID = item.ID
		resp.Items[i].LineSubtotal = item.Subtotal()
		if resp.Items[i].OptionsSnapshot == nil {
			resp.Items[i].OptionsSnapshot = []OptionResponse{}
		}
	}
	return resp, nil
}

func FromTickets(tickets []kitchen.Ticket) []TicketResponse {
	out := make([]TicketResponse, len(tickets))
	for i, t := range tickets {
		out[i] = TicketResponse{
			ID:       t.ID,
			Station:  t.Station.String(),
			Status:   string(t.Status),
			Priority: t.Priority,
			Items:    make([]TicketItemResponse, len(t.Items)),
		}
		for j, it := range t.Items {
			out[i].Items[j] = TicketItemResponse{
				OrderItemID: it.OrderItemID,
				MenuItemID:  it.MenuItemID,
				Name:        it.Name,
				Quantity:    it.Quantity,
			}
			_ = copier.Copy(&out[i].Items[j].Options, &it.Options)
		}
	}
	return out
}

func FromCouponCheck(c *commands.CouponCheck) *CouponValidationResponse {
	return &CouponValidationResponse{
		Valid:          c.Valid,
		DiscountAmount: c.Discount,
		CouponID:       c.CouponID,
		Code:           c.Code,
		Reason:         commands.CouponReasonCode(c.Reason),
	}
}
