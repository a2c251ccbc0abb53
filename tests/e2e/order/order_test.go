//go:build e2e

package order_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"restaurant-ordering/internal/handler/dto/request"
	"restaurant-ordering/internal/handler/dto/response"
	"restaurant-ordering/internal/pkg/patch"
	"restaurant-ordering/tests/common/httptest"
	"restaurant-ordering/tests/e2e"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	ordersURL      = "/api/locations/%s/orders"
	staffOrdersURL = "/api/staff/locations/%s/orders"
	orderURL       = "/api/orders/%s"
	itemsURL       = "/api/orders/%s/items"
	statusURL      = "/api/orders/%s/status"
)

type OrderSuite struct {
	e2e.SharedSuite
}

func (s *OrderSuite) SetupSubTest() {
	s.SharedSuite.SetupSubTest()
}

func TestOrderSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(OrderSuite))
}

func (s *OrderSuite) placeOrder(locationID string, req request.CreateOrderRequest) response.CheckoutResponse {
	t := s.T()
	w := httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(ordersURL, locationID), req, "")
	var resp response.CheckoutResponse
	httptest.AssertSuccessResponse(t, w, http.StatusCreated, &resp)
	return resp
}

func (s *OrderSuite) TestCreateOrder() {
	s.Run("Normal case: intrastate order with coupon is priced, stored and routed", func() {
		t := s.T()

		resp := s.placeOrder(e2e.LocationID, request.CreateOrderRequest{
			Items: []request.LineItem{
				{MenuItemID: e2e.PaneerID, Quantity: 2, Options: []request.SelectedOption{
					{OptionGroupID: "og-toppings", OptionValueIDs: []string{e2e.CheeseID}},
				}},
				{MenuItemID: e2e.LassiID, Quantity: 1},
			},
			CouponCode:   patch.Ptr("save10"),
			TableContext: &request.TableContext{TableID: e2e.TableID},
		})

		// paneer 2 x 28000 at 5%, lassi 12000 at 12%
		require.Equal(t, int64(68000), resp.Subtotal)
		require.Equal(t, int64(2120), resp.CGST)
		require.Equal(t, int64(2120), resp.SGST)
		require.Zero(t, resp.IGST)
		require.Equal(t, int64(5000), resp.DiscountAmount)
		require.Equal(t, int64(67240), resp.Total)
		require.Equal(t, "placed", resp.Status)
		require.Equal(t, "dine_in", resp.Channel)

		stations := make([]string, 0, len(resp.Tickets))
		for _, tk := range resp.Tickets {
			stations = append(stations, tk.Station)
		}
		if diff := cmp.Diff([]string{"bar", "hot"}, stations, cmpopts.SortSlices(func(a, b string) bool { return a < b })); diff != "" {
			t.Errorf("ticket stations mismatch (-want +got):\n%s", diff)
		}

		w := httptest.PerformRequest(t, s.Router, http.MethodGet, fmt.Sprintf(orderURL, resp.OrderID), nil, "")
		var detail response.OrderDetailResponse
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &detail)
		require.Equal(t, resp.Total, detail.Total)
		require.Equal(t, "SAVE10", detail.CouponCode)
		require.Len(t, detail.Items, 2)
		require.Len(t, detail.Tickets, 2)
	})

	s.Run("Normal case: interstate order is taxed as IGST", func() {
		t := s.T()

		resp := s.placeOrder(e2e.InterstateLocID, request.CreateOrderRequest{
			Items: []request.LineItem{{MenuItemID: e2e.KulfiID, Quantity: 2}},
		})

		require.Equal(t, int64(18000), resp.Subtotal)
		require.Zero(t, resp.CGST)
		require.Equal(t, int64(900), resp.IGST)
		require.Equal(t, "pickup", resp.Channel)
	})

	s.Run("Error case: unknown menu item writes nothing", func() {
		t := s.T()

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(ordersURL, e2e.LocationID),
			request.CreateOrderRequest{Items: []request.LineItem{{MenuItemID: "mi-missing", Quantity: 1}}}, "")
		httptest.AssertErrorResponse(t, w, http.StatusNotFound, "Create order failed")

		var count int
		require.NoError(t, s.DB.QueryRow(t.Context(), "SELECT count(*) FROM records WHERE collection = 'orders'").Scan(&count))
		require.Zero(t, count)
	})

	s.Run("Concurrency: a single-use coupon is redeemed once", func() {
		t := s.T()

		const n = 5
		var wg sync.WaitGroup
		discounts := make([]int64, n)
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				w := httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(ordersURL, e2e.LocationID),
					request.CreateOrderRequest{
						Items:      []request.LineItem{{MenuItemID: e2e.PaneerID, Quantity: 1}},
						CouponCode: patch.Ptr("ONCE"),
					}, "")
				var resp response.CheckoutResponse
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err == nil {
					discounts[i] = resp.DiscountAmount
				}
			}()
		}
		wg.Wait()

		applied := 0
		for _, d := range discounts {
			if d > 0 {
				applied++
			}
		}
		require.Equal(t, 1, applied)
	})
}

func (s *OrderSuite) TestStaffFlow() {
	s.Run("Normal case: waiter order starts accepted and takes more items", func() {
		t := s.T()
		token := s.StaffToken("staff-1", e2e.TenantID, "waiter")

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(staffOrdersURL, e2e.LocationID),
			request.CreateOrderRequest{
				Items:        []request.LineItem{{MenuItemID: e2e.PaneerID, Quantity: 1}},
				TableContext: &request.TableContext{TableID: e2e.TableID},
			}, token)
		var created response.CheckoutResponse
		httptest.AssertSuccessResponse(t, w, http.StatusCreated, &created)
		require.Equal(t, "accepted", created.Status)

		w = httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(itemsURL, created.OrderID),
			request.AddItemsRequest{Items: []request.LineItem{{MenuItemID: e2e.LassiID, Quantity: 1}}}, token)
		var added response.CheckoutResponse
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &added)
		require.Equal(t, int64(37000), added.Subtotal)
		require.Len(t, added.Tickets, 1)
		require.Equal(t, "bar", added.Tickets[0].Station)

		kitchenToken := s.StaffToken("staff-2", e2e.TenantID, "kitchen")
		w = httptest.PerformRequest(t, s.Router, http.MethodPatch, fmt.Sprintf(statusURL, created.OrderID),
			request.UpdateOrderStatusRequest{Status: "in_kitchen"}, kitchenToken)
		var updated response.OrderResponse
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &updated)
		require.Equal(t, "in_kitchen", updated.Status)

		w = httptest.PerformRequest(t, s.Router, http.MethodPatch, fmt.Sprintf(statusURL, created.OrderID),
			request.UpdateOrderStatusRequest{Status: "served"}, kitchenToken)
		httptest.AssertErrorResponse(t, w, http.StatusConflict, "Status update failed")
	})

	s.Run("Error case: other tenant's staff are refused", func() {
		t := s.T()
		token := s.StaffToken("staff-9", "tenant-other", "manager")

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(staffOrdersURL, e2e.LocationID),
			request.CreateOrderRequest{
				Items:        []request.LineItem{{MenuItemID: e2e.PaneerID, Quantity: 1}},
				TableContext: &request.TableContext{TableID: e2e.TableID},
			}, token)
		httptest.AssertErrorResponse(t, w, http.StatusForbidden, "Create order failed")
	})
}
