//go:build unit

package api_test

import (
	"log/slog"
	"net/http"
	nethttptest "net/http/httptest"
	"testing"
	"time"

	"restaurant-ordering/internal/domain/coupon"
	"restaurant-ordering/internal/domain/kitchen"
	"restaurant-ordering/internal/domain/order"
	"restaurant-ordering/internal/domain/staff"
	"restaurant-ordering/internal/domain/tax"
	"restaurant-ordering/internal/handler"
	"restaurant-ordering/internal/handler/api"
	reqdto "restaurant-ordering/internal/handler/dto/request"
	resdto "restaurant-ordering/internal/handler/dto/response"
	"restaurant-ordering/internal/handler/middleware"
	"restaurant-ordering/internal/infra/notify"
	"restaurant-ordering/internal/pkg/config"
	"restaurant-ordering/internal/pkg/errs"
	"restaurant-ordering/internal/pkg/jwt"
	"restaurant-ordering/internal/usecase"
	"restaurant-ordering/internal/usecase/commands"
	"restaurant-ordering/tests/common/httptest"
	"restaurant-ordering/tests/common/testutil"
	commandsmock "restaurant-ordering/tests/mock/commands"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type OrderHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockCheckoutCommands
	jwtService   *jwt.Service
}

func (s *OrderHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	cfg := config.NewTestConfig()
	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockCheckoutCommands(s.mockCtrl)
	s.jwtService = jwt.NewService(cfg.JWT.Secret, time.Hour)

	logger := middleware.NewLogger(cfg.Log)
	handler.NewRouter(
		s.router,
		cfg,
		logger,
		api.NewOrderHandler(s.mockCommands),
		api.NewKitchenHandler(notify.NewHub(slog.Default()), slog.Default()),
		middleware.NewAuthMiddleware(usecase.NewTokenValidator(s.jwtService)),
		prometheus.NewRegistry(),
	)
}

func (s *OrderHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestOrderHandlerSuite(t *testing.T) {
	suite.Run(t, new(OrderHandlerTestSuite))
}

func (s *OrderHandlerTestSuite) token(role staff.Role) string {
	token, err := s.jwtService.GenerateToken(staff.Principal{ID: "staff-1", TenantID: "tenant-spice", Role: role})
	s.Require().NoError(err)
	return token
}

func sampleOrder(s *OrderHandlerTestSuite, source order.Source) *order.Order {
	o, err := order.NewOrder(order.Params{
		TenantID:   "tenant-spice",
		LocationID: "loc-indiranagar",
		TableID:    "table-4",
		Channel:    order.ChannelDineIn,
		Source:     source,
		Totals: order.Totals{
			Subtotal: 50000,
			Tax:      tax.Breakdown{CGST: 1250, SGST: 1250},
			Discount: 5000,
		},
		CouponID:   "cp-save10",
		CouponCode: "SAVE10",
	}, time.Date(2026, 3, 14, 12, 30, 0, 0, time.UTC))
	s.Require().NoError(err)
	o.SetID("order-1")
	return o
}

func validCreateBody() reqdto.CreateOrderRequest {
	code := "save10"
	return reqdto.CreateOrderRequest{
		Items: []reqdto.LineItem{
			{MenuItemID: "item-paneer", Quantity: 2, Options: []reqdto.SelectedOption{
				{OptionGroupID: "og-extras", OptionValueIDs: []string{"ov-extra-cheese"}},
			}},
		},
		CouponCode:   &code,
		TableContext: &reqdto.TableContext{TableID: "table-4"},
	}
}

func (s *OrderHandlerTestSuite) TestCreateOrder() {
	url := "/api/locations/loc-indiranagar/orders"
	body := validCreateBody()

	s.Run("success: 201 with totals, line items and tickets", func() {
		s.mockCommands.EXPECT().CreateOrder(gomock.Any(), "loc-indiranagar", body).
			Return(&commands.OrderResult{
				Order: sampleOrder(s, order.SourceCustomer),
				LineItems: []order.LineItemResult{
					{Index: 0, MenuItemID: "item-paneer", OrderItemID: "oi-1"},
				},
				Tickets: []kitchen.Ticket{{
					ID: "kt-1", Station: kitchen.StationHot, Status: kitchen.TicketQueued,
					Items: []kitchen.TicketItem{{OrderItemID: "oi-1", MenuItemID: "item-paneer", Name: "Paneer Tikka", Quantity: 2}},
				}},
				Warnings: []string{"item-paneer: option ov-x not found"},
			}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, body, "")

		var resp resdto.CheckoutResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &resp)
		s.Equal("order-1", resp.OrderID)
		s.Equal("placed", resp.Status)
		s.Equal("dine_in", resp.Channel)
		s.Equal(int64(47500), resp.Total)
		s.Equal(int64(1250), resp.CGST)
		s.Equal("SAVE10", resp.CouponCode)
		s.Len(resp.LineItems, 1)
		s.Equal("oi-1", resp.LineItems[0].OrderItemID)
		s.Len(resp.Tickets, 1)
		s.Equal("hot", resp.Tickets[0].Station)
		s.Len(resp.Warnings, 1)
		s.Contains(resp.Timestamps, "placed")
	})

	s.Run("success: rejected coupon is reported as a reason code", func() {
		s.mockCommands.EXPECT().CreateOrder(gomock.Any(), "loc-indiranagar", gomock.Any()).
			Return(&commands.OrderResult{
				Order:        sampleOrder(s, order.SourceCustomer),
				CouponReason: coupon.ErrCouponExpired,
			}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, body, "")

		var resp resdto.CheckoutResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &resp)
		s.Equal("expired", resp.CouponReason)
	})

	s.Run("error: 400 Bad Request on validation errors", func() {
		cases := []struct {
			name   string
			mutate func(m map[string]any)
		}{
			{name: "missing items", mutate: testutil.Field("items", nil)},
			{name: "empty items", mutate: testutil.Field("items", []any{})},
			{name: "zero quantity", mutate: func(m map[string]any) {
				m["items"] = []any{map[string]any{"menuItemId": "item-paneer", "quantity": 0}}
			}},
			{name: "missing menu item id", mutate: func(m map[string]any) {
				m["items"] = []any{map[string]any{"quantity": 1}}
			}},
			{name: "quantity above limit", mutate: func(m map[string]any) {
				m["items"] = []any{map[string]any{"menuItemId": "item-paneer", "quantity": 36893488147419104}}
			}},
			{name: "option without values", mutate: func(m map[string]any) {
				m["items"] = []any{map[string]any{
					"menuItemId": "item-paneer", "quantity": 1,
					"options": []any{map[string]any{"optionGroupId": "og-extras", "optionValueIds": []any{}}},
				}}
			}},
		}
		for _, tc := range cases {
			s.Run(tc.name, func() {
				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, testutil.DtoMap(s.T(), body, tc.mutate), "")
				httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid request")
			})
		}
	})

	s.Run("error: use case failures map to status codes", func() {
		cases := []struct {
			name string
			err  error
			code int
		}{
			{name: "invalid input", err: errs.Wrap(commands.ErrInvalidInput, "bad"), code: http.StatusBadRequest},
			{name: "unknown location", err: commands.ErrLocationNotFound, code: http.StatusNotFound},
			{name: "unknown menu item", err: errs.Mark(errs.New("menu item x not found"), commands.ErrItemNotFound), code: http.StatusNotFound},
			{name: "unknown table", err: commands.ErrTableNotFound, code: http.StatusNotFound},
			{name: "store failure", err: errs.Mark(errs.New("boom"), commands.ErrStoreFailure), code: http.StatusInternalServerError},
		}
		for _, tc := range cases {
			s.Run(tc.name, func() {
				s.mockCommands.EXPECT().CreateOrder(gomock.Any(), "loc-indiranagar", gomock.Any()).
					Return(nil, tc.err).Times(1)
				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, body, "")
				httptest.AssertErrorResponse(s.T(), rec, tc.code, "Create order failed")
			})
		}
	})
}

func (s *OrderHandlerTestSuite) TestCreateTableOrder() {
	url := "/api/staff/locations/loc-indiranagar/orders"
	body := validCreateBody()

	s.Run("success: waiter places an accepted order for their tenant", func() {
		s.mockCommands.EXPECT().CreateTableOrder(gomock.Any(), "tenant-spice", "loc-indiranagar", body).
			Return(&commands.OrderResult{Order: sampleOrder(s, order.SourceStaff)}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, body, s.token(staff.RoleWaiter))

		var resp resdto.CheckoutResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &resp)
		s.Equal("accepted", resp.Status)
		s.Equal("staff", resp.Source)
	})

	s.Run("error: 401 without a token", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, body, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "Access token required")
	})

	s.Run("error: 401 with a bad token", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, body, "not-a-jwt")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "Invalid or expired token")
	})

	s.Run("error: 403 for kitchen staff", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, body, s.token(staff.RoleKitchen))
		httptest.AssertErrorResponse(s.T(), rec, http.StatusForbidden, "Insufficient permissions")
	})

	s.Run("error: 403 when the location belongs to another tenant", func() {
		s.mockCommands.EXPECT().CreateTableOrder(gomock.Any(), "tenant-spice", "loc-indiranagar", body).
			Return(nil, commands.ErrForbidden).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, body, s.token(staff.RoleManager))
		httptest.AssertErrorResponse(s.T(), rec, http.StatusForbidden, "Create order failed")
	})
}

func (s *OrderHandlerTestSuite) TestAddItems() {
	url := "/api/orders/order-1/items"
	body := reqdto.AddItemsRequest{Items: []reqdto.LineItem{{MenuItemID: "item-lassi", Quantity: 1}}}

	s.Run("success: 200 with the new tickets", func() {
		s.mockCommands.EXPECT().AddItems(gomock.Any(), "tenant-spice", "order-1", body).
			Return(&commands.OrderResult{
				Order:   sampleOrder(s, order.SourceStaff),
				Tickets: []kitchen.Ticket{{ID: "kt-2", Station: kitchen.StationBar, Status: kitchen.TicketQueued}},
			}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, body, s.token(staff.RoleWaiter))

		var resp resdto.CheckoutResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &resp)
		s.Len(resp.Tickets, 1)
		s.Equal("bar", resp.Tickets[0].Station)
	})

	s.Run("error: 409 when the order is closed", func() {
		s.mockCommands.EXPECT().AddItems(gomock.Any(), "tenant-spice", "order-1", body).
			Return(nil, errs.Wrap(commands.ErrOrderClosed, "order order-1")).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, body, s.token(staff.RoleWaiter))
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "Add items failed")
	})

	s.Run("error: 404 for an unknown order", func() {
		s.mockCommands.EXPECT().AddItems(gomock.Any(), "tenant-spice", "order-1", body).
			Return(nil, commands.ErrOrderNotFound).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, body, s.token(staff.RoleWaiter))
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Add items failed")
	})
}

func (s *OrderHandlerTestSuite) TestUpdateStatus() {
	url := "/api/orders/order-1/status"
	body := reqdto.UpdateOrderStatusRequest{Status: "in_kitchen"}

	s.Run("success: kitchen staff advance the order", func() {
		o := sampleOrder(s, order.SourceStaff)
		s.Require().NoError(o.TransitionTo(order.StatusInKitchen, time.Date(2026, 3, 14, 12, 35, 0, 0, time.UTC)))
		s.mockCommands.EXPECT().TransitionStatus(gomock.Any(), "tenant-spice", "order-1", body).
			Return(o, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPatch, url, body, s.token(staff.RoleKitchen))

		var resp resdto.OrderResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &resp)
		s.Equal("in_kitchen", resp.Status)
		s.Contains(resp.Timestamps, "inKitchen")
	})

	s.Run("error: 409 on an illegal transition", func() {
		s.mockCommands.EXPECT().TransitionStatus(gomock.Any(), "tenant-spice", "order-1", body).
			Return(nil, commands.ErrIllegalTransition).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPatch, url, body, s.token(staff.RoleKitchen))
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "Status update failed")
	})

	s.Run("error: 400 without a status", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPatch, url, map[string]any{}, s.token(staff.RoleKitchen))
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid request")
	})
}

func (s *OrderHandlerTestSuite) TestGetOrder() {
	s.Run("success: order with items and tickets", func() {
		s.mockCommands.EXPECT().GetOrder(gomock.Any(), "order-1").
			Return(&commands.OrderDetail{
				Order: sampleOrder(s, order.SourceCustomer),
				Items: []order.PersistedLineItem{{
					ID: "oi-1",
					ResolvedLineItem: order.ResolvedLineItem{
						MenuItemID:         "item-paneer",
						NameSnapshot:       "Paneer Tikka",
						Quantity:           2,
						UnitPriceMinor:     28000,
						TaxRateBasisPoints: 500,
						OptionsSnapshot: []order.OptionSnapshot{
							{OptionGroupID: "og-extras", OptionValueID: "ov-extra-cheese", Name: "Extra cheese", PriceDelta: 3000},
						},
					},
				}},
			}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/orders/order-1", nil, "")

		var resp resdto.OrderDetailResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &resp)
		s.Require().Len(resp.Items, 1)
		item := resp.Items[0]
		s.Equal("oi-1", item.ID)
		s.Equal("Paneer Tikka", item.NameSnapshot)
		s.Equal(int64(28000), item.UnitPriceMinor)
		s.Equal(int64(56000), item.LineSubtotal)
		s.Equal(int64(500), item.TaxRateBasisPoints)
		s.Require().Len(item.OptionsSnapshot, 1)
		s.Equal("Extra cheese", item.OptionsSnapshot[0].Name)
	})

	s.Run("error: 404 for an unknown order", func() {
		s.mockCommands.EXPECT().GetOrder(gomock.Any(), "missing").
			Return(nil, commands.ErrOrderNotFound).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/orders/missing", nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Get order failed")
	})
}

func (s *OrderHandlerTestSuite) TestValidateCoupon() {
	url := "/api/locations/loc-indiranagar/coupons/validate"
	body := reqdto.ValidateCouponRequest{Code: "SAVE10", OrderAmount: 60000}

	s.Run("success: valid coupon with its discount", func() {
		s.mockCommands.EXPECT().ValidateCoupon(gomock.Any(), "loc-indiranagar", body).
			Return(&commands.CouponCheck{Valid: true, Discount: 5000, CouponID: "cp-save10", Code: "SAVE10"}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, body, "")

		var resp resdto.CouponValidationResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &resp)
		s.True(resp.Valid)
		s.Equal(int64(5000), resp.DiscountAmount)
		s.Empty(resp.Reason)
	})

	s.Run("success: invalid coupon carries the reason", func() {
		s.mockCommands.EXPECT().ValidateCoupon(gomock.Any(), "loc-indiranagar", body).
			Return(&commands.CouponCheck{Code: "SAVE10", Reason: coupon.ErrBelowMinimumOrder}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, body, "")

		var resp resdto.CouponValidationResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &resp)
		s.False(resp.Valid)
		s.Equal("below_minimum", resp.Reason)
	})

	s.Run("error: 400 on negative amount", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url,
			testutil.DtoMap(s.T(), body, testutil.Field("orderAmount", -1)), "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid request")
	})
}

func (s *OrderHandlerTestSuite) TestHealthAndMetrics() {
	req := nethttptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := nethttptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)
	httptest.AssertHeaders(s.T(), rec, map[string]string{"X-Request-ID": "req-123"})

	rec = httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/metrics", nil, "")
	s.Equal(http.StatusOK, rec.Code)
}
