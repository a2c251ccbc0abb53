package api

import (
	"net/http"

	reqdto "restaurant-ordering/internal/handler/dto/request"
	resdto "restaurant-ordering/internal/handler/dto/response"
	"restaurant-ordering/internal/handler/httperr"
	"restaurant-ordering/internal/handler/middleware"
	"restaurant-ordering/internal/infra"
	"restaurant-ordering/internal/pkg/errs"
	"restaurant-ordering/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

var errUnauthorized = httperr.NewError("staff principal missing")

type OrderHandler struct {
	cmds commands.CheckoutCommands
}

func NewOrderHandler(cmds commands.CheckoutCommands) *OrderHandler {
	return &OrderHandler{cmds: cmds}
}

// @Summary Place order
// @Description Customer checkout: resolves items, applies tax and an optional coupon, writes the order and routes kitchen tickets
// @Tags orders
// @Accept json
// @Produce json
// @Param locationId path string true "Location ID"
// @Param request body reqdto.CreateOrderRequest true "Create order request"
// @Success 201 {object} resdto.CheckoutResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 500 {object} httperr.Response
// @Router /locations/{locationId}/orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req reqdto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}

	result, err := h.cmds.CreateOrder(c.Request.Context(), c.Param("locationId"), req)
	if err != nil {
		abortWithCheckoutError(c, err, "Create order failed")
		return
	}
	c.JSON(http.StatusCreated, resdto.FromOrderResult(result))
}

// @Summary Place table order
// @Description Staff checkout for a table; the order starts accepted
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param locationId path string true "Location ID"
// @Param request body reqdto.CreateOrderRequest true "Create order request"
// @Success 201 {object} resdto.CheckoutResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /staff/locations/{locationId}/orders [post]
func (h *OrderHandler) CreateTableOrder(c *gin.Context) {
	principal, ok := middleware.GetStaff(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errUnauthorized, "Unauthorized", nil)
		return
	}
	var req reqdto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}

	result, err := h.cmds.CreateTableOrder(c.Request.Context(), principal.TenantID, c.Param("locationId"), req)
	if err != nil {
		abortWithCheckoutError(c, err, "Create order failed")
		return
	}
	c.JSON(http.StatusCreated, resdto.FromOrderResult(result))
}

// @Summary Add items
// @Description Append items to an open order and route tickets for the new items only
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Param request body reqdto.AddItemsRequest true "Add items request"
// @Success 200 {object} resdto.CheckoutResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /orders/{id}/items [post]
func (h *OrderHandler) AddItems(c *gin.Context) {
	principal, ok := middleware.GetStaff(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errUnauthorized, "Unauthorized", nil)
		return
	}
	var req reqdto.AddItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}

	result, err := h.cmds.AddItems(c.Request.Context(), principal.TenantID, c.Param("id"), req)
	if err != nil {
		abortWithCheckoutError(c, err, "Add items failed")
		return
	}
	c.JSON(http.StatusOK, resdto.FromOrderResult(result))
}

// @Summary Update order status
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Param request body reqdto.UpdateOrderStatusRequest true "Status update"
// @Success 200 {object} resdto.OrderResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /orders/{id}/status [patch]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	principal, ok := middleware.GetStaff(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errUnauthorized, "Unauthorized", nil)
		return
	}
	var req reqdto.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}

	o, err := h.cmds.TransitionStatus(c.Request.Context(), principal.TenantID, c.Param("id"), req)
	if err != nil {
		abortWithCheckoutError(c, err, "Status update failed")
		return
	}
	c.JSON(http.StatusOK, resdto.FromOrder(o))
}

// @Summary Get order
// @Description Order with its line items and kitchen tickets
// @Tags orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} resdto.OrderDetailResponse
// @Failure 404 {object} httperr.Response
// @Router /orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	detail, err := h.cmds.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithCheckoutError(c, err, "Get order failed")
		return
	}
	resp, err := resdto.FromOrderDetail(detail)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to render order", nil)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Validate coupon
// @Description Checks a code against an order amount without redeeming it
// @Tags coupons
// @Accept json
// @Produce json
// @Param locationId path string true "Location ID"
// @Param request body reqdto.ValidateCouponRequest true "Coupon check"
// @Success 200 {object} resdto.CouponValidationResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /locations/{locationId}/coupons/validate [post]
func (h *OrderHandler) ValidateCoupon(c *gin.Context) {
	var req reqdto.ValidateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}

	check, err := h.cmds.ValidateCoupon(c.Request.Context(), c.Param("locationId"), req)
	if err != nil {
		abortWithCheckoutError(c, err, "Coupon validation failed")
		return
	}
	c.JSON(http.StatusOK, resdto.FromCouponCheck(check))
}

func abortWithCheckoutError(c *gin.Context, err error, msg string) {
	switch {
	case errs.Is(err, commands.ErrInvalidInput):
		httperr.AbortWithError(c, http.StatusBadRequest, err, msg, err.Error())
	case errs.Is(err, commands.ErrLocationNotFound),
		errs.Is(err, commands.ErrTenantNotFound),
		errs.Is(err, commands.ErrTableNotFound),
		errs.Is(err, commands.ErrItemNotFound),
		errs.Is(err, commands.ErrOrderNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, msg, err.Error())
	case errs.Is(err, commands.ErrForbidden):
		httperr.AbortWithError(c, http.StatusForbidden, err, msg, nil)
	case errs.Is(err, commands.ErrOrderClosed),
		errs.Is(err, commands.ErrIllegalTransition):
		httperr.AbortWithError(c, http.StatusConflict, err, msg, err.Error())
	default:
		var details any
		if d := infra.DetailsOf(err); d != "" {
			details = d
		}
		httperr.AbortWithError(c, http.StatusInternalServerError, err, msg, details)
	}
}
