package api

import (
	"log/slog"

	"restaurant-ordering/internal/infra/notify"

	"github.com/gin-gonic/gin"
)

type KitchenHandler struct {
	hub    *notify.Hub
	logger *slog.Logger
}

func NewKitchenHandler(hub *notify.Hub, logger *slog.Logger) *KitchenHandler {
	return &KitchenHandler{hub: hub, logger: logger}
}

// @Summary Kitchen display stream
// @Description Upgrades to a websocket that receives kitchen.ticket.created events for one location
// @Tags kitchen
// @Param locationId path string true "Location ID"
// @Router /ws/locations/{locationId}/kitchen [get]
func (h *KitchenHandler) Stream(c *gin.Context) {
	locationID := c.Param("locationId")
	// the upgrader has already written a response on failure
	if err := h.hub.ServeWS(c.Writer, c.Request, locationID); err != nil {
		h.logger.Warn("kitchen stream not opened", "location_id", locationID, "error", err)
	}
}
