package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"restaurant-ordering/internal/domain/staff"
	"restaurant-ordering/internal/handler/api"
	"restaurant-ordering/internal/handler/middleware"
	"restaurant-ordering/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

func NewRouter(
	engine *gin.Engine,
	cfg config.Config,
	logger *middleware.Logger,
	orderHandler *api.OrderHandler,
	kitchenHandler *api.KitchenHandler,
	authMiddleware *middleware.AuthMiddleware,
	gatherer prometheus.Gatherer,
) {
	setupMiddleware(engine, cfg, logger)
	setupRoutes(engine, orderHandler, kitchenHandler, authMiddleware, gatherer)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config, logger *middleware.Logger) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(logger.LoggingMiddleware())
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(
	engine *gin.Engine,
	orderHandler *api.OrderHandler,
	kitchenHandler *api.KitchenHandler,
	authMiddleware *middleware.AuthMiddleware,
	gatherer prometheus.Gatherer,
) {
	engine.GET("/health", healthCheck)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	engine.GET("/ws/locations/:locationId/kitchen", kitchenHandler.Stream)

	apiGroup := engine.Group("/api")
	{
		locations := apiGroup.Group("/locations/:locationId")
		addRoutes(locations, []route{
			{Method: http.MethodPost, Path: "/orders", Handler: orderHandler.CreateOrder},
			{Method: http.MethodPost, Path: "/coupons/validate", Handler: orderHandler.ValidateCoupon},
		})

		orders := apiGroup.Group("/orders")
		addRoutes(orders, []route{
			{Method: http.MethodGet, Path: "/:id", Handler: orderHandler.GetOrder},
		})

		ordersAuth := orders.Group("")
		ordersAuth.Use(authMiddleware.RequireAuth())
		addRoutes(ordersAuth, []route{
			{Method: http.MethodPost, Path: "/:id/items", Handler: orderHandler.AddItems,
				Mw: []gin.HandlerFunc{authMiddleware.RequireRoleAtLeast(staff.RoleWaiter)}},
			{Method: http.MethodPatch, Path: "/:id/status", Handler: orderHandler.UpdateStatus,
				Mw: []gin.HandlerFunc{authMiddleware.RequireRoleAtLeast(staff.RoleKitchen)}},
		})

		staffGroup := apiGroup.Group("/staff")
		staffGroup.Use(authMiddleware.RequireAuth())
		addRoutes(staffGroup, []route{
			{Method: http.MethodPost, Path: "/locations/:locationId/orders", Handler: orderHandler.CreateTableOrder,
				Mw: []gin.HandlerFunc{authMiddleware.RequireRoleAtLeast(staff.RoleWaiter)}},
		})
	}
}

// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
