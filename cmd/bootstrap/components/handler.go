package components

import (
	"restaurant-ordering/internal/handler"
	"restaurant-ordering/internal/handler/api"
	"restaurant-ordering/internal/handler/middleware"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewOrderHandler,
		api.NewKitchenHandler,
		middleware.NewAuthMiddleware,
	),
	fx.Invoke(handler.NewRouter),
)
