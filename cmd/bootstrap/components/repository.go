package components

import (
	"restaurant-ordering/internal/infra/repository"
	"restaurant-ordering/internal/usecase/commands"

	"go.uber.org/fx"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		fx.Annotate(
			repository.NewLocationRepository,
			fx.As(new(commands.LocationReader)),
		),
		fx.Annotate(
			repository.NewMenuRepository,
			fx.As(new(commands.MenuReader)),
		),
		fx.Annotate(
			repository.NewCouponRepository,
			fx.As(new(commands.CouponRepository)),
		),
		fx.Annotate(
			repository.NewOrderRepository,
			fx.As(new(commands.OrderRepository)),
		),
		fx.Annotate(
			repository.NewOrderItemRepository,
			fx.As(new(commands.OrderItemRepository)),
		),
		fx.Annotate(
			repository.NewTicketRepository,
			fx.As(new(commands.TicketRepository)),
		),
	),
)
