package components

import (
	"log/slog"

	"restaurant-ordering/internal/domain/kitchen"
	"restaurant-ordering/internal/pkg/clock"
	"restaurant-ordering/internal/pkg/config"
	"restaurant-ordering/internal/usecase"
	"restaurant-ordering/internal/usecase/commands"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseValidatorsModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	fx.Annotate(
		NewStationTable,
		fx.As(new(commands.StationClassifier)),
	),
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		NewLineItemResolver,
		commands.NewCouponApplier,
		commands.NewOrderAssembler,
		commands.NewTicketRouter,
		commands.NewCheckoutUseCase,
	),
)

var usecaseValidatorsModule = fx.Module("usecase/validators",
	fx.Provide(
		usecase.NewTokenValidator,
	),
)

func NewStationTable(cfg config.Config, logger *slog.Logger) (*kitchen.Table, error) {
	table, err := kitchen.LoadTable(cfg.Kitchen.StationTablePath)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded kitchen station table", "version", table.Version(), "path", cfg.Kitchen.StationTablePath)
	return table, nil
}

func NewLineItemResolver(menu commands.MenuReader, cfg config.Config, logger *slog.Logger) *commands.LineItemResolver {
	return commands.NewLineItemResolver(menu, cfg.Kitchen.ResolveConcurrency, logger)
}
