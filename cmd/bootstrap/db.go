package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"restaurant-ordering/internal/infra/db"
	"restaurant-ordering/internal/infra/recordstore"
	"restaurant-ordering/internal/pkg/clock"
	"restaurant-ordering/internal/pkg/config"

	"go.uber.org/fx"
)

var StoreModule = fx.Module("store",
	fx.Provide(
		NewStore,
	),
)

// NewStore picks the record store backend from STORE_DRIVER. Only the
// postgres driver opens a connection pool.
func NewStore(lc fx.Lifecycle, cfg config.Config, clk clock.Clock, logger *slog.Logger) (recordstore.Store, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		logger.Warn("using in-memory record store; data is lost on restart")
		return recordstore.NewMemoryStore(clk), nil
	case config.StoreDriverRemote:
		return recordstore.NewRemoteStore(cfg.Remote.URL, cfg.Remote.Token, cfg.Remote.Timeout, logger), nil
	case config.StoreDriverPostgres:
		pool, cleanup, err := db.Connect(cfg.DB)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(_ context.Context) error {
				if cleanup != nil {
					cleanup()
				}
				return nil
			},
		})
		return recordstore.NewPostgresStore(pool, logger), nil
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.Store.Driver)
	}
}
