package bootstrap

import (
	"context"
	"log/slog"

	"restaurant-ordering/internal/infra/notify"
	"restaurant-ordering/internal/pkg/config"
	"restaurant-ordering/internal/usecase/commands"

	"go.uber.org/fx"
)

var NotifyModule = fx.Module("notify",
	fx.Provide(
		NewHub,
		NewTicketPublisher,
	),
)

func NewHub(lc fx.Lifecycle, logger *slog.Logger) *notify.Hub {
	hub := notify.NewHub(logger)
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go hub.Run(ctx)
			return nil
		},
		OnStop: func(_ context.Context) error {
			cancel()
			return nil
		},
	})
	return hub
}

// NewTicketPublisher always feeds the kitchen display hub and adds a Kafka
// publisher when KAFKA_BROKERS is set.
func NewTicketPublisher(lc fx.Lifecycle, cfg config.Config, hub *notify.Hub, logger *slog.Logger) commands.TicketPublisher {
	if len(cfg.Kafka.Brokers) == 0 {
		return hub
	}

	writer := notify.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.TicketTopic)
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return writer.Close()
		},
	})
	logger.Info("publishing kitchen tickets to kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.TicketTopic)
	return notify.NewFanout(hub, notify.NewKafkaPublisher(writer))
}
