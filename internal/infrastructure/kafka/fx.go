package kafka

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/omniores3/pythonGroupTools/config"
	"github.com/omniores3/pythonGroupTools/internal/domain"
	"github.com/omniores3/pythonGroupTools/internal/infrastructure/metrics"
)

// Module provides the optional Kafka producer for fx DI. With no
// brokers configured the publisher is nil and message streaming is
// disabled.
var Module = fx.Module("kafka",
	fx.Provide(NewPublisherFx),
)

// NewPublisherFx creates the event publisher with fx lifecycle management
func NewPublisherFx(
	lc fx.Lifecycle,
	cfg *config.KafkaConfig,
	logger zerolog.Logger,
	m *metrics.Metrics,
) (domain.EventPublisher, error) {
	if len(cfg.Brokers) == 0 {
		logger.Info().Msg("Kafka disabled, no brokers configured")
		return nil, nil
	}

	producer, err := NewProducer(ProducerConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.TopicMessages,
		Logger:  logger,
		Metrics: m,
	})
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("Closing Kafka producer")
			return producer.Close()
		},
	})

	return producer, nil
}
