package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/atelier/pkg/channels/gochannel"
	"github.com/dukex/atelier/pkg/channels/kafka"
	"github.com/dukex/atelier/pkg/eventbus"
)

const (
	EventBusGoChannel = "gochannel"
	EventBusKafka     = "kafka"
)

// NewEventBus creates the workflow event bus. An empty provider selects the
// in-memory channel.
func NewEventBus(provider string, brokers []string, serviceName string, logger *slog.Logger) (eventbus.EventBus, error) {
	watermillLogger := watermill.NewSlogLogger(logger)

	switch provider {
	case "", EventBusGoChannel:
		pub, sub, err := gochannel.CreateChannel(watermillLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub, logger), nil
	case EventBusKafka:
		pub, sub, err := kafka.CreateChannel(watermillLogger, brokers, serviceName)
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub, logger), nil
	default:
		return nil, fmt.Errorf("unsupported event bus provider: %s", provider)
	}
}
