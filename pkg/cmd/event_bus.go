package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/genagent/agentflow/pkg/channels/gochannel"
	"github.com/genagent/agentflow/pkg/channels/kafka"
	"github.com/genagent/agentflow/pkg/eventbus"
)

const eventBusServiceName = "agentflow"

// NewEventBus creates the workflow event bus for provider. An empty provider
// selects the in-memory channel.
func NewEventBus(provider string, logger *slog.Logger, brokers string) (eventbus.EventBus, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	switch provider {
	case "", "gochannel":
		pub, sub, err := gochannel.CreateChannel(wmLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub), nil
	case "kafka":
		pub, sub, err := kafka.CreateChannel(wmLogger, kafka.ParseBrokers(brokers), eventBusServiceName)
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub), nil
	default:
		return nil, fmt.Errorf("unsupported event bus provider: %s", provider)
	}
}
