package event

import (
	"context"

	"ripple_chat_server/internal/service/presence"

	"go.uber.org/zap"
)

// Broker moves a resolved envelope towards the sessions that should see
// it. LocalBroker delivers in-process; KafkaBroker relays through a topic
// so every node delivers to its own local sessions.
type Broker interface {
	Publish(ctx context.Context, env Envelope) error
	// Start runs the consume loop (kafka mode); no-op for the local broker.
	Start()
	Close()
}

// LocalBroker is the single-node broker: publish is a direct delivery.
type LocalBroker struct {
	registry *presence.Registry
}

// NewLocalBroker creates the in-process broker.
func NewLocalBroker(registry *presence.Registry) *LocalBroker {
	return &LocalBroker{registry: registry}
}

func (b *LocalBroker) Publish(ctx context.Context, env Envelope) error {
	deliverLocal(b.registry, env)
	return nil
}

func (b *LocalBroker) Start() {}

func (b *LocalBroker) Close() {}

// deliverLocal pushes the envelope to every local session of every target.
// A session that cannot take the event (buffer full or closed) is evicted
// so a slow consumer never blocks a mutation; the triggering operation
// already succeeded at this point.
func deliverLocal(registry *presence.Registry, env Envelope) {
	data, err := env.payload()
	if err != nil {
		zap.L().Error("serialize event failed", zap.String("type", env.Type), zap.Error(err))
		return
	}
	for _, userID := range env.Targets {
		for _, session := range registry.SessionsFor(userID) {
			if !session.Push(data) {
				zap.L().Warn("evicting unresponsive session",
					zap.String("user", userID),
					zap.String("session", session.ID),
					zap.String("event", env.Type),
				)
				registry.Disconnect(session.ID)
			}
		}
	}
}
