package distributed

import (
	"context"
	"encoding/json"
	"fmt"

	"socialdeck/internal/core/domain"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const eventsChannel = "socialdeck:events"

// envelope is a dispatched event travelling between instances. The scope is
// carried whole so the receiving side can rebuild its registry lookup.
type envelope struct {
	InstanceID string              `json:"instance_id"`
	Scope      domain.ChannelScope `json:"scope"`
	Payload    json.RawMessage     `json:"payload"`
}

// EventBus relays dispatched realtime events between instances over redis
// pub/sub so a connection admitted on one instance still receives events
// published on another.
type EventBus struct {
	client     *redis.Client
	instanceID string
	logger     *zap.SugaredLogger
	pubsub     *redis.PubSub
}

func NewEventBus(client *redis.Client, instanceID string, logger *zap.SugaredLogger) *EventBus {
	return &EventBus{
		client:     client,
		instanceID: instanceID,
		logger:     logger,
	}
}

// Publish forwards a locally dispatched event to sibling instances. Errors
// are logged, not returned: the local fan-out already happened and bridge
// delivery is best effort.
func (eb *EventBus) Publish(scope domain.ChannelScope, payload []byte) {
	data, err := json.Marshal(envelope{
		InstanceID: eb.instanceID,
		Scope:      scope,
		Payload:    payload,
	})
	if err != nil {
		eb.logger.Errorw("failed to marshal bridge envelope", "scope", scope.Key(), "error", err)
		return
	}

	if err := eb.client.Publish(context.Background(), eventsChannel, data).Err(); err != nil {
		eb.logger.Errorw("failed to publish bridge event", "scope", scope.Key(), "error", err)
		return
	}

	eb.logger.Debugw("published bridge event", "scope", scope.Key())
}

// Subscribe consumes bridge events until the context is cancelled, handing
// each foreign event to the handler. Events published by this instance are
// skipped.
func (eb *EventBus) Subscribe(ctx context.Context, handler func(payload []byte, scope domain.ChannelScope)) error {
	if eb.pubsub != nil {
		return fmt.Errorf("already subscribed")
	}

	eb.pubsub = eb.client.Subscribe(ctx, eventsChannel)
	defer eb.pubsub.Close()

	ch := eb.pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				eb.logger.Errorw("failed to unmarshal bridge envelope", "error", err)
				continue
			}
			if env.InstanceID == eb.instanceID {
				continue
			}
			handler(env.Payload, env.Scope)
		}
	}
}
