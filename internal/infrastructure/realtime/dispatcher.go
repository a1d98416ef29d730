package realtime

import (
	"encoding/json"
	"time"

	"socialdeck/internal/core/domain"

	"go.uber.org/zap"
)

// Envelope is the wire form of a fanned-out event.
type Envelope struct {
	Type      string    `json:"type"`
	Scope     string    `json:"scope"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Bridge forwards dispatched events to sibling instances. Implementations
// must not re-deliver an event to the instance that published it.
type Bridge interface {
	Publish(scope domain.ChannelScope, payload []byte)
}

// Dispatcher fans domain events out to connections admitted to a scope.
// Delivery is fire-and-forget and at most once per connection per call: a
// connection with a full outbound buffer is skipped, never blocked on, and
// the dispatcher holds no queue or replay history.
type Dispatcher struct {
	registry *Registry
	bridge   Bridge // nil when running single-instance
	logger   *zap.SugaredLogger

	onDispatch func(scope domain.ChannelScope, delivered, dropped int)
}

func NewDispatcher(registry *Registry, logger *zap.SugaredLogger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		logger:   logger,
	}
}

// SetBridge wires a cross-instance event bridge. Must be called before the
// dispatcher is shared between goroutines.
func (d *Dispatcher) SetBridge(bridge Bridge) {
	d.bridge = bridge
}

// SetObserver installs a delivery-count callback, used by the monitoring
// collector.
func (d *Dispatcher) SetObserver(fn func(scope domain.ChannelScope, delivered, dropped int)) {
	d.onDispatch = fn
}

// Dispatch delivers the event to every connection currently admitted to the
// scope, and forwards it over the bridge for sibling instances.
func (d *Dispatcher) Dispatch(event domain.Event, scope domain.ChannelScope) {
	payload, err := json.Marshal(Envelope{
		Type:      event.Type,
		Scope:     scope.Key(),
		Data:      event.Data,
		Timestamp: time.Now(),
	})
	if err != nil {
		d.logger.Errorw("failed to marshal event", "type", event.Type, "scope", scope.Key(), "error", err)
		return
	}

	d.deliverLocal(payload, scope)

	if d.bridge != nil {
		d.bridge.Publish(scope, payload)
	}
}

// DeliverRemote fans out a payload received from the bridge to local
// connections only, without republishing.
func (d *Dispatcher) DeliverRemote(payload []byte, scope domain.ChannelScope) {
	d.deliverLocal(payload, scope)
}

func (d *Dispatcher) deliverLocal(payload []byte, scope domain.ChannelScope) {
	delivered, dropped := 0, 0
	for _, send := range d.registry.sendChannels(scope) {
		select {
		case send <- payload:
			delivered++
		default:
			// Slow consumer; the client recovers by re-fetching state.
			dropped++
		}
	}

	if dropped > 0 {
		d.logger.Debugw("dropped events for slow consumers",
			"scope", scope.Key(),
			"dropped", dropped,
		)
	}
	if d.onDispatch != nil {
		d.onDispatch(scope, delivered, dropped)
	}
}
