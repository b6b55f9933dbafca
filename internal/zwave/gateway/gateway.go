// Package gateway implements zwave.Manager against a remote Z-Wave gateway
// reached over MQTT.
//
// The gateway owns the serial controller. Every Manager call is published as
// a JSON request on {prefix}/request/{id} and answered on
// {prefix}/response/{id}, where id is a random UUID. Driver notifications
// arrive on {prefix}/event/{kind} and are handed to the registered watcher.
package gateway

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-zwave/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-zwave/internal/zwave"
)

// DefaultTimeout bounds how long a call waits for its response.
const DefaultTimeout = 10 * time.Second

// Bus is the part of mqtt.Client the gateway uses.
type Bus interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// Logger defines the logging interface used by the Gateway.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Config holds gateway connection settings.
type Config struct {
	// Prefix is the gateway's topic root, e.g. "zwave/gateway".
	Prefix string

	// Timeout bounds each call. Zero means DefaultTimeout.
	Timeout time.Duration

	// QoS is used for requests and subscriptions.
	QoS byte
}

// Gateway is a zwave.Manager whose controller lives behind an MQTT broker.
//
// Calls block until the matching response arrives or the timeout expires;
// a timeout is reported as zwave.ErrNotAvailable wrapping ErrTimeout.
type Gateway struct {
	bus    Bus
	topics mqtt.GatewayTopics
	cfg    Config
	newID  func() string
	logger Logger

	mu        sync.Mutex
	pending   map[string]chan response
	watcher   zwave.Watcher
	destroyed bool
}

// Connect subscribes to the gateway's response topic and returns a ready
// Gateway.
func Connect(bus Bus, cfg Config) (*Gateway, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	g := &Gateway{
		bus:     bus,
		topics:  mqtt.GatewayTopics{Prefix: cfg.Prefix},
		cfg:     cfg,
		newID:   uuid.NewString,
		logger:  noopLogger{},
		pending: make(map[string]chan response),
	}
	if err := bus.Subscribe(g.topics.AllResponses(), cfg.QoS, g.handleResponse); err != nil {
		return nil, fmt.Errorf("subscribing to gateway responses: %w", err)
	}
	return g, nil
}

// SetLogger sets the logger for the gateway.
func (g *Gateway) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	g.logger = logger
}

// Pending returns the number of calls awaiting a response.
func (g *Gateway) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending)
}

// call publishes one request and decodes the response into result, which
// may be nil for calls without a result.
func (g *Gateway) call(method string, p params, result any) error {
	g.mu.Lock()
	if g.destroyed {
		g.mu.Unlock()
		return zwave.ErrDestroyed
	}
	id := g.newID()
	ch := make(chan response, 1)
	g.pending[id] = ch
	g.mu.Unlock()
	defer g.forget(id)

	payload, err := json.Marshal(request{ID: id, Method: method, Params: p})
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", method, err)
	}
	if err := g.bus.Publish(g.topics.Request(id), payload, g.cfg.QoS, false); err != nil {
		return fmt.Errorf("%w: %w", zwave.ErrNotAvailable, err)
	}

	timer := time.NewTimer(g.cfg.Timeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		if resp.Error != nil {
			return resp.Error.err()
		}
		if result == nil || len(resp.Result) == 0 {
			return nil
		}
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrBadResponse, method, err)
		}
		return nil
	case <-timer.C:
		g.logger.Warn("gateway call timed out", "method", method, "request_id", id, "timeout", g.cfg.Timeout)
		return fmt.Errorf("%w: %w", zwave.ErrNotAvailable, ErrTimeout)
	}
}

func (g *Gateway) forget(id string) {
	g.mu.Lock()
	delete(g.pending, id)
	g.mu.Unlock()
}

func (g *Gateway) handleResponse(topic string, payload []byte) error {
	var resp response
	if err := json.Unmarshal(payload, &resp); err != nil {
		return fmt.Errorf("%w: %w", ErrBadResponse, err)
	}
	if resp.ID == "" {
		resp.ID = mqtt.LastSegment(topic)
	}

	g.mu.Lock()
	ch, ok := g.pending[resp.ID]
	delete(g.pending, resp.ID)
	g.mu.Unlock()

	if !ok {
		g.logger.Debug("dropping unmatched gateway response", "request_id", resp.ID)
		return nil
	}
	ch <- resp
	return nil
}

func (g *Gateway) handleEvent(topic string, payload []byte) error {
	var e event
	if err := json.Unmarshal(payload, &e); err != nil {
		return fmt.Errorf("decoding gateway event %s: %w", mqtt.LastSegment(topic), err)
	}

	g.mu.Lock()
	w := g.watcher
	g.mu.Unlock()
	if w != nil {
		w(e.notification())
	}
	return nil
}

// AddWatcher implements zwave.Manager. Events are subscribed on first
// registration.
func (g *Gateway) AddWatcher(w zwave.Watcher) error {
	g.mu.Lock()
	if g.destroyed {
		g.mu.Unlock()
		return zwave.ErrDestroyed
	}
	if g.watcher != nil {
		g.mu.Unlock()
		return zwave.ErrWatcherExists
	}
	g.watcher = w
	g.mu.Unlock()

	if err := g.bus.Subscribe(g.topics.AllEvents(), g.cfg.QoS, g.handleEvent); err != nil {
		g.mu.Lock()
		g.watcher = nil
		g.mu.Unlock()
		return fmt.Errorf("%w: %w", zwave.ErrNotAvailable, err)
	}
	return nil
}

// RemoveWatcher implements zwave.Manager.
func (g *Gateway) RemoveWatcher() error {
	g.mu.Lock()
	had := g.watcher != nil
	g.watcher = nil
	g.mu.Unlock()

	if !had {
		return nil
	}
	if err := g.bus.Unsubscribe(g.topics.AllEvents()); err != nil {
		return fmt.Errorf("%w: %w", zwave.ErrNotAvailable, err)
	}
	return nil
}

// AddDriver implements zwave.Manager.
func (g *Gateway) AddDriver(devicePath string) error {
	return g.call("AddDriver", params{Device: devicePath}, nil)
}

// RemoveDriver implements zwave.Manager.
func (g *Gateway) RemoveDriver(devicePath string) error {
	return g.call("RemoveDriver", params{Device: devicePath}, nil)
}

// Destroy asks the gateway to release the controller, then stops listening.
// Later calls return zwave.ErrDestroyed.
func (g *Gateway) Destroy() error {
	err := g.call("Destroy", params{}, nil)

	g.mu.Lock()
	already := g.destroyed
	g.destroyed = true
	g.mu.Unlock()
	if already {
		return zwave.ErrDestroyed
	}

	if uerr := g.bus.Unsubscribe(g.topics.AllResponses()); uerr != nil {
		g.logger.Warn("unsubscribing gateway responses", "error", uerr)
	}
	return err
}
