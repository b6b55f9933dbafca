package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nerrad567/gray-logic-zwave/internal/command"
	"github.com/nerrad567/gray-logic-zwave/internal/zwave"
)

const namespace = "zwaved"

// Metrics holds the daemon's Prometheus collectors on a private registry.
//
// It is a reactor.Observer, a command.Observer and a LivenessSink.
type Metrics struct {
	registry *prometheus.Registry

	notifications *prometheus.CounterVec
	commands      *prometheus.CounterVec
	nodesAlive    prometheus.Gauge
	nodesDead     prometheus.Gauge
	sweeps        prometheus.Counter
}

// NewMetrics creates the collectors and registers them, together with the
// Go runtime and process collectors, on a new registry.
func NewMetrics() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Controller notifications processed by the reactor, by type.",
		}, []string{"type"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Socket commands dispatched, by command and status code.",
		}, []string{"command", "status"}),
		nodesAlive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "nodes_alive",
			Help:      "Non-controller nodes considered alive after the last liveness sweep.",
		}),
		nodesDead: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "nodes_dead",
			Help:      "Nodes considered dead after the last liveness sweep.",
		}),
		sweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "liveness_sweeps_total",
			Help:      "Completed liveness sweeps.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.notifications, m.commands, m.nodesAlive, m.nodesDead, m.sweeps,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("registering collector: %w", err)
		}
	}
	return m, nil
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RegisterQueue exposes a queue's depth as zwaved_queue_depth{queue=name}.
func (m *Metrics) RegisterQueue(name string, depth func() int) error {
	g := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "queue_depth",
		Help:        "Items waiting in an internal queue.",
		ConstLabels: prometheus.Labels{"queue": name},
	}, func() float64 { return float64(depth()) })
	if err := m.registry.Register(g); err != nil {
		return fmt.Errorf("registering %s queue gauge: %w", name, err)
	}
	return nil
}

// NotificationProcessed counts one reactor notification.
func (m *Metrics) NotificationProcessed(t zwave.NotificationType) {
	m.notifications.WithLabelValues(t.String()).Inc()
}

// CommandDispatched counts one socket command.
func (m *Metrics) CommandDispatched(name string, status int) {
	m.commands.WithLabelValues(name, strconv.Itoa(status)).Inc()
}

// Liveness records the totals of a sweep.
func (m *Metrics) Liveness(_ context.Context, alive, dead int) error {
	m.nodesAlive.Set(float64(alive))
	m.nodesDead.Set(float64(dead))
	m.sweeps.Inc()
	return nil
}

// CommandObservers fans a dispatched command out to several observers.
type CommandObservers []command.Observer

// CommandDispatched calls every observer in order.
func (o CommandObservers) CommandDispatched(name string, status int) {
	for _, obs := range o {
		obs.CommandDispatched(name, status)
	}
}
