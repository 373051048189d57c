// Package metrics exports the controller counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pnpfeeder"

// Results used as label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

var (
	// Commands counts dispatched commands by command word and result.
	Commands = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "commands_total",
		Help:      "Commands processed by the dispatcher.",
	}, []string{"command", "result"})

	// Feeds counts advance sequences by feeder, trigger and result.
	Feeds = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feeds_total",
		Help:      "Feed advances run by feeders.",
	}, []string{"feeder", "trigger", "result"})

	// Sessions is the number of connected hosts.
	Sessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "link_sessions",
		Help:      "Connected host sessions.",
	})

	// LinkErrors counts lines rejected before dispatching.
	LinkErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "link_errors_total",
		Help:      "Lines rejected by framing or parsing.",
	}, []string{"kind"})

	// ConfigWrites counts persisted feeder configs by result.
	ConfigWrites = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "config_writes_total",
		Help:      "Feeder configs written to the store.",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(Commands, Feeds, Sessions, LinkErrors, ConfigWrites)
}

// Result maps an error to a result label.
func Result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}

// Handler serves the registered metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
