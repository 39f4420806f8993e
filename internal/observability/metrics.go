package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the Prometheus metrics of the zone and visited-area
// engine and the HTTP surface in front of it.
type Collector struct {
	gatherer prometheus.Gatherer

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec

	ZonePings         *prometheus.CounterVec
	RecomputeDuration *prometheus.HistogramVec
	AreaComponents    *prometheus.GaugeVec
}

// NewCollector registers all metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mapmates_http_requests_total",
		Help: "Total number of handled HTTP requests, labeled by method, route template, and status code.",
	}, []string{"method", "route", "status"}), "mapmates_http_requests_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mapmates_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"method", "route"}), "mapmates_http_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	pings, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mapmates_zone_pings_total",
		Help: "Location pings matched against visited zones, labeled by result (matched or created).",
	}, []string{"result"}), "mapmates_zone_pings_total")
	if err != nil {
		return nil, err
	}

	recompute, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mapmates_visited_area_recompute_seconds",
		Help:    "Time spent building a visited area, labeled by mode.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	}, []string{"mode"}), "mapmates_visited_area_recompute_seconds")
	if err != nil {
		return nil, err
	}

	components, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mapmates_visited_area_components",
		Help: "Number of disjoint polygons in the most recently built visited area, labeled by mode.",
	}, []string{"mode"}), "mapmates_visited_area_components")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:          gatherer,
		HTTPRequests:      requests,
		HTTPDurations:     durations,
		ZonePings:         pings,
		RecomputeDuration: recompute,
		AreaComponents:    components,
	}, nil
}

// ObserveZonePing counts one matched or created ping
func (c *Collector) ObserveZonePing(result string) {
	if c == nil || c.ZonePings == nil {
		return
	}
	c.ZonePings.WithLabelValues(result).Inc()
}

// ObserveRecompute records the duration and size of one visited-area build
func (c *Collector) ObserveRecompute(mode string, elapsed time.Duration, components int) {
	if c == nil {
		return
	}
	if c.RecomputeDuration != nil {
		c.RecomputeDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
	}
	if c.AreaComponents != nil {
		c.AreaComponents.WithLabelValues(mode).Set(float64(components))
	}
}

// Middleware records request counts and durations for gin routes.
// Unmatched routes are reported as "unmatched" to keep label cardinality bounded.
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		if c == nil {
			return
		}
		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := ctx.Request.Method

		if c.HTTPRequests != nil {
			c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(ctx.Writer.Status())).Inc()
		}
		if c.HTTPDurations != nil {
			c.HTTPDurations.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		}
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
