package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cryptopulse"

var (
	// Registry holds the application collectors exposed at /metrics.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "inflight_requests",
		Help:      "Current number of in-flight HTTP requests.",
	})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests handled.",
	}, []string{"method", "route", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"method", "route"})

	sentimentCache = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sentiment",
		Name:      "cache_lookups_total",
		Help:      "Historical series cache lookups by result.",
	}, []string{"result"})

	liveClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "live",
		Name:      "clients",
		Help:      "Connected live feed clients.",
	})

	liveMessages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "live",
		Name:      "messages_total",
		Help:      "Live feed messages by outcome.",
	}, []string{"outcome"})

	signIns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "sign_ins_total",
		Help:      "Google token exchanges by result.",
	}, []string{"result"})

	alertsFired = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "alerts",
		Name:      "fired_total",
		Help:      "Threshold alerts fired by delivery outcome.",
	}, []string{"delivery"})
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		sentimentCache,
		liveClients,
		liveMessages,
		signIns,
		alertsFired,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency by gin route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "/metrics" {
			c.Next()
			return
		}
		if route == "" {
			route = "unmatched"
		}

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		start := time.Now()
		c.Next()

		method := c.Request.Method
		httpRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

func CacheHit()  { sentimentCache.WithLabelValues("hit").Inc() }
func CacheMiss() { sentimentCache.WithLabelValues("miss").Inc() }

func LiveClientConnected()    { liveClients.Inc() }
func LiveClientDisconnected() { liveClients.Dec() }

// LiveMessage counts one outbound message as "sent" or "dropped".
func LiveMessage(outcome string) { liveMessages.WithLabelValues(outcome).Inc() }

func SignIn(ok bool) {
	if ok {
		signIns.WithLabelValues("success").Inc()
		return
	}
	signIns.WithLabelValues("failure").Inc()
}

// AlertFired counts one alert as "telegram", "failed" or "logged".
func AlertFired(delivery string) { alertsFired.WithLabelValues(delivery).Inc() }
