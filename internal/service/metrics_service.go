package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/marriage-appointment-client/internal/models"
)

var pushStates = []string{"disconnected", "connecting", "connected"}

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for the console.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	remoteDuration  *prometheus.HistogramVec
	remoteTotal     *prometheus.CounterVec
	pushMessages    *prometheus.CounterVec
	pushState       *prometheus.GaugeVec
	commandTotal    *prometheus.CounterVec

	requestCount         uint64
	requestDurationTotal uint64
	remoteCount          uint64
	remoteFailureCount   uint64
	remoteDurationTotal  uint64
	pushCount            uint64
	currentPushState     atomic.Value
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "console_request_duration_seconds",
		Help:    "Duration of console HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "console_requests_total",
		Help: "Total number of console HTTP requests",
	}, []string{"method", "path", "status"})

	remoteDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "remote_call_duration_seconds",
		Help:    "Duration of calls to the appointment API",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	remoteTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "remote_calls_total",
		Help: "Calls to the appointment API by outcome",
	}, []string{"operation", "outcome"})

	pushMessages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "push_messages_total",
		Help: "Push messages received by channel",
	}, []string{"channel"})

	pushState := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "push_connection_state",
		Help: "1 for the current state of the push connection",
	}, []string{"state"})

	commandTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "commands_total",
		Help: "Dispatched commands by outcome",
	}, []string{"command", "outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, remoteDuration, remoteTotal, pushMessages, pushState, commandTotal, goroutines)

	m := &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		remoteDuration:  remoteDuration,
		remoteTotal:     remoteTotal,
		pushMessages:    pushMessages,
		pushState:       pushState,
		commandTotal:    commandTotal,
	}
	m.SetPushState("disconnected")
	return m
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records console request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveRemoteCall records one call to the appointment API. Status 0 means
// the call never got an answer.
func (m *MetricsService) ObserveRemoteCall(operation string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	switch {
	case status == 0:
		outcome = "transport_error"
	case status >= 500:
		outcome = "server_error"
	case status >= 400:
		outcome = "client_error"
	}
	m.remoteDuration.WithLabelValues(operation).Observe(duration.Seconds())
	m.remoteTotal.WithLabelValues(operation, outcome).Inc()
	atomic.AddUint64(&m.remoteCount, 1)
	atomic.AddUint64(&m.remoteDurationTotal, uint64(duration.Nanoseconds()))
	if outcome != "ok" {
		atomic.AddUint64(&m.remoteFailureCount, 1)
	}
}

// ObservePushMessage counts a message received on channel.
func (m *MetricsService) ObservePushMessage(channel string) {
	if m == nil {
		return
	}
	m.pushMessages.WithLabelValues(channel).Inc()
	atomic.AddUint64(&m.pushCount, 1)
}

// SetPushState flags the current push connection state.
func (m *MetricsService) SetPushState(state string) {
	if m == nil {
		return
	}
	for _, s := range pushStates {
		value := 0.0
		if s == state {
			value = 1
		}
		m.pushState.WithLabelValues(s).Set(value)
	}
	m.currentPushState.Store(state)
}

// ObserveCommand counts a settled command.
func (m *MetricsService) ObserveCommand(name string, err error) {
	if m == nil {
		return
	}
	outcome := "succeeded"
	if err != nil {
		outcome = "failed"
	}
	m.commandTotal.WithLabelValues(name, outcome).Inc()
}

// Snapshot returns aggregated metrics suitable for the health endpoint.
func (m *MetricsService) Snapshot() models.MetricsSnapshot {
	if m == nil {
		return models.MetricsSnapshot{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	remote := atomic.LoadUint64(&m.remoteCount)
	remoteDuration := atomic.LoadUint64(&m.remoteDurationTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	var avgRemoteMs float64
	if remote > 0 {
		avgRemoteMs = float64(remoteDuration) / float64(remote) / float64(time.Millisecond)
	}

	state, _ := m.currentPushState.Load().(string)

	return models.MetricsSnapshot{
		ConsoleRequests:             requests,
		AverageConsoleRequestMs:     avgRequestMs,
		RemoteCalls:                 remote,
		RemoteFailures:              atomic.LoadUint64(&m.remoteFailureCount),
		AverageRemoteCallDurationMs: avgRemoteMs,
		PushMessages:                atomic.LoadUint64(&m.pushCount),
		PushState:                   state,
		Goroutines:                  runtime.NumGoroutine(),
		GeneratedAt:                 time.Now().UTC(),
	}
}
