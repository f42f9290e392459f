// Package metrics defines the Prometheus instruments of the client.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the client instruments.
type Metrics struct {
	// RequestDuration observes backend calls by service, method and status.
	RequestDuration *prometheus.HistogramVec
	// Refreshes counts token refresh attempts by result.
	Refreshes *prometheus.CounterVec
	// CacheLookups counts cache reads by result (hit, miss, stale).
	CacheLookups *prometheus.CounterVec
	// Mutations counts optimistic mutations by result (committed, rolled_back).
	Mutations *prometheus.CounterVec
}

// New creates and registers the instruments on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mm_api_request_duration_seconds",
			Help:    "Duration of backend API calls in seconds.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15},
		}, []string{"service", "method", "status"}),
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mm_token_refresh_total",
			Help: "Token refresh attempts.",
		}, []string{"result"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mm_cache_lookups_total",
			Help: "Query cache lookups.",
		}, []string{"result"}),
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mm_cache_mutations_total",
			Help: "Optimistic cache mutations.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.RequestDuration, m.Refreshes, m.CacheLookups, m.Mutations)
	return m
}

// ObserveRequest records one backend call; status 0 means no response.
func (m *Metrics) ObserveRequest(service, method string, status int, start time.Time) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.RequestDuration.WithLabelValues(service, method, label).Observe(time.Since(start).Seconds())
}

// Refresh counts a refresh outcome.
func (m *Metrics) Refresh(result string) {
	if m == nil {
		return
	}
	m.Refreshes.WithLabelValues(result).Inc()
}

// CacheLookup counts a cache read outcome.
func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// Mutation counts a settled mutation.
func (m *Metrics) Mutation(result string) {
	if m == nil {
		return
	}
	m.Mutations.WithLabelValues(result).Inc()
}
