// Copyright (c) 2026 The Folio Authors
// All rights reserved. See LICENSE for details.

// Package metrics exposes Prometheus instrumentation for generation
// requests, provider retries, live subscriptions and HTTP traffic.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "folio"

// Metrics holds every collector. Each instance owns its registry so tests
// can create as many as they need.
type Metrics struct {
	registry *prometheus.Registry

	GenerationRequests *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec
	ProviderRetries    *prometheus.CounterVec
	LiveSubscribers    *prometheus.GaugeVec
	LiveFrames         *prometheus.CounterVec
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		GenerationRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_requests_total",
			Help:      "Generation requests by kind (command, theme) and outcome.",
		}, []string{"kind", "outcome"}),
		GenerationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "End-to-end generation latency including the model call.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}, []string{"kind"}),
		ProviderRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_retries_total",
			Help:      "Retried model calls by provider.",
		}, []string{"provider"}),
		LiveSubscribers: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_subscribers",
			Help:      "Open live subscriptions by kind.",
		}, []string{"kind"}),
		LiveFrames: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "live_frames_total",
			Help:      "Frames presented by kind and token source.",
		}, []string{"kind", "source"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveGeneration records a finished generation request.
func (m *Metrics) ObserveGeneration(kind, outcome string, elapsed time.Duration) {
	m.GenerationRequests.WithLabelValues(kind, outcome).Inc()
	m.GenerationDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// ProviderRetried records one retried model call.
func (m *Metrics) ProviderRetried(provider string) {
	m.ProviderRetries.WithLabelValues(provider).Inc()
}

// Subscribed records an opened live subscription.
func (m *Metrics) Subscribed(kind string) {
	m.LiveSubscribers.WithLabelValues(kind).Inc()
}

// Unsubscribed records a closed live subscription.
func (m *Metrics) Unsubscribed(kind string) {
	m.LiveSubscribers.WithLabelValues(kind).Dec()
}

// Framed records a presented frame.
func (m *Metrics) Framed(kind, source string) {
	m.LiveFrames.WithLabelValues(kind, source).Inc()
}

// Middleware records request counts and latency labelled by the matched
// chi route pattern, so path parameters do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		m.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		m.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack hands the connection to the websocket upgrader.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("metrics: response writer does not support hijacking")
	}
	return h.Hijack()
}
