// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics exposes Prometheus counters for the send pathway and the
// persistence adapter.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Send outcomes.
const (
	OutcomeAnswered  = "answered"
	OutcomeFallback  = "fallback"
	OutcomeCancelled = "cancelled"
)

// Registry holds every collector in this package. It is separate from the
// default registerer so tests and embedders can scrape it in isolation.
var Registry = prometheus.NewRegistry()

var (
	// Sends counts finished send pathways by outcome.
	Sends = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatbot",
			Name:      "sends_total",
			Help:      "Completed message sends by outcome.",
		},
		[]string{"outcome"},
	)

	// PersistWrites counts record writes attempted per storage key.
	PersistWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatbot",
			Name:      "persist_writes_total",
			Help:      "Record writes attempted by storage key.",
		},
		[]string{"key"},
	)

	// PersistFailures counts failed reads and writes per operation and key.
	PersistFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatbot",
			Name:      "persist_failures_total",
			Help:      "Failed storage operations by operation and key.",
		},
		[]string{"op", "key"},
	)

	// LoadFallbacks counts loads that degraded to the empty default.
	LoadFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatbot",
			Name:      "load_fallbacks_total",
			Help:      "Record loads that returned the empty default.",
		},
		[]string{"key"},
	)
)

func init() {
	Registry.MustRegister(Sends, PersistWrites, PersistFailures, LoadFallbacks)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
