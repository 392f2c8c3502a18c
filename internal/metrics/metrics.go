package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsHandled counts gateway events processed, by activity kind or
	// presence transition.
	EventsHandled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "communitybot_events_handled_total",
		Help: "Gateway events processed, by kind.",
	}, []string{"kind"})

	// StoreErrors counts failed best-effort store writes from passive
	// event handlers.
	StoreErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "communitybot_store_errors_total",
		Help: "Failed best-effort store writes.",
	})

	// LLMCalls counts compliance calls by outcome: ok, fallback or error.
	LLMCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "communitybot_llm_calls_total",
		Help: "Compliance model calls, by outcome.",
	}, []string{"outcome"})
)
