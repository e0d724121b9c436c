package llm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	completionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "openevent_llm_completions_total",
		Help: "LLM completion attempts by operation, provider and outcome.",
	}, []string{"operation", "provider", "outcome"})

	fallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "openevent_llm_fallbacks_total",
		Help: "Completions retried on the alternate provider after a primary failure.",
	}, []string{"operation"})
)
