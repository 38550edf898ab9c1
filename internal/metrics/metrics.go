// Package metrics defines the Prometheus instrumentation for the strategy
// assistant backend.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the backend.
type Metrics struct {
	// Chat orchestration
	ChatRequests   *prometheus.CounterVec // by scheme
	ChatRejected   prometheus.Counter     // empty prompts and concurrent sends
	ProviderErrors *prometheus.CounterVec // by provider call kind

	// Speech I/O
	SpeechSyntheses prometheus.Counter
	SpeechCacheHits prometheus.Counter
	Dictations      prometheus.Counter

	// Provider latency
	ProviderCallDuration *prometheus.HistogramVec // by provider call kind
}

// New creates all metrics on the given registerer. Callers own the registry so
// tests can use isolated ones.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ChatRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "strategos_chat_requests_total",
			Help: "Total chat requests accepted for orchestration",
		}, []string{"scheme"}),
		ChatRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "strategos_chat_rejected_total",
			Help: "Chat requests rejected before any provider call",
		}),
		ProviderErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "strategos_provider_errors_total",
			Help: "Provider call failures by call kind",
		}, []string{"call"}),
		SpeechSyntheses: factory.NewCounter(prometheus.CounterOpts{
			Name: "strategos_speech_syntheses_total",
			Help: "Speech-synthesis provider calls issued",
		}),
		SpeechCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "strategos_speech_cache_hits_total",
			Help: "Speak requests served from cached audio without a provider call",
		}),
		Dictations: factory.NewCounter(prometheus.CounterOpts{
			Name: "strategos_dictations_total",
			Help: "Dictation transcriptions performed",
		}),
		ProviderCallDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "strategos_provider_call_duration_seconds",
			Help:    "Provider call latency by call kind",
			Buckets: prometheus.DefBuckets,
		}, []string{"call"}),
	}
}
