package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry = prometheus.NewRegistry()

	generationStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "generation_started_total",
		Help: "Resume generations that reached processing.",
	})
	generationCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "generation_completed_total",
		Help: "Resume generations rendered and stored.",
	})
	generationFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "generation_failed_total",
		Help: "Resume generations that ended in the failed status.",
	})
	extractionSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "extraction_skipped_total",
		Help: "Attached resumes dropped because no text could be extracted.",
	})
	llmRateLimitRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "llm_rate_limit_retry_total",
		Help: "LLM calls retried after a rate-limit reply.",
	})
	generationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "generation_duration_ms",
		Help:    "Resume generation duration in milliseconds.",
		Buckets: []float64{500, 1000, 2500, 5000, 10000, 30000, 60000, 120000, 300000},
	})
)

func init() {
	registry.MustRegister(
		generationStarted,
		generationCompleted,
		generationFailed,
		extractionSkipped,
		llmRateLimitRetries,
		generationDuration,
		collectors.NewGoCollector(),
	)
}

func IncGenerationStarted()   { generationStarted.Inc() }
func IncGenerationCompleted() { generationCompleted.Inc() }
func IncGenerationFailed()    { generationFailed.Inc() }

// IncExtractionSkipped counts an attached file whose text could not be extracted.
func IncExtractionSkipped() { extractionSkipped.Inc() }

// IncLLMRateLimitRetry counts a backoff wait after a provider rate-limit reply.
func IncLLMRateLimitRetry() { llmRateLimitRetries.Inc() }

// ObserveGenerationDurationMs records a pipeline duration; negative values count as zero.
func ObserveGenerationDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	generationDuration.Observe(value)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
