// Package metrics provides Prometheus metrics for the audio summarization pipeline.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "audiobrief"

var (
	// pipelineRunsTotal counts finished runs.
	// Labels:
	//   - source: "upload" or "url"
	//   - outcome: "success" or the failing stage name
	pipelineRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Total number of pipeline runs by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages in seconds",
			Buckets:   []float64{0.05, 0.25, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"stage"},
	)

	// transcodeAttemptsTotal counts strategy attempts.
	// Labels:
	//   - strategy: "stream" or "tempfile"
	//   - status: "success" or "failed"
	transcodeAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcode_attempts_total",
			Help:      "Total number of transcoding strategy attempts",
		},
		[]string{"strategy", "status"},
	)

	nativeFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "native_fallbacks_total",
			Help:      "Runs that sent the original audio because transcoding was unavailable or failed",
		},
	)

	structuringDegradedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "structuring_degraded_total",
			Help:      "Runs where structuring fell back to the raw transcript",
		},
	)

	// expansionCallsTotal counts expansion requests.
	// Labels:
	//   - result: "ok", "empty" or "error"
	expansionCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expansion_calls_total",
			Help:      "Total number of text expansion calls",
		},
		[]string{"result"},
	)

	paddingAppliedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "padding_applied_total",
			Help:      "Runs that needed deterministic padding to reach the minimum length",
		},
	)

	llmCostUSD = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_cost_usd_total",
			Help:      "Estimated text generation spend in USD",
		},
		[]string{"provider", "model"},
	)

	// jobsTotal counts background jobs.
	// Labels:
	//   - status: "enqueued", "completed" or "failed"
	jobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Background summarization jobs by status",
		},
		[]string{"status"},
	)

	// webhookDeliveriesTotal counts job callbacks.
	// Labels:
	//   - outcome: "delivered", "rejected", "failed" or "dropped"
	webhookDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_deliveries_total",
			Help:      "Job completion callbacks by outcome",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		pipelineRunsTotal,
		stageDuration,
		transcodeAttemptsTotal,
		nativeFallbacksTotal,
		structuringDegradedTotal,
		expansionCallsTotal,
		paddingAppliedTotal,
		llmCostUSD,
		jobsTotal,
		webhookDeliveriesTotal,
	)
}

func RecordPipelineRun(source, outcome string) {
	pipelineRunsTotal.WithLabelValues(source, outcome).Inc()
}

func RecordStageDuration(stage string, seconds float64) {
	stageDuration.WithLabelValues(stage).Observe(seconds)
}

func RecordTranscodeAttempt(strategy, status string) {
	transcodeAttemptsTotal.WithLabelValues(strategy, status).Inc()
}

func RecordNativeFallback() {
	nativeFallbacksTotal.Inc()
}

func RecordStructuringDegraded() {
	structuringDegradedTotal.Inc()
}

func RecordExpansionCall(result string) {
	expansionCallsTotal.WithLabelValues(result).Inc()
}

func RecordPaddingApplied() {
	paddingAppliedTotal.Inc()
}

// RecordLLMCost adds an estimated spend; zero or negative values are ignored.
func RecordLLMCost(provider, model string, usd float64) {
	if usd <= 0 {
		return
	}
	llmCostUSD.WithLabelValues(provider, model).Add(usd)
}

func RecordJob(status string) {
	jobsTotal.WithLabelValues(status).Inc()
}

func RecordWebhookDelivery(outcome string) {
	webhookDeliveriesTotal.WithLabelValues(outcome).Inc()
}
