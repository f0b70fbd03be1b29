package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordPipelineRun(t *testing.T) {
	pipelineRunsTotal.Reset()

	RecordPipelineRun("upload", "success")
	RecordPipelineRun("upload", "success")
	RecordPipelineRun("url", "fetch")

	assert.Equal(t, 2.0, testutil.ToFloat64(pipelineRunsTotal.WithLabelValues("upload", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pipelineRunsTotal.WithLabelValues("url", "fetch")))
}

func TestRecordTranscodeAttempt(t *testing.T) {
	transcodeAttemptsTotal.Reset()

	RecordTranscodeAttempt("stream", "failed")
	RecordTranscodeAttempt("tempfile", "success")

	assert.Equal(t, 1.0, testutil.ToFloat64(transcodeAttemptsTotal.WithLabelValues("stream", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(transcodeAttemptsTotal.WithLabelValues("tempfile", "success")))
}

func TestRecordLLMCost_IgnoresZero(t *testing.T) {
	llmCostUSD.Reset()

	RecordLLMCost("openai", "gpt-4o", 0)
	RecordLLMCost("openai", "gpt-4o", 0.25)
	RecordLLMCost("openai", "gpt-4o", -1)

	assert.InDelta(t, 0.25, testutil.ToFloat64(llmCostUSD.WithLabelValues("openai", "gpt-4o")), 1e-9)
}

func TestRecordStageDuration(t *testing.T) {
	stageDuration.Reset()

	RecordStageDuration("transcode", 1.5)
	RecordStageDuration("transcode", 0.2)

	assert.Equal(t, 1, testutil.CollectAndCount(stageDuration))
}

func TestRecordWebhookDelivery(t *testing.T) {
	webhookDeliveriesTotal.Reset()

	RecordWebhookDelivery("delivered")
	RecordWebhookDelivery("dropped")
	RecordWebhookDelivery("dropped")

	assert.Equal(t, 2.0, testutil.ToFloat64(webhookDeliveriesTotal.WithLabelValues("dropped")))
}
