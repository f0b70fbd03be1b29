package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/audiobrief/internal/audio"
	"github.com/nikhilbhutani/audiobrief/internal/cache"
	"github.com/nikhilbhutani/audiobrief/internal/metrics"
	"github.com/nikhilbhutani/audiobrief/internal/pipeline"
	"github.com/nikhilbhutani/audiobrief/internal/queue"
	"github.com/nikhilbhutani/audiobrief/internal/webhook"
)

// Runner runs the pipeline on a URL. *pipeline.Pipeline implements it.
type Runner interface {
	RunURL(ctx context.Context, url string) (*pipeline.Result, error)
}

// JobStore records job progress. *cache.JobStore implements it.
type JobStore interface {
	MarkProcessing(ctx context.Context, id string) error
	Complete(ctx context.Context, id, summary, transcript string) error
	Fail(ctx context.Context, id, stage string, cause error) error
}

// Notifier delivers job outcomes to a callback URL. *webhook.Dispatcher
// implements it.
type Notifier interface {
	Notify(url, jobID, event string, payload interface{})
}

// JobEvent is the callback body.
type JobEvent struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	URL     string `json:"url"`
	Summary string `json:"summary,omitempty"`
	Error   string `json:"error,omitempty"`
	Stage   string `json:"stage,omitempty"`
}

type AudioWorker struct {
	pipeline Runner
	jobs     JobStore
	notifier Notifier
	timeout  time.Duration
}

func NewAudioWorker(p Runner, jobs JobStore, timeout time.Duration) *AudioWorker {
	return &AudioWorker{pipeline: p, jobs: jobs, timeout: timeout}
}

// WithNotifier enables callbacks for tasks that carry a callback URL.
func (w *AudioWorker) WithNotifier(n Notifier) *AudioWorker {
	w.notifier = n
	return w
}

func (w *AudioWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.AudioSummarizePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}

	slog.Info("processing audio job", "job_id", payload.JobID, "url", payload.URL)

	if err := w.jobs.MarkProcessing(ctx, payload.JobID); err != nil {
		return fmt.Errorf("update status to processing: %w", err)
	}
	metrics.RecordJob(string(cache.JobProcessing))

	runCtx := ctx
	if w.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	res, err := w.pipeline.RunURL(runCtx, payload.URL)
	if err != nil {
		metrics.RecordJob(string(cache.JobFailed))
		stage := audio.StageOf(err)
		if ferr := w.jobs.Fail(ctx, payload.JobID, stage, err); ferr != nil {
			slog.Error("failed to record job failure", "job_id", payload.JobID, "error", ferr)
		}
		w.notify(payload, webhook.EventJobFailed, JobEvent{
			JobID:  payload.JobID,
			Status: string(cache.JobFailed),
			URL:    payload.URL,
			Error:  err.Error(),
			Stage:  stage,
		})
		return fmt.Errorf("audio job %s: %w: %w", payload.JobID, err, asynq.SkipRetry)
	}

	if err := w.jobs.Complete(ctx, payload.JobID, res.Text, res.Transcript); err != nil {
		return fmt.Errorf("store job result: %w", err)
	}
	metrics.RecordJob(string(cache.JobCompleted))
	w.notify(payload, webhook.EventJobCompleted, JobEvent{
		JobID:   payload.JobID,
		Status:  string(cache.JobCompleted),
		URL:     payload.URL,
		Summary: res.Text,
	})

	slog.Info("audio job completed", "job_id", payload.JobID, "chars", len([]rune(res.Text)))
	return nil
}

func (w *AudioWorker) notify(p queue.AudioSummarizePayload, event string, body JobEvent) {
	if w.notifier == nil || p.CallbackURL == "" {
		return
	}
	w.notifier.Notify(p.CallbackURL, p.JobID, event, body)
}
