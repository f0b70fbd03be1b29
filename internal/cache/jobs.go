package cache

import (
	"context"
	"fmt"
	"time"
)

// DefaultJobTTL is how long finished job records are kept.
const DefaultJobTTL = 24 * time.Hour

type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Job is the record of one asynchronous summarization.
type Job struct {
	ID         string    `json:"id"`
	Status     JobStatus `json:"status"`
	URL        string    `json:"url"`
	Summary    string    `json:"summary,omitempty"`
	Transcript string    `json:"transcript,omitempty"`
	Error      string    `json:"error,omitempty"`
	Stage      string    `json:"stage,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// KV is the storage JobStore needs. *Cache implements it.
type KV interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type JobStore struct {
	kv  KV
	ttl time.Duration
	now func() time.Time
}

func NewJobStore(kv KV, ttl time.Duration) *JobStore {
	if ttl <= 0 {
		ttl = DefaultJobTTL
	}
	return &JobStore{kv: kv, ttl: ttl, now: time.Now}
}

func jobKey(id string) string { return "audiobrief:job:" + id }

// Create stores a new pending job.
func (s *JobStore) Create(ctx context.Context, id, url string) (*Job, error) {
	now := s.now().UTC()
	job := &Job{ID: id, Status: JobPending, URL: url, CreatedAt: now, UpdatedAt: now}
	if err := s.kv.Set(ctx, jobKey(id), job, s.ttl); err != nil {
		return nil, fmt.Errorf("create job %s: %w", id, err)
	}
	return job, nil
}

func (s *JobStore) Get(ctx context.Context, id string) (*Job, error) {
	var job Job
	if err := s.kv.Get(ctx, jobKey(id), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *JobStore) MarkProcessing(ctx context.Context, id string) error {
	return s.update(ctx, id, func(j *Job) {
		j.Status = JobProcessing
		j.Error, j.Stage = "", ""
	})
}

func (s *JobStore) Complete(ctx context.Context, id, summary, transcript string) error {
	return s.update(ctx, id, func(j *Job) {
		j.Status = JobCompleted
		j.Summary = summary
		j.Transcript = transcript
		j.Error, j.Stage = "", ""
	})
}

func (s *JobStore) Fail(ctx context.Context, id, stage string, cause error) error {
	return s.update(ctx, id, func(j *Job) {
		j.Status = JobFailed
		j.Stage = stage
		j.Error = cause.Error()
	})
}

func (s *JobStore) update(ctx context.Context, id string, fn func(*Job)) error {
	job, err := s.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load job %s: %w", id, err)
	}
	fn(job)
	job.UpdatedAt = s.now().UTC()
	if err := s.kv.Set(ctx, jobKey(id), job, s.ttl); err != nil {
		return fmt.Errorf("save job %s: %w", id, err)
	}
	return nil
}
