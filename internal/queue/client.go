package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/audiobrief/internal/config"
)

const QueueAudio = "audio"

type Client struct {
	client  *asynq.Client
	timeout time.Duration
}

// NewClient creates a client whose tasks time out after the pipeline timeout.
func NewClient(cfg config.RedisConfig, timeout time.Duration) *Client {
	return &Client{
		client:  asynq.NewClient(RedisOpt(cfg)),
		timeout: timeout,
	}
}

// RedisOpt converts the redis section for asynq.
func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueAudioSummarize schedules one pipeline run. Pipeline failures are not
// retried, matching the synchronous path.
func (c *Client) EnqueueAudioSummarize(ctx context.Context, payload AudioSummarizePayload) error {
	return c.enqueue(ctx, TypeAudioSummarize, payload,
		asynq.TaskID(payload.JobID),
		asynq.Queue(QueueAudio),
		asynq.MaxRetry(0),
		asynq.Timeout(c.timeout),
	)
}

func (c *Client) enqueue(ctx context.Context, taskType string, payload interface{}, opts ...asynq.Option) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(taskType, data)
	_, err = c.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return nil
}
