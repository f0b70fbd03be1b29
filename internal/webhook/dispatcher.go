// Package webhook delivers signed job notifications to caller-supplied URLs.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/nikhilbhutani/audiobrief/internal/metrics"
)

const (
	EventJobCompleted = "job.completed"
	EventJobFailed    = "job.failed"
)

// Dispatcher posts deliveries from a bounded queue on one background
// goroutine. Deliveries are best effort and never retried.
type Dispatcher struct {
	secret     string
	httpClient *http.Client
	deliveries chan DeliveryRequest
	done       chan struct{}
	closeOnce  sync.Once
}

type DeliveryRequest struct {
	JobID   string
	URL     string
	Event   string
	Payload []byte
}

// NewDispatcher starts the delivery loop. An empty secret sends unsigned
// requests.
func NewDispatcher(secret string, buffer int) *Dispatcher {
	d := &Dispatcher{
		secret: secret,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		deliveries: make(chan DeliveryRequest, buffer),
		done:       make(chan struct{}),
	}
	go d.processLoop()
	return d
}

// Notify marshals payload and queues it for url. It never blocks.
func (d *Dispatcher) Notify(url, jobID, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("webhook payload marshal failed", "job_id", jobID, "error", err)
		return
	}
	d.Enqueue(DeliveryRequest{JobID: jobID, URL: url, Event: event, Payload: data})
}

func (d *Dispatcher) Enqueue(req DeliveryRequest) {
	select {
	case d.deliveries <- req:
	default:
		metrics.RecordWebhookDelivery("dropped")
		slog.Warn("webhook delivery queue full, dropping", "job_id", req.JobID, "event", req.Event)
	}
}

// Close stops accepting deliveries and waits for queued ones to finish.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() { close(d.deliveries) })
	<-d.done
}

func (d *Dispatcher) processLoop() {
	defer close(d.done)
	for req := range d.deliveries {
		d.deliver(req)
	}
}

func (d *Dispatcher) deliver(req DeliveryRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(req.Payload))
	if err != nil {
		metrics.RecordWebhookDelivery("failed")
		slog.Error("webhook request creation failed", "job_id", req.JobID, "error", err)
		return
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Audiobrief-Event", req.Event)
	httpReq.Header.Set("X-Audiobrief-Job", req.JobID)
	if d.secret != "" {
		httpReq.Header.Set("X-Audiobrief-Signature", Sign(req.Payload, d.secret))
	}

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		metrics.RecordWebhookDelivery("failed")
		slog.Error("webhook delivery failed", "job_id", req.JobID, "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		metrics.RecordWebhookDelivery("rejected")
		slog.Warn("webhook received non-success response", "status", resp.StatusCode, "job_id", req.JobID)
		return
	}
	metrics.RecordWebhookDelivery("delivered")
}

// Sign returns the signature header value for payload.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return fmt.Sprintf("sha256=%s", hex.EncodeToString(mac.Sum(nil)))
}
