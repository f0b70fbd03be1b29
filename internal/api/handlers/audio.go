package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nikhilbhutani/audiobrief/internal/audio"
	"github.com/nikhilbhutani/audiobrief/internal/cache"
	"github.com/nikhilbhutani/audiobrief/internal/pipeline"
	"github.com/nikhilbhutani/audiobrief/internal/queue"
)

// AllowedUploadMIMETypes are accepted on upload. iOS clients send m4a, aac
// and caf variants.
var AllowedUploadMIMETypes = map[string]bool{
	"audio/mpeg":   true,
	"audio/mp3":    true,
	"audio/wav":    true,
	"audio/x-wav":  true,
	"audio/wave":   true,
	"audio/m4a":    true,
	"audio/x-m4a":  true,
	"audio/ogg":    true,
	"audio/webm":   true,
	"audio/mp4":    true,
	"audio/aac":    true,
	"audio/x-aac":  true,
	"audio/caf":    true,
	"audio/x-caf":  true,
	"audio/flac":   true,
	"audio/x-flac": true,
}

type Pipeline interface {
	Run(ctx context.Context, in pipeline.Input) (*pipeline.Result, error)
}

type JobStore interface {
	Create(ctx context.Context, id, url string) (*cache.Job, error)
	Get(ctx context.Context, id string) (*cache.Job, error)
	Fail(ctx context.Context, id, stage string, cause error) error
}

type Enqueuer interface {
	EnqueueAudioSummarize(ctx context.Context, payload queue.AudioSummarizePayload) error
}

type AudioHandler struct {
	pipeline  Pipeline
	jobs      JobStore
	queue     Enqueuer
	maxUpload int64
	timeout   time.Duration
}

// NewAudioHandler creates the audio endpoints. jobs and q may be nil when
// background processing is not configured.
func NewAudioHandler(p Pipeline, jobs JobStore, q Enqueuer, maxUploadBytes int64, timeout time.Duration) *AudioHandler {
	return &AudioHandler{pipeline: p, jobs: jobs, queue: q, maxUpload: maxUploadBytes, timeout: timeout}
}

type summaryData struct {
	Summary           string `json:"summary"`
	StructuredSummary string `json:"structuredSummary"`
}

type summaryResponse struct {
	Success bool        `json:"success"`
	Data    summaryData `json:"data"`
	Message string      `json:"message"`
}

type urlRequest struct {
	URL         string `json:"url"`
	CallbackURL string `json:"callback_url,omitempty"`
}

// Summarize processes an uploaded file in the "audio" multipart field.
func (h *AudioHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1<<20)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, http.StatusRequestEntityTooLarge, "audio file exceeds the upload limit")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no audio file provided")
		return
	}
	defer file.Close()

	if header.Size > h.maxUpload {
		writeError(w, http.StatusRequestEntityTooLarge, "audio file exceeds the upload limit")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read audio file")
		return
	}

	asset := audio.NewSniffedAsset(data, header.Header.Get("Content-Type"), header.Filename)
	if !AllowedUploadMIMETypes[strings.ToLower(asset.MIMEType())] {
		slog.Warn("rejected upload", "file", asset.FileName(), "mime", asset.MIMEType())
		writeError(w, http.StatusUnsupportedMediaType,
			"file must be an audio format (mp3, wav, m4a, aac, caf, ogg, webm, mp4, flac)")
		return
	}

	h.run(w, r, pipeline.Input{Asset: &asset}, "Audio processed and summarized successfully")
}

// SummarizeFromURL processes an audio object referenced by URL.
func (h *AudioHandler) SummarizeFromURL(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeURL(w, r)
	if !ok {
		return
	}
	h.run(w, r, pipeline.Input{URL: req.URL}, "Audio processed and summarized successfully from URL")
}

func (h *AudioHandler) run(w http.ResponseWriter, r *http.Request, in pipeline.Input, message string) {
	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	res, err := h.pipeline.Run(ctx, in)
	if err != nil {
		writePipelineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summaryResponse{
		Success: true,
		Data:    summaryData{Summary: res.Text, StructuredSummary: res.Text},
		Message: message,
	})
}

// CreateJob enqueues a URL for background processing. An optional
// callback_url receives the outcome when the job finishes.
func (h *AudioHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeURL(w, r)
	if !ok {
		return
	}
	if req.CallbackURL != "" && !validHTTPURL(req.CallbackURL) {
		writeError(w, http.StatusBadRequest, "invalid callback URL")
		return
	}

	id := uuid.NewString()
	job, err := h.jobs.Create(r.Context(), id, req.URL)
	if err != nil {
		slog.Error("create job failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not create job")
		return
	}

	if err := h.queue.EnqueueAudioSummarize(r.Context(), queue.AudioSummarizePayload{
		JobID:       id,
		URL:         req.URL,
		CallbackURL: req.CallbackURL,
	}); err != nil {
		slog.Error("enqueue job failed", "job_id", id, "error", err)
		if ferr := h.jobs.Fail(r.Context(), id, "enqueue", err); ferr != nil {
			slog.Error("mark job failed", "job_id", id, "error", ferr)
		}
		writeError(w, http.StatusInternalServerError, "could not enqueue job")
		return
	}

	writeJSON(w, http.StatusAccepted, job)
}

// GetJob returns a job record.
func (h *AudioHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid job ID")
		return
	}

	job, err := h.jobs.Get(r.Context(), id.String())
	if errors.Is(err, cache.ErrMiss) {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		slog.Error("get job failed", "job_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "could not load job")
		return
	}

	writeJSON(w, http.StatusOK, job)
}

func decodeURL(w http.ResponseWriter, r *http.Request) (urlRequest, bool) {
	var req urlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}

	req.URL = strings.TrimSpace(req.URL)
	req.CallbackURL = strings.TrimSpace(req.CallbackURL)
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "audio file URL is required")
		return req, false
	}
	if !validHTTPURL(req.URL) {
		writeError(w, http.StatusBadRequest, "invalid URL")
		return req, false
	}
	return req, true
}

func validHTTPURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{"success": false, "error": msg})
}

// writePipelineError maps pipeline failures to HTTP statuses.
func writePipelineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.Is(err, audio.ErrUnsupportedFormat):
		status = http.StatusUnsupportedMediaType
	case errors.Is(err, audio.ErrRemoteFetch):
		status = http.StatusBadRequest
	case errors.Is(err, audio.ErrTranscriptionEmpty):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, audio.ErrTranscription):
		status = http.StatusBadGateway
	case errors.Is(err, pipeline.ErrNoInput):
		status = http.StatusBadRequest
	}

	body := map[string]interface{}{
		"success": false,
		"error":   "error processing audio: " + err.Error(),
	}
	var se *audio.StageError
	if errors.As(err, &se) {
		body["stage"] = se.Stage
		if se.Status != 0 {
			body["upstream_status"] = se.Status
		}
	}
	writeJSON(w, status, body)
}
