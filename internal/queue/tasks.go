package queue

const (
	TypeAudioSummarize = "audio:summarize"
)

// AudioSummarizePayload asks a worker to run the pipeline on a remote object.
type AudioSummarizePayload struct {
	JobID       string `json:"job_id"`
	URL         string `json:"url"`
	CallbackURL string `json:"callback_url,omitempty"`
}
