package queue

import (
	"context"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlersRegistry(t *testing.T) {
	var got string
	r := NewHandlersRegistry()
	r.Register(TypeAudioSummarize, asynq.HandlerFunc(func(_ context.Context, t *asynq.Task) error {
		got = string(t.Payload())
		return nil
	}))

	assert.Equal(t, []string{TypeAudioSummarize}, r.Types())

	err := r.Mux().ProcessTask(context.Background(), asynq.NewTask(TypeAudioSummarize, []byte(`{"job_id":"j"}`)))
	require.NoError(t, err)
	assert.Equal(t, `{"job_id":"j"}`, got)

	err = r.Mux().ProcessTask(context.Background(), asynq.NewTask("audio:unknown", nil))
	assert.Error(t, err)
}
