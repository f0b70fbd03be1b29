package webhook

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type received struct {
	event, job, signature string
	body                  []byte
}

func TestDispatcher_DeliversSigned(t *testing.T) {
	var (
		mu  sync.Mutex
		got []received
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		got = append(got, received{
			event:     r.Header.Get("X-Audiobrief-Event"),
			job:       r.Header.Get("X-Audiobrief-Job"),
			signature: r.Header.Get("X-Audiobrief-Signature"),
			body:      body,
		})
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := NewDispatcher("whsec_test", 4)
	d.Notify(srv.URL, "j1", EventJobCompleted, map[string]string{"summary": "NOTES"})
	d.Close()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, EventJobCompleted, got[0].event)
	assert.Equal(t, "j1", got[0].job)
	assert.Equal(t, Sign(got[0].body, "whsec_test"), got[0].signature)

	var body map[string]string
	require.NoError(t, json.Unmarshal(got[0].body, &body))
	assert.Equal(t, "NOTES", body["summary"])
}

func TestDispatcher_UnsignedWithoutSecret(t *testing.T) {
	var sig string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sig = r.Header.Get("X-Audiobrief-Signature")
	}))
	defer srv.Close()

	d := NewDispatcher("", 1)
	d.Notify(srv.URL, "j2", EventJobFailed, struct{}{})
	d.Close()

	assert.Empty(t, sig)
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	d := &Dispatcher{deliveries: make(chan DeliveryRequest, 1)}

	d.Enqueue(DeliveryRequest{JobID: "a"})
	d.Enqueue(DeliveryRequest{JobID: "b"})

	assert.Len(t, d.deliveries, 1)
	assert.Equal(t, "a", (<-d.deliveries).JobID)
}

func TestSign(t *testing.T) {
	assert.Equal(t,
		"sha256=f7bc83f430538424b13298e6aa6fb143ef4d59a14946175997479dbc2d1a3cd8",
		Sign([]byte("The quick brown fox jumps over the lazy dog"), "key"))
}
