package stt

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/audiobrief/internal/audio"
	"github.com/nikhilbhutani/audiobrief/internal/config"
)

type fakeProvider struct {
	resp  *TranscriptionResponse
	err   error
	calls int
	req   TranscriptionRequest
	body  []byte
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Transcribe(_ context.Context, req TranscriptionRequest) (*TranscriptionResponse, error) {
	f.calls++
	f.req = req
	f.body, _ = io.ReadAll(req.Audio)
	return f.resp, f.err
}

func TestAdapter_Transcribe(t *testing.T) {
	p := &fakeProvider{resp: &TranscriptionResponse{Text: "  la cocina mide tres metros \n"}}
	a := NewAdapter(p, "")

	res, err := a.Transcribe(context.Background(), audio.NewAsset([]byte("mp3"), "audio/mpeg", "memo.mp3"))
	require.NoError(t, err)

	assert.Equal(t, "la cocina mide tres metros", res.Text)
	assert.Equal(t, "es", p.req.Language)
	assert.Equal(t, "memo.mp3", p.req.FileName)
	assert.Equal(t, "audio/mpeg", p.req.MIMEType)
	assert.Equal(t, []byte("mp3"), p.body)
}

func TestAdapter_Empty(t *testing.T) {
	for _, resp := range []*TranscriptionResponse{nil, {Text: ""}, {Text: " \n\t"}} {
		a := NewAdapter(&fakeProvider{resp: resp}, "es")

		_, err := a.Transcribe(context.Background(), audio.NewAsset([]byte("x"), "audio/mpeg", "a.mp3"))
		assert.ErrorIs(t, err, audio.ErrTranscriptionEmpty)
		assert.NotErrorIs(t, err, audio.ErrTranscription)
	}
}

func TestAdapter_ErrorNotRetried(t *testing.T) {
	p := &fakeProvider{err: &ProviderError{Provider: "fake", Status: 429, Detail: "rate limited", Err: errors.New("429")}}
	a := NewAdapter(p, "es")

	_, err := a.Transcribe(context.Background(), audio.NewAsset([]byte("x"), "audio/mpeg", "a.mp3"))
	require.Error(t, err)
	assert.Equal(t, 1, p.calls)
	assert.ErrorIs(t, err, audio.ErrTranscription)

	var se *audio.StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, audio.StageTranscribe, se.Stage)
	assert.Equal(t, 429, se.Status)
	assert.Equal(t, "rate limited", se.Detail)
}

func TestOpenAISTT_Transcribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}

		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "es", r.FormValue("language"))
		assert.Equal(t, "text", r.FormValue("response_format"))

		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "mp3-bytes", string(data))
		assert.Contains(t, hdr.Filename, "memo.mp3")

		w.Header().Set("Content-Type", "text/plain")
		io.WriteString(w, "hola mundo\n")
	}))
	defer srv.Close()

	a := NewAdapter(NewOpenAISTT(OpenAISTTConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1"}), "es")

	res, err := a.Transcribe(context.Background(), audio.NewAsset([]byte("mp3-bytes"), "audio/mpeg", "memo.mp3"))
	require.NoError(t, err)
	assert.Equal(t, "hola mundo", res.Text)
}

func TestOpenAISTT_UploadNameCarriesFormat(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		f.Close()
		got = hdr.Filename

		w.Header().Set("Content-Type", "text/plain")
		io.WriteString(w, "hola\n")
	}))
	defer srv.Close()

	asset := audio.NewAsset([]byte("m4a-bytes"), "audio/x-m4a", "memo")
	require.True(t, audio.IsNativelyAcceptable(asset.MIMEType(), asset.FileName()))

	a := NewAdapter(NewOpenAISTT(OpenAISTTConfig{APIKey: "k", BaseURL: srv.URL + "/v1"}), "es")
	_, err := a.Transcribe(context.Background(), asset)
	require.NoError(t, err)
	assert.Contains(t, got, "memo.m4a")
}

func TestUploadName(t *testing.T) {
	tests := []struct {
		name string
		req  TranscriptionRequest
		want string
	}{
		{"keeps extension", TranscriptionRequest{FileName: "memo.mp3", MIMEType: "audio/wav"}, "memo.mp3"},
		{"adds from mime", TranscriptionRequest{FileName: "memo", MIMEType: "audio/x-m4a"}, "memo.m4a"},
		{"unknown mime", TranscriptionRequest{FileName: "memo", MIMEType: "application/octet-stream"}, "memo"},
		{"no mime", TranscriptionRequest{FileName: "memo"}, "memo"},
		{"empty name", TranscriptionRequest{MIMEType: "audio/mpeg"}, "audio.mp3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, uploadName(tt.req))
		})
	}
}

func TestOpenAISTT_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":{"message":"Invalid API key","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	a := NewAdapter(NewOpenAISTT(OpenAISTTConfig{APIKey: "bad", BaseURL: srv.URL + "/v1"}), "es")

	_, err := a.Transcribe(context.Background(), audio.NewAsset([]byte("x"), "audio/mpeg", "a.mp3"))
	require.Error(t, err)

	var se *audio.StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.Status)
	assert.Contains(t, se.Detail, "Invalid API key")
}

func TestNewFromConfig(t *testing.T) {
	a, err := NewFromConfig(config.STTConfig{Backend: "local", Language: "en"})
	require.NoError(t, err)
	assert.Equal(t, "local-whisper", a.provider.Name())
	assert.Equal(t, "en", a.language)

	a, err = NewFromConfig(config.STTConfig{OpenAIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "openai-whisper", a.provider.Name())
	assert.Equal(t, DefaultLanguage, a.language)

	_, err = NewFromConfig(config.STTConfig{Backend: "azure"})
	assert.Error(t, err)
}
