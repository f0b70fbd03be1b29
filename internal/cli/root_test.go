package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/audiobrief/internal/audio"
	"github.com/nikhilbhutani/audiobrief/internal/pipeline"
)

type fakeRunner struct {
	in  pipeline.Input
	res *pipeline.Result
	err error
}

func (f *fakeRunner) Run(_ context.Context, in pipeline.Input) (*pipeline.Result, error) {
	f.in = in
	return f.res, f.err
}

func execute(t *testing.T, fs afero.Fs, r *fakeRunner, args ...string) (string, error) {
	t.Helper()
	built := 0
	cmd := NewRootCommand(fs, func(context.Context) (Runner, error) {
		built++
		return r, nil
	})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	if err != nil && r.in.Asset == nil && r.in.URL == "" {
		assert.Zero(t, built, "pipeline must not be built for invalid input")
	}
	return out.String(), err
}

func TestSummarize_File(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/rec/memo.caf", []byte("caff"), 0o644))
	r := &fakeRunner{res: &pipeline.Result{Text: "NOTES\n- one"}}

	out, err := execute(t, fs, r, "summarize", "--file", "/rec/memo.caf", "--mime", "audio/x-caf")
	require.NoError(t, err)

	assert.Equal(t, "NOTES\n- one\n", out)
	require.NotNil(t, r.in.Asset)
	assert.Equal(t, "memo.caf", r.in.Asset.FileName())
	assert.Equal(t, "audio/x-caf", r.in.Asset.MIMEType())
}

func TestSummarize_URLAsJSON(t *testing.T) {
	r := &fakeRunner{res: &pipeline.Result{Text: "s", Transcript: "t", MinChars: 1}}

	out, err := execute(t, afero.NewMemMapFs(), r, "summarize", "--url", "https://b.s3.amazonaws.com/a.m4a", "--json")
	require.NoError(t, err)

	assert.Equal(t, "https://b.s3.amazonaws.com/a.m4a", r.in.URL)
	var got pipeline.Result
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "s", got.Text)
	assert.Equal(t, "t", got.Transcript)
}

func TestSummarize_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"nothing", []string{"summarize"}, "required"},
		{"both", []string{"summarize", "--file", "a.mp3", "--url", "https://x"}, "not both"},
		{"missing file", []string{"summarize", "--file", "/nope.mp3"}, "read /nope.mp3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, afero.NewMemMapFs(), &fakeRunner{}, tt.args...)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestSummarize_PipelineError(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "a.xyz", []byte("??"), 0o644))
	r := &fakeRunner{err: audio.NewStageError(audio.StageClassify, audio.ErrUnsupportedFormat, "", nil)}

	_, err := execute(t, fs, r, "summarize", "-f", "a.xyz")
	assert.True(t, errors.Is(err, audio.ErrUnsupportedFormat))
}
