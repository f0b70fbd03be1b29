package fetch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/audiobrief/internal/audio"
	"github.com/nikhilbhutani/audiobrief/internal/storage"
)

type fakeStore struct {
	name  string
	obj   *storage.Object
	err   error
	calls int

	bucket, key string
}

func (f *fakeStore) Name() string { return f.name }

func (f *fakeStore) Download(_ context.Context, bucket, key string) (*storage.Object, error) {
	f.calls++
	f.bucket, f.key = bucket, key
	return f.obj, f.err
}

func TestParseObjectURL(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantBucket string
		wantKey    string
		wantErr    bool
	}{
		{"virtual hosted with region", "https://recordings.s3.us-east-1.amazonaws.com/users/7/memo.caf", "recordings", "users/7/memo.caf", false},
		{"virtual hosted global", "https://recordings.s3.amazonaws.com/memo.m4a", "recordings", "memo.m4a", false},
		{"dotted bucket", "https://my.bucket.s3.eu-west-1.amazonaws.com/a.mp3", "my.bucket", "a.mp3", false},
		{"path style with region", "https://s3.us-west-2.amazonaws.com/recordings/users/7/memo.caf", "recordings", "users/7/memo.caf", false},
		{"path style global", "https://s3.amazonaws.com/recordings/memo.m4a", "recordings", "memo.m4a", false},
		{"escaped key", "https://b.s3.amazonaws.com/voice%20memo.m4a", "b", "voice memo.m4a", false},
		{"query ignored", "https://b.s3.amazonaws.com/k.m4a?X-Amz-Signature=abc", "b", "k.m4a", false},
		{"other host", "https://example.com/audio.m4a", "", "", true},
		{"lookalike host", "https://s3.example.com/b/k", "", "", true},
		{"no key virtual", "https://b.s3.amazonaws.com/", "", "", true},
		{"no key path", "https://s3.amazonaws.com/bucket", "", "", true},
		{"ftp scheme", "ftp://b.s3.amazonaws.com/k", "", "", true},
		{"garbage", "::not a url", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := ParseObjectURL(tt.url)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, errUnrecognized)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, BackendS3, loc.Backend)
			assert.Equal(t, tt.wantBucket, loc.Bucket)
			assert.Equal(t, tt.wantKey, loc.Key)
		})
	}
}

func TestFetcher_ParseSupabase(t *testing.T) {
	f := New(nil).WithSupabase(&fakeStore{name: "supabase"}, "https://proj.supabase.co/storage/v1/")

	tests := []struct {
		url    string
		bucket string
		key    string
	}{
		{"https://proj.supabase.co/storage/v1/object/public/audio/u/1/memo.m4a", "audio", "u/1/memo.m4a"},
		{"https://proj.supabase.co/storage/v1/object/audio/memo.caf", "audio", "memo.caf"},
		{"https://proj.supabase.co/storage/v1/object/authenticated/audio/memo.caf", "audio", "memo.caf"},
		{"https://proj.supabase.co/storage/v1/object/public/audio/memo%3Fv2.mp3", "audio", "memo?v2.mp3"},
		{"https://proj.supabase.co/storage/v1/object/public/audio/100%25.mp3", "audio", "100%.mp3"},
	}
	for _, tt := range tests {
		loc, err := f.Parse(tt.url)
		require.NoError(t, err, tt.url)
		assert.Equal(t, BackendSupabase, loc.Backend)
		assert.Equal(t, tt.bucket, loc.Bucket)
		assert.Equal(t, tt.key, loc.Key)
	}

	_, err := f.Parse("https://other.supabase.co/storage/v1/object/public/audio/memo.m4a")
	assert.Error(t, err)
}

func TestFetcher_Fetch(t *testing.T) {
	store := &fakeStore{name: "s3", obj: &storage.Object{
		Body:        []byte("caff-data"),
		ContentType: "audio/x-caf",
	}}
	f := New(store)

	asset, err := f.Fetch(context.Background(), "https://rec.s3.us-east-1.amazonaws.com/u/1/memo.caf")
	require.NoError(t, err)

	assert.Equal(t, "rec", store.bucket)
	assert.Equal(t, "u/1/memo.caf", store.key)
	assert.Equal(t, []byte("caff-data"), asset.Data())
	assert.Equal(t, "audio/x-caf", asset.MIMEType())
	assert.Equal(t, "memo.caf", asset.FileName())
	assert.Equal(t, 9, asset.Size())
}

func TestFetcher_FetchDefaultsAndDisposition(t *testing.T) {
	store := &fakeStore{obj: &storage.Object{
		Body:               []byte("data"),
		ContentDisposition: `attachment; filename="Grabación 1.m4a"`,
	}}
	f := New(store)

	asset, err := f.Fetch(context.Background(), "https://rec.s3.amazonaws.com/abc123")
	require.NoError(t, err)

	assert.Equal(t, DefaultMIME, asset.MIMEType())
	assert.Equal(t, "Grabación 1.m4a", asset.FileName())
}

func TestFetcher_FetchErrors(t *testing.T) {
	const validURL = "https://rec.s3.amazonaws.com/memo.m4a"

	tests := []struct {
		name    string
		fetcher *Fetcher
		url     string
		calls   bool
	}{
		{"unrecognized url", New(&fakeStore{}), "https://example.com/memo.m4a", false},
		{"no client", New(nil), validURL, false},
		{"download error", New(&fakeStore{err: storage.ErrNotFound}), validURL, true},
		{"empty body", New(&fakeStore{obj: &storage.Object{}}), validURL, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.fetcher.Fetch(context.Background(), tt.url)
			require.Error(t, err)
			assert.True(t, errors.Is(err, audio.ErrRemoteFetch))
			assert.Equal(t, audio.StageFetch, audio.StageOf(err))

			store := tt.fetcher.stores[BackendS3]
			if fs, ok := store.(*fakeStore); ok {
				assert.Equal(t, tt.calls, fs.calls > 0)
			}
		})
	}
}

func TestDispositionFileName(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{`attachment; filename="memo.caf"`, "memo.caf"},
		{`attachment; filename=memo.m4a`, "memo.m4a"},
		{`inline; filename*=UTF-8''voz%20nota.m4a`, "voz nota.m4a"},
		{`attachment; filename='quoted.mp3'`, "quoted.mp3"},
		{`attachment; filename="../../etc/passwd"`, "passwd"},
		{"inline", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DispositionFileName(tt.header), tt.header)
	}
}
