// Package fetch turns a remote object-store URL into an audio.Asset.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/nikhilbhutani/audiobrief/internal/audio"
	"github.com/nikhilbhutani/audiobrief/internal/storage"
)

// Defaults for objects that do not report a type or a usable name.
const (
	DefaultMIME     = "audio/m4a"
	DefaultFileName = "audio.m4a"
)

// Fetcher downloads audio from the configured object stores.
type Fetcher struct {
	stores       map[Backend]storage.ObjectStore
	supabaseBase string
}

// New creates a Fetcher. s3Store may be nil when no S3 credentials are set.
func New(s3Store storage.ObjectStore) *Fetcher {
	f := &Fetcher{stores: make(map[Backend]storage.ObjectStore)}
	if s3Store != nil {
		f.stores[BackendS3] = s3Store
	}
	return f
}

// WithSupabase enables Supabase object URLs rooted at baseURL
// (https://<project>.supabase.co/storage/v1).
func (f *Fetcher) WithSupabase(store storage.ObjectStore, baseURL string) *Fetcher {
	f.stores[BackendSupabase] = store
	f.supabaseBase = strings.TrimRight(baseURL, "/")
	return f
}

// Parse resolves raw to a Location without downloading anything.
func (f *Fetcher) Parse(raw string) (Location, error) {
	if loc, ok := parseSupabaseURL(raw, f.supabaseBase); ok {
		return loc, nil
	}
	return ParseObjectURL(raw)
}

// Fetch downloads the object behind raw. Every failure matches
// audio.ErrRemoteFetch.
func (f *Fetcher) Fetch(ctx context.Context, raw string) (audio.Asset, error) {
	loc, err := f.Parse(raw)
	if err != nil {
		return audio.Asset{}, audio.NewStageError(audio.StageFetch, audio.ErrRemoteFetch, "unrecognized object URL", err)
	}

	store, ok := f.stores[loc.Backend]
	if !ok {
		msg := fmt.Sprintf("no %s client configured", loc.Backend)
		return audio.Asset{}, audio.NewStageError(audio.StageFetch, audio.ErrRemoteFetch, msg, nil)
	}

	slog.Info("downloading audio", "backend", loc.Backend, "bucket", loc.Bucket, "key", loc.Key)
	start := time.Now()

	obj, err := store.Download(ctx, loc.Bucket, loc.Key)
	if err != nil {
		return audio.Asset{}, audio.NewStageError(audio.StageFetch, audio.ErrRemoteFetch, "download failed", err)
	}
	if len(obj.Body) == 0 {
		return audio.Asset{}, audio.NewStageError(audio.StageFetch, audio.ErrRemoteFetch, "object has no body", nil)
	}

	name := path.Base(loc.Key)
	if name == "" || name == "." || name == "/" {
		name = DefaultFileName
	}
	if fromHeader := DispositionFileName(obj.ContentDisposition); fromHeader != "" {
		name = fromHeader
	}

	contentType := strings.TrimSpace(obj.ContentType)
	if contentType == "" {
		contentType = DefaultMIME
	}

	asset := audio.NewSniffedAsset(obj.Body, contentType, name)
	slog.Info("audio downloaded",
		"file", asset.FileName(),
		"bytes", asset.Size(),
		"mime", asset.MIMEType(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return asset, nil
}

var dispositionRe = regexp.MustCompile(`filename[^;=\n]*=([^;\n]*)`)

// DispositionFileName extracts the file name from a Content-Disposition header.
// Malformed headers fall back to a lenient match.
func DispositionFileName(header string) string {
	if header == "" {
		return ""
	}
	if _, params, err := mime.ParseMediaType(header); err == nil {
		if name := strings.Trim(params["filename"], `'"`); name != "" {
			return path.Base(name)
		}
	}
	m := dispositionRe.FindStringSubmatch(header)
	if m == nil {
		return ""
	}
	name := strings.Trim(strings.TrimSpace(m[1]), `'"`)
	if name == "" {
		return ""
	}
	return path.Base(name)
}
