package fetch

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Backend identifies the object store a URL points at.
type Backend string

const (
	BackendS3       Backend = "s3"
	BackendSupabase Backend = "supabase"
)

// Location is a parsed object reference.
type Location struct {
	Backend Backend
	Bucket  string
	Key     string
}

var errUnrecognized = errors.New("unrecognized object URL")

// ParseObjectURL parses an S3 object URL in either virtual-hosted style
// (bucket.s3.region.amazonaws.com/key) or path style
// (s3.region.amazonaws.com/bucket/key).
func ParseObjectURL(raw string) (Location, error) {
	u, err := parseHTTPURL(raw)
	if err != nil {
		return Location{}, err
	}

	host := strings.ToLower(u.Hostname())
	if !strings.HasSuffix(host, ".amazonaws.com") ||
		!(strings.Contains(host, ".s3.") || strings.HasPrefix(host, "s3.")) {
		return Location{}, fmt.Errorf("%w: %s", errUnrecognized, raw)
	}

	loc := Location{Backend: BackendS3}
	if strings.HasPrefix(host, "s3.") {
		bucket, key, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
		loc.Bucket, loc.Key = bucket, key
	} else {
		loc.Bucket = host[:strings.Index(host, ".s3.")]
		loc.Key = strings.TrimPrefix(u.Path, "/")
	}

	if loc.Bucket == "" || loc.Key == "" {
		return Location{}, fmt.Errorf("%w: missing bucket or key in %s", errUnrecognized, raw)
	}
	return loc, nil
}

// parseSupabaseURL parses <base>/object/[public/|authenticated/]bucket/key
// where base is the storage API root.
func parseSupabaseURL(raw, base string) (Location, bool) {
	if base == "" {
		return Location{}, false
	}
	u, err := parseHTTPURL(raw)
	if err != nil {
		return Location{}, false
	}
	b, err := url.Parse(base)
	if err != nil || !strings.EqualFold(u.Host, b.Host) {
		return Location{}, false
	}

	rest, ok := strings.CutPrefix(u.Path, strings.TrimRight(b.Path, "/")+"/object/")
	if !ok {
		return Location{}, false
	}
	for _, p := range []string{"public/", "authenticated/"} {
		rest = strings.TrimPrefix(rest, p)
	}

	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return Location{}, false
	}
	return Location{Backend: BackendSupabase, Bucket: bucket, Key: key}, true
}

func parseHTTPURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errUnrecognized, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", errUnrecognized, u.Scheme)
	}
	return u, nil
}
