package audio

import "strings"

// FormatHint names the demuxer the media engine should use for an input.
type FormatHint string

const (
	FormatUnknown FormatHint = ""
	FormatCAF     FormatHint = "caf" // Core Audio Format, iOS recordings
	FormatM4A     FormatHint = "m4a"
	FormatMP4     FormatHint = "mp4"
	FormatAAC     FormatHint = "aac"
	FormatWAV     FormatHint = "wav"
	FormatOGG     FormatHint = "ogg"
	FormatWebM    FormatHint = "webm"
	FormatFLAC    FormatHint = "flac"
	FormatMP3     FormatHint = "mp3"
)

func (h FormatHint) String() string {
	if h == FormatUnknown {
		return "unknown"
	}
	return string(h)
}

type formatRule struct {
	hint  FormatHint
	exts  []string
	mimes []string
}

// Order matters: the first rule whose extension or MIME substring matches wins,
// and within a rule the extension is checked first. Mobile clients report MIME
// types inconsistently, so m4a sits ahead of the generic mp4 container.
var formatRules = []formatRule{
	{FormatCAF, []string{"caf"}, []string{"caf"}},
	{FormatM4A, []string{"m4a"}, []string{"m4a", "x-m4a"}},
	{FormatMP4, []string{"mp4"}, []string{"mp4"}},
	{FormatAAC, []string{"aac"}, []string{"aac"}},
	{FormatWAV, []string{"wav"}, []string{"wav"}},
	{FormatOGG, []string{"ogg"}, []string{"ogg", "oga"}},
	{FormatWebM, []string{"webm"}, []string{"webm"}},
	{FormatFLAC, []string{"flac"}, []string{"flac"}},
	{FormatMP3, []string{"mp3"}, []string{"mp3", "mpeg"}},
}

// Classify infers the input format from a MIME type and file name. It never
// fails; FormatUnknown means "let the engine probe".
func Classify(mimeType, fileName string) FormatHint {
	ext := fileExt(fileName)
	mime := strings.ToLower(mimeType)

	for _, r := range formatRules {
		for _, e := range r.exts {
			if ext == e {
				return r.hint
			}
		}
		if mime == "" {
			continue
		}
		for _, m := range r.mimes {
			if strings.Contains(mime, m) {
				return r.hint
			}
		}
	}
	return FormatUnknown
}

// nativeExts are the file extensions the transcription service accepts as-is.
var nativeExts = map[string]bool{
	"flac": true, "m4a": true, "mp3": true, "mp4": true, "mpeg": true,
	"mpga": true, "oga": true, "ogg": true, "wav": true, "webm": true,
}

var nativeMIMEParts = []string{"mp3", "mpeg", "wav", "m4a", "ogg", "webm", "flac", "mp4"}

// NativeFormats lists the accepted formats for error messages.
const NativeFormats = "flac, m4a, mp3, mp4, mpeg, mpga, oga, ogg, wav, webm"

// IsNativelyAcceptable reports whether the transcription service can take the
// file without transcoding, by extension or by MIME substring.
func IsNativelyAcceptable(mimeType, fileName string) bool {
	if ext := fileExt(fileName); ext != "" && nativeExts[ext] {
		return true
	}
	mime := strings.ToLower(mimeType)
	if mime == "" {
		return false
	}
	for _, part := range nativeMIMEParts {
		if strings.Contains(mime, part) {
			return true
		}
	}
	return false
}

var mimeExtRules = []struct {
	parts []string
	ext   string
}{
	{[]string{"mp3", "mpeg"}, ".mp3"},
	{[]string{"wav"}, ".wav"},
	{[]string{"m4a", "x-m4a"}, ".m4a"},
	{[]string{"mp4"}, ".mp4"},
	{[]string{"ogg", "oga"}, ".ogg"},
	{[]string{"webm"}, ".webm"},
	{[]string{"flac"}, ".flac"},
	{[]string{"caf"}, ".caf"},
	{[]string{"aac"}, ".aac"},
}

// ExtensionFromMIME maps a MIME type to a file extension including the dot,
// or ".tmp" when nothing matches.
func ExtensionFromMIME(mimeType string) string {
	mime := strings.ToLower(mimeType)
	if mime == "" {
		return ".tmp"
	}
	for _, r := range mimeExtRules {
		for _, p := range r.parts {
			if strings.Contains(mime, p) {
				return r.ext
			}
		}
	}
	return ".tmp"
}
