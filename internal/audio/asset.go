// Package audio holds the in-memory audio asset, format classification and the
// error taxonomy shared by every pipeline stage.
package audio

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const genericMIME = "application/octet-stream"

// Asset is an immutable audio file held in memory. Stages that transform audio
// build a new Asset instead of modifying one.
type Asset struct {
	data     []byte
	mimeType string
	fileName string
}

// NewAsset builds an Asset. The caller must not modify data afterwards.
func NewAsset(data []byte, mimeType, fileName string) Asset {
	return Asset{
		data:     data,
		mimeType: strings.TrimSpace(mimeType),
		fileName: fileName,
	}
}

// NewSniffedAsset is NewAsset, except a missing or generic declared MIME type is
// replaced with one detected from the content.
func NewSniffedAsset(data []byte, mimeType, fileName string) Asset {
	mt := strings.TrimSpace(mimeType)
	if mt == "" || strings.EqualFold(mt, genericMIME) {
		mt = SniffMIME(data)
	}
	return NewAsset(data, mt, fileName)
}

// SniffMIME detects a MIME type from the leading bytes of data. It returns an
// empty string when nothing more specific than octet-stream is found.
func SniffMIME(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	mt := mimetype.Detect(data).String()
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	if mt == genericMIME {
		return ""
	}
	return mt
}

// Data returns the raw bytes. The slice is shared; do not modify it.
func (a Asset) Data() []byte { return a.data }

// MIMEType returns the declared MIME type, which may be empty.
func (a Asset) MIMEType() string { return a.mimeType }

// FileName returns the original file name.
func (a Asset) FileName() string { return a.fileName }

// Size returns the byte length of the asset.
func (a Asset) Size() int { return len(a.data) }

// Ext returns the lower-cased file name extension without the dot.
func (a Asset) Ext() string {
	return fileExt(a.fileName)
}

// Stem returns the file name without directory and extension.
func (a Asset) Stem() string {
	base := filepath.Base(a.fileName)
	if base == "." || base == string(filepath.Separator) {
		return "audio"
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		return "audio"
	}
	return stem
}

func fileExt(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}
