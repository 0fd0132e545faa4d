package domain

import (
	"encoding/base64"
	"strings"
)

// MaterializedAsset is a fetched, locally usable generated asset. The caller
// owns it once returned.
type MaterializedAsset struct {
	Bytes     []byte
	MimeType  string
	SizeBytes int64
}

// NewMaterializedAsset wraps raw bytes.
func NewMaterializedAsset(data []byte, mimeType string) *MaterializedAsset {
	mimeType = strings.TrimSpace(mimeType)
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	return &MaterializedAsset{Bytes: data, MimeType: mimeType, SizeBytes: int64(len(data))}
}

// Base64 encodes the asset bytes for the wire.
func (a *MaterializedAsset) Base64() string {
	if a == nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(a.Bytes)
}

// Extension returns the file extension matching the asset MIME type.
func (a *MaterializedAsset) Extension() string {
	if a == nil {
		return ".bin"
	}
	switch a.MimeType {
	case "video/mp4":
		return ".mp4"
	case "video/webm":
		return ".webm"
	case "video/quicktime":
		return ".mov"
	case "image/gif":
		return ".gif"
	case "image/png":
		return ".png"
	default:
		return ".bin"
	}
}
