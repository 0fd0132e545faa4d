// Package bridge holds the wire contract of the bridge service and a client
// that consumes its NDJSON job stream.
package bridge

import "vidabot/internal/domain"

// Stream event types.
const (
	EventProgress = "progress"
	EventResult   = "result"
	EventError    = "error"
)

// GenerateVideoRequest is the JSON body of POST /generate-video.
type GenerateVideoRequest struct {
	APIKey         string         `json:"apiKey,omitempty"`
	Prompt         string         `json:"prompt"`
	Config         map[string]any `json:"config,omitempty"`
	ReferenceImage string         `json:"referenceImage,omitempty"`
}

// StreamEvent is one NDJSON line of the job stream.
type StreamEvent struct {
	Type        string  `json:"type"`
	Message     string  `json:"message,omitempty"`
	Success     bool    `json:"success,omitempty"`
	VideoData   string  `json:"videoData,omitempty"`
	MimeType    string  `json:"mimeType,omitempty"`
	Duration    int     `json:"duration,omitempty"`
	SizeBytes   int64   `json:"sizeBytes,omitempty"`
	Model       string  `json:"model,omitempty"`
	Strategy    string  `json:"strategy,omitempty"`
	JobID       string  `json:"jobId,omitempty"`
	Prompt      string  `json:"prompt,omitempty"`
	DownloadURL string  `json:"downloadUrl,omitempty"`
	Error       string  `json:"error,omitempty"`
	Code        string  `json:"code,omitempty"`
	Timestamp   float64 `json:"timestamp,omitempty"`
}

// ErrorResponse is returned before a stream has started.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

// KeyTestRequest is the body of POST /test-api-key and /test-video-access.
type KeyTestRequest struct {
	APIKey string `json:"apiKey"`
}

// KeyTestResponse reports the outcome of a key or access test.
type KeyTestResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message,omitempty"`
	Error          string `json:"error,omitempty"`
	Code           string `json:"code,omitempty"`
	HasVideoAccess *bool  `json:"hasVideoAccess,omitempty"`
	Suggestion     string `json:"suggestion,omitempty"`
}

// ErrorEvent renders a classified failure as a terminal stream event. strategy
// is the path that failed last and may be empty.
func ErrorEvent(err error, message string, strategy domain.StrategyKind) StreamEvent {
	return StreamEvent{Type: EventError, Error: message, Code: string(domain.KindOf(err)), Strategy: string(strategy)}
}

// KindFromWire restores the error kind of a wire failure, falling back to the
// HTTP status and finally the message.
func KindFromWire(code string, status int, message string) *domain.GenerationError {
	if kind, ok := domain.ParseKind(code); ok {
		return &domain.GenerationError{Kind: kind, Message: message, Status: status}
	}
	if status > 0 {
		return domain.ClassifyHTTP(status, "", message)
	}
	return domain.ClassifyMessage(message)
}
