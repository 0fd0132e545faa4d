package domain

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind is the closed taxonomy every collaborator failure is classified into
// before it reaches the poll loop or the fallback selector.
type ErrorKind string

const (
	KindValidation  ErrorKind = "validation"
	KindAuth        ErrorKind = "auth"
	KindPermission  ErrorKind = "permission"
	KindRateLimit   ErrorKind = "rate_limit"
	KindTransient   ErrorKind = "transient"
	KindEmptyResult ErrorKind = "empty_result"
	KindTimedOut    ErrorKind = "timed_out"
	KindDownload    ErrorKind = "download"
	KindCancelled   ErrorKind = "cancelled"
	KindUnknown     ErrorKind = "unknown"
)

var (
	ErrValidation  = errors.New("invalid generation request")
	ErrAuth        = errors.New("credentials rejected")
	ErrPermission  = errors.New("capability not permitted")
	ErrRateLimit   = errors.New("quota exceeded")
	ErrTransient   = errors.New("transient provider failure")
	ErrEmptyResult = errors.New("no asset was produced")
	ErrTimedOut    = errors.New("generation took too long")
	ErrDownload    = errors.New("asset download failed")
	ErrCancelled   = errors.New("generation cancelled")

	// ErrFallbackUsed marks a failure whose fallback already ran upstream.
	ErrFallbackUsed = errors.New("fallback already attempted")
)

var sentinels = map[ErrorKind]error{
	KindValidation:  ErrValidation,
	KindAuth:        ErrAuth,
	KindPermission:  ErrPermission,
	KindRateLimit:   ErrRateLimit,
	KindTransient:   ErrTransient,
	KindEmptyResult: ErrEmptyResult,
	KindTimedOut:    ErrTimedOut,
	KindDownload:    ErrDownload,
	KindCancelled:   ErrCancelled,
}

// GenerationError is a classified failure. Status carries the upstream HTTP
// status when one was observed.
type GenerationError struct {
	Kind    ErrorKind
	Message string
	Status  int
	Err     error
}

func (e *GenerationError) Error() string {
	if e.Err != nil && e.Message != "" {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match a classified error against the sentinel of its kind.
func (e *GenerationError) Is(target error) bool {
	sentinel, ok := sentinels[e.Kind]
	return ok && sentinel == target
}

// NewError builds a classified error.
func NewError(kind ErrorKind, message string, cause error) *GenerationError {
	return &GenerationError{Kind: kind, Message: message, Err: cause}
}

// Errorf builds a classified error with a formatted message and no cause.
func Errorf(kind ErrorKind, format string, args ...any) *GenerationError {
	return &GenerationError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf reports the kind of err. Context cancellation and deadline errors are
// reported as KindCancelled; anything unclassified is KindUnknown.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCancelled
	}
	for kind, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return KindUnknown
}

// Retryable reports whether a failure of this kind may succeed when retried.
func (k ErrorKind) Retryable() bool {
	return k == KindTransient
}

// HTTPStatus maps a kind onto the status code used by the bridge before a
// stream has started.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return 400
	case KindAuth:
		return 401
	case KindPermission:
		return 403
	case KindRateLimit:
		return 429
	case KindTimedOut:
		return 504
	default:
		return 500
	}
}

// ParseKind converts a wire code back into an ErrorKind.
func ParseKind(code string) (ErrorKind, bool) {
	kind := ErrorKind(code)
	if _, ok := sentinels[kind]; ok {
		return kind, true
	}
	if kind == KindUnknown {
		return kind, true
	}
	return "", false
}
