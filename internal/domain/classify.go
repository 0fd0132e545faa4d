package domain

import (
	"net/http"
	"strings"
)

// gRPC canonical codes as reported in long-running operation errors.
const (
	rpcInvalidArgument   = 3
	rpcDeadlineExceeded  = 4
	rpcNotFound          = 5
	rpcPermissionDenied  = 7
	rpcResourceExhausted = 8
	rpcFailedPrecond     = 9
	rpcAborted           = 10
	rpcInternal          = 13
	rpcUnavailable       = 14
	rpcUnauthenticated   = 16
)

// ClassifyHTTP maps a provider HTTP failure onto the taxonomy. rpcStatus is the
// textual status of a Google API error body (e.g. PERMISSION_DENIED) and may be
// empty. This is the only place provider messages are inspected.
func ClassifyHTTP(status int, rpcStatus, message string) *GenerationError {
	kind := classifyStatusText(rpcStatus)
	if kind == "" {
		switch {
		case status == http.StatusUnauthorized:
			kind = KindAuth
		case status == http.StatusForbidden, status == http.StatusNotFound:
			kind = KindPermission
		case status == http.StatusTooManyRequests:
			kind = KindRateLimit
		case status == http.StatusBadRequest, status == http.StatusRequestEntityTooLarge,
			status == http.StatusUnprocessableEntity:
			kind = KindValidation
		case status == http.StatusRequestTimeout, status >= 500:
			kind = KindTransient
		default:
			kind = KindUnknown
		}
	}
	kind = refineByMessage(kind, message)
	msg := strings.TrimSpace(message)
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &GenerationError{Kind: kind, Message: msg, Status: status}
}

// ClassifyRPC maps the error of a finished long-running operation.
func ClassifyRPC(code int, message string) *GenerationError {
	var kind ErrorKind
	switch code {
	case rpcInvalidArgument, rpcFailedPrecond:
		kind = KindValidation
	case rpcNotFound, rpcPermissionDenied:
		kind = KindPermission
	case rpcResourceExhausted:
		kind = KindRateLimit
	case rpcUnauthenticated:
		kind = KindAuth
	case rpcDeadlineExceeded, rpcAborted, rpcInternal, rpcUnavailable:
		kind = KindTransient
	default:
		kind = KindUnknown
	}
	kind = refineByMessage(kind, message)
	return &GenerationError{Kind: kind, Message: strings.TrimSpace(message)}
}

// ClassifyMessage classifies a bare error string received from a collaborator
// that reports no status code.
func ClassifyMessage(message string) *GenerationError {
	kind := refineByMessage(KindUnknown, message)
	return &GenerationError{Kind: kind, Message: strings.TrimSpace(message)}
}

func classifyStatusText(status string) ErrorKind {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "":
		return ""
	case "INVALID_ARGUMENT", "FAILED_PRECONDITION", "OUT_OF_RANGE":
		return KindValidation
	case "UNAUTHENTICATED":
		return KindAuth
	case "PERMISSION_DENIED", "NOT_FOUND":
		return KindPermission
	case "RESOURCE_EXHAUSTED":
		return KindRateLimit
	case "UNAVAILABLE", "INTERNAL", "DEADLINE_EXCEEDED", "ABORTED":
		return KindTransient
	default:
		return ""
	}
}

// refineByMessage corrects kinds the provider reports ambiguously: an invalid
// key arrives as INVALID_ARGUMENT, and model access problems sometimes arrive
// without a status at all.
func refineByMessage(kind ErrorKind, message string) ErrorKind {
	msg := strings.ToLower(message)
	switch {
	case strings.Contains(msg, "api key not valid"), strings.Contains(msg, "api_key_invalid"),
		strings.Contains(msg, "invalid api key"):
		return KindAuth
	case kind != KindUnknown:
		return kind
	case strings.Contains(msg, "permission"), strings.Contains(msg, "access denied"),
		strings.Contains(msg, "not found"):
		return KindPermission
	case strings.Contains(msg, "quota"), strings.Contains(msg, "rate limit"):
		return KindRateLimit
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "unavailable"),
		strings.Contains(msg, "overloaded"):
		return KindTransient
	default:
		return kind
	}
}
