package domain

// EventKind classifies a progress event.
type EventKind string

const (
	EventProgress EventKind = "progress"
	EventResult   EventKind = "result"
	EventError    EventKind = "error"
)

// Terminal reports whether the event closes a stream.
func (k EventKind) Terminal() bool {
	return k == EventResult || k == EventError
}

// ProgressEvent is one entry of a job's ordered event stream. Payload is set on
// Result events; Err on Error events. Strategy names the path whose failure
// ended the job, when one ran.
type ProgressEvent struct {
	Kind     EventKind
	Message  string
	Payload  *Result
	Err      error
	Strategy StrategyKind
}

// Result is the payload of a terminal Result event.
type Result struct {
	JobID           string
	Strategy        StrategyKind
	Model           string
	Asset           *MaterializedAsset
	DurationSeconds int
	SourceURI       string
	PollCount       int
}
