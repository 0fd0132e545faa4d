package domain

import "time"

// GenerationRecord is the ledger entry written for every terminal job.
type GenerationRecord struct {
	JobID      string
	Strategy   StrategyKind
	Model      string
	State      JobState
	ErrorKind  ErrorKind
	PollCount  int
	SizeBytes  int64
	DurationMS int64
	CreatedAt  time.Time
}

// GenerationSummary aggregates ledger entries over a window.
type GenerationSummary struct {
	Since      time.Time
	Total      int
	Completed  int
	Failed     int
	TimedOut   int
	Cancelled  int
	ByStrategy map[StrategyKind]int
	ByError    map[ErrorKind]int
}

// RecordFromJob builds the ledger entry for a terminal job.
func RecordFromJob(job *Job, model string, asset *MaterializedAsset) GenerationRecord {
	rec := GenerationRecord{
		JobID:      job.ID,
		Strategy:   job.Strategy,
		Model:      model,
		State:      job.State,
		PollCount:  job.PollCount,
		DurationMS: job.Duration().Milliseconds(),
		CreatedAt:  job.CreatedAt,
	}
	if job.Err != nil {
		rec.ErrorKind = KindOf(job.Err)
	}
	if asset != nil {
		rec.SizeBytes = asset.SizeBytes
	}
	return rec
}
