package generation

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"vidabot/internal/domain"
	"vidabot/internal/infra"
)

// PollConfig bounds a poll loop.
type PollConfig struct {
	Interval      time.Duration
	MaxPolls      int
	MaxPollErrors int
}

const (
	DefaultPollInterval  = 10 * time.Second
	DefaultMaxPolls      = 60
	DefaultMaxPollErrors = 3
)

func (c PollConfig) withDefaults() PollConfig {
	if c.Interval <= 0 {
		c.Interval = DefaultPollInterval
	}
	if c.MaxPolls <= 0 {
		c.MaxPolls = DefaultMaxPolls
	}
	if c.MaxPollErrors <= 0 {
		c.MaxPollErrors = DefaultMaxPollErrors
	}
	return c
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PollLoop drives a submitted job to a terminal state.
type PollLoop struct {
	cfg        PollConfig
	normalizer *Normalizer
	sleep      SleepFunc
	logger     *infra.Logger
}

// PollLoopOptions configures a PollLoop. Sleep and Normalizer are optional.
type PollLoopOptions struct {
	Config     PollConfig
	Normalizer *Normalizer
	Sleep      SleepFunc
	Logger     *infra.Logger
}

func NewPollLoop(opts PollLoopOptions) *PollLoop {
	loop := &PollLoop{
		cfg:        opts.Config.withDefaults(),
		normalizer: opts.Normalizer,
		sleep:      opts.Sleep,
		logger:     opts.Logger,
	}
	if loop.normalizer == nil {
		loop.normalizer = NewNormalizer()
	}
	if loop.sleep == nil {
		loop.sleep = sleepContext
	}
	if loop.logger == nil {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		loop.logger = &l
	}
	return loop
}

// Config returns the effective configuration.
func (l *PollLoop) Config() PollConfig {
	return l.cfg
}

// Run polls until the job is Completed, Failed, TimedOut or Cancelled and
// returns it. No provider call is made once the job is terminal.
func (l *PollLoop) Run(ctx context.Context, job *domain.Job, provider Provider, sink ProgressSink) *domain.Job {
	if sink == nil {
		sink = NopSink
	}
	if job.State == domain.JobSubmitted {
		if err := job.StartPolling(); err != nil {
			_ = job.Fail(err)
			return job
		}
	}
	log := l.logger.With().Str("job_id", job.ID).Logger()
	pollErrors := 0
	for !job.State.Terminal() {
		if err := ctx.Err(); err != nil {
			_ = job.Cancel(err)
			break
		}

		raw, err := provider.Poll(ctx, job.ProviderHandle)
		var outcome Outcome
		if err == nil {
			outcome, err = l.normalizer.Normalize(raw)
		}
		if err != nil {
			if ctx.Err() != nil {
				_ = job.Cancel(ctx.Err())
				break
			}
			PollsTotal.WithLabelValues("error").Inc()
			pollErrors++
			kind := domain.KindOf(err)
			log.Warn().Err(err).Str("kind", string(kind)).Int("consecutive", pollErrors).Msg("generation: poll failed")
			if !kind.Retryable() || pollErrors >= l.cfg.MaxPollErrors {
				_ = job.Fail(err)
				break
			}
		} else {
			pollErrors = 0
			if outcome.Done {
				PollsTotal.WithLabelValues("done").Inc()
				if outcome.Err != nil {
					_ = job.Fail(outcome.Err)
				} else {
					_ = job.Complete(outcome.AssetURI)
				}
				break
			}
			PollsTotal.WithLabelValues("pending").Inc()
		}

		exhausted, _ := job.RecordPoll()
		if exhausted {
			log.Info().Int("polls", job.PollCount).Msg("generation: poll budget exhausted")
			break
		}
		sink.Progress(ctx, fmt.Sprintf("Waiting for video generation... (attempt %d/%d)", job.PollCount, job.MaxPolls))
		if err := l.sleep(ctx, l.cfg.Interval); err != nil {
			_ = job.Cancel(err)
			break
		}
	}
	log.Debug().Str("state", string(job.State)).Int("polls", job.PollCount).Msg("generation: poll loop finished")
	return job
}
