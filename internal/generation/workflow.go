package generation

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"

	"vidabot/internal/domain"
	"vidabot/internal/infra"
)

// Workflow is the invoking side of one generation: probe, select a strategy,
// run it, fall back once, and emit exactly one terminal event.
type Workflow struct {
	probe             Probe
	strategies        map[domain.StrategyKind]Strategy
	recorder          domain.GenerationRepository
	maxReferenceBytes int
	logger            *infra.Logger
}

// WorkflowOptions configures a Workflow. A nil Probe treats the primary path
// as always reachable. Recorder is optional.
type WorkflowOptions struct {
	Probe             Probe
	Primary           Strategy
	Secondary         Strategy
	Mock              Strategy
	Recorder          domain.GenerationRepository
	MaxReferenceBytes int
	Logger            *infra.Logger
}

func NewWorkflow(opts WorkflowOptions) *Workflow {
	w := &Workflow{
		probe:             opts.Probe,
		strategies:        make(map[domain.StrategyKind]Strategy, 3),
		recorder:          opts.Recorder,
		maxReferenceBytes: opts.MaxReferenceBytes,
		logger:            opts.Logger,
	}
	for _, s := range []Strategy{opts.Primary, opts.Secondary, opts.Mock} {
		if s != nil {
			w.strategies[s.Kind()] = s
		}
	}
	if w.logger == nil {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		w.logger = &l
	}
	return w
}

// Start runs the workflow in the background and returns its event stream.
func (w *Workflow) Start(ctx context.Context, req domain.GenerationRequest) *Emitter {
	em := NewEmitter()
	go func() {
		_, _ = w.Run(ctx, req, em)
	}()
	return em
}

// Generate runs the workflow synchronously, discarding progress.
func (w *Workflow) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.Result, error) {
	em := w.Start(ctx, req)
	var last domain.ProgressEvent
	for ev := range em.Events() {
		last = ev
	}
	switch last.Kind {
	case domain.EventResult:
		return last.Payload, nil
	case domain.EventError:
		return nil, last.Err
	default:
		return nil, domain.NewError(domain.KindCancelled, "workflow abandoned", ctx.Err())
	}
}

// Run executes the workflow, emitting into em. The terminal event is always
// the last one emitted.
func (w *Workflow) Run(ctx context.Context, req domain.GenerationRequest, em *Emitter) (*domain.Result, error) {
	JobsActive.Inc()
	defer JobsActive.Dec()

	if err := req.Validate(w.maxReferenceBytes); err != nil {
		em.Error(ctx, domain.MessageFor(err, req.Locale), err)
		return nil, err
	}

	available := w.probe == nil || w.probe.Available(ctx)
	kind, _ := SelectStrategy(available, nil)
	if kind == domain.StrategyMock {
		w.logger.Warn().Msg("generation: primary path unreachable; using placeholder")
		em.Progress(ctx, "Video service unreachable, producing a placeholder video...")
	}

	ran := kind
	res, err := w.execute(ctx, kind, req, em)
	if err != nil && kind == domain.StrategyPrimary {
		if next, ok := SelectStrategy(available, err); ok && w.strategies[next] != nil {
			FallbacksTotal.WithLabelValues(string(kind), string(next)).Inc()
			w.logger.Info().Str("from", string(kind)).Str("to", string(next)).Err(err).Msg("generation: falling back")
			em.Progress(ctx, "Video model is not available for this key, switching to storyboard generation...")
			ran = next
			res, err = w.execute(ctx, next, req, em)
		}
	}
	if err != nil {
		em.StrategyError(ctx, ran, domain.MessageFor(err, req.Locale), err)
		return nil, err
	}
	em.Result(ctx, "Video generated successfully", res)
	return res, nil
}

func (w *Workflow) execute(ctx context.Context, kind domain.StrategyKind, req domain.GenerationRequest, sink ProgressSink) (*domain.Result, error) {
	strategy, ok := w.strategies[kind]
	if !ok {
		return nil, domain.Errorf(domain.KindUnknown, "no %s strategy configured", kind)
	}
	start := time.Now()
	job, res, err := strategy.Generate(ctx, req, sink)
	if err != nil && res != nil {
		res = nil
	}

	outcome := "completed"
	if err != nil {
		outcome = string(domain.KindOf(err))
	}
	JobsTotal.WithLabelValues(string(kind), outcome).Inc()
	JobDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())

	w.record(ctx, kind, strategy.Model(), job, res, err)
	return res, err
}

func (w *Workflow) record(ctx context.Context, kind domain.StrategyKind, model string, job *domain.Job, res *domain.Result, err error) {
	if w.recorder == nil {
		return
	}
	if job == nil {
		job = domain.NewJob("", 1)
		_ = job.Fail(err)
	}
	if job.Strategy == "" {
		job.Strategy = kind
	}
	var asset *domain.MaterializedAsset
	if res != nil {
		asset = res.Asset
	}
	rec := domain.RecordFromJob(job, model, asset)
	if err != nil {
		rec.ErrorKind = domain.KindOf(err)
		if rec.State == domain.JobCompleted {
			rec.State = domain.JobFailed
		}
	}
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if recErr := w.recorder.Record(recordCtx, rec); recErr != nil {
		w.logger.Warn().Err(recErr).Str("job_id", rec.JobID).Msg("generation: ledger write failed")
	}
}
