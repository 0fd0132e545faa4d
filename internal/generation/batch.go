package generation

import (
	"context"

	"golang.org/x/sync/errgroup"

	"vidabot/internal/domain"
)

// DefaultBatchConcurrency bounds concurrent scene workflows.
const DefaultBatchConcurrency = 3

// SceneResult is the outcome of one scene of a batch.
type SceneResult struct {
	Index  int
	Result *domain.Result
	Err    error
}

// Batch runs independent workflows concurrently. Scenes share nothing: each
// gets its own job, emitter and connections.
type Batch struct {
	workflow    *Workflow
	concurrency int
}

func NewBatch(workflow *Workflow, concurrency int) *Batch {
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}
	return &Batch{workflow: workflow, concurrency: concurrency}
}

// Run generates every request and returns results in request order. A failed
// scene does not stop the others. observe may be nil; it is called from
// several goroutines.
func (b *Batch) Run(ctx context.Context, reqs []domain.GenerationRequest, observe func(index int, ev domain.ProgressEvent)) ([]SceneResult, error) {
	results := make([]SceneResult, len(reqs))
	var eg errgroup.Group
	eg.SetLimit(b.concurrency)
	for i, req := range reqs {
		eg.Go(func() error {
			results[i].Index = i
			if err := ctx.Err(); err != nil {
				results[i].Err = domain.NewError(domain.KindCancelled, "batch abandoned", err)
				return nil
			}
			em := b.workflow.Start(ctx, req)
			for ev := range em.Events() {
				if observe != nil {
					observe(i, ev)
				}
				switch ev.Kind {
				case domain.EventResult:
					results[i].Result = ev.Payload
				case domain.EventError:
					results[i].Err = ev.Err
				}
			}
			if results[i].Result == nil && results[i].Err == nil {
				results[i].Err = domain.NewError(domain.KindCancelled, "scene abandoned", ctx.Err())
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}
