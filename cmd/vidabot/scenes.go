package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"vidabot/internal/domain"
	"vidabot/internal/generation"
	"vidabot/internal/infra"
	"vidabot/internal/storage"
)

func newScenesCmd(cfg *infra.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenes <file>",
		Short: "Generate one clip per scene prompt, a few at a time",
		Long: `Reads scene prompts from a file, either a JSON array of strings or one
prompt per line, and generates them concurrently. A failed scene does not stop
the others.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompts, err := readScenes(args[0])
			if err != nil {
				return err
			}
			return runScenes(cmd.Context(), cfg, prompts)
		},
	}
	addVideoFlags(cmd)
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", generation.DefaultBatchConcurrency, "scenes generated at once")
	return cmd
}

func readScenes(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenes: %w", err)
	}
	var prompts []string
	if trimmed := strings.TrimSpace(string(data)); strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal([]byte(trimmed), &prompts); err != nil {
			return nil, fmt.Errorf("parse scenes: %w", err)
		}
	} else {
		scanner := bufio.NewScanner(strings.NewReader(trimmed))
		for scanner.Scan() {
			prompts = append(prompts, scanner.Text())
		}
	}
	out := prompts[:0]
	for _, p := range prompts {
		if p = strings.TrimSpace(p); p != "" && !strings.HasPrefix(p, "#") {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no scenes in %s", path)
	}
	return out, nil
}

func runScenes(ctx context.Context, cfg *infra.Config, prompts []string) error {
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	store, err := storage.NewFileStore(opts.OutputDir)
	if err != nil {
		return err
	}

	reqs := make([]domain.GenerationRequest, len(prompts))
	for i, p := range prompts {
		reqs[i] = domain.NewGenerationRequest(p, opts.APIKey, videoOptions())
		reqs[i].Locale = opts.Locale
	}

	var mu sync.Mutex
	observe := func(index int, ev domain.ProgressEvent) {
		if ev.Kind != domain.EventProgress {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(os.Stderr, "[scene %d] %s\n", index+1, ev.Message)
	}

	side := newClientSide(cfg)
	results, runErr := generation.NewBatch(side.workflow, opts.Concurrency).Run(ctx, reqs, observe)

	defer printSummary(side)

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Printf("scene %d failed: %s\n", r.Index+1, domain.MessageFor(r.Err, opts.Locale))
			continue
		}
		path, err := store.SaveResult(ctx, r.Result)
		if err != nil {
			failed++
			fmt.Printf("scene %d not saved: %v\n", r.Index+1, err)
			continue
		}
		fmt.Printf("scene %d: ", r.Index+1)
		printResult(r.Result, path)
	}
	if runErr != nil {
		return runErr
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scenes failed", failed, len(results))
	}
	return nil
}

func printSummary(side *clientSide) {
	summary, err := side.ledger.Summary(context.Background(), time.Time{})
	if err != nil || summary.Total == 0 {
		return
	}
	fmt.Fprintf(os.Stderr, "jobs: %d completed, %d failed, %d timed out (primary %d, storyboard %d, placeholder %d)\n",
		summary.Completed, summary.Failed, summary.TimedOut,
		summary.ByStrategy[domain.StrategyPrimary], summary.ByStrategy[domain.StrategySecondary], summary.ByStrategy[domain.StrategyMock])
}
