package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"vidabot/internal/domain"
	"vidabot/internal/infra"
	"vidabot/internal/storage"
)

func newGenerateCmd(cfg *infra.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <prompt>",
		Short: "Generate one video and save it to the output directory",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), cfg, strings.Join(args, " "))
		},
	}
	addVideoFlags(cmd)
	cmd.Flags().StringVar(&opts.Reference, "reference", "", "reference image file")
	return cmd
}

func runGenerate(ctx context.Context, cfg *infra.Config, prompt string) error {
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	req := domain.NewGenerationRequest(prompt, opts.APIKey, videoOptions())
	req.Locale = opts.Locale
	if opts.Reference != "" {
		data, err := os.ReadFile(opts.Reference)
		if err != nil {
			return fmt.Errorf("read reference image: %w", err)
		}
		req.Reference = &domain.ReferenceAsset{Data: data, MimeType: domain.MimeTypeFromFilename(opts.Reference)}
	}

	store, err := storage.NewFileStore(opts.OutputDir)
	if err != nil {
		return err
	}

	side := newClientSide(cfg)
	em := side.workflow.Start(ctx, req)
	for ev := range em.Events() {
		switch ev.Kind {
		case domain.EventProgress:
			fmt.Fprintf(os.Stderr, "> %s\n", ev.Message)
		case domain.EventError:
			return errors.New(ev.Message)
		case domain.EventResult:
			path, err := store.SaveResult(ctx, ev.Payload)
			if err != nil {
				return err
			}
			printResult(ev.Payload, path)
			return nil
		}
	}
	return errors.New(domain.UserMessage(domain.KindCancelled, opts.Locale))
}

func printResult(res *domain.Result, path string) {
	fmt.Printf("saved %s (%s, %d bytes, %ds, strategy=%s model=%s)\n",
		path, res.Asset.MimeType, res.Asset.SizeBytes, res.DurationSeconds, res.Strategy, res.Model)
}
