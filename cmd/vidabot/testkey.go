package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"vidabot/internal/domain"
)

func newTestKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test-key",
		Short: "Check the API key through the bridge",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.APIKey == "" {
				return errors.New("no API key: pass --api-key or set GEMINI_API_KEY")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			return runTestKey(ctx)
		},
	}
	cmd.Flags().BoolVar(&opts.VideoAccess, "video", false, "also check access to the video model")
	return cmd
}

func runTestKey(ctx context.Context) error {
	client := newBridgeOnly()
	out, err := client.TestAPIKey(ctx, opts.APIKey)
	if err != nil {
		return errors.New(domain.MessageFor(err, opts.Locale))
	}
	fmt.Println(out.Message)
	if !opts.VideoAccess {
		return nil
	}

	out, err = client.TestVideoAccess(ctx, opts.APIKey)
	if err != nil {
		return errors.New(domain.MessageFor(err, opts.Locale))
	}
	if out.HasVideoAccess != nil && !*out.HasVideoAccess {
		fmt.Printf("no video access: %s\n", out.Suggestion)
		return nil
	}
	fmt.Println(out.Message)
	return nil
}
