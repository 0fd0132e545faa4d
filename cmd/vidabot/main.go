// Command vidabot generates videos through a bridge. When the bridge is
// unreachable it produces a placeholder; when the key has no video access it
// renders a storyboard with the content model instead.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"vidabot/internal/infra"
)

type cliOptions struct {
	BridgeURL   string
	APIKey      string
	OutputDir   string
	Locale      string
	Timeout     time.Duration
	Verbose     bool
	Aspect      string
	Resolution  string
	Negative    string
	Reference   string
	Concurrency int
	VideoAccess bool
}

var opts cliOptions

func newRootCmd(cfg *infra.Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "vidabot",
		Short:         "Generate short videos from text prompts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.BridgeURL, "bridge", cfg.BridgeURL, "bridge base URL")
	root.PersistentFlags().StringVarP(&opts.APIKey, "api-key", "k", cfg.GeminiAPIKey, "provider API key (defaults to GEMINI_API_KEY)")
	root.PersistentFlags().StringVarP(&opts.OutputDir, "out", "o", cfg.StoragePath, "directory for generated files")
	root.PersistentFlags().StringVar(&opts.Locale, "locale", cfg.DefaultLocale, "language of error messages (en or id)")
	root.PersistentFlags().DurationVar(&opts.Timeout, "timeout", cfg.PollInterval*time.Duration(cfg.MaxPolls)+2*time.Minute, "overall deadline")
	root.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log diagnostics to stderr")

	root.AddCommand(newGenerateCmd(cfg), newScenesCmd(cfg), newTestKeyCmd())
	return root
}

func addVideoFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&opts.Aspect, "aspect", "16:9", "aspect ratio (16:9 or 9:16)")
	cmd.Flags().StringVar(&opts.Resolution, "resolution", "", "resolution (720p or 1080p)")
	cmd.Flags().StringVar(&opts.Negative, "negative", "", "negative prompt")
}

func videoOptions() map[string]any {
	out := map[string]any{"aspectRatio": opts.Aspect}
	if opts.Resolution != "" {
		out["resolution"] = opts.Resolution
	}
	if opts.Negative != "" {
		out["negativePrompt"] = opts.Negative
	}
	return out
}

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(cfg).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
