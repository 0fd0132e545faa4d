// Command geminikey stores the default provider API key used by the bridge
// when a request carries none.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"vidabot/internal/adapter/repo"
	"vidabot/internal/infra"
	"vidabot/internal/infra/credentials"
	"vidabot/internal/providers/genai"
)

func main() {
	var (
		keyFlag    string
		verifyFlag bool
	)
	flag.StringVar(&keyFlag, "key", "", "Gemini API key (fallbacks to GEMINI_API_KEY)")
	flag.BoolVar(&verifyFlag, "verify", true, "validate the key against the content model before storing it")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	key := strings.TrimSpace(keyFlag)
	if key == "" {
		key = cfg.GeminiAPIKey
	}
	if key == "" {
		fmt.Fprintln(os.Stderr, "GEMINI API key is required via -key or environment")
		os.Exit(1)
	}

	logger := infra.NewLogger("cli").With().Str("cmd", "geminikey").Logger()

	if verifyFlag {
		ctxVerify, cancelVerify := context.WithTimeout(context.Background(), 20*time.Second)
		client := genai.NewClient(genai.Options{BaseURL: cfg.GeminiBaseURL, Model: cfg.ContentModel, Logger: &logger})
		err := client.ValidateKey(ctxVerify, key)
		cancelVerify()
		if err != nil {
			fmt.Fprintf(os.Stderr, "key rejected: %v\n", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)
	if err := repo.NewGenerationRepository(runner).EnsureSchema(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to prepare schema: %v\n", err)
		os.Exit(1)
	}
	if err := credentials.NewStore(runner).SetGeminiAPIKey(ctx, key); err != nil {
		fmt.Fprintf(os.Stderr, "failed to persist gemini api key: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("GEMINI API key stored successfully")
}
