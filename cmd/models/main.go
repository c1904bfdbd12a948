// Command models lists the Gemini models that support generateContent, for
// choosing a value of GEMINI_MODEL. The API server never discovers models at
// request time.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/baharkarakas/resumeforge/internal/config"
	"github.com/baharkarakas/resumeforge/internal/generator"
	"github.com/baharkarakas/resumeforge/internal/logger"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logger.New(cfg.Env, cfg.LogLevel))

	if cfg.GeminiAPIKey == "" {
		slog.Error("GEMINI_API_KEY is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	names, err := generator.ListGenerativeModels(ctx, cfg.GeminiAPIKey)
	if err != nil {
		slog.Error("list models", "err", err)
		os.Exit(1)
	}
	for _, n := range names {
		marker := " "
		if n == cfg.GeminiModel || n == "models/"+cfg.GeminiModel {
			marker = "*"
		}
		fmt.Printf("%s %s\n", marker, n)
	}
}
