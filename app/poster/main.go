package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/IrisKashu114/potterpedia-bot-runner/app/poster/cmd"
	"github.com/joho/godotenv"
)

func main() {

	// Load environment variables from .env files before anything else
	_ = godotenv.Load()

	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})))

	cmd.Execute()
}
