package logger

import (
	"io"
	"os"
	"time"

	"github.com/HamedShams/sprint-pulse/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func New(cfg config.Config) zerolog.Logger {
	logger := build(cfg, os.Stdout)
	log.Logger = logger
	return logger
}

func build(cfg config.Config, out io.Writer) zerolog.Logger {
	if cfg.AppEnv == "dev" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	} else {
		zerolog.TimeFieldFormat = time.RFC3339
	}
	return zerolog.New(out).With().Timestamp().Str("service", "sprint-pulse").Logger()
}
