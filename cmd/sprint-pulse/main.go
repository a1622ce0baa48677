/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/HamedShams/sprint-pulse/internal/adapters/telegram"
	"github.com/HamedShams/sprint-pulse/internal/config"
	"github.com/HamedShams/sprint-pulse/internal/http"
	"github.com/HamedShams/sprint-pulse/internal/jira"
	"github.com/HamedShams/sprint-pulse/internal/jobs"
	"github.com/HamedShams/sprint-pulse/internal/logger"
	"github.com/HamedShams/sprint-pulse/internal/metrics"
	"github.com/HamedShams/sprint-pulse/internal/services"
)

func main() {
	root := &cobra.Command{
		Use:           "sprint-pulse",
		Short:         "Sprint health reports and reviews from Jira boards",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(reportCmd(), watchCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func setup() (config.Config, zerolog.Logger, *jira.Client, *services.Service, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, zerolog.Logger{}, nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, zerolog.Logger{}, nil, nil, err
	}
	log := logger.New(cfg)
	client := jira.NewClient(cfg, log)
	svc := services.New(cfg, log, client)
	return cfg, log, client, svc, nil
}

// reportCmd runs the sprint history export once and exits.
func reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Export per-sprint accounting tables for the configured boards",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, svc, err := setup()
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			ctx, cancelTimeout := context.WithTimeout(ctx, cfg.RunTimeout)
			defer cancelTimeout()
			return svc.RunSprintReport(ctx)
		},
	}
}

// watchCmd runs the daemon: scheduled sprint reviews with Telegram
// notifications plus the admin and metrics HTTP surface.
func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run scheduled sprint reviews and notify about noteworthy events",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, client, svc, err := setup()
			if err != nil {
				return err
			}

			m := metrics.New()
			svc.SetMetrics(m)
			client.SetRecorder(m)
			if cfg.TelegramToken != "" {
				svc.SetNotifier(telegram.NewClient(cfg, log))
			} else {
				log.Warn().Msg("no telegram token, reviews will only be logged")
			}

			cron := jobs.NewCron(cfg, log, svc)
			cron.Start()
			defer cron.Stop()

			router := http.NewRouter(cfg, log, svc, m)
			errCh := make(chan error, 1)
			go func() { errCh <- router.Run(cfg.HTTPAddr) }()
			log.Info().Str("addr", cfg.HTTPAddr).Str("cron", cfg.ReviewCron).Msg("watching")

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			select {
			case <-sigCh:
				log.Info().Msg("shutting down...")
			case err := <-errCh:
				if err != nil {
					log.Error().Err(err).Msg("http server error")
					return err
				}
			}
			time.Sleep(500 * time.Millisecond)
			return nil
		},
	}
}
