/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/HamedShams/sprint-pulse/internal/config"
	"github.com/HamedShams/sprint-pulse/internal/services"
)

type Service interface {
	RunSprintReviews(ctx context.Context) error
	RunSprintReport(ctx context.Context) error
	LastRuns() []services.RunStatus
}

type Handlers struct {
	cfg config.Config
	log zerolog.Logger
	svc Service
}

func NewHandlers(cfg config.Config, log zerolog.Logger, svc Service) *Handlers {
	return &Handlers{cfg: cfg, log: log, svc: svc}
}

func (h *Handlers) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handlers) LastRun(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.LastRuns())
}

// RunNow queues a run detached from the request context. ?kind=report runs
// the sprint history export; anything else runs the review.
func (h *Handlers) RunNow(c *gin.Context) {
	kind := c.Query("kind")
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.cfg.RunTimeout)
		defer cancel()
		var err error
		if kind == "report" {
			err = h.svc.RunSprintReport(ctx)
		} else {
			err = h.svc.RunSprintReviews(ctx)
		}
		if err != nil {
			h.log.Error().Err(err).Str("kind", kind).Msg("admin run failed")
		}
	}()
	c.JSON(http.StatusAccepted, gin.H{"status": "queued", "kind": kind})
}
