package jobs

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/HamedShams/sprint-pulse/internal/config"
)

type service interface {
	RunSprintReviews(ctx context.Context) error
}

type Cron struct {
	cfg config.Config
	log zerolog.Logger
	svc service
	c   *cron.Cron

	running atomic.Bool
}

func NewCron(cfg config.Config, log zerolog.Logger, svc service) *Cron {
	loc, _ := time.LoadLocation(cfg.TZ)
	c := cron.New(cron.WithLocation(loc), cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow)))
	cr := &Cron{cfg: cfg, log: log, svc: svc, c: c}
	_, _ = c.AddFunc(cfg.ReviewCron, cr.review)
	return cr
}

func (cr *Cron) Start() { cr.c.Start() }
func (cr *Cron) Stop()  { cr.c.Stop() }

func (cr *Cron) review() {
	// Reviews can outlast the schedule interval when Jira rate-limits;
	// a run already in flight wins over starting another.
	if !cr.running.CompareAndSwap(false, true) {
		cr.log.Info().Msg("cron: review already running")
		return
	}
	defer cr.running.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), cr.cfg.RunTimeout)
	defer cancel()
	cr.log.Info().Msg("cron: sprint review")
	if err := cr.svc.RunSprintReviews(ctx); err != nil {
		cr.log.Error().Err(err).Msg("cron: review failed")
	}
}
