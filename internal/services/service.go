/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/HamedShams/sprint-pulse/internal/config"
	"github.com/HamedShams/sprint-pulse/internal/domain"
	"github.com/HamedShams/sprint-pulse/internal/jira"
	"github.com/HamedShams/sprint-pulse/internal/metrics"
	"github.com/HamedShams/sprint-pulse/internal/report"
	"github.com/HamedShams/sprint-pulse/internal/retry"
	"github.com/HamedShams/sprint-pulse/internal/review"
)

// Notifier delivers review summaries. Satisfied by the Telegram adapter.
type Notifier interface {
	SendMessagePlain(ctx context.Context, chatID int64, text string) error
	SendToTopic(ctx context.Context, chatID, threadID int64, text string) error
}

// RunStatus is the recorded outcome of the most recent run of a kind.
type RunStatus struct {
	Kind       string    `json:"kind"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	OK         bool      `json:"ok"`
	Error      string    `json:"error,omitempty"`
}

// Service orchestrates the fetch, classify, account and notify pipeline.
type Service struct {
	cfg      config.Config
	log      zerolog.Logger
	jira     *jira.Client
	notifier Notifier
	metrics  *metrics.Metrics
	statuses domain.StatusTable
	retryCfg retry.Config

	mu      sync.Mutex
	lastRun map[string]RunStatus
}

func New(cfg config.Config, log zerolog.Logger, client *jira.Client) *Service {
	return &Service{
		cfg:      cfg,
		log:      log,
		jira:     client,
		statuses: domain.NewStatusTable(cfg.DoneStatusExtra, cfg.NotDoneStatusExtra),
		retryCfg: retry.Config{
			MaxAttempts: cfg.RetryBudget,
			BaseDelay:   time.Second,
			MaxDelay:    cfg.MaxRetryWait,
		},
		lastRun: make(map[string]RunStatus),
	}
}

func (s *Service) SetNotifier(n Notifier) { s.notifier = n }
func (s *Service) SetMetrics(m *metrics.Metrics) { s.metrics = m }

// LastRuns returns a snapshot of the most recent run outcomes.
func (s *Service) LastRuns() []RunStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RunStatus, 0, len(s.lastRun))
	for _, st := range s.lastRun {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

func (s *Service) recordRun(kind string, started time.Time, err error) {
	st := RunStatus{Kind: kind, StartedAt: started, FinishedAt: time.Now(), OK: err == nil}
	if err != nil {
		st.Error = err.Error()
	}
	s.mu.Lock()
	s.lastRun[kind] = st
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.RecordRun(kind, st.FinishedAt.Sub(started), err)
	}
}

func (s *Service) withRetry(ctx context.Context, op func(ctx context.Context) error) error {
	return retry.Do(ctx, s.retryCfg, op)
}

// RunSprintReport fetches the sprint history of every selected board,
// accounts each sprint, and writes one CSV table per board to the export
// directory. A board failing does not abort the others; the run fails only
// when no board succeeds.
func (s *Service) RunSprintReport(ctx context.Context) (err error) {
	started := time.Now()
	defer func() { s.recordRun("report", started, err) }()

	var boards []jira.Board
	err = s.withRetry(ctx, func(ctx context.Context) error {
		var berr error
		boards, berr = s.jira.Boards(ctx)
		return berr
	})
	if err != nil {
		return fmt.Errorf("fetch boards: %w", err)
	}
	selected := jira.ScrumBoards(boards, s.cfg.Projects, s.cfg.BoardNames)
	if len(selected) == 0 {
		return fmt.Errorf("no scrum boards match projects %v", s.cfg.Projects)
	}
	s.log.Info().Int("boards", len(selected)).Msg("sprint report started")

	perProject := make(map[string]int)
	for _, b := range selected {
		perProject[b.Location.ProjectKey]++
	}

	var (
		okMu    sync.Mutex
		okCount int
		lastErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(2) // boards in parallel, issue fetches already fan out inside
	for _, board := range selected {
		board := board
		g.Go(func() error {
			path, rerr := s.reportBoard(gctx, board, perProject[board.Location.ProjectKey] > 1)
			okMu.Lock()
			defer okMu.Unlock()
			if rerr != nil {
				lastErr = rerr
				s.log.Warn().Err(rerr).Str("board", board.Name).Msg("board report failed")
				return nil
			}
			okCount++
			s.log.Info().Str("board", board.Name).Str("file", path).Msg("board report written")
			return nil
		})
	}
	if werr := g.Wait(); werr != nil {
		return werr
	}
	if okCount == 0 {
		return fmt.Errorf("all boards failed: %w", lastErr)
	}
	s.log.Info().Dur("elapsed", time.Since(started)).Int("ok", okCount).Msg("sprint report finished")
	return nil
}

func (s *Service) reportBoard(ctx context.Context, board jira.Board, multiBoard bool) (string, error) {
	var sprints []jira.Sprint
	err := s.withRetry(ctx, func(ctx context.Context) error {
		var serr error
		sprints, serr = s.jira.Sprints(ctx, board.ID)
		return serr
	})
	if err != nil {
		return "", fmt.Errorf("fetch sprints for board %d: %w", board.ID, err)
	}
	relevant := s.relevantSprints(sprints)
	s.log.Debug().Str("board", board.Name).Int("sprints", len(relevant)).Msg("sprints selected")

	accounts := make([]report.SprintAccount, 0, len(relevant))
	for i, sprint := range relevant {
		account, aerr := s.accountSprint(ctx, board, sprint)
		if aerr != nil {
			return "", aerr
		}
		accounts = append(accounts, account)
		s.log.Info().
			Str("board", board.Name).
			Str("sprint", sprint.Name).
			Int("done", i+1).
			Int("total", len(relevant)).
			Msg("sprint accounted")
	}

	table, err := report.FormatCSV(accounts)
	if err != nil {
		return "", err
	}
	path := s.exportPath(board, multiBoard)
	if err := os.WriteFile(path, []byte(table), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// relevantSprints keeps active sprints plus, unless restricted to the
// active one, closed sprints that started after the configured lower bound.
// The result is ordered oldest first.
func (s *Service) relevantSprints(sprints []jira.Sprint) []jira.Sprint {
	from := s.cfg.FromDate()
	var relevant []jira.Sprint
	for _, sp := range sprints {
		switch sp.Status() {
		case jira.SprintActive:
			relevant = append(relevant, sp)
		case jira.SprintClosed:
			if !s.cfg.ActiveSprintOnly && sp.StartDate != nil && !sp.StartDate.Before(from) {
				relevant = append(relevant, sp)
			}
		case jira.SprintUnexpected:
			s.log.Warn().Str("sprint", sp.Name).Str("state", sp.State).Msg("skipping sprint in unexpected state")
		}
	}
	sort.SliceStable(relevant, func(i, j int) bool {
		if relevant[i].StartDate == nil || relevant[j].StartDate == nil {
			return relevant[j].StartDate != nil
		}
		return relevant[i].StartDate.Before(relevant[j].StartDate.Time)
	})
	return relevant
}

func (s *Service) accountSprint(ctx context.Context, board jira.Board, sprint jira.Sprint) (report.SprintAccount, error) {
	var feed jira.BurndownFeed
	err := s.withRetry(ctx, func(ctx context.Context) error {
		var ferr error
		feed, ferr = s.jira.Burndown(ctx, board.ID, sprint.ID)
		return ferr
	})
	if err != nil {
		return report.SprintAccount{}, fmt.Errorf("burndown for sprint %d: %w", sprint.ID, err)
	}
	keys := feed.Classify()

	committed, err := s.fetchTickets(ctx, keys.Commitment)
	if err != nil {
		return report.SprintAccount{}, err
	}
	inserted, err := s.fetchTickets(ctx, keys.Insertions)
	if err != nil {
		return report.SprintAccount{}, err
	}

	meta := report.SprintMeta{ID: sprint.ID, Name: sprint.Name, Goal: sprint.Goal}
	if sprint.StartDate != nil {
		meta.StartTime = sprint.StartDate.Time
	}
	if sprint.EndDate != nil {
		meta.EndTime = sprint.EndDate.Time
	}
	return report.Accumulate(meta, committed, inserted), nil
}

func (s *Service) fetchTickets(ctx context.Context, keys []string) ([]domain.Ticket, error) {
	var issues []jira.Issue
	err := s.withRetry(ctx, func(ctx context.Context) error {
		var ferr error
		issues, ferr = s.jira.IssuesByKeys(ctx, keys)
		return ferr
	})
	if err != nil {
		return nil, fmt.Errorf("fetch issues: %w", err)
	}
	return s.tickets(issues)
}

// tickets maps issues onto the domain model. An unrecognized workflow
// status is fatal in strict mode; otherwise the issue is skipped with a
// warning so one renamed status cannot sink a whole run.
func (s *Service) tickets(issues []jira.Issue) ([]domain.Ticket, error) {
	tickets := make([]domain.Ticket, 0, len(issues))
	for _, issue := range issues {
		t := domain.TicketFromIssue(issue, s.statuses)
		if t.Status == domain.StatusUnrecognized {
			if s.cfg.StrictStatuses {
				return nil, fmt.Errorf("unrecognized status %q on %s", t.StatusName, t.Key)
			}
			s.log.Warn().Str("issue", t.Key).Str("status", t.StatusName).Msg("skipping issue with unrecognized status")
			continue
		}
		tickets = append(tickets, t)
	}
	return tickets, nil
}

func (s *Service) exportPath(board jira.Board, multiBoard bool) string {
	name := board.Location.ProjectKey
	if multiBoard {
		name += "-" + sanitizeName(board.Name)
	}
	return filepath.Join(s.cfg.ExportDir, name+"-sprints.txt")
}

func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '-'
		default:
			return -1
		}
	}, name)
}

// RunSprintReviews reviews the open sprints of every configured project and
// notifies the configured chats about anything noteworthy.
func (s *Service) RunSprintReviews(ctx context.Context) (err error) {
	started := time.Now()
	defer func() { s.recordRun("review", started, err) }()

	cache := jira.NewSprintStateCache(s.jira)
	var failures []string
	for _, project := range s.cfg.Projects {
		if rerr := s.reviewProject(ctx, project, cache); rerr != nil {
			s.log.Warn().Err(rerr).Str("project", project).Msg("project review failed")
			failures = append(failures, project)
		}
	}
	if len(failures) == len(s.cfg.Projects) {
		return fmt.Errorf("all project reviews failed: %v", failures)
	}
	s.log.Info().Dur("elapsed", time.Since(started)).Msg("sprint reviews finished")
	return nil
}

func (s *Service) reviewProject(ctx context.Context, project string, cache *jira.SprintStateCache) error {
	var open []jira.Issue
	err := s.withRetry(ctx, func(ctx context.Context) error {
		var ferr error
		open, ferr = s.jira.OpenSprintIssues(ctx, project)
		return ferr
	})
	if err != nil {
		return fmt.Errorf("open sprint issues: %w", err)
	}
	if len(open) == 0 {
		s.log.Debug().Str("project", project).Msg("no open sprint issues")
		return nil
	}
	keys := make([]string, 0, len(open))
	for _, issue := range open {
		keys = append(keys, issue.Key)
	}

	var detailed []jira.Issue
	err = s.withRetry(ctx, func(ctx context.Context) error {
		var ferr error
		detailed, ferr = s.jira.IssuesWithChangelogs(ctx, keys, s.cfg.MaxConcurrency)
		return ferr
	})
	if err != nil {
		return fmt.Errorf("changelogs: %w", err)
	}

	rev, err := review.Build(ctx, project, detailed, s.statuses, cache.State)
	if err != nil {
		return fmt.Errorf("build review: %w", err)
	}
	for _, key := range rev.MissingDoneDate {
		s.log.Warn().Str("issue", key).Msg("done story without done transition in changelog")
	}
	if rev.Empty() {
		s.log.Info().Str("project", project).Msg("nothing to report")
		return nil
	}
	return s.notify(ctx, rev)
}

func (s *Service) notify(ctx context.Context, rev review.Review) error {
	summary := rev.Summary()
	text := summary.Title + ": " + summary.Subtitle + "\n" + summary.Body
	if s.notifier == nil {
		s.log.Info().Str("project", rev.Project).Str("review", text).Msg("no notifier configured")
		return nil
	}
	threadID := s.cfg.TelegramThreadIDs[rev.Project]
	for _, chatID := range s.cfg.TelegramChatIDs {
		var err error
		if threadID != 0 {
			err = s.notifier.SendToTopic(ctx, chatID, threadID, text)
		} else {
			err = s.notifier.SendMessagePlain(ctx, chatID, text)
		}
		if err != nil {
			return fmt.Errorf("notify chat %d: %w", chatID, err)
		}
	}
	return nil
}
