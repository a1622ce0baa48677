/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime configuration. Everything comes from the
// environment; in particular the Jira session cookie is never compiled in.
type Config struct {
	AppEnv   string `envconfig:"APP_ENV" default:"dev"`
	TZ       string `envconfig:"APP_TZ" default:"UTC"`
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	JiraBaseURL string   `envconfig:"JIRA_BASE_URL"`
	JiraCookie  string   `envconfig:"JIRA_COOKIE"`
	Projects    []string `envconfig:"JIRA_PROJECTS"`
	BoardNames  []string `envconfig:"JIRA_BOARD_NAMES"`

	// Sprint selection for report runs. When ActiveSprintOnly is false,
	// sprints starting before the first day of FromYear/FromMonth are skipped.
	ActiveSprintOnly bool `envconfig:"ACTIVE_SPRINT_ONLY" default:"false"`
	FromYear         int  `envconfig:"SPRINTS_FROM_YEAR" default:"2022"`
	FromMonth        int  `envconfig:"SPRINTS_FROM_MONTH" default:"1"`

	ExportDir string `envconfig:"EXPORT_DIR" default:"."`

	ReviewCron string `envconfig:"REVIEW_CRON" default:"*/15 * * * *"`

	HTTPTimeout    time.Duration `envconfig:"HTTP_TIMEOUT" default:"15s"`
	RunTimeout     time.Duration `envconfig:"RUN_TIMEOUT" default:"10m"`
	MaxConcurrency int           `envconfig:"MAX_CONCURRENCY" default:"8"`
	RetryBudget    int           `envconfig:"RETRY_BUDGET" default:"3"`
	MaxRetryWait   time.Duration `envconfig:"MAX_RETRY_WAIT" default:"5m"`

	// Per-deployment additions to the status mapping table. Workflow state
	// names differ between Jira projects, so the canonical table can be
	// extended without a rebuild.
	DoneStatusExtra    []string `envconfig:"STATUS_DONE_EXTRA"`
	NotDoneStatusExtra []string `envconfig:"STATUS_NOTDONE_EXTRA"`
	StrictStatuses     bool     `envconfig:"STRICT_STATUSES" default:"false"`

	TelegramToken   string  `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramChatIDs []int64 `envconfig:"TELEGRAM_CHAT_IDS"`
	// Optional forum topic per project key, e.g. "APP:12,OPS:31".
	TelegramThreadIDs map[string]int64 `envconfig:"TELEGRAM_THREAD_IDS"`
}

// Load reads configuration from the environment. It only fails on malformed
// values; required-for-a-command checks happen in Validate.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg.JiraBaseURL = strings.TrimRight(strings.TrimSpace(cfg.JiraBaseURL), "/")

	// set global timezone if available
	if loc, err := time.LoadLocation(cfg.TZ); err == nil {
		time.Local = loc
	} else {
		log.Printf("warning: cannot load TZ %s: %v", cfg.TZ, err)
	}
	return cfg, nil
}

// Validate checks the fields every Jira-touching command needs.
func (c Config) Validate() error {
	if c.JiraBaseURL == "" {
		return fmt.Errorf("config: JIRA_BASE_URL is required")
	}
	if c.JiraCookie == "" {
		return fmt.Errorf("config: JIRA_COOKIE is required")
	}
	if len(c.Projects) == 0 {
		return fmt.Errorf("config: JIRA_PROJECTS is required")
	}
	if c.MaxConcurrency <= 0 {
		return fmt.Errorf("config: MAX_CONCURRENCY must be positive")
	}
	return nil
}

// FromDate is the lower bound for relevant sprints in report runs.
func (c Config) FromDate() time.Time {
	month := time.Month(c.FromMonth)
	if c.FromMonth < 1 || c.FromMonth > 12 {
		month = time.January
	}
	return time.Date(c.FromYear, month, 1, 0, 0, 0, 0, time.UTC)
}
