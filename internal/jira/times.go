package jira

import (
	"fmt"
	"strings"
	"time"
)

// Jira emits two distinct timestamp formats across endpoints. Issue and
// changelog dates look like "2021-11-18T11:01:18.363-0800", sprint dates
// like "2022-01-05T09:00:00.000Z". Each fetcher decodes with the type that
// matches its own endpoint; a mismatch is a hard decode failure. The
// burndown feed uses epoch milliseconds and is handled in burndown.go.
var issueTimeLayouts = []string{
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05.000-07:00",
}

const sprintTimeLayout = "2006-01-02T15:04:05.000Z0700"

// IssueTime decodes the issue/changelog timestamp format.
type IssueTime struct {
	time.Time
}

func (t *IssueTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		return nil
	}
	for _, layout := range issueTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("jira: unexpected issue date format %q", s)
}

// SprintTime decodes the sprint timestamp format.
type SprintTime struct {
	time.Time
}

func (t *SprintTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		return nil
	}
	parsed, err := time.Parse(sprintTimeLayout, s)
	if err != nil {
		return fmt.Errorf("jira: unexpected sprint date format %q", s)
	}
	t.Time = parsed.UTC()
	return nil
}
