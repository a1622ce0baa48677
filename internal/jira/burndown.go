/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */

package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"
)

// BurndownFeed is the scope-change burndown chart of one sprint on one
// board: the sprint window plus the scope-change events that happened to it.
// Event timestamps arrive as epoch-millisecond map keys and are decoded to
// UTC instants.
type BurndownFeed struct {
	StartTime time.Time
	EndTime   time.Time
	Changes   []ScopeChange
}

// ScopeChange is one issue entering or leaving the sprint scope.
type ScopeChange struct {
	Timestamp time.Time
	IssueKey  string
	Added     bool
}

type rawScopeChange struct {
	Key   string `json:"key"`
	Added *bool  `json:"added"`
}

type rawBurndown struct {
	StartTime int64                       `json:"startTime"`
	EndTime   int64                       `json:"endTime"`
	Changes   map[string][]rawScopeChange `json:"changes"`
}

func (b *BurndownFeed) UnmarshalJSON(data []byte) error {
	var raw rawBurndown
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b.StartTime = time.UnixMilli(raw.StartTime).UTC()
	b.EndTime = time.UnixMilli(raw.EndTime).UTC()
	b.Changes = b.Changes[:0]
	for key, events := range raw.Changes {
		millis, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return fmt.Errorf("jira: burndown timestamp %q: %w", key, err)
		}
		ts := time.UnixMilli(millis).UTC()
		for _, ev := range events {
			b.Changes = append(b.Changes, ScopeChange{
				Timestamp: ts,
				IssueKey:  ev.Key,
				Added:     ev.Added != nil && *ev.Added,
			})
		}
	}
	// Map iteration order is random; events are kept chronological so a
	// given feed always classifies the same way.
	sort.Slice(b.Changes, func(i, j int) bool {
		if !b.Changes[i].Timestamp.Equal(b.Changes[j].Timestamp) {
			return b.Changes[i].Timestamp.Before(b.Changes[j].Timestamp)
		}
		return b.Changes[i].IssueKey < b.Changes[j].IssueKey
	})
	return nil
}

// SprintIssueKeys splits a sprint's issues into the keys committed at sprint
// start and the keys inserted after it. The two sets are disjoint: an issue
// is classified by its first "added" event relative to the sprint start.
type SprintIssueKeys struct {
	Commitment []string
	Insertions []string
}

// Classify walks the scope changes and buckets each added issue by whether
// it entered scope at or before the sprint start.
func (b BurndownFeed) Classify() SprintIssueKeys {
	seen := make(map[string]bool)
	var keys SprintIssueKeys
	for _, ch := range b.Changes {
		if !ch.Added || seen[ch.IssueKey] {
			continue
		}
		seen[ch.IssueKey] = true
		if !ch.Timestamp.After(b.StartTime) {
			keys.Commitment = append(keys.Commitment, ch.IssueKey)
		} else {
			keys.Insertions = append(keys.Insertions, ch.IssueKey)
		}
	}
	return keys
}

// Burndown fetches the scope-change burndown chart for a sprint of a board.
func (c *Client) Burndown(ctx context.Context, boardID, sprintID int) (BurndownFeed, error) {
	q := url.Values{}
	q.Set("rapidViewId", strconv.Itoa(boardID))
	q.Set("sprintId", strconv.Itoa(sprintID))
	var feed BurndownFeed
	if err := c.getJSON(ctx, "burndown", "/rest/greenhopper/1.0/rapid/charts/scopechangeburndownchart", q, &feed); err != nil {
		return BurndownFeed{}, err
	}
	return feed, nil
}
