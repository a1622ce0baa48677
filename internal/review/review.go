/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */

// Package review inspects the issues of a project's open sprints and
// collects the events worth telling the team about: mid-sprint scope
// insertions, freshly finished stories, finished work with no time logged,
// and assignee handovers that bypassed the participants field.
package review

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/HamedShams/sprint-pulse/internal/domain"
	"github.com/HamedShams/sprint-pulse/internal/jira"
)

// SprintStateFunc resolves the current lifecycle state of a sprint id.
type SprintStateFunc func(ctx context.Context, sprintID int) (jira.SprintState, error)

// Interruption is an issue moved into a sprint while that sprint was
// already running.
type Interruption struct {
	IssueKey string
	Summary  string
	SprintID int
	Author   string
	At       time.Time
}

// DoneTicket is a finished issue with the moment it transitioned to done.
type DoneTicket struct {
	Ticket domain.Ticket
	DoneAt time.Time
}

// AssigneeAnomaly is an assignee change where the previous assignee was
// never recorded as a participant of the issue.
type AssigneeAnomaly struct {
	IssueKey string
	From     string
	To       string
	At       time.Time
}

// Review is everything noteworthy found in one project's open sprints.
type Review struct {
	Project string

	Interruptions   []Interruption
	DoneTickets     []DoneTicket
	DoneStories     []DoneTicket
	DoneWithoutTime []domain.Ticket
	Anomalies       []AssigneeAnomaly

	// MissingDoneDate lists done-issue keys whose changelog never shows a
	// transition into a done status; they are excluded from DoneTickets.
	MissingDoneDate []string
}

// Empty reports whether there is nothing to notify about.
func (r Review) Empty() bool {
	return len(r.Interruptions) == 0 &&
		len(r.DoneTickets) == 0 &&
		len(r.DoneWithoutTime) == 0 &&
		len(r.Anomalies) == 0
}

// Build walks issues (fetched with changelogs expanded) and assembles the
// review. Sprint states are resolved through stateOf, so callers can put a
// cache in front of the single-sprint endpoint.
func Build(ctx context.Context, project string, issues []jira.Issue, statuses domain.StatusTable, stateOf SprintStateFunc) (Review, error) {
	r := Review{Project: project}
	for _, issue := range issues {
		ticket := domain.TicketFromIssue(issue, statuses)

		if err := r.collectInterruptions(ctx, issue, stateOf); err != nil {
			return Review{}, err
		}
		r.collectAnomalies(issue, ticket)

		if ticket.Status != domain.StatusDone {
			continue
		}
		if doneAt, ok := doneDate(issue, statuses); ok {
			done := DoneTicket{Ticket: ticket, DoneAt: doneAt}
			r.DoneTickets = append(r.DoneTickets, done)
			if ticket.Kind == domain.KindStory {
				r.DoneStories = append(r.DoneStories, done)
			}
		} else {
			r.MissingDoneDate = append(r.MissingDoneDate, ticket.Key)
		}
		if ticket.Kind == domain.KindTask || ticket.Kind == domain.KindBug {
			if ticket.TimeSpentHours == 0 {
				r.DoneWithoutTime = append(r.DoneWithoutTime, ticket)
			}
		}
	}
	return r, nil
}

// collectInterruptions finds Sprint-field changes that moved the issue into
// a sprint that is active right now.
func (r *Review) collectInterruptions(ctx context.Context, issue jira.Issue, stateOf SprintStateFunc) error {
	if issue.Changelog == nil {
		return nil
	}
	for _, h := range issue.Changelog.Histories {
		for _, item := range h.Items {
			if item.Field != "Sprint" {
				continue
			}
			for _, id := range insertedSprintIDs(item) {
				state, err := stateOf(ctx, id)
				if err != nil {
					return err
				}
				if state != jira.SprintActive {
					continue
				}
				r.Interruptions = append(r.Interruptions, Interruption{
					IssueKey: issue.Key,
					Summary:  issue.Fields.Summary,
					SprintID: id,
					Author:   h.AuthorName(),
					At:       h.Created.Time,
				})
			}
		}
	}
	return nil
}

// insertedSprintIDs diffs the Sprint field's raw values: the ids present
// after the change but not before are the sprints the issue entered.
func insertedSprintIDs(item jira.ChangeItem) []int {
	before := sprintIDSet(item.FromValue)
	var inserted []int
	for _, id := range sprintIDList(item.ToValue) {
		if !before[id] {
			inserted = append(inserted, id)
		}
	}
	return inserted
}

func sprintIDList(raw *string) []int {
	if raw == nil {
		return nil
	}
	var ids []int
	for _, part := range strings.Split(*raw, ",") {
		if id, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func sprintIDSet(raw *string) map[int]bool {
	set := make(map[int]bool)
	for _, id := range sprintIDList(raw) {
		set[id] = true
	}
	return set
}

// collectAnomalies flags assignee changes where the person handing the
// issue over was never recorded as a participant. A handover from nobody
// (first assignment) is not an anomaly.
func (r *Review) collectAnomalies(issue jira.Issue, ticket domain.Ticket) {
	if issue.Changelog == nil {
		return
	}
	participants := make(map[string]bool, len(ticket.Participants))
	for _, p := range ticket.Participants {
		participants[p] = true
	}
	for _, h := range issue.Changelog.Histories {
		for _, item := range h.Items {
			if item.Field != "assignee" || item.From == nil || *item.From == "" {
				continue
			}
			if participants[*item.From] {
				continue
			}
			to := ""
			if item.To != nil {
				to = *item.To
			}
			r.Anomalies = append(r.Anomalies, AssigneeAnomaly{
				IssueKey: issue.Key,
				From:     *item.From,
				To:       to,
				At:       h.Created.Time,
			})
		}
	}
}

// doneDate finds the latest transition into a done status. A done issue
// whose changelog shows no such transition reports ok=false.
func doneDate(issue jira.Issue, statuses domain.StatusTable) (time.Time, bool) {
	if issue.Changelog == nil {
		return time.Time{}, false
	}
	var latest time.Time
	found := false
	for _, h := range issue.Changelog.Histories {
		for _, item := range h.Items {
			if item.Field != "status" || item.To == nil || !statuses.IsDone(*item.To) {
				continue
			}
			if ts := h.Created.Time; ts.After(latest) {
				latest = ts
				found = true
			}
		}
	}
	return latest, found
}
