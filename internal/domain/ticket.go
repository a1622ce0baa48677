/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */

package domain

import (
	"github.com/HamedShams/sprint-pulse/internal/jira"
)

// TicketKind is the work-item category sprint accounting buckets by.
// Stories carry estimation points; tasks and bugs carry logged time.
type TicketKind string

const (
	KindStory TicketKind = "story"
	KindTask  TicketKind = "task"
	KindBug   TicketKind = "bug"
	KindOther TicketKind = "other"
)

// KindOf maps a Jira issue type name to its accounting bucket. Epics and
// anything unrecognized land in KindOther and are excluded from the sums.
func KindOf(issueTypeName string) TicketKind {
	switch issueTypeName {
	case "Story", "Improvement", "Design":
		return KindStory
	case "Task", "Sub-task":
		return KindTask
	case "Bug":
		return KindBug
	default:
		return KindOther
	}
}

// Ticket is one work item reduced to the fields sprint accounting and
// review need.
type Ticket struct {
	Key            string
	Summary        string
	Kind           TicketKind
	TypeName       string
	StatusName     string
	Status         TicketStatus
	StoryPoints    *float64
	TimeSpentHours float64
	Assignee       string
	Participants   []string
}

// TicketFromIssue maps a fetched issue onto the domain model using the given
// status table.
func TicketFromIssue(issue jira.Issue, statuses StatusTable) Ticket {
	t := Ticket{
		Key:            issue.Key,
		Summary:        issue.Fields.Summary,
		Kind:           KindOf(issue.Fields.IssueType.Name),
		TypeName:       issue.Fields.IssueType.Name,
		StoryPoints:    issue.Fields.StoryPoints,
		TimeSpentHours: issue.Fields.TimeSpentHours(),
		Participants:   issue.Fields.ParticipantNames(),
	}
	if issue.Fields.Status != nil {
		t.StatusName = issue.Fields.Status.Name
		t.Status = statuses.Classify(issue.Fields.Status.Name)
	} else {
		t.Status = StatusUnrecognized
	}
	if issue.Fields.Assignee != nil {
		t.Assignee = issue.Fields.Assignee.DisplayName
	}
	return t
}

// HasPoints reports whether an estimation value is present at all.
func (t Ticket) HasPoints() bool { return t.StoryPoints != nil }

// Points returns the estimation value, zero when absent.
func (t Ticket) Points() float64 {
	if t.StoryPoints == nil {
		return 0
	}
	return *t.StoryPoints
}
