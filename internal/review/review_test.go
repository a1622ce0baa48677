package review

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/HamedShams/sprint-pulse/internal/domain"
	"github.com/HamedShams/sprint-pulse/internal/jira"
)

func str(s string) *string { return &s }

func at(day int) jira.IssueTime {
	return jira.IssueTime{Time: time.Date(2024, 1, day, 12, 0, 0, 0, time.UTC)}
}

func statesFixture(states map[int]jira.SprintState) SprintStateFunc {
	return func(ctx context.Context, sprintID int) (jira.SprintState, error) {
		if s, ok := states[sprintID]; ok {
			return s, nil
		}
		return jira.SprintUnexpected, errors.New("unknown sprint")
	}
}

func TestBuildDetectsInterruptions(t *testing.T) {
	issue := jira.Issue{
		Key: "APP-1",
		Fields: jira.Fields{
			Summary:   "late scope",
			IssueType: jira.IssueType{Name: "Story"},
			Status:    &jira.Status{Name: "In Progress"},
		},
		Changelog: &jira.Changelog{Histories: []jira.History{
			{
				Created: at(3),
				Author:  &jira.User{DisplayName: "Alice"},
				Items: []jira.ChangeItem{{
					Field:     "Sprint",
					FromValue: str("1"),
					ToValue:   str("1, 5"),
				}},
			},
			{
				// moving into a closed sprint is not an interruption
				Created: at(4),
				Items: []jira.ChangeItem{{
					Field:     "Sprint",
					FromValue: str("1, 5"),
					ToValue:   str("1, 5, 2"),
				}},
			},
		}},
	}
	states := statesFixture(map[int]jira.SprintState{1: jira.SprintClosed, 2: jira.SprintClosed, 5: jira.SprintActive})

	rev, err := Build(context.Background(), "APP", []jira.Issue{issue}, domain.NewStatusTable(nil, nil), states)
	require.NoError(t, err)
	require.Len(t, rev.Interruptions, 1)
	in := rev.Interruptions[0]
	require.Equal(t, "APP-1", in.IssueKey)
	require.Equal(t, 5, in.SprintID)
	require.Equal(t, "Alice", in.Author)
	require.True(t, in.At.Equal(at(3).Time))
}

func TestBuildDoneTicketUsesLatestTransition(t *testing.T) {
	issue := jira.Issue{
		Key: "APP-2",
		Fields: jira.Fields{
			IssueType: jira.IssueType{Name: "Story"},
			Status:    &jira.Status{Name: "Done"},
		},
		Changelog: &jira.Changelog{Histories: []jira.History{
			{Created: at(2), Items: []jira.ChangeItem{{Field: "status", From: str("In Progress"), To: str("Done")}}},
			{Created: at(3), Items: []jira.ChangeItem{{Field: "status", From: str("Done"), To: str("In Progress")}}},
			{Created: at(6), Items: []jira.ChangeItem{{Field: "status", From: str("In Progress"), To: str("Closed")}}},
		}},
	}

	rev, err := Build(context.Background(), "APP", []jira.Issue{issue}, domain.NewStatusTable(nil, nil), statesFixture(nil))
	require.NoError(t, err)
	require.Len(t, rev.DoneTickets, 1)
	require.True(t, rev.DoneTickets[0].DoneAt.Equal(at(6).Time))
	require.Len(t, rev.DoneStories, 1)
	require.Empty(t, rev.MissingDoneDate)
}

func TestBuildCollectsDoneTicketsOfEveryKind(t *testing.T) {
	hours := 4.0
	task := jira.Issue{
		Key: "APP-10",
		Fields: jira.Fields{
			IssueType:    jira.IssueType{Name: "Task"},
			Status:       &jira.Status{Name: "Done"},
			TimeSpentRaw: &hours,
		},
		Changelog: &jira.Changelog{Histories: []jira.History{
			{Created: at(4), Items: []jira.ChangeItem{{Field: "status", From: str("In Progress"), To: str("Done")}}},
		}},
	}
	bug := jira.Issue{
		Key: "APP-11",
		Fields: jira.Fields{
			IssueType:    jira.IssueType{Name: "Bug"},
			Status:       &jira.Status{Name: "Closed"},
			TimeSpentRaw: &hours,
		},
		Changelog: &jira.Changelog{Histories: []jira.History{
			{Created: at(5), Items: []jira.ChangeItem{{Field: "status", From: str("Open"), To: str("Closed")}}},
		}},
	}

	rev, err := Build(context.Background(), "APP", []jira.Issue{task, bug}, domain.NewStatusTable(nil, nil), statesFixture(nil))
	require.NoError(t, err)
	require.Len(t, rev.DoneTickets, 2)
	require.Equal(t, "APP-10", rev.DoneTickets[0].Ticket.Key)
	require.True(t, rev.DoneTickets[0].DoneAt.Equal(at(4).Time))
	require.Equal(t, "APP-11", rev.DoneTickets[1].Ticket.Key)
	require.Empty(t, rev.DoneStories, "tasks and bugs are not stories")
	require.False(t, rev.Empty())
}

func TestBuildMissingDoneDate(t *testing.T) {
	story := jira.Issue{
		Key: "APP-3",
		Fields: jira.Fields{
			IssueType: jira.IssueType{Name: "Story"},
			Status:    &jira.Status{Name: "Done"},
		},
		Changelog: &jira.Changelog{},
	}
	task := jira.Issue{
		Key: "APP-12",
		Fields: jira.Fields{
			IssueType: jira.IssueType{Name: "Task"},
			Status:    &jira.Status{Name: "Done"},
		},
	}

	rev, err := Build(context.Background(), "APP", []jira.Issue{story, task}, domain.NewStatusTable(nil, nil), statesFixture(nil))
	require.NoError(t, err)
	require.Empty(t, rev.DoneTickets)
	require.Empty(t, rev.DoneStories)
	require.Equal(t, []string{"APP-3", "APP-12"}, rev.MissingDoneDate)
}

func TestBuildMissingTime(t *testing.T) {
	hours := 2.5
	bugNoTime := jira.Issue{
		Key: "APP-4",
		Fields: jira.Fields{
			IssueType: jira.IssueType{Name: "Bug"},
			Status:    &jira.Status{Name: "Closed"},
		},
	}
	bugWithTime := jira.Issue{
		Key: "APP-5",
		Fields: jira.Fields{
			IssueType:    jira.IssueType{Name: "Bug"},
			Status:       &jira.Status{Name: "Closed"},
			TimeSpentRaw: &hours,
		},
	}
	taskNoTime := jira.Issue{
		Key: "APP-6",
		Fields: jira.Fields{
			IssueType: jira.IssueType{Name: "Task"},
			Status:    &jira.Status{Name: "Done"},
		},
	}

	rev, err := Build(context.Background(), "APP",
		[]jira.Issue{bugNoTime, bugWithTime, taskNoTime},
		domain.NewStatusTable(nil, nil), statesFixture(nil))
	require.NoError(t, err)
	require.Len(t, rev.DoneWithoutTime, 2)
	require.Equal(t, "APP-4", rev.DoneWithoutTime[0].Key)
	require.Equal(t, "APP-6", rev.DoneWithoutTime[1].Key)
}

func assigneeIssue(key string, participants []jira.User, changes ...jira.ChangeItem) jira.Issue {
	histories := make([]jira.History, 0, len(changes))
	for i, c := range changes {
		histories = append(histories, jira.History{Created: at(i + 2), Items: []jira.ChangeItem{c}})
	}
	return jira.Issue{
		Key: key,
		Fields: jira.Fields{
			IssueType:    jira.IssueType{Name: "Task"},
			Status:       &jira.Status{Name: "In Progress"},
			Participants: participants,
		},
		Changelog: &jira.Changelog{Histories: histories},
	}
}

func TestBuildAssigneeAnomalies(t *testing.T) {
	// Alice hands over to Bob, but only Bob is a participant. The handover
	// comes from outside the participant list and must be flagged.
	issue := assigneeIssue("APP-7", []jira.User{{DisplayName: "Bob"}},
		jira.ChangeItem{Field: "assignee", From: str("Alice"), To: str("Bob")})

	rev, err := Build(context.Background(), "APP", []jira.Issue{issue}, domain.NewStatusTable(nil, nil), statesFixture(nil))
	require.NoError(t, err)
	require.Len(t, rev.Anomalies, 1)
	require.Equal(t, "APP-7", rev.Anomalies[0].IssueKey)
	require.Equal(t, "Alice", rev.Anomalies[0].From)
	require.Equal(t, "Bob", rev.Anomalies[0].To)
	require.True(t, rev.Anomalies[0].At.Equal(at(2).Time))
}

func TestBuildAssigneeAnomaliesSkipFirstAssignment(t *testing.T) {
	first := assigneeIssue("APP-8", nil,
		jira.ChangeItem{Field: "assignee", From: nil, To: str("Alice")})
	emptyFrom := assigneeIssue("APP-9", nil,
		jira.ChangeItem{Field: "assignee", From: str(""), To: str("Alice")})

	rev, err := Build(context.Background(), "APP", []jira.Issue{first, emptyFrom}, domain.NewStatusTable(nil, nil), statesFixture(nil))
	require.NoError(t, err)
	require.Empty(t, rev.Anomalies)
}

func TestBuildAssigneeAnomaliesParticipantHandover(t *testing.T) {
	issue := assigneeIssue("APP-13", []jira.User{{DisplayName: "Alice"}},
		jira.ChangeItem{Field: "assignee", From: str("Alice"), To: str("Bob")},
		jira.ChangeItem{Field: "assignee", From: str("Bob"), To: str("Alice")})

	rev, err := Build(context.Background(), "APP", []jira.Issue{issue}, domain.NewStatusTable(nil, nil), statesFixture(nil))
	require.NoError(t, err)
	require.Len(t, rev.Anomalies, 1, "only the handover from Bob lacks a participant record")
	require.Equal(t, "Bob", rev.Anomalies[0].From)
	require.Equal(t, "Alice", rev.Anomalies[0].To)
}

func TestSummaryRendering(t *testing.T) {
	rev := Review{
		Project: "APP",
		Interruptions: []Interruption{{
			IssueKey: "APP-1", Summary: "late scope", Author: "Alice", At: at(3).Time,
		}},
		DoneTickets: []DoneTicket{
			{Ticket: domain.Ticket{Key: "APP-2", Summary: "checkout", Kind: domain.KindStory}, DoneAt: at(6).Time},
			{Ticket: domain.Ticket{Key: "APP-10", Summary: "rotate keys", Kind: domain.KindTask}, DoneAt: at(4).Time},
		},
		DoneStories: []DoneTicket{{
			Ticket: domain.Ticket{Key: "APP-2", Summary: "checkout"}, DoneAt: at(6).Time,
		}},
		DoneWithoutTime: []domain.Ticket{
			{Key: "APP-4", Kind: domain.KindBug, Summary: "crash"},
			{Key: "APP-6", Kind: domain.KindTask, Summary: "chore"},
		},
		Anomalies: []AssigneeAnomaly{{IssueKey: "APP-7", From: "Alice", To: "Bob"}},
	}

	s := rev.Summary()
	require.Equal(t, "APP", s.Title)
	require.Equal(t, "Sprint needs attention", s.Subtitle)
	require.Contains(t, s.Body, "2 done. Moved to 'Done': APP-2, APP-10")
	require.Contains(t, s.Body, "Sprint interruption: APP-1 late scope (by Alice")
	require.Contains(t, s.Body, "Story done: APP-2 checkout (2024-01-06)")
	require.Contains(t, s.Body, "Missing time in bug: APP-4 crash")
	require.Contains(t, s.Body, "Missing time in task: APP-6 chore")
	require.Contains(t, s.Body, "Assignee changed outside participants: APP-7 Alice -> Bob")
}

func TestEmptyReview(t *testing.T) {
	rev := Review{Project: "APP", MissingDoneDate: []string{"APP-1"}}
	require.True(t, rev.Empty(), "diagnostics alone do not warrant a notification")

	rev.DoneTickets = []DoneTicket{{Ticket: domain.Ticket{Key: "APP-2"}}}
	require.False(t, rev.Empty())
}
