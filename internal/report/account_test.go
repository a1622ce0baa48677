package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/HamedShams/sprint-pulse/internal/domain"
)

func pts(v float64) *float64 { return &v }

func story(key string, points *float64, status domain.TicketStatus) domain.Ticket {
	return domain.Ticket{Key: key, Kind: domain.KindStory, StoryPoints: points, Status: status}
}

func timed(key string, kind domain.TicketKind, hours float64, status domain.TicketStatus) domain.Ticket {
	return domain.Ticket{Key: key, Kind: kind, TimeSpentHours: hours, Status: status}
}

func TestAccumulate(t *testing.T) {
	meta := SprintMeta{Name: "Sprint 12", StartTime: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}
	committed := []domain.Ticket{
		story("APP-1", pts(5), domain.StatusDone),
		story("APP-2", nil, domain.StatusNotDone),
		timed("APP-3", domain.KindTask, 0, domain.StatusDone),
		timed("APP-4", domain.KindBug, 2.5, domain.StatusNotDone),
		{Key: "APP-5", Kind: domain.KindOther, Status: domain.StatusDone},
	}
	inserted := []domain.Ticket{
		story("APP-6", pts(3), domain.StatusNotDone),
		timed("APP-7", domain.KindBug, 0, domain.StatusDone),
		timed("APP-8", domain.KindTask, 4, domain.StatusDone),
	}

	acc := Accumulate(meta, committed, inserted)

	require.Equal(t, 2, acc.Commitment.Stories)
	require.Equal(t, 1, acc.Commitment.StoriesDone)
	require.Equal(t, 5.0, acc.Commitment.StoryPoints)
	require.Equal(t, 5.0, acc.Commitment.StoryPointsDone)
	require.Equal(t, 1, acc.Commitment.Tasks)
	require.Equal(t, 1, acc.Commitment.TasksDone)
	require.Equal(t, 0.0, acc.Commitment.TaskHours)
	require.Equal(t, 1, acc.Commitment.Bugs)
	require.Equal(t, 0, acc.Commitment.BugsDone)
	require.Equal(t, 2.5, acc.Commitment.BugHours)

	require.Equal(t, 1, acc.Insertions.Stories)
	require.Equal(t, 0, acc.Insertions.StoriesDone)
	require.Equal(t, 3.0, acc.Insertions.StoryPoints)
	require.Equal(t, 0.0, acc.Insertions.StoryPointsDone)
	require.Equal(t, 1, acc.Insertions.Tasks)
	require.Equal(t, 4.0, acc.Insertions.TaskHours)
	require.Equal(t, 1, acc.Insertions.Bugs)
	require.Equal(t, 1, acc.Insertions.BugsDone)

	require.Equal(t, 5.0, acc.TotalStoryPointsDone())
	require.Equal(t, 4.0, acc.TotalTaskHours())
	require.Equal(t, 2.5, acc.TotalBugHours())
	require.Equal(t, []string{"APP-2"}, acc.StoriesWithoutPoints())
	require.Equal(t, []string{"APP-3"}, acc.DoneTasksWithoutTime())
	require.Equal(t, []string{"APP-7"}, acc.DoneBugsWithoutTime())
}

func TestAccumulateKeepsSidesApart(t *testing.T) {
	meta := SprintMeta{Name: "Sprint 1", StartTime: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	tickets := []domain.Ticket{timed("APP-1", domain.KindTask, 8, domain.StatusDone)}

	asCommitment := Accumulate(meta, tickets, nil)
	asInsertion := Accumulate(meta, nil, tickets)

	require.NotEqual(t, asCommitment, asInsertion)
	require.Equal(t, 8.0, asCommitment.Commitment.TaskHours)
	require.Equal(t, 0.0, asCommitment.Insertions.TaskHours)
	require.Equal(t, 0.0, asInsertion.Commitment.TaskHours)
	require.Equal(t, 8.0, asInsertion.Insertions.TaskHours)
	require.Equal(t, asCommitment.TotalTaskHours(), asInsertion.TotalTaskHours())
}

func TestAccumulateIsPure(t *testing.T) {
	meta := SprintMeta{Name: "Sprint 1"}
	committed := []domain.Ticket{story("APP-1", pts(2), domain.StatusDone)}
	inserted := []domain.Ticket{timed("APP-2", domain.KindTask, 1, domain.StatusNotDone)}

	first := Accumulate(meta, committed, inserted)
	second := Accumulate(meta, committed, inserted)
	require.Equal(t, first, second)
}

func TestAccumulateEmpty(t *testing.T) {
	acc := Accumulate(SprintMeta{Name: "empty"}, nil, nil)
	require.Zero(t, acc.Commitment.Stories)
	require.Zero(t, acc.Insertions.Stories)
	require.Zero(t, acc.TotalStoryPointsDone())
	require.Empty(t, acc.StoriesWithoutPoints())
}
