/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */

// Package report turns classified sprint tickets into per-sprint accounts
// and renders them as a spreadsheet-ready table.
package report

import (
	"sort"
	"time"

	"github.com/HamedShams/sprint-pulse/internal/domain"
)

// SprintMeta identifies the sprint an account describes.
type SprintMeta struct {
	ID        int
	Name      string
	Goal      string
	StartTime time.Time
	EndTime   time.Time
}

// OriginStats is the accounting of one side of the scope line: either
// everything the team committed to at sprint start, or everything inserted
// afterwards. The two sides never share a ticket.
type OriginStats struct {
	Stories int
	Tasks   int
	Bugs    int

	StoriesDone int
	TasksDone   int
	BugsDone    int

	// StoryPoints sums all story estimates on this side; StoryPointsDone
	// only those of finished stories.
	StoryPoints     float64
	StoryPointsDone float64

	TaskHours float64
	BugHours  float64

	// Hygiene findings that make the numbers above suspect.
	StoriesWithoutPoints []string
	TasksDoneWithoutTime []string
	BugsDoneWithoutTime  []string
}

// SprintAccount is the full accounting of one sprint, split by how work
// entered it.
type SprintAccount struct {
	Sprint SprintMeta

	Commitment OriginStats
	Insertions OriginStats
}

// TotalStoryPointsDone sums finished story points across both sides.
func (a SprintAccount) TotalStoryPointsDone() float64 {
	return a.Commitment.StoryPointsDone + a.Insertions.StoryPointsDone
}

// TotalTaskHours sums task hours across both sides.
func (a SprintAccount) TotalTaskHours() float64 {
	return a.Commitment.TaskHours + a.Insertions.TaskHours
}

// TotalBugHours sums bug hours across both sides.
func (a SprintAccount) TotalBugHours() float64 {
	return a.Commitment.BugHours + a.Insertions.BugHours
}

// StoriesWithoutPoints lists all unestimated story keys, sorted.
func (a SprintAccount) StoriesWithoutPoints() []string {
	return mergeKeys(a.Commitment.StoriesWithoutPoints, a.Insertions.StoriesWithoutPoints)
}

// DoneTasksWithoutTime lists done task keys with zero hours logged, sorted.
func (a SprintAccount) DoneTasksWithoutTime() []string {
	return mergeKeys(a.Commitment.TasksDoneWithoutTime, a.Insertions.TasksDoneWithoutTime)
}

// DoneBugsWithoutTime lists done bug keys with zero hours logged, sorted.
func (a SprintAccount) DoneBugsWithoutTime() []string {
	return mergeKeys(a.Commitment.BugsDoneWithoutTime, a.Insertions.BugsDoneWithoutTime)
}

func mergeKeys(a, b []string) []string {
	if len(a)+len(b) == 0 {
		return nil
	}
	merged := make([]string, 0, len(a)+len(b))
	merged = append(merged, a...)
	merged = append(merged, b...)
	sort.Strings(merged)
	return merged
}

// Accumulate folds a sprint's committed and inserted tickets into an
// account. The fold is pure: the same inputs always produce the same
// account, and the input slices are not modified.
func Accumulate(meta SprintMeta, committed, inserted []domain.Ticket) SprintAccount {
	return SprintAccount{
		Sprint:     meta,
		Commitment: fold(committed),
		Insertions: fold(inserted),
	}
}

func fold(tickets []domain.Ticket) OriginStats {
	var st OriginStats
	for _, t := range tickets {
		done := t.Status == domain.StatusDone
		switch t.Kind {
		case domain.KindStory:
			st.Stories++
			st.StoryPoints += t.Points()
			if !t.HasPoints() {
				st.StoriesWithoutPoints = append(st.StoriesWithoutPoints, t.Key)
			}
			if done {
				st.StoriesDone++
				st.StoryPointsDone += t.Points()
			}
		case domain.KindTask:
			st.Tasks++
			st.TaskHours += t.TimeSpentHours
			if done {
				st.TasksDone++
				if t.TimeSpentHours == 0 {
					st.TasksDoneWithoutTime = append(st.TasksDoneWithoutTime, t.Key)
				}
			}
		case domain.KindBug:
			st.Bugs++
			st.BugHours += t.TimeSpentHours
			if done {
				st.BugsDone++
				if t.TimeSpentHours == 0 {
					st.BugsDoneWithoutTime = append(st.BugsDoneWithoutTime, t.Key)
				}
			}
		}
	}
	sort.Strings(st.StoriesWithoutPoints)
	sort.Strings(st.TasksDoneWithoutTime)
	sort.Strings(st.BugsDoneWithoutTime)
	return st
}
