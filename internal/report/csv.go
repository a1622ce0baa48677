package report

import (
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type csvRow struct {
	label string
	value func(SprintAccount) string
}

// section rows carry a label and no sprint columns; a nil label is a blank
// separator line.
func section(label string) csvRow { return csvRow{label: label} }

var csvRows = []csvRow{
	{"Sprint", func(a SprintAccount) string { return a.Sprint.Name }},
	{"Sprint start", func(a SprintAccount) string { return a.Sprint.StartTime.Format("2006-01-02") }},
	section(""),
	section("Commitment"),
	{"Stories committed", func(a SprintAccount) string { return itoa(a.Commitment.Stories) }},
	{"Storypoints committed", func(a SprintAccount) string { return ftoa(a.Commitment.StoryPoints) }},
	{"Tasks committed", func(a SprintAccount) string { return itoa(a.Commitment.Tasks) }},
	{"Bugs committed", func(a SprintAccount) string { return itoa(a.Commitment.Bugs) }},
	{"Stories from commitment done", func(a SprintAccount) string { return itoa(a.Commitment.StoriesDone) }},
	{"Story points from commitment done", func(a SprintAccount) string { return ftoa(a.Commitment.StoryPointsDone) }},
	{"Tasks from commitment done", func(a SprintAccount) string { return itoa(a.Commitment.TasksDone) }},
	{"Time spent on tasks from commitment", func(a SprintAccount) string { return ftoa(a.Commitment.TaskHours) }},
	{"Bugs from commitment done", func(a SprintAccount) string { return itoa(a.Commitment.BugsDone) }},
	{"Time spent on bugs from commitment", func(a SprintAccount) string { return ftoa(a.Commitment.BugHours) }},
	section(""),
	section("Interruptions"),
	{"Stories unplanned", func(a SprintAccount) string { return itoa(a.Insertions.Stories) }},
	{"Storypoints unplanned", func(a SprintAccount) string { return ftoa(a.Insertions.StoryPoints) }},
	{"Tasks unplanned", func(a SprintAccount) string { return itoa(a.Insertions.Tasks) }},
	{"Bugs unplanned", func(a SprintAccount) string { return itoa(a.Insertions.Bugs) }},
	{"Stories from interruptions done", func(a SprintAccount) string { return itoa(a.Insertions.StoriesDone) }},
	{"Story points from interruptions done", func(a SprintAccount) string { return ftoa(a.Insertions.StoryPointsDone) }},
	{"Tasks from interruptions done", func(a SprintAccount) string { return itoa(a.Insertions.TasksDone) }},
	{"Time spent on tasks from interruptions", func(a SprintAccount) string { return ftoa(a.Insertions.TaskHours) }},
	{"Bugs from interruptions done", func(a SprintAccount) string { return itoa(a.Insertions.BugsDone) }},
	{"Time spent on bugs from interruptions", func(a SprintAccount) string { return ftoa(a.Insertions.BugHours) }},
	section(""),
	section("Totals"),
	{"Total storypoints done", func(a SprintAccount) string { return ftoa(a.TotalStoryPointsDone()) }},
	{"Total times spent on tasks", func(a SprintAccount) string { return ftoa(a.TotalTaskHours()) }},
	{"Total time spent on bugs", func(a SprintAccount) string { return ftoa(a.TotalBugHours()) }},
	{"Stories without storypoints", func(a SprintAccount) string { return itoa(len(a.StoriesWithoutPoints())) }},
	{"Done tasks without timespent", func(a SprintAccount) string { return itoa(len(a.DoneTasksWithoutTime())) }},
	{"Done bugs without timespent", func(a SprintAccount) string { return itoa(len(a.DoneBugsWithoutTime())) }},
}

// FormatCSV renders sprint accounts as a transposed CSV table: one row per
// metric, one column per sprint, columns ordered by sprint start time, with
// Commitment / Interruptions / Totals sections. Every account must carry a
// start time, otherwise the ordering is undefined and the call fails.
func FormatCSV(accounts []SprintAccount) (string, error) {
	for _, a := range accounts {
		if a.Sprint.StartTime.IsZero() {
			return "", fmt.Errorf("report: sprint %q has no start time", a.Sprint.Name)
		}
	}
	sorted := make([]SprintAccount, len(accounts))
	copy(sorted, accounts)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Sprint.StartTime.Before(sorted[j].Sprint.StartTime)
	})

	var sb strings.Builder
	w := csv.NewWriter(&sb)
	for _, row := range csvRows {
		if row.value == nil {
			if err := w.Write([]string{row.label}); err != nil {
				return "", err
			}
			continue
		}
		record := make([]string, 0, len(sorted)+1)
		record = append(record, row.label)
		for _, a := range sorted {
			record = append(record, row.value(a))
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func itoa(n int) string { return strconv.Itoa(n) }

func ftoa(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
