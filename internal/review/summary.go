package review

import (
	"fmt"
	"strings"

	"github.com/HamedShams/sprint-pulse/internal/domain"
)

// Summary is the notification-ready rendering of a review.
type Summary struct {
	Title    string
	Subtitle string
	Body     string
}

// Summary renders the review as notification text. An empty review renders
// an empty body; callers skip sending those.
func (r Review) Summary() Summary {
	var lines []string
	if len(r.DoneTickets) > 0 {
		keys := make([]string, 0, len(r.DoneTickets))
		for _, dt := range r.DoneTickets {
			keys = append(keys, dt.Ticket.Key)
		}
		lines = append(lines, fmt.Sprintf("%d done. Moved to 'Done': %s",
			len(keys), strings.Join(keys, ", ")))
	}
	for _, in := range r.Interruptions {
		lines = append(lines, fmt.Sprintf("Sprint interruption: %s %s (by %s, %s)",
			in.IssueKey, in.Summary, in.Author, in.At.Format("2006-01-02 15:04")))
	}
	for _, ds := range r.DoneStories {
		lines = append(lines, fmt.Sprintf("Story done: %s %s (%s)",
			ds.Ticket.Key, ds.Ticket.Summary, ds.DoneAt.Format("2006-01-02")))
	}
	for _, t := range r.DoneWithoutTime {
		switch t.Kind {
		case domain.KindBug:
			lines = append(lines, fmt.Sprintf("Missing time in bug: %s %s", t.Key, t.Summary))
		case domain.KindTask:
			lines = append(lines, fmt.Sprintf("Missing time in task: %s %s", t.Key, t.Summary))
		}
	}
	for _, a := range r.Anomalies {
		lines = append(lines, fmt.Sprintf("Assignee changed outside participants: %s %s -> %s",
			a.IssueKey, a.From, a.To))
	}
	return Summary{
		Title:    r.Project,
		Subtitle: "Sprint needs attention",
		Body:     strings.Join(lines, "\n"),
	}
}
