package domain

// TicketStatus is the coarse lifecycle bucket a workflow status maps to.
// Sprint accounting only distinguishes todo, in-flight and done.
type TicketStatus string

const (
	StatusTodo         TicketStatus = "todo"
	StatusNotDone      TicketStatus = "notDone"
	StatusDone         TicketStatus = "done"
	StatusUnrecognized TicketStatus = "unrecognized"
)

// Workflow status names seen across the boards this tool reports on.
// Deployments rename and add statuses freely, so the sets are extendable
// through configuration rather than requiring a code change.
var (
	defaultDone = []string{
		"Done",
		"Closed",
		"Delivered",
		"Won't fix",
		"Released",
	}
	defaultTodo = []string{
		"To Do",
		"Open",
		"New / Triage",
		"Backlog",
	}
	defaultNotDone = []string{
		"In Progress",
		"In Development",
		"In Review",
		"Code Review",
		"Ready for Test",
		"Testing",
		"Blocked",
		"On Hold",
		"Selected for Development",
		"Reopened",
	}
)

// StatusTable classifies workflow status names into TicketStatus buckets.
type StatusTable struct {
	done    map[string]bool
	todo    map[string]bool
	notDone map[string]bool
}

// NewStatusTable builds the classification table from the built-in sets plus
// the deployment-specific extensions.
func NewStatusTable(doneExtra, notDoneExtra []string) StatusTable {
	t := StatusTable{
		done:    toSet(defaultDone),
		todo:    toSet(defaultTodo),
		notDone: toSet(defaultNotDone),
	}
	for _, s := range doneExtra {
		if s != "" {
			t.done[s] = true
		}
	}
	for _, s := range notDoneExtra {
		if s != "" {
			t.notDone[s] = true
		}
	}
	return t
}

// Classify maps a workflow status name to its bucket. Unknown names come
// back as StatusUnrecognized; the caller decides whether to skip or fail.
func (t StatusTable) Classify(name string) TicketStatus {
	switch {
	case t.done[name]:
		return StatusDone
	case t.todo[name]:
		return StatusTodo
	case t.notDone[name]:
		return StatusNotDone
	default:
		return StatusUnrecognized
	}
}

// DoneNames lists the status names that count as done, for changelog scans
// that look for the transition into a done state.
func (t StatusTable) DoneNames() []string {
	names := make([]string, 0, len(t.done))
	for n := range t.done {
		names = append(names, n)
	}
	return names
}

// IsDone reports whether the status name counts as done.
func (t StatusTable) IsDone(name string) bool { return t.done[name] }

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
