package jira

// Typed representations of the JSON the Jira Cloud REST and Agile APIs
// return. Only the fields the pipeline reads are declared; the custom field
// ids (story points, time spent hours, participants) are constants of the
// Jira deployment this tool targets.

// Board is a Jira Agile board. Only "scrum" boards carry sprints.
type Board struct {
	ID       int            `json:"id"`
	Name     string         `json:"name"`
	Type     string         `json:"type"`
	Location *BoardLocation `json:"location"`
}

type BoardLocation struct {
	ProjectID   int    `json:"projectId"`
	ProjectKey  string `json:"projectKey"`
	ProjectName string `json:"projectName"`
	DisplayName string `json:"displayName"`
}

type boardsPage struct {
	MaxResults int     `json:"maxResults"`
	StartAt    int     `json:"startAt"`
	Total      int     `json:"total"`
	IsLast     bool    `json:"isLast"`
	Values     []Board `json:"values"`
}

// SprintState is the enumerated sprint lifecycle state.
type SprintState string

const (
	SprintActive     SprintState = "active"
	SprintClosed     SprintState = "closed"
	SprintFuture     SprintState = "future"
	SprintUnexpected SprintState = "unexpected"
)

// Sprint as returned by the Agile board sprint listing.
type Sprint struct {
	ID           int         `json:"id"`
	State        string      `json:"state"`
	Name         string      `json:"name"`
	Goal         string      `json:"goal"`
	StartDate    *SprintTime `json:"startDate"`
	EndDate      *SprintTime `json:"endDate"`
	CompleteDate *SprintTime `json:"completeDate"`
}

// Status maps the raw state string onto the known lifecycle states.
// An unknown string maps to SprintUnexpected; callers decide whether that
// is fatal (it usually means the API changed underneath us).
func (s Sprint) Status() SprintState {
	switch s.State {
	case "active":
		return SprintActive
	case "closed":
		return SprintClosed
	case "future":
		return SprintFuture
	default:
		return SprintUnexpected
	}
}

type sprintsPage struct {
	MaxResults int      `json:"maxResults"`
	StartAt    int      `json:"startAt"`
	IsLast     bool     `json:"isLast"`
	Values     []Sprint `json:"values"`
}

// SprintSummary is the single-sprint endpoint's shape; used to resolve the
// current state of a sprint referenced from a changelog.
type SprintSummary struct {
	ID            int    `json:"id"`
	Self          string `json:"self"`
	State         string `json:"state"`
	Name          string `json:"name"`
	OriginBoardID int    `json:"originBoardId"`
	Goal          string `json:"goal"`
}

// Issue is a unit of work with its decoded fields and, when fetched with
// expand=changelog, its full change history.
type Issue struct {
	ID        string     `json:"id"`
	Key       string     `json:"key"`
	Fields    Fields     `json:"fields"`
	Changelog *Changelog `json:"changelog"`
}

type Fields struct {
	Summary      string    `json:"summary"`
	IssueType    IssueType `json:"issuetype"`
	Status       *Status   `json:"status"`
	Assignee     *User     `json:"assignee"`
	StoryPoints  *float64  `json:"customfield_10037"`
	TimeSpentRaw *float64  `json:"customfield_10874"` // the custom 'Time Spent, Hours'
	Participants []User    `json:"customfield_10872"`
}

// TimeSpentHours treats an absent value as zero hours logged.
func (f Fields) TimeSpentHours() float64 {
	if f.TimeSpentRaw == nil {
		return 0
	}
	return *f.TimeSpentRaw
}

// ParticipantNames flattens the participants list to display names.
func (f Fields) ParticipantNames() []string {
	if len(f.Participants) == 0 {
		return nil
	}
	names := make([]string, 0, len(f.Participants))
	for _, p := range f.Participants {
		names = append(names, p.DisplayName)
	}
	return names
}

type IssueType struct {
	Name string `json:"name"`
}

type Status struct {
	Name string `json:"name"`
}

type User struct {
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
}

// Changelog is the ordered field-change history of an issue.
type Changelog struct {
	StartAt    int       `json:"startAt"`
	MaxResults int       `json:"maxResults"`
	Total      int       `json:"total"`
	Histories  []History `json:"histories"`
}

type History struct {
	Created IssueTime    `json:"created"`
	Author  *User        `json:"author"`
	Items   []ChangeItem `json:"items"`
}

// AuthorName falls back from display name to email to an empty marker,
// matching how insertion authorship is reported.
func (h History) AuthorName() string {
	if h.Author == nil {
		return `""`
	}
	if h.Author.DisplayName != "" {
		return h.Author.DisplayName
	}
	if h.Author.EmailAddress != "" {
		return h.Author.EmailAddress
	}
	return `""`
}

// ChangeItem is one field change within a history entry. From and To are
// the human-readable values; FromValue and ToValue the raw ones (for the
// Sprint field those are comma-separated sprint ids).
type ChangeItem struct {
	Field     string  `json:"field"`
	From      *string `json:"fromString"`
	To        *string `json:"toString"`
	FromValue *string `json:"from"`
	ToValue   *string `json:"to"`
}

type searchPage struct {
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
	Total      int     `json:"total"`
	Issues     []Issue `json:"issues"`
}
