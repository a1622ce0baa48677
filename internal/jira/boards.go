package jira

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

// Boards fetches every board in the instance, following the paging cursor
// until the server reports the last page. Pages are requested sequentially:
// the next offset is the accumulated count, so page N+1 depends on page N.
func (c *Client) Boards(ctx context.Context) ([]Board, error) {
	var boards []Board
	for {
		q := url.Values{}
		q.Set("startAt", strconv.Itoa(len(boards)))
		var page boardsPage
		if err := c.getJSON(ctx, "boards", "/rest/agile/1.0/board", q, &page); err != nil {
			return nil, err
		}
		boards = append(boards, page.Values...)
		// An empty page also terminates, guarding against a server whose
		// isLast never becomes true.
		if page.IsLast || len(page.Values) == 0 {
			break
		}
		if page.Total > 0 && len(boards) >= page.Total {
			break
		}
	}
	return boards, nil
}

// ScrumBoards filters boards down to the scrum boards belonging to the given
// project keys, optionally narrowed further by board name (substring match,
// the way multi-board projects are disambiguated).
func ScrumBoards(boards []Board, projectKeys, boardNames []string) []Board {
	wantProject := make(map[string]bool, len(projectKeys))
	for _, k := range projectKeys {
		wantProject[k] = true
	}
	var out []Board
	for _, b := range boards {
		if b.Type != "scrum" || b.Location == nil {
			continue
		}
		if !wantProject[b.Location.ProjectKey] {
			continue
		}
		if len(boardNames) > 0 && !nameMatches(b.Name, boardNames) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func nameMatches(name string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(strings.ToLower(name), strings.ToLower(n)) {
			return true
		}
	}
	return false
}
