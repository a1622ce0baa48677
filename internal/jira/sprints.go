package jira

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"
)

// Sprints fetches every sprint of a board, oldest first, following the
// paging cursor sequentially until the last page.
func (c *Client) Sprints(ctx context.Context, boardID int) ([]Sprint, error) {
	var sprints []Sprint
	for {
		q := url.Values{}
		q.Set("startAt", strconv.Itoa(len(sprints)))
		var page sprintsPage
		path := fmt.Sprintf("/rest/agile/1.0/board/%d/sprint", boardID)
		if err := c.getJSON(ctx, "sprints", path, q, &page); err != nil {
			return nil, err
		}
		sprints = append(sprints, page.Values...)
		if page.IsLast || len(page.Values) == 0 {
			break
		}
	}
	return sprints, nil
}

// SprintByID fetches a single sprint. Used to resolve the current state of a
// sprint id that only appears inside a changelog entry.
func (c *Client) SprintByID(ctx context.Context, sprintID int) (SprintSummary, error) {
	var s SprintSummary
	path := fmt.Sprintf("/rest/agile/1.0/sprint/%d", sprintID)
	if err := c.getJSON(ctx, "sprint", path, nil, &s); err != nil {
		return SprintSummary{}, err
	}
	return s, nil
}

// SprintStateCache memoizes per-sprint state lookups. Review runs resolve
// the same handful of sprint ids for every issue in a project, so the cache
// collapses that to one request per id.
type SprintStateCache struct {
	client *Client

	mu     sync.Mutex
	states map[int]SprintState
}

func NewSprintStateCache(client *Client) *SprintStateCache {
	return &SprintStateCache{client: client, states: make(map[int]SprintState)}
}

// State returns the lifecycle state of the sprint, fetching it on first use.
func (c *SprintStateCache) State(ctx context.Context, sprintID int) (SprintState, error) {
	c.mu.Lock()
	if s, ok := c.states[sprintID]; ok {
		c.mu.Unlock()
		return s, nil
	}
	c.mu.Unlock()

	summary, err := c.client.SprintByID(ctx, sprintID)
	if err != nil {
		return SprintUnexpected, err
	}
	state := Sprint{State: summary.State}.Status()

	c.mu.Lock()
	c.states[sprintID] = state
	c.mu.Unlock()
	return state, nil
}
