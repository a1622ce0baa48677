package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoardsFollowsPages(t *testing.T) {
	var startAts []string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startAt := r.URL.Query().Get("startAt")
		startAts = append(startAts, startAt)
		page := boardsPage{Total: 3}
		if startAt == "0" {
			page.Values = []Board{{ID: 1, Name: "one"}, {ID: 2, Name: "two"}}
		} else {
			page.Values = []Board{{ID: 3, Name: "three"}}
			page.IsLast = true
		}
		json.NewEncoder(w).Encode(page)
	}))

	boards, err := c.Boards(context.Background())
	require.NoError(t, err)
	require.Len(t, boards, 3)
	require.Equal(t, []string{"0", "2"}, startAts)

	seen := map[int]bool{}
	for _, b := range boards {
		require.False(t, seen[b.ID], "duplicate board %d", b.ID)
		seen[b.ID] = true
	}
}

func TestBoardsStopsOnEmptyPage(t *testing.T) {
	// isLast never turns true; the empty page is the only terminator.
	requests := 0
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		page := boardsPage{}
		if r.URL.Query().Get("startAt") == "0" {
			page.Values = []Board{{ID: 1}}
		}
		json.NewEncoder(w).Encode(page)
	}))

	boards, err := c.Boards(context.Background())
	require.NoError(t, err)
	require.Len(t, boards, 1)
	require.Equal(t, 2, requests)
}

func TestBoardsPropagatesMidPageFailure(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("startAt") == "0" {
			json.NewEncoder(w).Encode(boardsPage{Values: []Board{{ID: 1}}, Total: 5})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := c.Boards(context.Background())
	require.Error(t, err)
	var se *StatusError
	require.ErrorAs(t, err, &se)
}

func TestScrumBoardsFilter(t *testing.T) {
	boards := []Board{
		{ID: 1, Name: "APP board", Type: "scrum", Location: &BoardLocation{ProjectKey: "APP"}},
		{ID: 2, Name: "APP kanban", Type: "kanban", Location: &BoardLocation{ProjectKey: "APP"}},
		{ID: 3, Name: "OTHER board", Type: "scrum", Location: &BoardLocation{ProjectKey: "OTHER"}},
		{ID: 4, Name: "no location", Type: "scrum"},
		{ID: 5, Name: "APP platform", Type: "scrum", Location: &BoardLocation{ProjectKey: "APP"}},
	}

	got := ScrumBoards(boards, []string{"APP"}, nil)
	require.Len(t, got, 2)

	got = ScrumBoards(boards, []string{"APP"}, []string{"platform"})
	require.Len(t, got, 1)
	require.Equal(t, 5, got[0].ID)
}

func TestSprintsFollowsPages(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rest/agile/1.0/board/7/sprint", r.URL.Path)
		page := sprintsPage{}
		if r.URL.Query().Get("startAt") == "0" {
			page.Values = []Sprint{{ID: 10, State: "closed"}, {ID: 11, State: "closed"}}
		} else {
			page.Values = []Sprint{{ID: 12, State: "active"}}
			page.IsLast = true
		}
		json.NewEncoder(w).Encode(page)
	}))

	sprints, err := c.Sprints(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, sprints, 3)
	require.Equal(t, SprintActive, sprints[2].Status())
}

func TestSprintStateCacheFetchesOnce(t *testing.T) {
	requests := 0
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprintf(w, `{"id":42,"state":"active","name":"Sprint 42"}`)
	}))
	cache := NewSprintStateCache(c)

	for i := 0; i < 3; i++ {
		state, err := cache.State(context.Background(), 42)
		require.NoError(t, err)
		require.Equal(t, SprintActive, state)
	}
	require.Equal(t, 1, requests)
}
