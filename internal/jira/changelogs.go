package jira

import (
	"context"
	"fmt"
	"net/url"

	"golang.org/x/sync/errgroup"
)

// IssueWithChangelog fetches one issue with its full change history expanded.
func (c *Client) IssueWithChangelog(ctx context.Context, key string) (Issue, error) {
	var issue Issue
	path := fmt.Sprintf("/rest/api/2/issue/%s", key)
	q := url.Values{"expand": {"changelog"}}
	if err := c.getJSON(ctx, "issue", path, q, &issue); err != nil {
		return Issue{}, err
	}
	return issue, nil
}

// IssuesWithChangelogs fetches the named issues with changelogs, at most
// maxConcurrency requests in flight. Results keep the order of keys. The
// first error cancels the remaining fetches.
func (c *Client) IssuesWithChangelogs(ctx context.Context, keys []string, maxConcurrency int) ([]Issue, error) {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	issues := make([]Issue, len(keys))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			issue, err := c.IssueWithChangelog(ctx, key)
			if err != nil {
				return fmt.Errorf("changelog for %s: %w", key, err)
			}
			issues[i] = issue
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return issues, nil
}
