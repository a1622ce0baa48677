/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */

package jira

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const searchPageSize = 50

// IssuesByKeys fetches the issues named by keys via a JQL search, paging by
// the reported total. The result preserves no particular order; callers key
// by issue key. An empty key set short-circuits to no request at all.
func (c *Client) IssuesByKeys(ctx context.Context, keys []string) ([]Issue, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	jql := fmt.Sprintf("key in (%s)", strings.Join(keys, ", "))
	return c.search(ctx, jql)
}

// OpenSprintIssues fetches every non-subtask issue currently in an open
// sprint of the project.
func (c *Client) OpenSprintIssues(ctx context.Context, projectKey string) ([]Issue, error) {
	jql := fmt.Sprintf("project = %s AND Sprint in openSprints() AND type != Sub-task", projectKey)
	return c.search(ctx, jql)
}

func (c *Client) search(ctx context.Context, jql string) ([]Issue, error) {
	var issues []Issue
	for {
		q := url.Values{}
		q.Set("jql", jql)
		q.Set("startAt", strconv.Itoa(len(issues)))
		q.Set("maxResults", strconv.Itoa(searchPageSize))
		var page searchPage
		if err := c.getJSON(ctx, "search", "/rest/api/3/search", q, &page); err != nil {
			return nil, err
		}
		issues = append(issues, page.Issues...)
		if len(issues) >= page.Total || len(page.Issues) == 0 {
			break
		}
	}
	return issues, nil
}
