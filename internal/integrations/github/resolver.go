package github

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shurcooL/githubv4"
)

// IssueRef identifies an issue by repository and number.
type IssueRef struct {
	Owner  string
	Repo   string
	Number int
}

// String returns the ref in "owner/repo#number" form.
func (r IssueRef) String() string {
	return fmt.Sprintf("%s/%s#%d", r.Owner, r.Repo, r.Number)
}

// ParseIssueURL extracts the issue ref from an issue html URL of the form
// https://<host>/<owner>/<repo>/issues/<number>. It returns nil for anything else.
func ParseIssueURL(rawURL string) *IssueRef {
	_, ref := parseIssueURL(rawURL)
	return ref
}

func parseIssueURL(rawURL string) (*url.URL, *IssueRef) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		return nil, nil
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) != 4 || parts[2] != "issues" || parts[0] == "" || parts[1] == "" {
		return nil, nil
	}

	number, err := strconv.Atoi(parts[3])
	if err != nil || number <= 0 {
		return nil, nil
	}

	return u, &IssueRef{Owner: parts[0], Repo: parts[1], Number: number}
}

// issueResourceQuery looks an issue up by URL. GitHub follows transfers and
// renames, so the returned repository may differ from the one in the URL.
type issueResourceQuery struct {
	Resource struct {
		Issue struct {
			Number     int
			Repository struct {
				Name  string
				Owner struct {
					Login string
				}
			}
		} `graphql:"... on Issue"`
	} `graphql:"resource(url: $url)"`
}

// ResolveIssueURL returns the issue the URL points at. It returns nil, nil
// when the URL is not an issue URL or no such issue exists. Only transport
// and API failures are returned as errors.
func (c *Client) ResolveIssueURL(ctx context.Context, rawURL string) (*IssueRef, error) {
	u, ref := parseIssueURL(rawURL)
	if ref == nil {
		return nil, nil
	}

	var q issueResourceQuery
	vars := map[string]interface{}{
		"url": githubv4.URI{URL: u},
	}
	if err := c.graphql.Query(ctx, &q, vars); err != nil {
		if isGraphQLNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve issue url %s: %w", rawURL, err)
	}

	issue := q.Resource.Issue
	if issue.Number == 0 || issue.Repository.Name == "" {
		return nil, nil
	}

	return &IssueRef{
		Owner:  issue.Repository.Owner.Login,
		Repo:   issue.Repository.Name,
		Number: issue.Number,
	}, nil
}

// githubv4 flattens GraphQL errors into a plain error string.
func isGraphQLNotFound(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "could not resolve") || strings.Contains(msg, "not_found")
}
