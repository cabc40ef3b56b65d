// Package github wraps the GitHub REST and GraphQL APIs used by the bot.
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/go-github/v60/github"
	"github.com/shurcooL/githubv4"
)

// Client wraps the GitHub API clients.
type Client struct {
	client  *github.Client
	graphql *githubv4.Client
}

// CreateIssue opens an issue and returns it as created by GitHub.
func (c *Client) CreateIssue(ctx context.Context, owner, repo, title, body string, labels []string) (*github.Issue, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("issue title cannot be empty")
	}

	req := &github.IssueRequest{
		Title: github.String(title),
		Body:  github.String(body),
	}
	if len(labels) > 0 {
		req.Labels = &labels
	}

	issue, _, err := c.client.Issues.Create(ctx, owner, repo, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create issue in %s/%s: %w", owner, repo, err)
	}
	return issue, nil
}

// CreateComment posts a comment on an issue.
func (c *Client) CreateComment(ctx context.Context, org, repo string, number int, body string) error {
	if strings.TrimSpace(body) == "" {
		return fmt.Errorf("comment body cannot be empty")
	}

	comment := &github.IssueComment{
		Body: github.String(body),
	}
	_, _, err := c.client.Issues.CreateComment(ctx, org, repo, number, comment)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// AddLabels adds labels to an issue.
func (c *Client) AddLabels(ctx context.Context, org, repo string, number int, labels []string) error {
	if len(labels) == 0 {
		return fmt.Errorf("labels cannot be empty")
	}

	_, _, err := c.client.Issues.AddLabelsToIssue(ctx, org, repo, number, labels)
	if err != nil {
		return fmt.Errorf("failed to add labels: %w", err)
	}
	return nil
}

// RemoveLabel removes a label from an issue. A label that is not on the
// issue is not an error.
func (c *Client) RemoveLabel(ctx context.Context, org, repo string, number int, label string) error {
	if strings.TrimSpace(label) == "" {
		return fmt.Errorf("label cannot be empty")
	}

	_, err := c.client.Issues.RemoveLabelForIssue(ctx, org, repo, number, label)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to remove label: %w", err)
	}
	return nil
}

// IsOrgMember reports whether user belongs to org. Lookup failures count as
// "not a member" so an unavailable API never grants access.
func (c *Client) IsOrgMember(ctx context.Context, org, user string) bool {
	if org == "" || user == "" {
		return false
	}

	member, _, err := c.client.Organizations.IsMember(ctx, org, user)
	if err != nil {
		slog.WarnContext(ctx, "org membership lookup failed",
			"org", org,
			"user", user,
			"error", err,
		)
		return false
	}
	return member
}

func isNotFound(err error) bool {
	var ghErr *github.ErrorResponse
	return errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound
}
