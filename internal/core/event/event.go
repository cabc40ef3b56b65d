// Package event turns GitHub webhook payloads into pipeline events.
package event

import (
	"errors"
	"fmt"

	"github.com/google/go-github/v60/github"

	"github.com/tauri-apps/upstream-bot/internal/core/pipeline"
)

// ErrUnsupportedEvent is returned for event kinds the bot does not handle.
var ErrUnsupportedEvent = errors.New("unsupported event")

// Parse decodes a webhook payload of the given kind (the X-GitHub-Event header).
func Parse(kind, deliveryID string, payload []byte) (*pipeline.Event, error) {
	if kind != pipeline.KindIssueComment && kind != pipeline.KindIssues {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEvent, kind)
	}

	raw, err := github.ParseWebHook(kind, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s payload: %w", kind, err)
	}

	var ev *pipeline.Event
	switch e := raw.(type) {
	case *github.IssueCommentEvent:
		ev = FromIssueComment(e)
	case *github.IssuesEvent:
		ev = FromIssues(e)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedEvent, raw)
	}

	ev.DeliveryID = deliveryID
	return ev, nil
}

// FromIssueComment maps an issue_comment payload.
func FromIssueComment(e *github.IssueCommentEvent) *pipeline.Event {
	ev := fromIssue(e.GetIssue(), e.GetRepo(), e.GetSender())
	ev.Kind = pipeline.KindIssueComment
	ev.Action = e.GetAction()
	ev.CommentBody = e.GetComment().GetBody()
	ev.CommentAuthor = e.GetComment().GetUser().GetLogin()
	return ev
}

// FromIssues maps an issues payload.
func FromIssues(e *github.IssuesEvent) *pipeline.Event {
	ev := fromIssue(e.GetIssue(), e.GetRepo(), e.GetSender())
	ev.Kind = pipeline.KindIssues
	ev.Action = e.GetAction()
	return ev
}

func fromIssue(issue *github.Issue, repo *github.Repository, sender *github.User) *pipeline.Event {
	if issue == nil {
		issue = &github.Issue{}
	}

	labels := make([]string, 0, len(issue.Labels))
	for _, l := range issue.Labels {
		if name := l.GetName(); name != "" {
			labels = append(labels, name)
		}
	}

	return &pipeline.Event{
		Owner:      repo.GetOwner().GetLogin(),
		Repo:       repo.GetName(),
		Number:     issue.GetNumber(),
		Title:      issue.GetTitle(),
		Body:       issue.GetBody(),
		URL:        issue.GetHTMLURL(),
		Labels:     labels,
		Author:     issue.GetUser().GetLogin(),
		Sender:     sender.GetLogin(),
		SenderType: sender.GetType(),
	}
}
