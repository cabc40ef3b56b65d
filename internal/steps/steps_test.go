package steps

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	gogithub "github.com/google/go-github/v60/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tauri-apps/upstream-bot/internal/core/config"
	"github.com/tauri-apps/upstream-bot/internal/core/pipeline"
	"github.com/tauri-apps/upstream-bot/internal/integrations/github"
)

const sourceURL = "https://github.com/tauri-apps/plugins-workspace/issues/5"

// fakeGitHub records every call and serves as writer, membership checker
// and resolver at once.
type fakeGitHub struct {
	mu    sync.Mutex
	calls []string

	members   map[string]bool
	resolved  map[string]*github.IssueRef
	failOn    string
	nextIssue int
}

func newFakeGitHub() *fakeGitHub {
	return &fakeGitHub{
		members:   map[string]bool{"maintainer": true},
		resolved:  map[string]*github.IssueRef{},
		nextIssue: 9000,
	}
}

func (f *fakeGitHub) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	if f.failOn != "" && strings.HasPrefix(call, f.failOn) {
		return errors.New("boom")
	}
	return nil
}

func (f *fakeGitHub) CreateIssue(_ context.Context, owner, repo, title, body string, labels []string) (*gogithub.Issue, error) {
	if err := f.record(fmt.Sprintf("CreateIssue %s/%s %q %q %v", owner, repo, title, body, labels)); err != nil {
		return nil, err
	}
	url := fmt.Sprintf("https://github.com/%s/%s/issues/%d", owner, repo, f.nextIssue)
	return &gogithub.Issue{Number: gogithub.Int(f.nextIssue), HTMLURL: gogithub.String(url)}, nil
}

func (f *fakeGitHub) CreateComment(_ context.Context, owner, repo string, number int, body string) error {
	return f.record(fmt.Sprintf("CreateComment %s/%s#%d %q", owner, repo, number, body))
}

func (f *fakeGitHub) AddLabels(_ context.Context, owner, repo string, number int, labels []string) error {
	return f.record(fmt.Sprintf("AddLabels %s/%s#%d %v", owner, repo, number, labels))
}

func (f *fakeGitHub) RemoveLabel(_ context.Context, owner, repo string, number int, label string) error {
	return f.record(fmt.Sprintf("RemoveLabel %s/%s#%d %s", owner, repo, number, label))
}

func (f *fakeGitHub) IsOrgMember(_ context.Context, org, user string) bool {
	return org == config.DefaultOrg && f.members[user]
}

func (f *fakeGitHub) ResolveIssueURL(_ context.Context, rawURL string) (*github.IssueRef, error) {
	if f.failOn == "Resolve" {
		return nil, errors.New("connection reset")
	}
	return f.resolved[rawURL], nil
}

func (f *fakeGitHub) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func newDeps(gh *fakeGitHub) *pipeline.Dependencies {
	return &pipeline.Dependencies{
		GitHub:   gh,
		Members:  gh,
		Resolver: gh,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func runPreset(t *testing.T, preset string, deps *pipeline.Dependencies, ev *pipeline.Event) (*pipeline.Result, error) {
	t.Helper()

	registry := pipeline.NewRegistry()
	RegisterAll(registry)

	names, ok := pipeline.GetPreset(preset)
	require.True(t, ok)
	p, err := registry.BuildFromNames(names, deps)
	require.NoError(t, err)

	pctx := pipeline.NewContext(context.Background(), ev, config.Default())
	err = p.Run(pctx)
	return pctx.Result, err
}

func commentEvent(body string) *pipeline.Event {
	return &pipeline.Event{
		Kind:          pipeline.KindIssueComment,
		Action:        "created",
		Owner:         "tauri-apps",
		Repo:          "plugins-workspace",
		Number:        5,
		Title:         "Crash on start",
		Body:          "Steps to reproduce",
		URL:           sourceURL,
		Labels:        []string{"type: bug"},
		Author:        "reporter",
		Sender:        "maintainer",
		SenderType:    "User",
		CommentBody:   body,
		CommentAuthor: "maintainer",
	}
}

func closedMirrorEvent() *pipeline.Event {
	return &pipeline.Event{
		Kind:       pipeline.KindIssues,
		Action:     "closed",
		Owner:      "tauri-apps",
		Repo:       "tauri",
		Number:     9000,
		Title:      "Crash on start",
		Body:       "Upstreamed from " + sourceURL + "\n\nSteps to reproduce",
		URL:        "https://github.com/tauri-apps/tauri/issues/9000",
		Author:     "tauri-bot",
		Sender:     "maintainer",
		SenderType: "User",
	}
}

func TestUpstreamCommandHappyPath(t *testing.T) {
	gh := newFakeGitHub()

	result, err := runPreset(t, pipeline.PresetUpstreamCommand, newDeps(gh), commentEvent("/upstream tauri-apps/tauri"))
	require.NoError(t, err)

	assert.False(t, result.Skipped)
	assert.Equal(t, "https://github.com/tauri-apps/tauri/issues/9000", result.MirrorURL)
	assert.Equal(t, []string{
		`CreateIssue tauri-apps/tauri "Crash on start" "Upstreamed from ` + sourceURL + `\n\nSteps to reproduce" [type: bug]`,
		`CreateComment tauri-apps/plugins-workspace#5 "Upstream issue at https://github.com/tauri-apps/tauri/issues/9000 has been created."`,
		`AddLabels tauri-apps/plugins-workspace#5 [upstream]`,
	}, gh.Calls())
	assert.Len(t, result.Effects, 3)
}

func TestUpstreamCommandUsesBotAccountForMirror(t *testing.T) {
	app := newFakeGitHub()
	bot := newFakeGitHub()
	deps := newDeps(app)
	deps.BotAccount = bot

	_, err := runPreset(t, pipeline.PresetUpstreamCommand, deps, commentEvent("/upstream tauri-apps/tauri"))
	require.NoError(t, err)

	require.Len(t, bot.Calls(), 1)
	assert.Contains(t, bot.Calls()[0], "CreateIssue tauri-apps/tauri")
	assert.Len(t, app.Calls(), 2)
}

func TestUpstreamCommandGates(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(ev *pipeline.Event)
		reason string
	}{
		{
			name:   "no command",
			mutate: func(ev *pipeline.Event) { ev.CommentBody = "please upstream this" },
			reason: "no command in comment",
		},
		{
			name:   "unknown command",
			mutate: func(ev *pipeline.Event) { ev.CommentBody = "/transfer tauri-apps/tauri" },
			reason: "unknown command",
		},
		{
			name:   "edited comment",
			mutate: func(ev *pipeline.Event) { ev.Action = "edited" },
			reason: "not a new comment",
		},
		{
			name: "app bot",
			mutate: func(ev *pipeline.Event) {
				ev.Sender, ev.CommentAuthor, ev.SenderType = "tauri-apps[bot]", "tauri-apps[bot]", "Bot"
			},
			reason: "command posted by a bot",
		},
		{
			name:   "bot account",
			mutate: func(ev *pipeline.Event) { ev.Sender, ev.CommentAuthor = "tauri-bot", "tauri-bot" },
			reason: "command posted by a bot",
		},
		{
			name:   "same repository",
			mutate: func(ev *pipeline.Event) { ev.CommentBody = "/upstream tauri-apps/plugins-workspace" },
			reason: "target is the source repository",
		},
		{
			name:   "same repository different case",
			mutate: func(ev *pipeline.Event) { ev.CommentBody = "/upstream Tauri-Apps/Plugins-Workspace" },
			reason: "target is the source repository",
		},
		{
			name:   "foreign organization",
			mutate: func(ev *pipeline.Event) { ev.Owner = "someone-else" },
			reason: "repository is outside the trusted organization",
		},
		{
			name:   "non member",
			mutate: func(ev *pipeline.Event) { ev.Sender, ev.CommentAuthor = "drive-by", "drive-by" },
			reason: "sender is not an organization member",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gh := newFakeGitHub()
			ev := commentEvent("/upstream tauri-apps/tauri")
			tt.mutate(ev)

			result, err := runPreset(t, pipeline.PresetUpstreamCommand, newDeps(gh), ev)
			require.NoError(t, err)

			assert.True(t, result.Skipped)
			assert.Equal(t, tt.reason, result.SkipReason)
			assert.Empty(t, gh.Calls())
		})
	}
}

func TestGatekeeperFailsClosedWithoutMembershipChecker(t *testing.T) {
	gh := newFakeGitHub()
	deps := newDeps(gh)
	deps.Members = nil

	result, err := runPreset(t, pipeline.PresetUpstreamCommand, deps, commentEvent("/upstream tauri-apps/tauri"))
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Empty(t, gh.Calls())
}

func TestUpstreamCommandStopsAtFirstFailure(t *testing.T) {
	gh := newFakeGitHub()
	gh.failOn = "CreateIssue"

	result, err := runPreset(t, pipeline.PresetUpstreamCommand, newDeps(gh), commentEvent("/upstream tauri-apps/tauri"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mirror_creator")

	assert.Len(t, gh.Calls(), 1)
	assert.Empty(t, result.MirrorURL)
}

func TestUpstreamCommandDoesNotRollBack(t *testing.T) {
	gh := newFakeGitHub()
	gh.failOn = "AddLabels"

	_, err := runPreset(t, pipeline.PresetUpstreamCommand, newDeps(gh), commentEvent("/upstream tauri-apps/tauri"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream_labeler")

	// The mirror and the comment stay in place.
	assert.Len(t, gh.Calls(), 3)
}

func TestUpstreamCommandDryRun(t *testing.T) {
	gh := newFakeGitHub()
	deps := newDeps(gh)
	deps.DryRun = true

	result, err := runPreset(t, pipeline.PresetUpstreamCommand, deps, commentEvent("/upstream tauri-apps/tauri"))
	require.NoError(t, err)

	assert.Empty(t, gh.Calls())
	assert.Equal(t, "<new issue in tauri-apps/tauri>", result.MirrorURL)
	assert.Len(t, result.Effects, 3)
}

func TestUpstreamResolveHappyPath(t *testing.T) {
	gh := newFakeGitHub()
	gh.resolved[sourceURL] = &github.IssueRef{Owner: "tauri-apps", Repo: "plugins-workspace", Number: 5}

	result, err := runPreset(t, pipeline.PresetUpstreamResolve, newDeps(gh), closedMirrorEvent())
	require.NoError(t, err)

	assert.False(t, result.Skipped)
	assert.Equal(t, []string{
		`CreateComment tauri-apps/plugins-workspace#5 "Upstream issue at https://github.com/tauri-apps/tauri/issues/9000 has been closed."`,
		`AddLabels tauri-apps/plugins-workspace#5 [upstream-resolved]`,
		`RemoveLabel tauri-apps/plugins-workspace#5 upstream`,
	}, gh.Calls())
}

func TestUpstreamResolveFollowsTransferredOriginal(t *testing.T) {
	gh := newFakeGitHub()
	gh.resolved[sourceURL] = &github.IssueRef{Owner: "tauri-apps", Repo: "plugins", Number: 42}

	_, err := runPreset(t, pipeline.PresetUpstreamResolve, newDeps(gh), closedMirrorEvent())
	require.NoError(t, err)

	for _, call := range gh.Calls() {
		assert.Contains(t, call, "tauri-apps/plugins#42")
	}
}

func TestUpstreamResolveSkips(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(ev *pipeline.Event)
		reason string
	}{
		{
			name:   "reopened",
			mutate: func(ev *pipeline.Event) { ev.Action = "reopened" },
			reason: "not a closed issue",
		},
		{
			name:   "foreign organization",
			mutate: func(ev *pipeline.Event) { ev.Owner = "someone-else" },
			reason: "repository is outside the trusted organization",
		},
		{
			name:   "human author",
			mutate: func(ev *pipeline.Event) { ev.Author = "maintainer" },
			reason: "issue was not opened by the bot",
		},
		{
			name:   "ordinary body",
			mutate: func(ev *pipeline.Event) { ev.Body = "Something is broken" },
			reason: "not a mirror issue",
		},
		{
			name:   "prefix without link",
			mutate: func(ev *pipeline.Event) { ev.Body = "Upstreamed from \n\nSteps to reproduce" },
			reason: "mirror body does not link an issue",
		},
		{
			name:   "link to a pull request",
			mutate: func(ev *pipeline.Event) { ev.Body = "Upstreamed from https://github.com/tauri-apps/tauri/pull/3\n\nDiff" },
			reason: "mirror body does not link an issue",
		},
		{
			name:   "original missing",
			mutate: func(ev *pipeline.Event) {},
			reason: "original issue not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gh := newFakeGitHub()
			ev := closedMirrorEvent()
			tt.mutate(ev)

			result, err := runPreset(t, pipeline.PresetUpstreamResolve, newDeps(gh), ev)
			require.NoError(t, err)

			assert.True(t, result.Skipped)
			assert.Equal(t, tt.reason, result.SkipReason)
			assert.Empty(t, gh.Calls())
		})
	}
}

func TestUpstreamResolveAppBotAuthor(t *testing.T) {
	gh := newFakeGitHub()
	gh.resolved[sourceURL] = &github.IssueRef{Owner: "tauri-apps", Repo: "plugins-workspace", Number: 5}
	ev := closedMirrorEvent()
	ev.Author = "tauri-apps[bot]"

	_, err := runPreset(t, pipeline.PresetUpstreamResolve, newDeps(gh), ev)
	require.NoError(t, err)
	assert.Len(t, gh.Calls(), 3)
}

func TestUpstreamResolveLookupError(t *testing.T) {
	gh := newFakeGitHub()
	gh.failOn = "Resolve"

	_, err := runPreset(t, pipeline.PresetUpstreamResolve, newDeps(gh), closedMirrorEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "original_resolver")
	assert.Empty(t, gh.Calls())
}

func TestIsBotAuthor(t *testing.T) {
	cfg := config.Default()

	tests := []struct {
		name string
		ev   pipeline.Event
		want bool
	}{
		{"app type", pipeline.Event{SenderType: "Bot", Sender: "renovate[bot]"}, true},
		{"bot suffix", pipeline.Event{CommentAuthor: "dependabot[bot]"}, true},
		{"configured account", pipeline.Event{CommentAuthor: "tauri-bot", Sender: "tauri-bot"}, true},
		{"configured account case insensitive", pipeline.Event{Sender: "Tauri-Bot"}, true},
		{"human", pipeline.Event{CommentAuthor: "maintainer", Sender: "maintainer", SenderType: "User"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isBotAuthor(&tt.ev, cfg))
		})
	}
}
