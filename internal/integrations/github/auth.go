package github

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	"github.com/google/go-github/v60/github"
	"github.com/gregjones/httpcache"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"
)

// Options configures a Client.
type Options struct {
	// Token authenticates every request. Empty means unauthenticated.
	Token string

	// APIURL overrides the REST endpoint, e.g. for GitHub Enterprise or tests.
	APIURL string

	// GraphQLURL overrides the GraphQL endpoint.
	GraphQLURL string

	// HTTPClient replaces the default transport stack entirely.
	HTTPClient *http.Client
}

// New creates a GitHub client. Unless opts.HTTPClient is set, requests go
// through this transport stack:
//  1. oauth2 static token source
//  2. httpcache (ETag-based conditional request caching, LRU bounded)
//  3. go-github-ratelimit (sleeps on secondary rate limits)
func New(opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = newHTTPClient(opts.Token)
	}

	rest := github.NewClient(httpClient)
	if opts.APIURL != "" {
		u, err := url.Parse(ensureTrailingSlash(opts.APIURL))
		if err != nil {
			return nil, fmt.Errorf("failed to parse api url: %w", err)
		}
		rest.BaseURL = u
	}

	var gql *githubv4.Client
	if opts.GraphQLURL != "" {
		gql = githubv4.NewEnterpriseClient(opts.GraphQLURL, httpClient)
	} else {
		gql = githubv4.NewClient(httpClient)
	}

	return &Client{
		client:  rest,
		graphql: gql,
	}, nil
}

func newHTTPClient(token string) *http.Client {
	var transport http.RoundTripper = httpcache.NewTransport(newLRUCache(cacheEntries))

	if token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		transport = &oauth2.Transport{Source: ts, Base: transport}
	}

	return github_ratelimit.NewClient(transport)
}

func ensureTrailingSlash(s string) string {
	if strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}
