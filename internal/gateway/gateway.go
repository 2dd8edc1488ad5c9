// Package gateway provides access to the GitHub REST API through a layered
// fetch engine: a process-lifetime response cache, a primary-quota governor,
// retry with exponential backoff, and a pagination driver.
package gateway

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	"github.com/google/go-github/v84/github"
	"github.com/gregjones/httpcache"
	"golang.org/x/oauth2"

	"github.com/prstats/prstats/internal/cache"
	"github.com/prstats/prstats/internal/domain"
	"github.com/prstats/prstats/internal/ratelimit"
)

// Fetcher defines the behavior of a gateway for fetching pull-request
// activity from GitHub. Repository names are in owner/repo form.
type Fetcher interface {
	ListRepositories(ctx context.Context, org string) ([]string, error)
	ListPullRequests(ctx context.Context, repo string) ([]domain.PullRequest, error)
	ListPullRequestCommits(ctx context.Context, repo string, number int) ([]domain.Commit, error)
	ListPullRequestReviews(ctx context.Context, repo string, number int) ([]domain.Review, error)
	GetPullRequestDetail(ctx context.Context, repo string, number int) (*domain.PullRequestDetail, error)
	ListWorkflowRuns(ctx context.Context, repo string) ([]domain.WorkflowRun, error)
}

// RetryConfig bounds the backoff-and-retry behavior of single fetches.
type RetryConfig struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int
	// BaseDelay is the backoff before the first retry; each retry doubles it.
	BaseDelay time.Duration
	// MaxDelay caps the computed backoff.
	MaxDelay time.Duration
}

// DefaultRetryConfig returns the retry budget used in production.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 4,
		BaseDelay:   1 * time.Second,
		MaxDelay:    30 * time.Second,
	}
}

// Gateway is the concrete Fetcher. The cache and governor are injected so
// they can be shared across components and substituted in tests.
type Gateway struct {
	rest     *github.Client
	cache    *cache.Store
	governor *ratelimit.Governor
	retry    RetryConfig
	logger   *log.Logger
}

var _ Fetcher = (*Gateway)(nil)

// NewGateway creates a Gateway with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429/403)
//  3. oauth2 static token source
//  4. go-github REST client
//
// The logical response cache and quota governor sit above the transport and
// are consulted before any request leaves the process.
func NewGateway(token string, store *cache.Store, governor *ratelimit.Governor, retry RetryConfig, logger *log.Logger) *Gateway {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitClient.Transport,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
		},
	}
	return newGateway(github.NewClient(httpClient), store, governor, retry, logger)
}

func newGateway(rest *github.Client, store *cache.Store, governor *ratelimit.Governor, retry RetryConfig, logger *log.Logger) *Gateway {
	if retry.MaxAttempts <= 0 {
		retry = DefaultRetryConfig()
	}
	return &Gateway{
		rest:     rest,
		cache:    store,
		governor: governor,
		retry:    retry,
		logger:   logger,
	}
}
