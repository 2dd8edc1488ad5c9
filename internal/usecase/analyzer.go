package usecase

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/prstats/prstats/internal/classify"
	"github.com/prstats/prstats/internal/domain"
	"github.com/prstats/prstats/internal/filter"
	"github.com/prstats/prstats/internal/gateway"
)

// DefaultConcurrency bounds how many repositories are analyzed at once.
const DefaultConcurrency = 4

// Scope describes which repositories a run covers.
type Scope struct {
	// Repo analyzes a single owner/repo and takes precedence over Org.
	Repo string
	// Org narrows All to one organization.
	Org string
}

func (s Scope) String() string {
	switch {
	case s.Repo != "":
		return "repository " + s.Repo
	case s.Org != "":
		return "organization " + s.Org
	default:
		return "all repositories"
	}
}

// Analyzer orchestrates a full run: resolve the repository list, prune it
// through the skip policy, fetch and classify pull requests per repository
// under bounded concurrency, and fold everything into one AnalysisResult.
type Analyzer struct {
	fetcher     gateway.Fetcher
	classifier  *classify.Classifier
	skip        filter.SkipConfig
	concurrency int
	logger      *log.Logger
	now         func() time.Time
}

// NewAnalyzer creates an Analyzer. A non-positive concurrency selects
// DefaultConcurrency.
func NewAnalyzer(fetcher gateway.Fetcher, classifier *classify.Classifier, skip filter.SkipConfig, concurrency int, logger *log.Logger) *Analyzer {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Analyzer{
		fetcher:     fetcher,
		classifier:  classifier,
		skip:        skip,
		concurrency: concurrency,
		logger:      logger,
		now:         time.Now,
	}
}

// Analyze performs one run. A failure analyzing one repository is recorded in
// the result and the run continues; only a failure to resolve the repository
// list at all is returned as an error.
func (a *Analyzer) Analyze(ctx context.Context, scope Scope) (*domain.AnalysisResult, error) {
	repos, err := a.resolveRepos(ctx, scope)
	if err != nil {
		return nil, err
	}
	a.logger.Printf("analyzing %d repositories (%s)", len(repos), scope)

	result := domain.NewAnalysisResult()
	result.Scope = scope.String()

	var mu sync.Mutex
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(a.concurrency)
	for _, repo := range repos {
		eg.Go(func() error {
			partial, err := a.analyzeRepo(egCtx, repo)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				a.logger.Printf("repository %s failed: %v", repo, err)
				result.Failures = append(result.Failures, domain.RepoFailure{Repository: repo, Reason: err.Error()})
				return nil
			}
			Merge(result, partial)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Failure order depends on goroutine scheduling; sort for reproducible
	// output.
	sort.Slice(result.Failures, func(i, j int) bool {
		return result.Failures[i].Repository < result.Failures[j].Repository
	})
	result.AnalyzedAt = a.now()
	result.RecomputeTotals()
	a.logger.Printf("analyzed %d pull requests across %d weeks", result.Totals.PullRequests, len(result.Weeks))
	return result, nil
}

func (a *Analyzer) resolveRepos(ctx context.Context, scope Scope) ([]string, error) {
	var repos []string
	if scope.Repo != "" {
		repos = []string{scope.Repo}
	} else {
		var err error
		repos, err = a.fetcher.ListRepositories(ctx, scope.Org)
		if err != nil {
			return nil, fmt.Errorf("resolving repository list: %w", err)
		}
	}
	kept := repos[:0]
	for _, repo := range repos {
		if filter.ShouldSkip(repo, a.skip) {
			a.logger.Printf("skipping %s per skip configuration", repo)
			continue
		}
		kept = append(kept, repo)
	}
	return kept, nil
}

// analyzeRepo builds a partial result for one repository. Per-PR permanent
// failures are recorded and the remaining pull requests still count.
func (a *Analyzer) analyzeRepo(ctx context.Context, repo string) (*domain.AnalysisResult, error) {
	prs, err := a.fetcher.ListPullRequests(ctx, repo)
	if err != nil {
		return nil, err
	}
	partial := domain.NewAnalysisResult()
	for _, pr := range prs {
		rec, err := a.buildRecord(ctx, pr)
		if err != nil {
			a.logger.Printf("pull request %s#%d failed: %v", repo, pr.Number, err)
			partial.Failures = append(partial.Failures, domain.RepoFailure{
				Repository: fmt.Sprintf("%s#%d", repo, pr.Number),
				Reason:     err.Error(),
			})
			continue
		}
		Fold(partial, *rec, domain.ActionsUsage{})
	}

	runs, err := a.fetcher.ListWorkflowRuns(ctx, repo)
	if err != nil {
		partial.Failures = append(partial.Failures, domain.RepoFailure{
			Repository: repo,
			Reason:     fmt.Sprintf("workflow runs: %v", err),
		})
		return partial, nil
	}
	for _, run := range runs {
		if run.StartedAt.IsZero() {
			continue
		}
		AddUsage(partial, run.StartedAt, domain.ActionsUsage{RunCount: 1, Minutes: run.Minutes()})
	}
	return partial, nil
}

func (a *Analyzer) buildRecord(ctx context.Context, pr domain.PullRequest) (*domain.PullRequestRecord, error) {
	commits, err := a.fetcher.ListPullRequestCommits(ctx, pr.Repository, pr.Number)
	if err != nil {
		return nil, err
	}
	reviews, err := a.fetcher.ListPullRequestReviews(ctx, pr.Repository, pr.Number)
	if err != nil {
		return nil, err
	}
	detail, err := a.fetcher.GetPullRequestDetail(ctx, pr.Repository, pr.Number)
	if err != nil {
		return nil, err
	}
	return &domain.PullRequestRecord{
		Repository:    pr.Repository,
		Number:        pr.Number,
		Author:        pr.Author,
		CreatedAt:     pr.CreatedAt,
		Commits:       commits,
		Reviews:       reviews,
		Additions:     detail.Additions,
		Deletions:     detail.Deletions,
		ChangedFiles:  detail.ChangedFiles,
		Category:      a.classifier.Classify(pr, commits, reviews),
		FirstReviewAt: firstReview(reviews),
	}, nil
}

func firstReview(reviews []domain.Review) *time.Time {
	var first *time.Time
	for i := range reviews {
		t := reviews[i].SubmittedAt
		if t.IsZero() {
			continue
		}
		if first == nil || t.Before(*first) {
			first = &t
		}
	}
	return first
}
