package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/go-github/v84/github"

	"github.com/prstats/prstats/internal/domain"
)

const perPage = "100"

// ListRepositories returns the full names of repositories visible to the
// token, narrowed to one organization when org is non-empty.
func (g *Gateway) ListRepositories(ctx context.Context, org string) ([]string, error) {
	path := "user/repos"
	query := url.Values{"per_page": {perPage}}
	if org != "" {
		path = fmt.Sprintf("orgs/%s/repos", org)
		query.Set("type", "all")
	}
	repos, err := collect[*github.Repository](path, g.fetchAll(ctx, path, query))
	if err != nil {
		return nil, fmt.Errorf("listing repositories: %w", err)
	}
	names := make([]string, 0, len(repos))
	for _, r := range repos {
		names = append(names, r.GetFullName())
	}
	return names, nil
}

// ListPullRequests returns every pull request of the repository, newest
// first, mapped to domain types.
func (g *Gateway) ListPullRequests(ctx context.Context, repo string) ([]domain.PullRequest, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}
	path := fmt.Sprintf("repos/%s/%s/pulls", owner, name)
	query := url.Values{
		"state":     {"all"},
		"sort":      {"created"},
		"direction": {"desc"},
		"per_page":  {perPage},
	}
	prs, err := collect[*github.PullRequest](path, g.fetchAll(ctx, path, query))
	if err != nil {
		return nil, fmt.Errorf("listing pull requests for %s: %w", repo, err)
	}
	out := make([]domain.PullRequest, 0, len(prs))
	for _, pr := range prs {
		out = append(out, mapPullRequest(pr, repo))
	}
	return out, nil
}

// ListPullRequestCommits returns the ordered commits of a pull request.
func (g *Gateway) ListPullRequestCommits(ctx context.Context, repo string, number int) ([]domain.Commit, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}
	path := fmt.Sprintf("repos/%s/%s/pulls/%d/commits", owner, name, number)
	commits, err := collect[*github.RepositoryCommit](path, g.fetchAll(ctx, path, url.Values{"per_page": {perPage}}))
	if err != nil {
		return nil, fmt.Errorf("listing commits for %s#%d: %w", repo, number, err)
	}
	out := make([]domain.Commit, 0, len(commits))
	for _, c := range commits {
		out = append(out, mapCommit(c))
	}
	return out, nil
}

// ListPullRequestReviews returns the ordered reviews of a pull request.
func (g *Gateway) ListPullRequestReviews(ctx context.Context, repo string, number int) ([]domain.Review, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}
	path := fmt.Sprintf("repos/%s/%s/pulls/%d/reviews", owner, name, number)
	reviews, err := collect[*github.PullRequestReview](path, g.fetchAll(ctx, path, url.Values{"per_page": {perPage}}))
	if err != nil {
		return nil, fmt.Errorf("listing reviews for %s#%d: %w", repo, number, err)
	}
	out := make([]domain.Review, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, domain.Review{
			Reviewer:    r.GetUser().GetLogin(),
			State:       strings.ToLower(r.GetState()),
			SubmittedAt: r.GetSubmittedAt().Time,
		})
	}
	return out, nil
}

// GetPullRequestDetail returns the diff statistics only the single-PR
// endpoint carries.
func (g *Gateway) GetPullRequestDetail(ctx context.Context, repo string, number int) (*domain.PullRequestDetail, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}
	path := fmt.Sprintf("repos/%s/%s/pulls/%d", owner, name, number)
	p, err := g.fetchPage(ctx, path, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("fetching detail for %s#%d: %w", repo, number, err)
	}
	var pr github.PullRequest
	if err := json.Unmarshal(p.Body, &pr); err != nil {
		return nil, &PermanentError{Path: path, Err: err}
	}
	return &domain.PullRequestDetail{
		Additions:    pr.GetAdditions(),
		Deletions:    pr.GetDeletions(),
		ChangedFiles: pr.GetChangedFiles(),
	}, nil
}

// workflowRunsPage matches the wrapper object the Actions runs endpoint
// returns instead of a bare array.
type workflowRunsPage struct {
	TotalCount   int                   `json:"total_count"`
	WorkflowRuns []*github.WorkflowRun `json:"workflow_runs"`
}

// ListWorkflowRuns returns every Actions workflow run of the repository,
// reduced to usage timestamps.
func (g *Gateway) ListWorkflowRuns(ctx context.Context, repo string) ([]domain.WorkflowRun, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}
	path := fmt.Sprintf("repos/%s/%s/actions/runs", owner, name)
	query := url.Values{"per_page": {perPage}}

	var out []domain.WorkflowRun
	pageNum := 0
	for {
		p, err := g.fetchPage(ctx, path, query, pageNum)
		if err != nil {
			return nil, fmt.Errorf("listing workflow runs for %s: %w", repo, err)
		}
		var body workflowRunsPage
		if err := json.Unmarshal(p.Body, &body); err != nil {
			return nil, &PermanentError{Path: path, Err: err}
		}
		if len(body.WorkflowRuns) == 0 {
			break
		}
		for _, run := range body.WorkflowRuns {
			out = append(out, domain.WorkflowRun{
				StartedAt:   run.GetRunStartedAt().Time,
				CompletedAt: run.GetUpdatedAt().Time,
			})
		}
		if p.NextPage == 0 {
			break
		}
		pageNum = p.NextPage
	}
	return out, nil
}

func mapPullRequest(pr *github.PullRequest, repo string) domain.PullRequest {
	out := domain.PullRequest{
		Repository: repo,
		Number:     pr.GetNumber(),
		Title:      pr.GetTitle(),
		Author:     pr.GetUser().GetLogin(),
		CreatedAt:  pr.GetCreatedAt().Time,
	}
	if merged := pr.GetMergedAt().Time; !merged.IsZero() {
		out.MergedAt = &merged
	}
	return out
}

func mapCommit(c *github.RepositoryCommit) domain.Commit {
	author := c.GetAuthor().GetLogin()
	if author == "" {
		// Commits whose author has no linked account only carry the git
		// identity.
		author = c.GetCommit().GetAuthor().GetName()
	}
	return domain.Commit{SHA: c.GetSHA(), Author: author}
}

// splitRepo splits an "owner/repo" string into its two components.
func splitRepo(fullName string) (string, string, error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo name %q: expected owner/repo", fullName)
	}
	return parts[0], parts[1], nil
}
