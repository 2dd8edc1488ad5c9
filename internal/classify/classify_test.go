package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prstats/prstats/internal/domain"
)

func pr(author string) domain.PullRequest {
	return domain.PullRequest{Repository: "org/repo", Number: 1, Author: author}
}

func commits(authors ...string) []domain.Commit {
	out := make([]domain.Commit, 0, len(authors))
	for _, a := range authors {
		out = append(out, domain.Commit{Author: a})
	}
	return out
}

func reviews(reviewers ...string) []domain.Review {
	out := make([]domain.Review, 0, len(reviewers))
	for _, r := range reviewers {
		out = append(out, domain.Review{Reviewer: r})
	}
	return out
}

func TestClassifier_Classify(t *testing.T) {
	c := New(Identities{})

	testCases := []struct {
		name     string
		pr       domain.PullRequest
		commits  []domain.Commit
		reviews  []domain.Review
		expected domain.Category
	}{
		{
			name:     "no signals is manual only",
			pr:       pr("alice"),
			commits:  commits("alice", "bob"),
			reviews:  reviews("bob"),
			expected: domain.CategoryManualOnly,
		},
		{
			name:     "dependabot author",
			pr:       pr("dependabot[bot]"),
			commits:  commits("dependabot[bot]"),
			expected: domain.CategoryDependabot,
		},
		{
			name:     "dependabot preview matches by prefix",
			pr:       pr("dependabot-preview[bot]"),
			expected: domain.CategoryDependabot,
		},
		{
			name:     "dependabot wins over agent commits (rule order)",
			pr:       pr("dependabot[bot]"),
			commits:  commits("copilot-swe-agent[bot]"),
			expected: domain.CategoryDependabot,
		},
		{
			name:     "assistant review",
			pr:       pr("alice"),
			commits:  commits("alice"),
			reviews:  reviews("bob", "copilot-pull-request-reviewer[bot]"),
			expected: domain.CategoryCopilotReview,
		},
		{
			name:     "assistant review wins over agent commits (rule order)",
			pr:       pr("alice"),
			commits:  commits("copilot-swe-agent[bot]", "copilot-swe-agent[bot]"),
			reviews:  reviews("Copilot"),
			expected: domain.CategoryCopilotReview,
		},
		{
			name:     "agent author",
			pr:       pr("copilot-swe-agent[bot]"),
			commits:  commits("alice"),
			expected: domain.CategoryCopilotAgent,
		},
		{
			name:     "agent commit majority",
			pr:       pr("alice"),
			commits:  commits("copilot-swe-agent[bot]", "copilot-swe-agent[bot]", "alice"),
			expected: domain.CategoryCopilotAgent,
		},
		{
			name:     "exact half of commits counts as agent",
			pr:       pr("alice"),
			commits:  commits("copilot-swe-agent[bot]", "alice"),
			expected: domain.CategoryCopilotAgent,
		},
		{
			name:     "agent commit minority stays manual",
			pr:       pr("alice"),
			commits:  commits("copilot-swe-agent[bot]", "alice", "alice"),
			expected: domain.CategoryManualOnly,
		},
		{
			name:     "no commits and human author stays manual",
			pr:       pr("alice"),
			expected: domain.CategoryManualOnly,
		},
		{
			name:     "identity matching is case-insensitive",
			pr:       pr("alice"),
			reviews:  reviews("COPILOT"),
			expected: domain.CategoryCopilotReview,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, c.Classify(tc.pr, tc.commits, tc.reviews))
		})
	}
}

func TestClassifier_CustomIdentities(t *testing.T) {
	c := New(Identities{
		DependencyBotPrefixes: []string{"renovate"},
		ReviewAssistants:      []string{"review-bot"},
		CodingAgents:          []string{"agent-bot"},
	})

	assert.Equal(t, domain.CategoryDependabot, c.Classify(pr("renovate[bot]"), nil, nil))
	assert.Equal(t, domain.CategoryCopilotReview, c.Classify(pr("alice"), nil, reviews("review-bot")))
	assert.Equal(t, domain.CategoryCopilotAgent, c.Classify(pr("agent-bot"), nil, nil))
	// The defaults no longer apply once overridden.
	assert.Equal(t, domain.CategoryManualOnly, c.Classify(pr("dependabot[bot]"), nil, nil))
}
