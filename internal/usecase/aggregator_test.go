package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prstats/prstats/internal/domain"
)

func TestWeekID(t *testing.T) {
	testCases := []struct {
		name     string
		input    time.Time
		expected string
	}{
		{
			name:     "mid-year week",
			input:    time.Date(2024, 11, 27, 15, 30, 0, 0, time.UTC),
			expected: "2024-W48",
		},
		{
			name:     "monday starts the week",
			input:    time.Date(2024, 11, 18, 0, 0, 0, 0, time.UTC),
			expected: "2024-W47",
		},
		{
			name:     "end of december belongs to the next ISO year",
			input:    time.Date(2024, 12, 30, 12, 0, 0, 0, time.UTC),
			expected: "2025-W01",
		},
		{
			name:     "start of january can belong to the prior ISO year",
			input:    time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC),
			expected: "2022-W52",
		},
		{
			name:     "single-digit week is zero-padded",
			input:    time.Date(2024, 2, 5, 12, 0, 0, 0, time.UTC),
			expected: "2024-W06",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, WeekID(tc.input))
		})
	}
}

func record(repo, author string, createdAt time.Time, category domain.Category) domain.PullRequestRecord {
	return domain.PullRequestRecord{
		Repository: repo,
		Number:     1,
		Author:     author,
		CreatedAt:  createdAt,
		Additions:  10,
		Deletions:  5,
		Category:   category,
	}
}

func TestFold(t *testing.T) {
	w47 := time.Date(2024, 11, 18, 9, 0, 0, 0, time.UTC)
	w48 := time.Date(2024, 11, 25, 9, 0, 0, 0, time.UTC)

	res := domain.NewAnalysisResult()
	Fold(res, record("org/repo-a", "alice", w47, domain.CategoryManualOnly), domain.ActionsUsage{})
	Fold(res, record("org/repo-a", "bob", w47, domain.CategoryCopilotAgent), domain.ActionsUsage{RunCount: 2, Minutes: 7.5})
	Fold(res, record("org/repo-b", "alice", w47, domain.CategoryDependabot), domain.ActionsUsage{})
	Fold(res, record("org/repo-b", "carol", w48, domain.CategoryCopilotReview), domain.ActionsUsage{})

	require.Len(t, res.Weeks, 2)

	b47 := res.Weeks["2024-W47"]
	require.NotNil(t, b47)
	assert.Equal(t, 3, b47.TotalPRs, "total must equal the count of records in that week")
	assert.Equal(t, 1, b47.Categories[domain.CategoryManualOnly])
	assert.Equal(t, 1, b47.Categories[domain.CategoryCopilotAgent])
	assert.Equal(t, 1, b47.Categories[domain.CategoryDependabot])
	assert.Contains(t, b47.Collaborators, "alice")
	assert.Contains(t, b47.Collaborators, "bob")
	assert.Len(t, b47.Collaborators, 2, "collaborators are a distinct set")
	assert.Len(t, b47.Repositories, 2)
	assert.Equal(t, domain.ActionsUsage{RunCount: 2, Minutes: 7.5}, b47.Usage)
	assert.InDelta(t, 100.0/3, b47.CopilotPercentage(), 0.001)

	b48 := res.Weeks["2024-W48"]
	require.NotNil(t, b48)
	assert.Equal(t, 1, b48.TotalPRs)
	assert.InDelta(t, 100.0, b48.CopilotPercentage(), 0.001)
}

func TestCopilotPercentage_EmptyBucket(t *testing.T) {
	b := domain.NewWeekBucket()
	assert.Zero(t, b.CopilotPercentage(), "a week with zero pull requests must report 0, not divide by zero")
}

func TestAddUsage(t *testing.T) {
	res := domain.NewAnalysisResult()
	at := time.Date(2024, 11, 18, 9, 0, 0, 0, time.UTC)
	AddUsage(res, at, domain.ActionsUsage{RunCount: 1, Minutes: 3})
	AddUsage(res, at, domain.ActionsUsage{RunCount: 1, Minutes: 4.5})

	b := res.Weeks["2024-W47"]
	require.NotNil(t, b)
	assert.Equal(t, domain.ActionsUsage{RunCount: 2, Minutes: 7.5}, b.Usage)
	assert.Zero(t, b.TotalPRs, "usage alone does not create pull-request counts")
}

// TestFoldMergeAssociativity checks that folding a disjoint partition of the
// input into separate results and merging equals folding the whole set into
// one result.
func TestFoldMergeAssociativity(t *testing.T) {
	w47 := time.Date(2024, 11, 18, 9, 0, 0, 0, time.UTC)
	w48 := time.Date(2024, 11, 25, 9, 0, 0, 0, time.UTC)
	records := []domain.PullRequestRecord{
		record("org/repo-a", "alice", w47, domain.CategoryManualOnly),
		record("org/repo-a", "bob", w47, domain.CategoryCopilotAgent),
		record("org/repo-b", "carol", w48, domain.CategoryCopilotReview),
		record("org/repo-b", "dave", w48, domain.CategoryDependabot),
	}

	whole := domain.NewAnalysisResult()
	for _, r := range records {
		Fold(whole, r, domain.ActionsUsage{RunCount: 1, Minutes: 2})
	}
	whole.RecomputeTotals()

	left := domain.NewAnalysisResult()
	right := domain.NewAnalysisResult()
	for _, r := range records[:2] {
		Fold(left, r, domain.ActionsUsage{RunCount: 1, Minutes: 2})
	}
	for _, r := range records[2:] {
		Fold(right, r, domain.ActionsUsage{RunCount: 1, Minutes: 2})
	}
	merged := domain.NewAnalysisResult()
	Merge(merged, left)
	Merge(merged, right)

	assert.Equal(t, whole.Weeks, merged.Weeks)
	assert.Equal(t, whole.Totals, merged.Totals)
}
