package domain

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/montanaflynn/stats"
)

// ActionsUsage sums workflow-run activity.
type ActionsUsage struct {
	RunCount int     `json:"run_count"`
	Minutes  float64 `json:"minutes"`
}

// Add accumulates another usage sample into u.
func (u *ActionsUsage) Add(other ActionsUsage) {
	u.RunCount += other.RunCount
	u.Minutes += other.Minutes
}

// WeekBucket aggregates all pull requests created in one ISO year-week.
// It is mutated incrementally while a run folds records in and frozen after
// the run completes. Percentage and median fields are derived at read time,
// never stored.
type WeekBucket struct {
	TotalPRs      int
	Categories    map[Category]int
	Collaborators map[string]struct{}
	Repositories  map[string]struct{}
	Usage         ActionsUsage

	// Raw samples for read-time medians. Not serialized.
	SizeSamples     []float64
	LeadTimeSamples []float64
}

// NewWeekBucket returns an empty bucket with initialized sets.
func NewWeekBucket() *WeekBucket {
	return &WeekBucket{
		Categories:    make(map[Category]int),
		Collaborators: make(map[string]struct{}),
		Repositories:  make(map[string]struct{}),
	}
}

// CopilotAssisted returns the number of pull requests in the bucket with any
// detected assistant involvement.
func (b *WeekBucket) CopilotAssisted() int {
	return b.Categories[CategoryCopilotReview] + b.Categories[CategoryCopilotAgent]
}

// CopilotPercentage returns assisted PRs as a percentage of the bucket total.
// Defined as 0 for an empty bucket.
func (b *WeekBucket) CopilotPercentage() float64 {
	if b.TotalPRs == 0 {
		return 0
	}
	return float64(b.CopilotAssisted()) / float64(b.TotalPRs) * 100
}

// MedianPRSize returns the median changed-line count of the bucket's pull
// requests, 0 when no samples exist.
func (b *WeekBucket) MedianPRSize() float64 {
	m, err := stats.Median(b.SizeSamples)
	if err != nil {
		return 0
	}
	return m
}

// MedianLeadTimeHours returns the median hours from PR creation to first
// review, 0 when no reviewed PRs exist.
func (b *WeekBucket) MedianLeadTimeHours() float64 {
	m, err := stats.Median(b.LeadTimeSamples)
	if err != nil {
		return 0
	}
	return m
}

// MarshalJSON emits the bucket with sets sorted and derived fields computed,
// so that report output is deterministic for a fixed input set.
func (b *WeekBucket) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TotalPRs            int          `json:"total_prs"`
		ManualOnly          int          `json:"manual_only"`
		CopilotReview       int          `json:"copilot_review"`
		CopilotAgent        int          `json:"copilot_agent"`
		Dependabot          int          `json:"dependabot"`
		CopilotPercentage   float64      `json:"copilot_percentage"`
		Collaborators       []string     `json:"collaborators"`
		Repositories        []string     `json:"repositories"`
		ActionsUsage        ActionsUsage `json:"actions_usage"`
		MedianPRSize        float64      `json:"median_pr_size"`
		MedianLeadTimeHours float64      `json:"median_lead_time_hours"`
	}{
		TotalPRs:            b.TotalPRs,
		ManualOnly:          b.Categories[CategoryManualOnly],
		CopilotReview:       b.Categories[CategoryCopilotReview],
		CopilotAgent:        b.Categories[CategoryCopilotAgent],
		Dependabot:          b.Categories[CategoryDependabot],
		CopilotPercentage:   b.CopilotPercentage(),
		Collaborators:       sortedKeys(b.Collaborators),
		Repositories:        sortedKeys(b.Repositories),
		ActionsUsage:        b.Usage,
		MedianPRSize:        b.MedianPRSize(),
		MedianLeadTimeHours: b.MedianLeadTimeHours(),
	})
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// RepoFailure records a repository whose analysis failed, without aborting
// the rest of the run.
type RepoFailure struct {
	Repository string `json:"repository"`
	Reason     string `json:"reason"`
}

// Totals summarizes a whole run.
type Totals struct {
	PullRequests    int `json:"pull_requests"`
	Repositories    int `json:"repositories"`
	CopilotAssisted int `json:"copilot_assisted"`
}

// AnalysisResult is the top-level snapshot produced once per run and handed
// to reporting collaborators. Reporters must not mutate it.
type AnalysisResult struct {
	AnalyzedAt time.Time              `json:"analyzed_at"`
	Scope      string                 `json:"scope"`
	Totals     Totals                 `json:"totals"`
	Weeks      map[string]*WeekBucket `json:"weeks"`
	Failures   []RepoFailure          `json:"failures,omitempty"`
}

// NewAnalysisResult returns an empty result ready for folding.
func NewAnalysisResult() *AnalysisResult {
	return &AnalysisResult{Weeks: make(map[string]*WeekBucket)}
}

// Week returns the bucket for the given week identifier, creating it if absent.
func (r *AnalysisResult) Week(id string) *WeekBucket {
	b, ok := r.Weeks[id]
	if !ok {
		b = NewWeekBucket()
		r.Weeks[id] = b
	}
	return b
}

// RecomputeTotals rebuilds the run totals from the week buckets. Distinct
// repositories are counted across all weeks.
func (r *AnalysisResult) RecomputeTotals() {
	totals := Totals{}
	repos := make(map[string]struct{})
	for _, b := range r.Weeks {
		totals.PullRequests += b.TotalPRs
		totals.CopilotAssisted += b.CopilotAssisted()
		for repo := range b.Repositories {
			repos[repo] = struct{}{}
		}
	}
	totals.Repositories = len(repos)
	r.Totals = totals
}
