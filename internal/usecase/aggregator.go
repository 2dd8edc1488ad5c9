// Package usecase contains the business logic of the application.
package usecase

import (
	"fmt"
	"time"

	"github.com/prstats/prstats/internal/domain"
)

// WeekID computes the ISO-8601 year-week identifier (weeks start Monday) for
// a timestamp, e.g. "2024-W48".
func WeekID(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// Fold incorporates one classified pull request, plus any Actions usage
// attributed to it, into the accumulating result. Percentage and median
// fields are derived at read time, never here.
func Fold(res *domain.AnalysisResult, rec domain.PullRequestRecord, usage domain.ActionsUsage) {
	b := res.Week(WeekID(rec.CreatedAt))
	b.TotalPRs++
	b.Categories[rec.Category]++
	if rec.Author != "" {
		b.Collaborators[rec.Author] = struct{}{}
	}
	b.Repositories[rec.Repository] = struct{}{}
	b.Usage.Add(usage)
	b.SizeSamples = append(b.SizeSamples, rec.Size())
	if rec.FirstReviewAt != nil {
		b.LeadTimeSamples = append(b.LeadTimeSamples, rec.FirstReviewAt.Sub(rec.CreatedAt).Hours())
	}
}

// AddUsage sums workflow-run usage into the bucket of the week the run
// started in, independent of any pull request.
func AddUsage(res *domain.AnalysisResult, startedAt time.Time, usage domain.ActionsUsage) {
	res.Week(WeekID(startedAt)).Usage.Add(usage)
}

// Merge folds src into dst bucket-wise. Folding disjoint partitions of an
// input set into separate results and merging them is equivalent to folding
// the whole set into one result.
func Merge(dst, src *domain.AnalysisResult) {
	for id, sb := range src.Weeks {
		db := dst.Week(id)
		db.TotalPRs += sb.TotalPRs
		for cat, n := range sb.Categories {
			db.Categories[cat] += n
		}
		for k := range sb.Collaborators {
			db.Collaborators[k] = struct{}{}
		}
		for k := range sb.Repositories {
			db.Repositories[k] = struct{}{}
		}
		db.Usage.Add(sb.Usage)
		db.SizeSamples = append(db.SizeSamples, sb.SizeSamples...)
		db.LeadTimeSamples = append(db.LeadTimeSamples, sb.LeadTimeSamples...)
	}
	dst.Failures = append(dst.Failures, src.Failures...)
	dst.RecomputeTotals()
}
