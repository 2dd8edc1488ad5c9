// Package domain contains the core data structures and domain logic for the application.
package domain

import "time"

// Category is the authorship/assistance classification assigned to a pull request.
type Category string

const (
	// CategoryManualOnly marks a pull request with no detected bot or assistant involvement.
	CategoryManualOnly Category = "manual_only"
	// CategoryCopilotReview marks a pull request reviewed by the coding-review-assistant identity.
	CategoryCopilotReview Category = "copilot_review"
	// CategoryCopilotAgent marks a pull request authored predominantly by the coding-agent identity.
	CategoryCopilotAgent Category = "copilot_agent"
	// CategoryDependabot marks a pull request opened by a dependency-update bot.
	CategoryDependabot Category = "dependabot"
)

// PullRequest is the raw shape of a pull request as fetched from the API,
// before classification.
type PullRequest struct {
	Repository string     `json:"repository"`
	Number     int        `json:"number"`
	Title      string     `json:"title"`
	Author     string     `json:"author"`
	CreatedAt  time.Time  `json:"created_at"`
	MergedAt   *time.Time `json:"merged_at,omitempty"`
}

// Commit holds the commit metadata the classifier inspects.
type Commit struct {
	SHA    string `json:"sha"`
	Author string `json:"author"`
}

// Review holds the review metadata the classifier inspects.
type Review struct {
	Reviewer    string    `json:"reviewer"`
	State       string    `json:"state"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// PullRequestDetail carries the diff statistics only available from the
// single-PR endpoint, not from the list endpoint.
type PullRequestDetail struct {
	Additions    int `json:"additions"`
	Deletions    int `json:"deletions"`
	ChangedFiles int `json:"changed_files"`
}

// WorkflowRun is a single Actions workflow run, reduced to the timestamps
// needed for usage accounting.
type WorkflowRun struct {
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}

// Minutes returns the run's wall-clock duration in minutes, never negative.
func (r WorkflowRun) Minutes() float64 {
	d := r.CompletedAt.Sub(r.StartedAt)
	if d < 0 {
		return 0
	}
	return d.Minutes()
}

// PullRequestRecord is a fully fetched and classified pull request.
// It is immutable once built.
type PullRequestRecord struct {
	Repository    string     `json:"repository"`
	Number        int        `json:"number"`
	Author        string     `json:"author"`
	CreatedAt     time.Time  `json:"created_at"`
	Commits       []Commit   `json:"commits"`
	Reviews       []Review   `json:"reviews"`
	Additions     int        `json:"additions"`
	Deletions     int        `json:"deletions"`
	ChangedFiles  int        `json:"changed_files"`
	Category      Category   `json:"category"`
	FirstReviewAt *time.Time `json:"first_review_at,omitempty"`
}

// Size returns the total number of changed lines, the sample used for the
// weekly median PR size.
func (r PullRequestRecord) Size() float64 {
	return float64(r.Additions + r.Deletions)
}
