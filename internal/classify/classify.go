// Package classify assigns an authorship/assistance category to a pull
// request from its author, commit, and review signals. The rules form a
// single ordered table so the priority order stays auditable.
package classify

import (
	"strings"

	"github.com/prstats/prstats/internal/domain"
)

// Identities names the automated accounts whose participation drives
// classification. All matching is case-insensitive.
type Identities struct {
	// DependencyBotPrefixes match PR author logins by prefix, e.g.
	// "dependabot" covers dependabot[bot] and dependabot-preview[bot].
	DependencyBotPrefixes []string `yaml:"dependency_bot_prefixes"`
	// ReviewAssistants are exact review-author logins.
	ReviewAssistants []string `yaml:"review_assistants"`
	// CodingAgents are exact commit-author or PR-author logins.
	CodingAgents []string `yaml:"coding_agents"`
}

// DefaultIdentities returns the identity strings observed on github.com.
func DefaultIdentities() Identities {
	return Identities{
		DependencyBotPrefixes: []string{"dependabot"},
		ReviewAssistants:      []string{"copilot-pull-request-reviewer[bot]", "copilot"},
		CodingAgents:          []string{"copilot-swe-agent[bot]", "copilot-swe-agent"},
	}
}

// Classifier applies the ordered rule table.
type Classifier struct {
	ids Identities
}

// New returns a Classifier. Zero-valued identity lists fall back to the
// defaults.
func New(ids Identities) *Classifier {
	def := DefaultIdentities()
	if len(ids.DependencyBotPrefixes) == 0 {
		ids.DependencyBotPrefixes = def.DependencyBotPrefixes
	}
	if len(ids.ReviewAssistants) == 0 {
		ids.ReviewAssistants = def.ReviewAssistants
	}
	if len(ids.CodingAgents) == 0 {
		ids.CodingAgents = def.CodingAgents
	}
	return &Classifier{ids: ids}
}

type rule struct {
	category domain.Category
	matches  func(pr domain.PullRequest, commits []domain.Commit, reviews []domain.Review) bool
}

// rules is the ordered decision table; the first match wins.
func (c *Classifier) rules() []rule {
	return []rule{
		{domain.CategoryDependabot, c.isDependencyBot},
		{domain.CategoryCopilotReview, c.hasAssistantReview},
		{domain.CategoryCopilotAgent, c.isAgentAuthored},
	}
}

// Classify returns the category of a pull request. With no rule matching the
// pull request is manual-only.
func (c *Classifier) Classify(pr domain.PullRequest, commits []domain.Commit, reviews []domain.Review) domain.Category {
	for _, r := range c.rules() {
		if r.matches(pr, commits, reviews) {
			return r.category
		}
	}
	return domain.CategoryManualOnly
}

func (c *Classifier) isDependencyBot(pr domain.PullRequest, _ []domain.Commit, _ []domain.Review) bool {
	author := strings.ToLower(pr.Author)
	for _, prefix := range c.ids.DependencyBotPrefixes {
		if strings.HasPrefix(author, strings.ToLower(prefix)) {
			return true
		}
	}
	return false
}

func (c *Classifier) hasAssistantReview(_ domain.PullRequest, _ []domain.Commit, reviews []domain.Review) bool {
	for _, review := range reviews {
		if c.matchesAny(review.Reviewer, c.ids.ReviewAssistants) {
			return true
		}
	}
	return false
}

// isAgentAuthored reports agent authorship when the PR author is itself a
// coding agent, or when at least half of the commits are agent-authored.
// An exact 50/50 split counts as agent-authored: assistance is reported even
// under partial uncertainty.
func (c *Classifier) isAgentAuthored(pr domain.PullRequest, commits []domain.Commit, _ []domain.Review) bool {
	if c.matchesAny(pr.Author, c.ids.CodingAgents) {
		return true
	}
	if len(commits) == 0 {
		return false
	}
	agentCommits := 0
	for _, commit := range commits {
		if c.matchesAny(commit.Author, c.ids.CodingAgents) {
			agentCommits++
		}
	}
	return agentCommits*2 >= len(commits)
}

func (c *Classifier) matchesAny(login string, identities []string) bool {
	for _, id := range identities {
		if strings.EqualFold(login, id) {
			return true
		}
	}
	return false
}
