// Package filter implements the per-run organization/repository skip policy.
package filter

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// SkipConfig holds the parsed skip policy. It is built once per run and
// immutable thereafter.
type SkipConfig struct {
	// fullySkipped organizations are excluded entirely.
	fullySkipped map[string]struct{}
	// partiallySkipped maps an organization to the repositories that remain
	// included; everything else in that organization is skipped.
	partiallySkipped map[string]map[string]struct{}
}

// Empty returns a SkipConfig that skips nothing.
func Empty() SkipConfig {
	return SkipConfig{
		fullySkipped:     make(map[string]struct{}),
		partiallySkipped: make(map[string]map[string]struct{}),
	}
}

// FullySkipped reports whether the organization is excluded entirely.
func (c SkipConfig) FullySkipped(org string) bool {
	_, ok := c.fullySkipped[org]
	return ok
}

// IncludedRepos returns the include list for a partially skipped
// organization, and whether the organization has one.
func (c SkipConfig) IncludedRepos(org string) (map[string]struct{}, bool) {
	repos, ok := c.partiallySkipped[org]
	return repos, ok
}

// ParseSkipConfig parses skip-configuration text line by line. Blank lines
// and lines whose first non-whitespace character is '#' are discarded.
// A line of the form "org:include:repoA,repoB" partially skips org, keeping
// only the listed repositories. Any other non-empty line fully skips the
// named organization. Malformed lines are skipped; parsing never fails.
func ParseSkipConfig(text string) SkipConfig {
	cfg := Empty()
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if org, repos, ok := parseIncludeLine(line); ok {
			cfg.partiallySkipped[org] = repos
			continue
		}
		cfg.fullySkipped[line] = struct{}{}
	}
	return cfg
}

func parseIncludeLine(line string) (string, map[string]struct{}, bool) {
	parts := strings.SplitN(line, ":", 3)
	if len(parts) != 3 || strings.TrimSpace(parts[1]) != "include" {
		return "", nil, false
	}
	org := strings.TrimSpace(parts[0])
	if org == "" {
		return "", nil, false
	}
	repos := make(map[string]struct{})
	for _, repo := range strings.Split(parts[2], ",") {
		repo = strings.TrimSpace(repo)
		if repo != "" {
			repos[repo] = struct{}{}
		}
	}
	return org, repos, true
}

// ShouldSkip decides whether a repository is excluded from analysis.
// fullRepoName is expected in org/repo form; a name with no '/' is never
// skipped.
func ShouldSkip(fullRepoName string, cfg SkipConfig) bool {
	org, repo, ok := strings.Cut(fullRepoName, "/")
	if !ok {
		return false
	}
	if cfg.FullySkipped(org) {
		return true
	}
	if included, ok := cfg.IncludedRepos(org); ok {
		_, keep := included[repo]
		return !keep
	}
	return false
}

// Load resolves the skip configuration with the documented precedence: an
// externally supplied configuration string wins over a configuration file;
// with neither present the result skips nothing. A missing file is not an
// error.
func Load(explicit, path string) (SkipConfig, error) {
	if explicit != "" {
		return ParseSkipConfig(explicit), nil
	}
	if path == "" {
		return Empty(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Empty(), nil
		}
		return Empty(), fmt.Errorf("reading skip config %s: %w", path, err)
	}
	return ParseSkipConfig(string(data)), nil
}
