// Package config loads tool configuration with a well-defined precedence:
// command-line flags override environment variables, which override the
// optional YAML configuration file, which overrides built-in defaults.
// The API token is read from the environment only and is the one setting
// whose absence is fatal to a run.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/prstats/prstats/internal/classify"
)

// DefaultConfigFile is searched in the working directory when no --config
// flag is given.
const DefaultConfigFile = ".prstats.yaml"

// ErrMissingToken is the only configuration error fatal to a whole run: with
// no token there is no API access at all.
var ErrMissingToken = errors.New("GITHUB_TOKEN environment variable is not set")

// Duration wraps time.Duration so YAML values can be written as "20h".
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// RetrySettings tunes the fetcher's backoff-and-retry budget.
type RetrySettings struct {
	MaxAttempts int      `yaml:"max_attempts"`
	BaseDelay   Duration `yaml:"base_delay"`
	MaxDelay    Duration `yaml:"max_delay"`
}

// Config holds all tunable settings.
type Config struct {
	CacheTTL       Duration            `yaml:"cache_ttl"`
	CacheDir       string              `yaml:"cache_dir"`
	Concurrency    int                 `yaml:"concurrency"`
	Retry          RetrySettings       `yaml:"retry"`
	SkipConfigFile string              `yaml:"skip_config_file"`
	Identities     classify.Identities `yaml:"identities"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		CacheTTL:    Duration(20 * time.Hour),
		Concurrency: 4,
		Retry: RetrySettings{
			MaxAttempts: 4,
			BaseDelay:   Duration(1 * time.Second),
			MaxDelay:    Duration(30 * time.Second),
		},
		Identities: classify.DefaultIdentities(),
	}
}

// Load reads the configuration file at path (or DefaultConfigFile when path
// is empty), then applies environment overrides. A missing file is not an
// error; a named file that cannot be read or parsed is.
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// No config file; defaults apply.
	default:
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv("PRSTATS_CACHE_DIR"); ok {
		c.CacheDir = v
	}
	if v, ok := os.LookupEnv("PRSTATS_CACHE_TTL"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			c.CacheTTL = Duration(d)
		}
	}
	if v, ok := os.LookupEnv("PRSTATS_CONCURRENCY"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Concurrency = n
		}
	}
	if v, ok := os.LookupEnv("PRSTATS_SKIP_CONFIG_FILE"); ok {
		c.SkipConfigFile = v
	}
}

// SkipText returns the externally supplied skip-configuration string, which
// takes precedence over any skip-configuration file.
func SkipText() string {
	return os.Getenv("PRSTATS_SKIP_CONFIG")
}

// Token returns the GitHub-style API token from the environment.
func Token() (string, error) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}
