package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/prstats/prstats/internal/cache"
	"github.com/prstats/prstats/internal/classify"
	"github.com/prstats/prstats/internal/config"
	"github.com/prstats/prstats/internal/filter"
	"github.com/prstats/prstats/internal/gateway"
	"github.com/prstats/prstats/internal/ratelimit"
	"github.com/prstats/prstats/internal/usecase"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyzes pull-request activity and outputs weekly metrics as JSON",
	Long: `Analyzes pull requests for a single repository (--repo), an organization
(--org), or every repository visible to the token (--all), classifies each
one, and outputs the weekly aggregates in JSON format.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		logger := runLogger(cmd)

		repo, _ := cmd.Flags().GetString("repo")
		org, _ := cmd.Flags().GetString("org")
		all, _ := cmd.Flags().GetBool("all")
		if repo == "" && org == "" && !all {
			fmt.Fprintln(os.Stderr, "Error: one of --repo, --org or --all is required.")
			os.Exit(1)
		}

		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}
		if v, _ := cmd.Flags().GetString("skip-config"); v != "" {
			cfg.SkipConfigFile = v
		}
		if v, _ := cmd.Flags().GetString("cache-dir"); v != "" {
			cfg.CacheDir = v
		}
		if v, _ := cmd.Flags().GetInt("concurrency"); v > 0 {
			cfg.Concurrency = v
		}

		token, err := config.Token()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		skip, err := filter.Load(config.SkipText(), cfg.SkipConfigFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load skip configuration: %v\n", err)
			os.Exit(1)
		}

		store := cache.NewStore(cfg.CacheTTL.Std())
		cleanCache, _ := cmd.Flags().GetBool("clean-cache")
		if cfg.CacheDir != "" && !cleanCache {
			if err := store.LoadDir(cfg.CacheDir); err != nil {
				// A damaged snapshot only costs API calls; start cold.
				logger.Printf("cache restore failed, starting cold: %v", err)
			} else {
				logger.Printf("restored %d cache entries from %s", store.Len(), cfg.CacheDir)
			}
		}

		// Inject dependencies and run the main business logic.
		governor := ratelimit.NewGovernor(logger)
		githubGateway := gateway.NewGateway(token, store, governor, gateway.RetryConfig{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay.Std(),
			MaxDelay:    cfg.Retry.MaxDelay.Std(),
		}, logger)
		classifier := classify.New(cfg.Identities)
		analyzer := usecase.NewAnalyzer(githubGateway, classifier, skip, cfg.Concurrency, logger)

		result, err := analyzer.Analyze(ctx, usecase.Scope{Repo: repo, Org: org})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to analyze pull requests: %v\n", err)
			os.Exit(1)
		}

		if cfg.CacheDir != "" {
			if err := store.SaveDir(cfg.CacheDir); err != nil {
				logger.Printf("cache save failed: %v", err)
			}
		}

		// Marshal the result into a pretty-printed JSON string.
		jsonData, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to marshal result to JSON: %v\n", err)
			os.Exit(1)
		}

		// Print the final JSON to standard output.
		fmt.Println(string(jsonData))
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringP("repo", "r", "", "Analyze a single repository (owner/name)")
	analyzeCmd.Flags().StringP("org", "o", "", "Analyze all repositories of one organization")
	analyzeCmd.Flags().Bool("all", false, "Analyze all repositories visible to the token")
	analyzeCmd.Flags().String("config", "", "Path to the YAML configuration file")
	analyzeCmd.Flags().String("skip-config", "", "Path to the skip-configuration text file")
	analyzeCmd.Flags().String("cache-dir", "", "Directory for persisting the response cache across runs")
	analyzeCmd.Flags().Bool("clean-cache", false, "Discard any persisted cache and start cold")
	analyzeCmd.Flags().Int("concurrency", 0, "Number of repositories analyzed concurrently")
}
