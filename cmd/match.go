package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/cache"
	"github.com/spigell/job-matcher/internal/fallback"
	"github.com/spigell/job-matcher/internal/logger"
	"github.com/spigell/job-matcher/internal/matching"
	"github.com/spigell/job-matcher/internal/model"
	"github.com/spigell/job-matcher/internal/redistribute"
	"github.com/spigell/job-matcher/internal/score"
	"github.com/spigell/job-matcher/internal/semantic"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Score a JSON job file for the configured user and print the matches",
	Run: func(cmd *cobra.Command, _ []string) {
		match(cmd)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringP("jobs", "i", "", "JSON file with the candidate jobs")
	matchCmd.Flags().StringP("output", "o", "", "write matches to a file instead of stdout")
	matchCmd.Flags().StringP("mode", "m", "", "override matching.mode (auto, rule, semantic, compare)")
	matchCmd.Flags().IntP("max-matches", "n", 0, "override matching.max-matches")
	matchCmd.MarkFlagRequired("jobs")

	viper.BindPFlag("matching.mode", matchCmd.Flags().Lookup("mode"))
	viper.BindPFlag("matching.max-matches", matchCmd.Flags().Lookup("max-matches"))
}

// match is the main command for the cli.
func match(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the job-matcher", zap.String("version", version))

	jobsFile, _ := cmd.Flags().GetString("jobs")
	jobs, err := model.LoadJobsFromFile(jobsFile)
	if err != nil {
		logger.Fatal("loading jobs", zap.Error(err), zap.String("file", jobsFile))
	}

	logger.Info("jobs loaded", zap.Int("count", jobs.Len()))
	if viper.GetBool("debug") {
		pretty, _ := json.MarshalIndent(jobs.ReportBySource(), "", "  ")
		logger.Debug(fmt.Sprintf("jobs by source: \n %s", pretty))
	}

	c, err := newCache(ctx, config.Cache, logger)
	if err != nil {
		logger.Fatal("creating a cache", zap.Error(err))
	}
	defer c.Close()

	engine, distributor, err := buildEngine(ctx, config, c, logger)
	if err != nil {
		logger.Fatal("building the matching engine", zap.Error(err))
	}

	for _, st := range distributor.Describe() {
		logger.Debug("redistribution pass",
			zap.String("name", st.Name),
			zap.Bool("enabled", st.Enabled),
			zap.String("reason", st.Reason),
		)
	}

	results, err := engine.Match(ctx, &config.User, jobs.Items)
	if err != nil {
		logger.Fatal("matching failed", zap.Error(err))
	}

	out := io.Writer(os.Stdout)
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			logger.Fatal("creating output file", zap.Error(err))
		}
		defer f.Close()
		out = f
	}

	if results == nil {
		results = []score.MatchResult{}
	}
	if err := writeJSON(out, results); err != nil {
		logger.Fatal("writing matches", zap.Error(err))
	}
}

func buildEngine(ctx context.Context, config *Config, c cache.Cache, logger *zap.Logger) (*matching.Engine, *redistribute.Distributor, error) {
	mode, err := matching.ParseMode(string(config.Matching.Mode))
	if err != nil {
		return nil, nil, err
	}

	var semanticScorer matching.Scorer
	if mode != matching.ModeRule {
		reasoner, err := newAIClient(ctx, config.AI, logger)
		switch {
		case err != nil && mode == matching.ModeAuto:
			logger.Warn("semantic scoring disabled", zap.Error(err))
		case err != nil:
			return nil, nil, err
		default:
			opts := config.Semantic
			opts.CacheTTL = config.Cache.DefaultTTL

			service, err := semantic.New(reasoner, c, logger, opts)
			if err != nil {
				return nil, nil, err
			}
			semanticScorer = matching.NewSemanticScorer(service)
		}
	}

	distributor := redistribute.New(logger, config.Redistribute)
	rule := matching.NewRuleScorer(fallback.New(logger))

	engine, err := matching.New(semanticScorer, rule, distributor, logger, config.Matching)
	if err != nil {
		return nil, nil, err
	}
	return engine, distributor, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
