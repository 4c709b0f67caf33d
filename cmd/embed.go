package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/embedding"
	"github.com/spigell/job-matcher/internal/embedding/pgvector"
	"github.com/spigell/job-matcher/internal/logger"
	"github.com/spigell/job-matcher/internal/model"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var storePrompt = promptui.Select{
	Label: "Store embeddings?",
	Items: []string{PromptYes, PromptNo},
}

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Generate job embeddings and store them in the vector index",
	Run: func(cmd *cobra.Command, _ []string) {
		embed(cmd)
	},
}

func init() {
	rootCmd.AddCommand(embedCmd)

	embedCmd.Flags().StringP("jobs", "i", "", "JSON file with the jobs to embed")
	embedCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before storing embeddings")
	embedCmd.Flags().StringP("similar", "s", "", "after storing, print the jobs nearest to this text")
	embedCmd.Flags().IntP("limit", "l", 10, "number of neighbours printed with --similar")
	embedCmd.MarkFlagRequired("jobs")
}

func embed(cmd *cobra.Command) {
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

	jobsFile, _ := cmd.Flags().GetString("jobs")
	jobs, err := model.LoadJobsFromFile(jobsFile)
	if err != nil {
		logger.Fatal("loading jobs", zap.Error(err), zap.String("file", jobsFile))
	}

	embedder, err := newAIClient(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("creating an embedding client", zap.Error(err))
	}

	c, err := newCache(ctx, config.Cache, logger)
	if err != nil {
		logger.Fatal("creating a cache", zap.Error(err))
	}
	defer c.Close()

	opts := []embedding.Option{embedding.WithCache(c, config.Cache.DefaultTTL)}

	dbURL, err := databaseURL(config.Embedding)
	if err != nil {
		logger.Fatal("loading database url", zap.Error(err))
	}
	if dbURL != "" {
		store, closeStore, err := pgvector.Connect(ctx, dbURL, config.Embedding.Table)
		if err != nil {
			logger.Fatal("connecting to the vector index", zap.Error(err))
		}
		defer closeStore()
		opts = append(opts, embedding.WithStore(store))
	} else {
		logger.Info("no vector database configured, embeddings will only be counted")
	}

	service, err := embedding.New(embedder, logger, opts...)
	if err != nil {
		logger.Fatal("creating the embedding service", zap.Error(err))
	}

	vectors := service.BatchGenerateJobEmbeddings(ctx, jobs.Items)
	if len(vectors) == 0 {
		logger.Info("exiting", zap.String("reason", "no embeddings generated"))
		return
	}

	if approve, _ := cmd.Flags().GetBool("auto-approve"); !approve {
		_, action, err := storePrompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
		if action != PromptYes {
			logger.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
	}

	stored, err := service.StoreEmbeddings(ctx, vectors)
	if err != nil {
		logger.Fatal("storing embeddings", zap.Error(err), zap.Int("stored", stored))
	}
	logger.Info("embeddings stored", zap.Int("count", stored))

	text, _ := cmd.Flags().GetString("similar")
	if text == "" {
		return
	}

	limit, _ := cmd.Flags().GetInt("limit")
	neighbours, err := service.SimilarToText(ctx, text, limit)
	if err != nil {
		logger.Fatal("searching similar jobs", zap.Error(err))
	}
	if neighbours == nil {
		neighbours = []embedding.Neighbor{}
	}
	if err := writeJSON(os.Stdout, neighbours); err != nil {
		logger.Fatal("writing neighbours", zap.Error(err))
	}
}
