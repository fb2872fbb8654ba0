// Package servecmder provides the serve command for running the feed API server.
package servecmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scrollpedia/scrollfeed/api"
	"github.com/scrollpedia/scrollfeed/pkg/config"
	embeddingutils "github.com/scrollpedia/scrollfeed/pkg/embeddings/utils"
	"github.com/scrollpedia/scrollfeed/pkg/logger"
	"github.com/scrollpedia/scrollfeed/pkg/profile"
	"github.com/scrollpedia/scrollfeed/pkg/ranking"
	storeutils "github.com/scrollpedia/scrollfeed/pkg/store/utils"
)

type ServeCommander struct {
	listen     string
	configFile string
	debug      bool
	logger     *zap.Logger
}

const serveLongDesc string = `Run the feed API server.

The server exposes onboarding (POST /v1/profile) and personalized feed
retrieval (GET /v1/feed). Storage and embedding providers are selected
via config.toml or SCROLLFEED_ environment variables.`

const serveShortDesc string = "Run the feed API server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			cmder.configFile, err = cmd.Flags().GetString("config")
			if err != nil {
				return fmt.Errorf("could not get config flag: %v", err)
			}
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", "", "Address for the API server to listen on (overrides config)")

	return cmd
}

func (c *ServeCommander) run(ctx context.Context) error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	v, err := config.InitViper(c.configFile)
	if err != nil {
		return err
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	if c.listen != "" {
		cfg.API.Listen = c.listen
	}

	st, err := storeutils.NewStore(ctx, &storeutils.NewStoreOpts{
		Provider:    cfg.Storage.Provider,
		SQLitePath:  cfg.Storage.SQLitePath,
		PostgresURL: cfg.Storage.PostgresURL,
		Dimensions:  cfg.Embedding.Dimensions,
		Logger:      c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	defer st.Close()

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: cfg.Embedding.Provider,
		TargetURL:    cfg.Embedding.Target,
		Model:        cfg.Embedding.Model,
		APIKey:       cfg.Embedding.APIKey,
	})
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	defer embedder.Close()

	profiles := profile.NewManager(profile.Config{
		EmbedTimeout: time.Duration(cfg.Embedding.TimeoutSeconds) * time.Second,
	}, st, embedder, c.logger)

	ranker := ranking.NewEngine(st, profiles, c.logger)

	apiServer := api.NewServer(api.Config{
		ListenAddr:  cfg.API.Listen,
		DefaultTopK: cfg.Ranking.TopK,
		MaxTopK:     cfg.Ranking.MaxTopK,
	}, profiles, ranker, c.logger)

	c.logger.Info("starting scrollfeed",
		zap.String("listen", cfg.API.Listen),
		zap.String("store", cfg.Storage.Provider),
		zap.String("embedding", cfg.Embedding.Provider),
	)

	errChan := make(chan error, 1)
	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("api server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("shutting down", zap.String("signal", sig.String()))
		return apiServer.Shutdown()
	case <-ctx.Done():
		return apiServer.Shutdown()
	}
}
