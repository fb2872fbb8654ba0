// Package ingestcmder provides the ingest command for loading articles
// into the store from a JSON file.
package ingestcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scrollpedia/scrollfeed/pkg/config"
	"github.com/scrollpedia/scrollfeed/pkg/embeddings"
	embeddingutils "github.com/scrollpedia/scrollfeed/pkg/embeddings/utils"
	"github.com/scrollpedia/scrollfeed/pkg/feed"
	"github.com/scrollpedia/scrollfeed/pkg/logger"
	storeutils "github.com/scrollpedia/scrollfeed/pkg/store/utils"
)

const ingestLongDesc string = `Ingest articles from a JSON file.

The file holds an array of article records:

  [
    {
      "article_id": "optional, generated when absent",
      "heading": "...",
      "summary": "...",
      "link": "https://...",
      "image": "https://...",
      "tags": ["ai", "space"],
      "text": "optional content used for the embedding"
    }
  ]

Each record is embedded via the configured embedding provider and written
to the configured store. Records without tags are rejected.

Examples:
  scrollfeed ingest --file articles.json
  scrollfeed ingest --file articles.json --config ./config.toml`

const ingestShortDesc string = "Ingest articles from a JSON file"

// articleRecord is one entry of the ingest file. Text, when present, is
// what gets embedded; otherwise heading and summary are used.
type articleRecord struct {
	ArticleID string   `json:"article_id"`
	Heading   string   `json:"heading"`
	Summary   string   `json:"summary"`
	Link      string   `json:"link"`
	Image     string   `json:"image"`
	Tags      []string `json:"tags"`
	Text      string   `json:"text"`
}

type ingestCommander struct {
	file       string
	configFile string
	debug      bool
}

func NewIngestCmd() *cobra.Command {
	cmder := &ingestCommander{}

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: ingestShortDesc,
		Long:  ingestLongDesc,
		Args:  cobra.NoArgs,
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

	cmd.Flags().StringVarP(&cmder.file, "file", "f", "", "Path to the JSON article file (required)")
	cmd.MarkFlagRequired("file")

	return cmd
}

func (c *ingestCommander) run(ctx context.Context) error {
	log := logger.NewLogger(c.debug)
	defer log.Sync()

	v, err := config.InitViper(c.configFile)
	if err != nil {
		return err
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(c.file)
	if err != nil {
		return fmt.Errorf("reading article file: %w", err)
	}

	var records []articleRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("parsing article file: %w", err)
	}

	st, err := storeutils.NewStore(ctx, &storeutils.NewStoreOpts{
		Provider:    cfg.Storage.Provider,
		SQLitePath:  cfg.Storage.SQLitePath,
		PostgresURL: cfg.Storage.PostgresURL,
		Dimensions:  cfg.Embedding.Dimensions,
		Logger:      log,
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

	embedTimeout := time.Duration(cfg.Embedding.TimeoutSeconds) * time.Second

	ingested := 0
	for i, record := range records {
		if len(record.Tags) == 0 {
			return fmt.Errorf("record %d (%s): articles must carry at least one tag", i, record.Heading)
		}

		article, err := buildArticle(ctx, record, embedder, embedTimeout)
		if err != nil {
			return fmt.Errorf("record %d (%s): %w", i, record.Heading, err)
		}

		if err := st.PutArticle(ctx, article); err != nil {
			return fmt.Errorf("record %d (%s): storing article: %w", i, record.Heading, err)
		}

		ingested++
		log.Debug("article ingested",
			zap.String("article_id", article.ID),
			zap.String("heading", article.Heading),
		)
	}

	log.Info("ingest complete",
		zap.Int("articles", ingested),
		zap.String("store", cfg.Storage.Provider),
	)

	return nil
}

func buildArticle(ctx context.Context, record articleRecord, embedder embeddings.Embedder, timeout time.Duration) (feed.Article, error) {
	text := record.Text
	if text == "" {
		text = record.Heading + "\n\n" + record.Summary
	}

	embedCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	embedding, err := embedder.Embed(embedCtx, text)
	if err != nil {
		return feed.Article{}, fmt.Errorf("embedding article: %w", err)
	}

	id := record.ArticleID
	if id == "" {
		id = uuid.NewString()
	}

	return feed.Article{
		ID:        id,
		Heading:   record.Heading,
		Summary:   record.Summary,
		Link:      record.Link,
		Image:     record.Image,
		Tags:      record.Tags,
		Embedding: embedding,
	}, nil
}
