// Package sqlitevec provides a SQLite-backed Store using sqlite-vec for
// index-assisted nearest-neighbor queries over article embeddings.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/scrollpedia/scrollfeed/pkg/feed"
	"github.com/scrollpedia/scrollfeed/pkg/store"
)

// Store implements store.Store and store.SimilaritySearcher using SQLite
// with the sqlite-vec extension.
type Store struct {
	db         *sql.DB
	dimensions uint
	logger     *zap.Logger
}

// Config holds configuration for the SQLite vec store.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Dimensions is the number of dimensions for the embedding vectors.
	Dimensions uint
}

// NewStore creates a new SQLite store backed by sqlite-vec.
func NewStore(c Config, logger *zap.Logger) (*Store, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	if c.Dimensions == 0 {
		return nil, fmt.Errorf("sqlite-vec embedding dimensions cannot be 0, must be configured")
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Verify sqlite-vec is loaded
	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: sqlite-vec not available: %v", store.ErrConnection, err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS profiles (
			user_id TEXT PRIMARY KEY,
			tags TEXT NOT NULL,
			embedding BLOB NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating profiles table: %w", err)
	}

	// Article metadata lives in an ordinary table. vec0 virtual tables
	// use integer rowids, so the articles rowid doubles as the key into
	// the vec0 table.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS articles (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			article_id TEXT NOT NULL UNIQUE,
			heading TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT '',
			link TEXT NOT NULL DEFAULT '',
			image TEXT NOT NULL DEFAULT '',
			tags TEXT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating articles table: %w", err)
	}

	// Cosine distance so KNN results convert to similarity as 1-distance.
	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS article_vec USING vec0(embedding float[%d] distance_metric=cosine)`,
		c.Dimensions,
	)
	if _, err := db.Exec(createVec); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating vec0 table: %w", err)
	}

	logger.Info("sqlite-vec store initialized",
		zap.String("db_path", c.DBPath),
		zap.Uint("dimensions", c.Dimensions),
		zap.String("vec_version", vecVersion),
	)

	return &Store{
		db:         db,
		dimensions: c.Dimensions,
		logger:     logger,
	}, nil
}

// serializeFloat32 converts a float32 slice to a little-endian byte slice
// suitable for sqlite-vec BLOB format.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// deserializeFloat32 converts a little-endian byte slice back to a float32 slice.
func deserializeFloat32(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d: must be divisible by 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

func (s *Store) checkDimensions(embedding []float32) error {
	if uint(len(embedding)) != s.dimensions {
		return fmt.Errorf("%w: got %d dimensions, store configured for %d",
			feed.ErrDimensionMismatch, len(embedding), s.dimensions)
	}
	return nil
}

// PutProfile stores a new profile. The uniqueness check and insert run in
// one transaction, so concurrent onboarding attempts for the same user
// cannot both succeed.
func (s *Store) PutProfile(ctx context.Context, profile feed.Profile) error {
	if err := s.checkDimensions(profile.Embedding); err != nil {
		return err
	}

	tags, err := json.Marshal(profile.Tags)
	if err != nil {
		return fmt.Errorf("serializing tags for user %s: %w", profile.UserID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM profiles WHERE user_id = ?`, profile.UserID,
	).Scan(&exists)

	switch err {
	case nil:
		return store.ErrAlreadyExists
	case sql.ErrNoRows:
		// proceed with insert
	default:
		return fmt.Errorf("checking for existing profile %s: %w", profile.UserID, err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO profiles(user_id, tags, embedding) VALUES (?, ?, ?)`,
		profile.UserID, string(tags), serializeFloat32(profile.Embedding),
	); err != nil {
		return fmt.Errorf("inserting profile %s: %w", profile.UserID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	s.logger.Debug("stored profile",
		zap.String("user_id", profile.UserID),
		zap.Int("tags", len(profile.Tags)),
	)

	return nil
}

// GetProfile retrieves a profile by user ID.
func (s *Store) GetProfile(ctx context.Context, userID string) (feed.Profile, error) {
	var tagsJSON string
	var embBlob []byte

	err := s.db.QueryRowContext(ctx,
		`SELECT tags, embedding FROM profiles WHERE user_id = ?`, userID,
	).Scan(&tagsJSON, &embBlob)

	switch err {
	case nil:
	case sql.ErrNoRows:
		return feed.Profile{}, store.ErrNotFound
	default:
		return feed.Profile{}, fmt.Errorf("querying profile %s: %w", userID, err)
	}

	profile := feed.Profile{UserID: userID}
	if err := json.Unmarshal([]byte(tagsJSON), &profile.Tags); err != nil {
		return feed.Profile{}, fmt.Errorf("deserializing tags for user %s: %w", userID, err)
	}

	profile.Embedding, err = deserializeFloat32(embBlob)
	if err != nil {
		return feed.Profile{}, fmt.Errorf("deserializing embedding for user %s: %w", userID, err)
	}

	return profile, nil
}

// PutArticle stores an article. Re-ingesting an existing article ID
// replaces the stored record, keeping its rowid (and listing position).
func (s *Store) PutArticle(ctx context.Context, article feed.Article) error {
	if err := s.checkDimensions(article.Embedding); err != nil {
		return err
	}

	tags, err := json.Marshal(article.Tags)
	if err != nil {
		return fmt.Errorf("serializing tags for article %s: %w", article.ID, err)
	}

	embBlob := serializeFloat32(article.Embedding)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var existingRowID int64
	err = tx.QueryRowContext(ctx,
		`SELECT rowid FROM articles WHERE article_id = ?`, article.ID,
	).Scan(&existingRowID)

	switch err {
	case nil:
		if _, err := tx.ExecContext(ctx,
			`UPDATE articles SET heading = ?, summary = ?, link = ?, image = ?, tags = ? WHERE rowid = ?`,
			article.Heading, article.Summary, article.Link, article.Image, string(tags), existingRowID,
		); err != nil {
			return fmt.Errorf("updating article %s: %w", article.ID, err)
		}

		// Update embedding in vec0 table via DELETE + INSERT
		// (vec0 does not support UPDATE)
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM article_vec WHERE rowid = ?`, existingRowID,
		); err != nil {
			return fmt.Errorf("deleting old embedding for article %s: %w", article.ID, err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO article_vec(rowid, embedding) VALUES (?, ?)`,
			existingRowID, embBlob,
		); err != nil {
			return fmt.Errorf("re-inserting embedding for article %s: %w", article.ID, err)
		}
	case sql.ErrNoRows:
		result, err := tx.ExecContext(ctx,
			`INSERT INTO articles(article_id, heading, summary, link, image, tags) VALUES (?, ?, ?, ?, ?, ?)`,
			article.ID, article.Heading, article.Summary, article.Link, article.Image, string(tags),
		)
		if err != nil {
			return fmt.Errorf("inserting article %s: %w", article.ID, err)
		}

		rowID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting rowid for article %s: %w", article.ID, err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO article_vec(rowid, embedding) VALUES (?, ?)`,
			rowID, embBlob,
		); err != nil {
			return fmt.Errorf("inserting embedding for article %s: %w", article.ID, err)
		}
	default:
		return fmt.Errorf("checking for existing article %s: %w", article.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// ListArticles returns articles in insertion (rowid) order, restricted to
// those intersecting tagFilter when it is non-empty.
func (s *Store) ListArticles(ctx context.Context, tagFilter []string) ([]feed.Article, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.article_id, a.heading, a.summary, a.link, a.image, a.tags, v.embedding
		FROM articles a
		INNER JOIN article_vec v ON v.rowid = a.rowid
		ORDER BY a.rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("querying articles: %w", err)
	}
	defer rows.Close()

	var articles []feed.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}

		if !article.HasAnyTag(tagFilter) {
			continue
		}

		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating articles: %w", err)
	}

	return articles, nil
}

// SearchArticles answers a nearest-neighbor query. Without a tag filter it
// uses the vec0 KNN index; with one it orders the filtered rows by cosine
// distance directly.
func (s *Store) SearchArticles(ctx context.Context, embedding []float32, topK int, tagFilter []string) ([]store.Match, error) {
	if err := s.checkDimensions(embedding); err != nil {
		return nil, err
	}

	if topK <= 0 {
		topK = 10
	}

	queryBlob := serializeFloat32(embedding)

	var rows *sql.Rows
	var err error

	if len(tagFilter) == 0 {
		// KNN query via vec0 MATCH, then JOIN back to article metadata.
		rows, err = s.db.QueryContext(ctx, `
			SELECT a.article_id, a.heading, a.summary, a.link, a.image, a.tags, v.embedding, v.distance
			FROM article_vec v
			INNER JOIN articles a ON a.rowid = v.rowid
			WHERE v.embedding MATCH ?
				AND v.k = ?
			ORDER BY v.distance
		`, queryBlob, topK)
	} else {
		// Tag-filtered queries cannot use the KNN constraint, so the
		// filtered rows are ordered by cosine distance instead.
		placeholders := make([]string, len(tagFilter))
		args := []any{queryBlob}
		for i, tag := range tagFilter {
			placeholders[i] = "?"
			args = append(args, tag)
		}
		args = append(args, queryBlob, topK)

		query := fmt.Sprintf(`
			SELECT a.article_id, a.heading, a.summary, a.link, a.image, a.tags, v.embedding,
				vec_distance_cosine(v.embedding, ?) AS distance
			FROM articles a
			INNER JOIN article_vec v ON v.rowid = a.rowid
			WHERE EXISTS (
				SELECT 1 FROM json_each(a.tags) WHERE json_each.value IN (%s)
			)
			ORDER BY vec_distance_cosine(v.embedding, ?), a.rowid
			LIMIT ?
		`, strings.Join(placeholders, ","))

		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("querying nearest articles: %w", err)
	}
	defer rows.Close()

	var matches []store.Match
	for rows.Next() {
		var match store.Match
		var tagsJSON string
		var embBlob []byte
		var distance sql.NullFloat64

		if err := rows.Scan(
			&match.ID, &match.Heading, &match.Summary, &match.Link, &match.Image,
			&tagsJSON, &embBlob, &distance,
		); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}

		// sqlite-vec reports NULL cosine distance for a zero-norm
		// embedding. One bad record must not fail the whole feed.
		if !distance.Valid || math.IsNaN(distance.Float64) {
			s.logger.Warn("skipping unscorable article",
				zap.String("article_id", match.ID),
			)
			continue
		}

		if err := json.Unmarshal([]byte(tagsJSON), &match.Tags); err != nil {
			return nil, fmt.Errorf("deserializing tags for article %s: %w", match.ID, err)
		}

		if match.Embedding, err = deserializeFloat32(embBlob); err != nil {
			return nil, fmt.Errorf("deserializing embedding for article %s: %w", match.ID, err)
		}

		// Cosine distance to similarity.
		match.Score = 1 - distance.Float64
		matches = append(matches, match)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}

	s.logger.Debug("searched article_vec",
		zap.Int("results", len(matches)),
		zap.Int("top_k", topK),
		zap.Strings("tag_filter", tagFilter),
	)

	return matches, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (feed.Article, error) {
	var article feed.Article
	var tagsJSON string
	var embBlob []byte

	if err := row.Scan(
		&article.ID, &article.Heading, &article.Summary, &article.Link, &article.Image,
		&tagsJSON, &embBlob,
	); err != nil {
		return feed.Article{}, fmt.Errorf("scanning article: %w", err)
	}

	if err := json.Unmarshal([]byte(tagsJSON), &article.Tags); err != nil {
		return feed.Article{}, fmt.Errorf("deserializing tags for article %s: %w", article.ID, err)
	}

	embedding, err := deserializeFloat32(embBlob)
	if err != nil {
		return feed.Article{}, fmt.Errorf("deserializing embedding for article %s: %w", article.ID, err)
	}
	article.Embedding = embedding

	return article, nil
}

var (
	_ store.Store              = (*Store)(nil)
	_ store.SimilaritySearcher = (*Store)(nil)
)
