package sample

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is the SQL DDL for the sample_sentences table. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS sample_sentences (
    id         BIGSERIAL PRIMARY KEY,
    language   TEXT NOT NULL,
    sentence   TEXT NOT NULL,
    category   SMALLINT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (language, sentence)
);
CREATE INDEX IF NOT EXISTS idx_sample_sentences_lang_cat ON sample_sentences(language, category);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

// PostgresStore is a [Store] backed by a PostgreSQL database. The category of
// every sentence is computed with [CategoryOf] on insert.
type PostgresStore struct {
	db   DB
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new [PostgresStore] that uses the given database
// connection or pool. The caller is responsible for calling
// [PostgresStore.Migrate] to ensure the schema exists before issuing queries.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres connects to the database at dsn, verifies the connection and
// runs [PostgresStore.Migrate]. Call [PostgresStore.Close] to release the
// pool.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("sample: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("sample: ping: %w", err)
	}
	s := &PostgresStore{db: pool, pool: pool}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the connection pool opened by [OpenPostgres]. It is a no-op
// for stores created with [NewPostgresStore].
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate executes the [Schema] DDL against the database.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("sample: migrate: %w", err)
	}
	return nil
}

// Insert stores sentences for language in a single batch. Blank sentences
// and sentences already stored for language are skipped. It returns the
// number of rows inserted.
func (s *PostgresStore) Insert(ctx context.Context, language string, sentences ...string) (int, error) {
	const query = `
		INSERT INTO sample_sentences (language, sentence, category)
		VALUES ($1, $2, $3)
		ON CONFLICT (language, sentence) DO NOTHING`

	batch := &pgx.Batch{}
	for _, sent := range sentences {
		sent = strings.TrimSpace(sent)
		if sent == "" {
			continue
		}
		batch.Queue(query, language, sent, int(CategoryOf(sent)))
	}
	if batch.Len() == 0 {
		return 0, nil
	}

	br := s.db.SendBatch(ctx, batch)
	defer br.Close()

	var inserted int
	for range batch.Len() {
		tag, err := br.Exec()
		if err != nil {
			return inserted, fmt.Errorf("sample: insert: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// Random implements [Store.Random].
func (s *PostgresStore) Random(ctx context.Context, language string, category Category) (string, error) {
	if !category.Valid() {
		return "", fmt.Errorf("sample: invalid category %d", int(category))
	}

	const query = `
		SELECT sentence
		FROM sample_sentences
		WHERE language = $1 AND ($2 = 0 OR category = $2)
		ORDER BY random()
		LIMIT 1`

	var sentence string
	err := s.db.QueryRow(ctx, query, language, int(category)).Scan(&sentence)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("%w: language %q, category %s", ErrNoSentence, language, category)
	}
	if err != nil {
		return "", fmt.Errorf("sample: random: %w", err)
	}
	return sentence, nil
}
