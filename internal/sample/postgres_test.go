package sample

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ---------------------------------------------------------------------------
// Test helpers: mock DB types
// ---------------------------------------------------------------------------

type mockRow struct {
	scanFunc func(dest ...any) error
}

func (r *mockRow) Scan(dest ...any) error { return r.scanFunc(dest...) }

type mockBatchResults struct {
	tags   []pgconn.CommandTag
	err    error
	idx    int
	closed bool
}

func (b *mockBatchResults) Exec() (pgconn.CommandTag, error) {
	if b.err != nil {
		return pgconn.CommandTag{}, b.err
	}
	tag := b.tags[b.idx]
	b.idx++
	return tag, nil
}

func (b *mockBatchResults) Query() (pgx.Rows, error) { return nil, errors.New("not implemented") }
func (b *mockBatchResults) QueryRow() pgx.Row {
	return &mockRow{scanFunc: func(...any) error { return errors.New("not implemented") }}
}
func (b *mockBatchResults) Close() error { b.closed = true; return nil }

type mockDB struct {
	queryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row
	execFunc     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	batch        *pgx.Batch
	results      *mockBatchResults
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if m.queryRowFunc != nil {
		return m.queryRowFunc(ctx, sql, args...)
	}
	return &mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
}

func (m *mockDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if m.execFunc != nil {
		return m.execFunc(ctx, sql, args...)
	}
	return pgconn.CommandTag{}, nil
}

func (m *mockDB) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	m.batch = b
	return m.results
}

// ---------------------------------------------------------------------------
// Unit tests
// ---------------------------------------------------------------------------

func TestPostgresStore_Migrate(t *testing.T) {
	t.Parallel()

	var executed string
	db := &mockDB{execFunc: func(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
		executed = sql
		return pgconn.CommandTag{}, nil
	}}
	if err := NewPostgresStore(db).Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if !strings.Contains(executed, "CREATE TABLE IF NOT EXISTS sample_sentences") {
		t.Errorf("Migrate executed %q", executed)
	}

	db.execFunc = func(context.Context, string, ...any) (pgconn.CommandTag, error) {
		return pgconn.CommandTag{}, errors.New("permission denied")
	}
	if err := NewPostgresStore(db).Migrate(context.Background()); err == nil {
		t.Error("expected migrate error")
	}
}

func TestPostgresStore_Insert(t *testing.T) {
	t.Parallel()

	db := &mockDB{results: &mockBatchResults{tags: []pgconn.CommandTag{
		pgconn.NewCommandTag("INSERT 0 1"),
		pgconn.NewCommandTag("INSERT 0 0"),
	}}}
	s := NewPostgresStore(db)

	n, err := s.Insert(context.Background(), "en", "The cat sat.", "  ", strings.Repeat("word ", 12))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if n != 1 {
		t.Errorf("inserted = %d, want 1", n)
	}
	if db.batch.Len() != 2 {
		t.Fatalf("batch len = %d, want 2", db.batch.Len())
	}
	q := db.batch.QueuedQueries
	if got := q[0].Arguments; got[0] != "en" || got[1] != "The cat sat." || got[2] != int(Easy) {
		t.Errorf("first row args = %v", got)
	}
	if got := q[1].Arguments; got[1] != strings.TrimSpace(strings.Repeat("word ", 12)) || got[2] != int(Medium) {
		t.Errorf("second row args = %v", got)
	}
	if !db.results.closed {
		t.Error("batch results not closed")
	}
}

func TestPostgresStore_InsertNothing(t *testing.T) {
	t.Parallel()

	db := &mockDB{}
	n, err := NewPostgresStore(db).Insert(context.Background(), "en", " ", "")
	if err != nil || n != 0 {
		t.Errorf("Insert = %d, %v; want 0, nil", n, err)
	}
	if db.batch != nil {
		t.Error("empty insert should not send a batch")
	}
}

func TestPostgresStore_Random(t *testing.T) {
	t.Parallel()

	var gotArgs []any
	db := &mockDB{queryRowFunc: func(_ context.Context, _ string, args ...any) pgx.Row {
		gotArgs = args
		return &mockRow{scanFunc: func(dest ...any) error {
			*dest[0].(*string) = "Guten Tag."
			return nil
		}}
	}}
	got, err := NewPostgresStore(db).Random(context.Background(), "de", Medium)
	if err != nil {
		t.Fatalf("Random: %v", err)
	}
	if got != "Guten Tag." {
		t.Errorf("Random = %q", got)
	}
	if len(gotArgs) != 2 || gotArgs[0] != "de" || gotArgs[1] != int(Medium) {
		t.Errorf("args = %v", gotArgs)
	}
}

func TestPostgresStore_RandomErrors(t *testing.T) {
	t.Parallel()

	s := NewPostgresStore(&mockDB{})
	if _, err := s.Random(context.Background(), "en", Any); !errors.Is(err, ErrNoSentence) {
		t.Errorf("err = %v, want ErrNoSentence", err)
	}
	if _, err := s.Random(context.Background(), "en", Category(5)); err == nil {
		t.Error("expected error for invalid category")
	}

	boom := errors.New("connection reset")
	s = NewPostgresStore(&mockDB{queryRowFunc: func(context.Context, string, ...any) pgx.Row {
		return &mockRow{scanFunc: func(...any) error { return boom }}
	}})
	if _, err := s.Random(context.Background(), "en", Any); !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped %v", err, boom)
	}
}

// ---------------------------------------------------------------------------
// Integration test
// ---------------------------------------------------------------------------

// testDSN returns the test database DSN from the environment, or skips the
// test if PHONOSCORE_TEST_POSTGRES_DSN is not set.
func testDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("PHONOSCORE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("PHONOSCORE_TEST_POSTGRES_DSN not set; skipping PostgreSQL integration tests")
	}
	return dsn
}

func TestPostgresStore_Integration(t *testing.T) {
	dsn := testDSN(t)
	ctx := context.Background()

	s, err := OpenPostgres(ctx, dsn)
	if err != nil {
		t.Fatalf("OpenPostgres: %v", err)
	}
	t.Cleanup(s.Close)
	if _, err := s.db.Exec(ctx, "DELETE FROM sample_sentences WHERE language = 'zz-test'"); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	n, err := s.Insert(ctx, "zz-test", "One two three.", strings.Repeat("long ", 25), "One two three.")
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if n != 2 {
		t.Errorf("inserted = %d, want 2", n)
	}

	got, err := s.Random(ctx, "zz-test", Easy)
	if err != nil || got != "One two three." {
		t.Errorf("Random(easy) = %q, %v", got, err)
	}
	if _, err := s.Random(ctx, "zz-test", Medium); !errors.Is(err, ErrNoSentence) {
		t.Errorf("Random(medium) err = %v, want ErrNoSentence", err)
	}
	if _, err := s.Random(ctx, "zz-test", Any); err != nil {
		t.Errorf("Random(any): %v", err)
	}
}
