// Package pgvector keeps job embeddings in PostgreSQL with the pgvector extension.
package pgvector

import (
	"context"
	"fmt"
	"regexp"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pgv "github.com/pgvector/pgvector-go"

	"github.com/spigell/job-matcher/internal/embedding"
	"github.com/spigell/job-matcher/internal/errs"
)

const DefaultTable = "job_embeddings"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// querier is the subset of pgxpool.Pool the store needs.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type Store struct {
	db    querier
	table string
}

var (
	_ embedding.Store    = (*Store)(nil)
	_ embedding.Searcher = (*Store)(nil)
)

// Connect opens a pool, verifies it and prepares the table.
func Connect(ctx context.Context, databaseURL, table string) (*Store, func(), error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, nil, errs.Config("pgxpool.New", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, errs.Unavailable("postgres ping failed", err)
	}

	store, err := New(pool, table)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	return store, pool.Close, nil
}

func New(db querier, table string) (*Store, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableName.MatchString(table) {
		return nil, errs.Config(fmt.Sprintf("invalid embedding table name %q", table), nil)
	}
	return &Store{db: db, table: pgx.Identifier{table}.Sanitize()}, nil
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			job_hash   TEXT PRIMARY KEY,
			embedding  vector NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, s.table),
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return errs.Unavailable("prepare embedding table", err)
		}
	}
	return nil
}

// Upsert writes vectors in job hash order and stops at the first failure.
func (s *Store) Upsert(ctx context.Context, vectors map[string][]float32) (int, error) {
	hashes := make([]string, 0, len(vectors))
	for hash := range vectors {
		hashes = append(hashes, hash)
	}
	sort.Strings(hashes)

	query := fmt.Sprintf(`INSERT INTO %s (job_hash, embedding, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (job_hash) DO UPDATE SET embedding = EXCLUDED.embedding, updated_at = now()`, s.table)

	written := 0
	for _, hash := range hashes {
		if _, err := s.db.Exec(ctx, query, hash, pgv.NewVector(vectors[hash])); err != nil {
			return written, errs.Unavailable(fmt.Sprintf("upsert embedding %s", hash), err)
		}
		written++
	}
	return written, nil
}

// Similar orders stored jobs by cosine distance to vector.
func (s *Store) Similar(ctx context.Context, vector []float32, limit int) ([]embedding.Neighbor, error) {
	if len(vector) == 0 {
		return nil, errs.InvalidInput("query vector is empty", nil)
	}
	if limit <= 0 {
		limit = 10
	}

	query := fmt.Sprintf(`SELECT job_hash, embedding <=> $1 AS distance
		FROM %s
		ORDER BY distance
		LIMIT $2`, s.table)

	rows, err := s.db.Query(ctx, query, pgv.NewVector(vector), limit)
	if err != nil {
		return nil, errs.Unavailable("query similar embeddings", err)
	}
	defer rows.Close()

	var out []embedding.Neighbor
	for rows.Next() {
		var n embedding.Neighbor
		if err := rows.Scan(&n.JobHash, &n.Distance); err != nil {
			return nil, fmt.Errorf("scan neighbour: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Unavailable("iterate similar embeddings", err)
	}
	return out, nil
}
