package vectorstore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"notebook-ai/internal/embed"
)

// SQLiteStore is the durable single-file backend: one table of chunk rows
// with the vector serialized as a little-endian float32 blob. Queries
// deserialize the matching rows and rank by the same linear-scan cosine as
// the in-memory backend; there is no index structure beyond the chunk-id
// primary key.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the blob table at the given path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach vector database: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS chunk_vectors (
		chunk_id TEXT PRIMARY KEY,
		source_id TEXT NOT NULL,
		text TEXT NOT NULL,
		vector BLOB NOT NULL,
		dim INTEGER NOT NULL,
		updated_at DATETIME NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create vector table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Name identifies this backend.
func (s *SQLiteStore) Name() string { return "sqlite" }

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Upsert overwrites rows by chunk identity inside one transaction.
func (s *SQLiteStore) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunk_vectors (chunk_id, source_id, text, vector, dim, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			source_id = excluded.source_id,
			text = excluded.text,
			vector = excluded.vector,
			dim = excluded.dim,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, rec := range records {
		updatedAt := rec.UpdatedAt
		if updatedAt.IsZero() {
			updatedAt = time.Now().UTC()
		}
		blob := float32SliceToBytes(rec.Vector)
		if _, err := stmt.ExecContext(ctx, rec.ChunkID, rec.SourceID, rec.Text, blob, rec.Dim, updatedAt); err != nil {
			return fmt.Errorf("failed to upsert chunk %s: %w", rec.ChunkID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit upsert: %w", err)
	}
	return nil
}

// QueryTopK loads the candidate rows, deserializes their vectors, and ranks
// them by cosine similarity.
func (s *SQLiteStore) QueryTopK(ctx context.Context, sourceIDs []string, query []float32, k int) ([]Scored, error) {
	q := "SELECT chunk_id, source_id, text, vector, dim, updated_at FROM chunk_vectors"
	var args []any
	if len(sourceIDs) > 0 {
		placeholders := strings.Repeat("?,", len(sourceIDs))
		q += " WHERE source_id IN (" + placeholders[:len(placeholders)-1] + ")"
		for _, id := range sourceIDs {
			args = append(args, id)
		}
	}
	q += " ORDER BY chunk_id"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query vectors: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var scored []Scored
	for rows.Next() {
		var rec Record
		var blob []byte
		if err := rows.Scan(&rec.ChunkID, &rec.SourceID, &rec.Text, &blob, &rec.Dim, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan vector row: %w", err)
		}
		rec.Vector = bytesToFloat32Slice(blob)
		scored = append(scored, Scored{Record: rec, Score: embed.Cosine(rec.Vector, query)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if k > 0 && len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// Count returns the number of indexed rows.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunk_vectors").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count vectors: %w", err)
	}
	return n, nil
}

// Reset clears the table.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM chunk_vectors"); err != nil {
		return fmt.Errorf("failed to reset vector table: %w", err)
	}
	return nil
}

// float32SliceToBytes serializes a vector as little-endian float32s.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice is the inverse of float32SliceToBytes.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
