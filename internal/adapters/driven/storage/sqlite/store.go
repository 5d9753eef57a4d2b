package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/lexsearch/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/lexsearch/internal/core/domain"
	"github.com/custodia-labs/lexsearch/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to
// all corpus store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.lexsearch/data/corpus.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".lexsearch", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "corpus.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// PassageStore returns a PassageStore interface backed by this store.
func (s *Store) PassageStore() driven.PassageStore {
	return &passageStore{store: s}
}

// SnapshotStore returns a SnapshotStore interface backed by this store.
func (s *Store) SnapshotStore() driven.SnapshotStore {
	return &snapshotStore{store: s}
}

// CorpusStats returns a CorpusStats interface backed by this store.
func (s *Store) CorpusStats() driven.CorpusStats {
	return &corpusStats{store: s}
}

// VectorIndex returns a VectorIndex interface backed by this store.
// Vectors live in the passages table; Search scans them with cosine
// similarity, which is adequate for corpora up to tens of thousands of
// passages.
func (s *Store) VectorIndex() driven.VectorIndex {
	return &vectorIndex{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version,
		); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Passage Store ====================

// passageStore implements driven.PassageStore.
type passageStore struct {
	store *Store
}

var _ driven.PassageStore = (*passageStore)(nil)

// SaveDocument stores or updates a document.
func (s *passageStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	metaJSON, err := json.Marshal(doc.Meta)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, uri, meta, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			uri = excluded.uri,
			meta = excluded.meta,
			active = excluded.active,
			updated_at = excluded.updated_at
	`, doc.ID, doc.URI, string(metaJSON), doc.Active, doc.CreatedAt, doc.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *passageStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, uri, meta, active, created_at, updated_at
		FROM documents WHERE id = ?
	`, id)

	var doc domain.Document
	var metaJSON string
	if err := row.Scan(&doc.ID, &doc.URI, &metaJSON, &doc.Active,
		&doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	if metaJSON != "" {
		if err := json.Unmarshal([]byte(metaJSON), &doc.Meta); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata: %w", err)
		}
	}

	return &doc, nil
}

// SavePassages stores passages for a document.
func (s *passageStore) SavePassages(ctx context.Context, passages []domain.Passage) error {
	if len(passages) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO passages (id, document_id, position, content, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			position = excluded.position,
			content = excluded.content,
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range passages {
		embeddingBlob := float32SliceToBytes(p.Embedding)

		if _, err := stmt.ExecContext(ctx, p.ID, p.DocumentID, p.Position,
			p.Content, embeddingBlob, p.CreatedAt); err != nil {
			return fmt.Errorf("saving passage: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetPassages retrieves all passages for a document in position order.
func (s *passageStore) GetPassages(ctx context.Context, documentID string) ([]domain.Passage, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, position, content, embedding, created_at
		FROM passages WHERE document_id = ?
		ORDER BY position
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying passages: %w", err)
	}
	defer rows.Close()

	return scanPassages(rows)
}

// GetPassage retrieves a specific passage by ID.
func (s *passageStore) GetPassage(ctx context.Context, id string) (*domain.Passage, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, document_id, position, content, embedding, created_at
		FROM passages WHERE id = ?
	`, id)

	var p domain.Passage
	var embeddingBlob []byte
	if err := row.Scan(&p.ID, &p.DocumentID, &p.Position, &p.Content,
		&embeddingBlob, &p.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning passage: %w", err)
	}

	p.Embedding = bytesToFloat32Slice(embeddingBlob)
	return &p, nil
}

// DeletePassages removes all passages of a document.
func (s *passageStore) DeletePassages(ctx context.Context, documentID string) error {
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM passages WHERE document_id = ?", documentID)
	if err != nil {
		return fmt.Errorf("deleting passages: %w", err)
	}
	return nil
}

// FindByTerms returns up to limit passages of active documents whose
// content contains at least one of the terms.
func (s *passageStore) FindByTerms(ctx context.Context, terms []string, limit int) ([]domain.Passage, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}

	clauses := make([]string, 0, len(terms))
	args := make([]any, 0, len(terms)+1)
	for _, term := range terms {
		clauses = append(clauses, "LOWER(p.content) LIKE ?")
		args = append(args, "%"+strings.ToLower(term)+"%")
	}
	args = append(args, limit)

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT p.id, p.document_id, p.position, p.content, p.embedding, p.created_at
		FROM passages p
		JOIN documents d ON d.id = p.document_id
		WHERE d.active = 1 AND (`+strings.Join(clauses, " OR ")+`)
		LIMIT ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying passages by terms: %w", err)
	}
	defer rows.Close()

	return scanPassages(rows)
}

// ==================== Snapshot Store ====================

// snapshotStore implements driven.SnapshotStore.
type snapshotStore struct {
	store *Store
}

var _ driven.SnapshotStore = (*snapshotStore)(nil)

// Get retrieves the latest snapshot for a document.
func (s *snapshotStore) Get(ctx context.Context, documentID string) (*domain.Snapshot, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT document_id, text, digest, meta, version, extracted_at
		FROM snapshots WHERE document_id = ?
	`, documentID)

	var snap domain.Snapshot
	var metaJSON sql.NullString
	if err := row.Scan(&snap.DocumentID, &snap.Text, &snap.Digest,
		&metaJSON, &snap.Version, &snap.ExtractedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning snapshot: %w", err)
	}

	if metaJSON.Valid && metaJSON.String != "" {
		var meta domain.DocumentMeta
		if err := json.Unmarshal([]byte(metaJSON.String), &meta); err != nil {
			return nil, fmt.Errorf("unmarshaling snapshot metadata: %w", err)
		}
		snap.Meta = &meta
	}

	return &snap, nil
}

// Put stores a snapshot, superseding the previous one.
func (s *snapshotStore) Put(ctx context.Context, snapshot *domain.Snapshot) error {
	var metaJSON any
	if snapshot.Meta != nil {
		b, err := json.Marshal(snapshot.Meta)
		if err != nil {
			return fmt.Errorf("marshalling snapshot metadata: %w", err)
		}
		metaJSON = string(b)
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO snapshots (document_id, text, digest, meta, version, extracted_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			text = excluded.text,
			digest = excluded.digest,
			meta = excluded.meta,
			version = excluded.version,
			extracted_at = excluded.extracted_at
	`, snapshot.DocumentID, snapshot.Text, snapshot.Digest,
		metaJSON, snapshot.Version, snapshot.ExtractedAt)

	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

// Delete removes the snapshot for a document.
func (s *snapshotStore) Delete(ctx context.Context, documentID string) error {
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM snapshots WHERE document_id = ?", documentID)
	if err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	return nil
}

// ==================== Corpus Stats ====================

// corpusStats implements driven.CorpusStats.
type corpusStats struct {
	store *Store
}

var _ driven.CorpusStats = (*corpusStats)(nil)

// DocumentCount returns the number of stored documents.
func (s *corpusStats) DocumentCount(ctx context.Context) (int, error) {
	var count int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM documents").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return count, nil
}

// DocumentFrequency returns the number of documents containing the term.
func (s *corpusStats) DocumentFrequency(ctx context.Context, term string) (int, error) {
	var count int
	err := s.store.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT document_id) FROM passages
		WHERE LOWER(content) LIKE ?
	`, "%"+strings.ToLower(term)+"%").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting document frequency: %w", err)
	}
	return count, nil
}

// AveragePassageLength returns the mean passage length in characters.
func (s *corpusStats) AveragePassageLength(ctx context.Context) (float64, error) {
	var avg sql.NullFloat64
	err := s.store.db.QueryRowContext(ctx,
		"SELECT AVG(LENGTH(content)) FROM passages").Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("averaging passage length: %w", err)
	}
	return avg.Float64, nil
}

// ==================== Vector Index ====================

// vectorIndex implements driven.VectorIndex over the passages table.
type vectorIndex struct {
	store *Store
}

var _ driven.VectorIndex = (*vectorIndex)(nil)

// Add stores the embedding on the passage row.
func (v *vectorIndex) Add(ctx context.Context, passageID string, embedding []float32) error {
	_, err := v.store.db.ExecContext(ctx,
		"UPDATE passages SET embedding = ? WHERE id = ?",
		float32SliceToBytes(embedding), passageID)
	if err != nil {
		return fmt.Errorf("adding vector: %w", err)
	}
	return nil
}

// Delete clears the embedding of a passage.
func (v *vectorIndex) Delete(ctx context.Context, passageID string) error {
	_, err := v.store.db.ExecContext(ctx,
		"UPDATE passages SET embedding = NULL WHERE id = ?", passageID)
	if err != nil {
		return fmt.Errorf("deleting vector: %w", err)
	}
	return nil
}

// Search scans stored embeddings of active documents and returns the k
// most similar passages.
func (v *vectorIndex) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	rows, err := v.store.db.QueryContext(ctx, `
		SELECT p.id, p.embedding
		FROM passages p
		JOIN documents d ON d.id = p.document_id
		WHERE d.active = 1 AND p.embedding IS NOT NULL
	`)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var hits []driven.VectorHit //nolint:prealloc // size unknown from query
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("scanning vector: %w", err)
		}

		sim := cosineSimilarity(query, bytesToFloat32Slice(blob))
		hits = append(hits, driven.VectorHit{PassageID: id, Similarity: sim})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vectors: %w", err)
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Similarity > hits[j].Similarity })
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Close is a no-op; the owning Store manages the connection.
func (v *vectorIndex) Close() error {
	return nil
}

// ==================== Helper Functions ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
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

// bytesToFloat32Slice converts a byte slice back to []float32.
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

// scanPassages scans passage rows.
func scanPassages(rows *sql.Rows) ([]domain.Passage, error) {
	var passages []domain.Passage //nolint:prealloc // size unknown from query
	for rows.Next() {
		var p domain.Passage
		var embeddingBlob []byte
		if err := rows.Scan(&p.ID, &p.DocumentID, &p.Position, &p.Content,
			&embeddingBlob, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning passage: %w", err)
		}
		p.Embedding = bytesToFloat32Slice(embeddingBlob)
		passages = append(passages, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating passages: %w", err)
	}

	return passages, nil
}

// cosineSimilarity returns the cosine of the angle between a and b,
// clamped at 0. Mismatched dimensions or zero vectors yield 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if cos < 0 {
		return 0
	}
	return cos
}
