package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/reportchat-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/reportchat-cli/internal/core/domain"
	"github.com/custodia-labs/reportchat-cli/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to the
// metadata store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.reportchat/data/reports.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".reportchat", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "reports.db")

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

// ReportStore returns a ReportStore interface backed by this store.
func (s *Store) ReportStore() driven.ReportStore {
	return &reportStore{store: s}
}

// ConversationStore returns a ConversationStore interface backed by this store.
func (s *Store) ConversationStore() driven.ConversationStore {
	return &conversationStore{store: s}
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

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Report Store ====================

// reportStore implements driven.ReportStore.
type reportStore struct {
	store *Store
}

var _ driven.ReportStore = (*reportStore)(nil)

// SaveReport stores or updates a report record.
func (s *reportStore) SaveReport(ctx context.Context, report *domain.Report) error {
	now := time.Now().UTC()
	if report.CreatedAt.IsZero() {
		report.CreatedAt = now
	}
	if report.UpdatedAt.IsZero() {
		report.UpdatedAt = now
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO reports (id, blob_key, filename, mime_type, size_bytes, text,
			ocr_confidence, classification, status, failure_reason, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			blob_key = excluded.blob_key,
			filename = excluded.filename,
			mime_type = excluded.mime_type,
			size_bytes = excluded.size_bytes,
			text = excluded.text,
			ocr_confidence = excluded.ocr_confidence,
			classification = excluded.classification,
			status = excluded.status,
			failure_reason = excluded.failure_reason,
			updated_at = excluded.updated_at
	`, report.ID, report.BlobKey, report.Filename, report.MimeType, report.SizeBytes,
		report.Text, report.OCRConfidence, report.Classification, string(report.Status),
		report.FailureReason, report.CreatedAt, report.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving report: %w", err)
	}
	return nil
}

// GetReport retrieves a report by ID.
func (s *reportStore) GetReport(ctx context.Context, id string) (*domain.Report, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, blob_key, filename, mime_type, size_bytes, text,
			ocr_confidence, classification, status, failure_reason, created_at, updated_at
		FROM reports WHERE id = ?
	`, id)

	report, err := scanReport(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning report: %w", err)
	}
	return report, nil
}

// ListReports returns reports matching the filter, newest first.
func (s *reportStore) ListReports(ctx context.Context, filter domain.ReportFilter) ([]domain.Report, error) {
	query := `
		SELECT id, blob_key, filename, mime_type, size_bytes, text,
			ocr_confidence, classification, status, failure_reason, created_at, updated_at
		FROM reports`
	where, args := filterClauses(filter, "")
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying reports: %w", err)
	}
	defer rows.Close()

	var reports []domain.Report //nolint:prealloc // size unknown from query
	for rows.Next() {
		report, err := scanReport(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning report: %w", err)
		}
		reports = append(reports, *report)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reports: %w", err)
	}
	return reports, nil
}

// DeleteReport removes a report; its chunks go with it via ON DELETE CASCADE.
func (s *reportStore) DeleteReport(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM reports WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting report: %w", err)
	}
	return nil
}

// UpsertChunks replaces the chunk set for the chunks' report in one
// transaction, keyed by (report_id, chunk_index).
func (s *reportStore) UpsertChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	reportID := chunks[0].ReportID
	for i, chunk := range chunks {
		if chunk.Index != i || chunk.ReportID != reportID {
			return fmt.Errorf("%w: chunk indices not contiguous", domain.ErrConsistency)
		}
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	// Drop stale tail rows left by an earlier, longer chunk set.
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM chunks WHERE report_id = ? AND chunk_index >= ?",
		reportID, len(chunks)); err != nil {
		return fmt.Errorf("pruning chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (report_id, chunk_index, id, content, embedding)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(report_id, chunk_index) DO UPDATE SET
			id = excluded.id,
			content = excluded.content,
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		embeddingBlob := float32SliceToBytes(chunk.Embedding)
		if _, err := stmt.ExecContext(ctx, chunk.ReportID, chunk.Index, chunk.ID,
			chunk.Text, embeddingBlob); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetChunks retrieves all chunks for a report, ordered by index.
func (s *reportStore) GetChunks(ctx context.Context, reportID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT report_id, chunk_index, id, content, embedding
		FROM chunks WHERE report_id = ?
		ORDER BY chunk_index
	`, reportID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	return collectChunks(rows)
}

// GetChunk retrieves a specific chunk by its deterministic ID.
func (s *reportStore) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT report_id, chunk_index, id, content, embedding
		FROM chunks WHERE id = ?
	`, id)

	chunk, err := scanChunk(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}
	return chunk, nil
}

// ListRetrievableChunks returns the chunks of persisted reports only.
func (s *reportStore) ListRetrievableChunks(ctx context.Context, filter domain.ReportFilter) ([]domain.Chunk, error) {
	query := `
		SELECT c.report_id, c.chunk_index, c.id, c.content, c.embedding
		FROM chunks c
		JOIN reports r ON r.id = c.report_id
		WHERE r.status = ?`
	args := []any{string(domain.StatusPersisted)}

	where, filterArgs := filterClauses(filter, "r.")
	if len(where) > 0 {
		query += " AND " + strings.Join(where, " AND ")
		args = append(args, filterArgs...)
	}
	query += " ORDER BY c.report_id, c.chunk_index"

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying retrievable chunks: %w", err)
	}
	defer rows.Close()

	return collectChunks(rows)
}

// ==================== Conversation Store ====================

// conversationStore implements driven.ConversationStore.
type conversationStore struct {
	store *Store
}

var _ driven.ConversationStore = (*conversationStore)(nil)

// AppendTurn appends a turn, assigning the next index in its session. The
// index is computed and the row inserted in one transaction so concurrent
// appenders never race for the same slot.
func (s *conversationStore) AppendTurn(ctx context.Context, turn *domain.ConversationTurn) error {
	chunkIDs, err := json.Marshal(turn.GroundingChunkIDs)
	if err != nil {
		return fmt.Errorf("marshalling chunk IDs: %w", err)
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	row := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(turn_index) + 1, 0) FROM conversation_turns WHERE session_id = ?",
		turn.SessionID)
	if err := row.Scan(&turn.Index); err != nil {
		return fmt.Errorf("next turn index: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO conversation_turns
			(session_id, turn_index, user_message, assistant_message, grounding_chunk_ids, grounded, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, turn.SessionID, turn.Index, turn.UserMessage, turn.AssistantMessage,
		string(chunkIDs), turn.Grounded, turn.CreatedAt); err != nil {
		return fmt.Errorf("saving turn: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListTurns returns all turns for a session in insertion order.
func (s *conversationStore) ListTurns(ctx context.Context, sessionID string) ([]domain.ConversationTurn, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT session_id, turn_index, user_message, assistant_message, grounding_chunk_ids, grounded, created_at
		FROM conversation_turns WHERE session_id = ?
		ORDER BY turn_index
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.ConversationTurn //nolint:prealloc // size unknown from query
	for rows.Next() {
		var turn domain.ConversationTurn
		var chunkIDs string
		if err := rows.Scan(&turn.SessionID, &turn.Index, &turn.UserMessage,
			&turn.AssistantMessage, &chunkIDs, &turn.Grounded, &turn.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		if err := json.Unmarshal([]byte(chunkIDs), &turn.GroundingChunkIDs); err != nil {
			return nil, fmt.Errorf("unmarshaling chunk IDs: %w", err)
		}
		turns = append(turns, turn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating turns: %w", err)
	}
	return turns, nil
}

// ==================== Helpers ====================

// filterClauses builds WHERE fragments for a report filter. The prefix
// qualifies column names in joined queries.
func filterClauses(filter domain.ReportFilter, prefix string) ([]string, []any) {
	var where []string
	var args []any
	if filter.ReportID != "" {
		where = append(where, prefix+"id = ?")
		args = append(args, filter.ReportID)
	}
	if filter.Classification != "" {
		where = append(where, prefix+"classification = ?")
		args = append(args, filter.Classification)
	}
	return where, args
}

// scanReport scans a report row via the given Scan function.
func scanReport(scan func(...any) error) (*domain.Report, error) {
	var report domain.Report
	var status string
	if err := scan(&report.ID, &report.BlobKey, &report.Filename, &report.MimeType,
		&report.SizeBytes, &report.Text, &report.OCRConfidence, &report.Classification,
		&status, &report.FailureReason, &report.CreatedAt, &report.UpdatedAt); err != nil {
		return nil, err
	}
	report.Status = domain.ReportStatus(status)
	return &report, nil
}

// scanChunk scans a chunk row via the given Scan function.
func scanChunk(scan func(...any) error) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var embeddingBlob []byte
	if err := scan(&chunk.ReportID, &chunk.Index, &chunk.ID, &chunk.Text, &embeddingBlob); err != nil {
		return nil, err
	}
	chunk.Embedding = bytesToFloat32Slice(embeddingBlob)
	return &chunk, nil
}

// collectChunks drains a chunk query result.
func collectChunks(rows *sql.Rows) ([]domain.Chunk, error) {
	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunks = append(chunks, *chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

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
