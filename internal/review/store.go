package review

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Jake-Brewer/auto-commit/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Store persists review items in SQLite. A pending item marks a path
// waiting for a human decision; resolving it records the decision without
// deleting the row, so the queue doubles as an audit trail.
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (creating if necessary) the review database at dbPath.
// Callers must run Migrate before using the store. Construction failures
// are fatal to the caller: there is no in-memory fallback.
func NewStore(dbPath string) (*Store, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

const itemColumns = `id, file_path, reason, status, decision, metadata, created_at, resolved_at`

// Add parks filePath for review. It is idempotent per pending path: when
// a pending item for filePath already exists it is returned unchanged,
// otherwise a new pending item is created. A resolved item for the same
// path does not block a new pending one.
func (s *Store) Add(ctx context.Context, filePath, reason string, metadata map[string]string) (*model.ReviewItem, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(filePath, "filePath"); err != nil {
		return nil, err
	}
	if err := validateString(reason, "reason"); err != nil {
		return nil, err
	}

	item, err := s.addTx(ctx, filePath, reason, metadata)
	if err == nil {
		return item, nil
	}

	// Another writer may have raced the insert. The unique pending-path
	// index guarantees a single pending row, so read theirs.
	if existing, qErr := s.pendingByPath(ctx, filePath); qErr == nil {
		return existing, nil
	}
	return nil, err
}

// addTx performs the insert-or-fetch inside one transaction.
func (s *Store) addTx(ctx context.Context, filePath, reason string, metadata map[string]string) (*model.ReviewItem, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM review_items WHERE file_path = ? AND status = ?`,
		filePath, model.StatusPending)
	existing, err := scanItem(row)
	switch {
	case err == nil:
		if commitErr := tx.Commit(); commitErr != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", commitErr)
		}
		slog.Debug("review item already pending", "id", existing.ID, "file", filePath)
		return existing, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("failed to query pending item: %w", err)
	}

	meta, err := encodeMetadata(metadata)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO review_items (file_path, reason, status, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		filePath, reason, model.StatusPending, meta, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert review item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read inserted id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Info("review item added", "id", id, "file", filePath, "reason", reason)
	return &model.ReviewItem{
		ID:        id,
		FilePath:  filePath,
		Reason:    reason,
		Status:    model.StatusPending,
		Metadata:  metadata,
		CreatedAt: now,
	}, nil
}

// pendingByPath fetches the pending item for a path.
func (s *Store) pendingByPath(ctx context.Context, filePath string) (*model.ReviewItem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM review_items WHERE file_path = ? AND status = ?`,
		filePath, model.StatusPending)
	item, err := scanItem(row)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending item: %w", err)
	}
	return item, nil
}

// Get returns the review item with the given id.
func (s *Store) Get(ctx context.Context, id int64) (*model.ReviewItem, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(id); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM review_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review item: %w", err)
	}
	return item, nil
}

// ListPending returns pending items, oldest first.
func (s *Store) ListPending(ctx context.Context) ([]model.ReviewItem, error) {
	return s.listByStatus(ctx, model.StatusPending)
}

// ListResolved returns resolved items, oldest first.
func (s *Store) ListResolved(ctx context.Context) ([]model.ReviewItem, error) {
	return s.listByStatus(ctx, model.StatusResolved)
}

func (s *Store) listByStatus(ctx context.Context, status model.ReviewStatus) ([]model.ReviewItem, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM review_items WHERE status = ?
		 ORDER BY created_at ASC, id ASC`, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list review items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []model.ReviewItem
	for rows.Next() {
		item, scanErr := scanItem(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan review item: %w", scanErr)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate review items: %w", err)
	}
	return items, nil
}

// Resolve records a decision on a pending item. A non-empty patternHint
// is kept in the item's metadata for audit; writing the corresponding
// rule line stays the caller's job.
func (s *Store) Resolve(ctx context.Context, id int64, decision model.Decision, patternHint string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id); err != nil {
		return err
	}
	if !decision.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidDecision, decision)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var (
		status  model.ReviewStatus
		metaRaw sql.NullString
	)
	err = tx.QueryRowContext(ctx,
		`SELECT status, metadata FROM review_items WHERE id = ?`, id).Scan(&status, &metaRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to query review item: %w", err)
	}
	if status != model.StatusPending {
		return fmt.Errorf("%w: id %d", ErrNotPending, id)
	}

	meta, err := decodeMetadata(metaRaw)
	if err != nil {
		return err
	}
	if patternHint != "" {
		if meta == nil {
			meta = make(map[string]string, 1)
		}
		meta["pattern_hint"] = patternHint
	}
	encoded, err := encodeMetadata(meta)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE review_items SET status = ?, decision = ?, metadata = ?, resolved_at = ?
		 WHERE id = ? AND status = ?`,
		model.StatusResolved, decision, encoded, time.Now().UTC(), id, model.StatusPending)
	if err != nil {
		return fmt.Errorf("failed to resolve review item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Info("review item resolved", "id", id, "decision", decision)
	return nil
}

// Remove deletes an item regardless of status.
func (s *Store) Remove(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM review_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to remove review item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}

	slog.Info("review item removed", "id", id)
	return nil
}

// ClearResolved deletes all resolved items and returns how many went.
func (s *Store) ClearResolved(ctx context.Context) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM review_items WHERE status = ?`, model.StatusResolved)
	if err != nil {
		return 0, fmt.Errorf("failed to clear resolved items: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	slog.Info("resolved review items cleared", "count", n)
	return n, nil
}

// Stats summarizes the queue by status.
type Stats struct {
	Total    int
	Pending  int
	Resolved int
}

// Stats reports item counts by status in a single query.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	if err := validateContext(ctx); err != nil {
		return st, err
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(CASE WHEN status = 'pending' THEN 1 END),
		       COUNT(CASE WHEN status = 'resolved' THEN 1 END)
		FROM review_items`).Scan(&st.Total, &st.Pending, &st.Resolved)
	if err != nil {
		return st, fmt.Errorf("failed to query stats: %w", err)
	}
	return st, nil
}

// rowScanner lets scanItem work with both sql.Row and sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*model.ReviewItem, error) {
	var (
		item     model.ReviewItem
		decision sql.NullString
		metaRaw  sql.NullString
		resolved sql.NullTime
	)
	err := row.Scan(&item.ID, &item.FilePath, &item.Reason, &item.Status,
		&decision, &metaRaw, &item.CreatedAt, &resolved)
	if err != nil {
		return nil, err
	}

	if decision.Valid {
		item.Decision = model.Decision(decision.String)
	}
	if resolved.Valid {
		t := resolved.Time
		item.ResolvedAt = &t
	}

	meta, err := decodeMetadata(metaRaw)
	if err != nil {
		return nil, err
	}
	item.Metadata = meta
	return &item, nil
}

func encodeMetadata(meta map[string]string) (sql.NullString, error) {
	if len(meta) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode metadata: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodeMetadata(raw sql.NullString) (map[string]string, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	meta := make(map[string]string)
	if err := json.Unmarshal([]byte(raw.String), &meta); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	return meta, nil
}
