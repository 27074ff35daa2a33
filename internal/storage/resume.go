package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/runger/sift/internal/picker"
)

// ErrContextNotFound is returned when no context is stored under a name.
var ErrContextNotFound = errors.New("resume context not found")

// errNameRequired is the validation message for a missing picker name.
const errNameRequired = "picker name is required"

// SaveContext stores pc as the resume context of name, replacing any
// previous one.
func (s *SQLiteStore) SaveContext(ctx context.Context, name string, pc picker.Context) error {
	if name == "" {
		return errors.New(errNameRequired)
	}
	selected, err := encodeSelected(pc.Selected)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO resume (name, query, cursor_index, selected, saved_at_unix_ms)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			query = excluded.query,
			cursor_index = excluded.cursor_index,
			selected = excluded.selected,
			saved_at_unix_ms = excluded.saved_at_unix_ms
	`, name, pc.Query, pc.Index, selected, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save context %s: %w", name, err)
	}
	return nil
}

// LoadContext returns the resume context of name.
func (s *SQLiteStore) LoadContext(ctx context.Context, name string) (*picker.Context, error) {
	if name == "" {
		return nil, errors.New(errNameRequired)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT name, query, cursor_index, selected, saved_at_unix_ms
		FROM resume WHERE name = ?
	`, name)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContextNotFound
		}
		return nil, fmt.Errorf("failed to load context %s: %w", name, err)
	}
	return &rec.Context, nil
}

// DeleteContext removes the resume context of name.
func (s *SQLiteStore) DeleteContext(ctx context.Context, name string) error {
	if name == "" {
		return errors.New(errNameRequired)
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM resume WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete context %s: %w", name, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrContextNotFound
	}
	return nil
}

// ListContexts returns every stored context, most recently saved first.
func (s *SQLiteStore) ListContexts(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, query, cursor_index, selected, saved_at_unix_ms
		FROM resume ORDER BY saved_at_unix_ms DESC, name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list contexts: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan context: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list contexts: %w", err)
	}
	return records, nil
}

// PruneContexts deletes contexts saved before olderThan and returns how
// many were removed.
func (s *SQLiteStore) PruneContexts(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM resume WHERE saved_at_unix_ms < ?
	`, olderThan.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to prune contexts: %w", err)
	}
	return result.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec      Record
		selected []byte
		savedAt  int64
	)
	if err := row.Scan(&rec.Name, &rec.Context.Query, &rec.Context.Index, &selected, &savedAt); err != nil {
		return Record{}, err
	}
	ids, err := decodeSelected(selected)
	if err != nil {
		return Record{}, fmt.Errorf("context %s: %w", rec.Name, err)
	}
	rec.Context.Selected = ids
	rec.SavedAt = time.UnixMilli(savedAt)
	return rec, nil
}

func encodeSelected(ids []string) ([]byte, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	b, err := msgpack.Marshal(ids)
	if err != nil {
		return nil, fmt.Errorf("encode selected: %w", err)
	}
	return b, nil
}

func decodeSelected(b []byte) ([]string, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var ids []string
	if err := msgpack.Unmarshal(b, &ids); err != nil {
		return nil, fmt.Errorf("decode selected: %w", err)
	}
	return ids, nil
}

var _ Store = (*SQLiteStore)(nil)
