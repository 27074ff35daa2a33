// Package storage keeps picker resume records in SQLite: the last session
// context of each named picker, so that a picker can be reopened where it
// was left.
package storage

import (
	"context"
	"time"

	"github.com/runger/sift/internal/picker"
)

// Store defines the resume operations.
type Store interface {
	SaveContext(ctx context.Context, name string, pc picker.Context) error
	LoadContext(ctx context.Context, name string) (*picker.Context, error)
	DeleteContext(ctx context.Context, name string) error
	ListContexts(ctx context.Context) ([]Record, error)
	PruneContexts(ctx context.Context, olderThan time.Time) (int64, error)

	Close() error
}

// Record is a stored resume context.
type Record struct {
	Name    string
	Context picker.Context
	SavedAt time.Time
}
