// Package checkpoint persists the scan cursor and running totals so an
// interrupted scan can resume.
package checkpoint

import (
	"context"

	"transferScan/internal/aggregate"
)

// Checkpoint is the resume point of a scan.
type Checkpoint struct {
	NextBlock uint64             `json:"next_block"`
	Totals    aggregate.Snapshot `json:"totals"`
	UpdatedAt string             `json:"updated_at"`
}

// Store loads and saves checkpoints.
type Store interface {
	Load(ctx context.Context) (Checkpoint, bool, error)
	Save(ctx context.Context, cp Checkpoint) error
	Close() error
}

// Nop is a Store that never persists anything.
type Nop struct{}

func (Nop) Load(context.Context) (Checkpoint, bool, error) { return Checkpoint{}, false, nil }
func (Nop) Save(context.Context, Checkpoint) error         { return nil }
func (Nop) Close() error                                   { return nil }
