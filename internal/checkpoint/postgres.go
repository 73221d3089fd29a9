package checkpoint

import (
	"context"

	"transferScan/internal/storage/postgres"
)

// PostgresStore keeps checkpoints in the scan_checkpoints table.
type PostgresStore struct {
	Store *postgres.Store
	Name  string
}

func (s *PostgresStore) Load(ctx context.Context) (Checkpoint, bool, error) {
	row, ok, err := s.Store.LoadCheckpoint(ctx, s.Name)
	if err != nil || !ok {
		return Checkpoint{}, ok, err
	}
	return Checkpoint{
		NextBlock: row.NextBlock,
		Totals:    row.Totals,
		UpdatedAt: row.UpdatedAt,
	}, true, nil
}

func (s *PostgresStore) Save(ctx context.Context, cp Checkpoint) error {
	return s.Store.SaveCheckpoint(ctx, s.Name, postgres.CheckpointRow{
		NextBlock: cp.NextBlock,
		Totals:    cp.Totals,
	})
}

// Close is a no-op; the postgres.Store is owned by the caller.
func (s *PostgresStore) Close() error { return nil }
