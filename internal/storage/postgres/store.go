package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"transferScan/internal/aggregate"
	"transferScan/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS transfers (
	tx_hash      TEXT    NOT NULL,
	log_index    BIGINT  NOT NULL,
	block_number BIGINT  NOT NULL,
	token        TEXT    NOT NULL,
	from_address TEXT    NOT NULL,
	to_address   TEXT    NOT NULL,
	value        NUMERIC NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (tx_hash, log_index)
);
CREATE TABLE IF NOT EXISTS scan_checkpoints (
	name         TEXT    PRIMARY KEY,
	next_block   BIGINT  NOT NULL,
	events       BIGINT  NOT NULL,
	traces       BIGINT  NOT NULL,
	transactions BIGINT  NOT NULL,
	logs         BIGINT  NOT NULL,
	blocks       BIGINT  NOT NULL,
	total_value  NUMERIC NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL
);`

// Store provides Postgres persistence for transfers and checkpoints.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// EnsureSchema creates the tables used by the scanner.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// PutTransfers inserts transfers, ignoring rows already stored.
func (s *Store) PutTransfers(ctx context.Context, transfers []model.Transfer) error {
	if len(transfers) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, t := range transfers {
		batch.Queue(`
			INSERT INTO transfers (
				tx_hash, log_index, block_number, token, from_address, to_address, value
			) VALUES ($1, $2, $3, $4, $5, $6, $7::numeric)
			ON CONFLICT (tx_hash, log_index) DO NOTHING
		`,
			t.TxHash,
			int64(t.LogIndex),
			int64(t.BlockNumber),
			t.Token,
			t.From,
			t.To,
			t.Value,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range transfers {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// CheckpointRow is the persisted form of a scan checkpoint.
type CheckpointRow struct {
	NextBlock uint64
	Totals    aggregate.Snapshot
	UpdatedAt string
}

// LoadCheckpoint returns the checkpoint stored under name.
func (s *Store) LoadCheckpoint(ctx context.Context, name string) (CheckpointRow, bool, error) {
	if name == "" {
		return CheckpointRow{}, false, fmt.Errorf("checkpoint name required")
	}
	var (
		row                                     CheckpointRow
		next, events, traces, txs, logs, blocks int64
		totalValue, updatedAt                   string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT next_block, events, traces, transactions, logs, blocks, total_value::text, updated_at::text
		FROM scan_checkpoints WHERE name=$1
	`, name).Scan(&next, &events, &traces, &txs, &logs, &blocks, &totalValue, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CheckpointRow{}, false, nil
		}
		return CheckpointRow{}, false, err
	}
	value, ok := new(big.Int).SetString(totalValue, 10)
	if !ok {
		return CheckpointRow{}, false, fmt.Errorf("invalid total_value: %s", totalValue)
	}
	row.NextBlock = uint64(next)
	row.Totals = aggregate.Snapshot{
		Events:       uint64(events),
		Traces:       uint64(traces),
		Transactions: uint64(txs),
		Logs:         uint64(logs),
		Blocks:       uint64(blocks),
		TotalValue:   value,
	}
	row.UpdatedAt = updatedAt
	return row, true, nil
}

// SaveCheckpoint upserts the checkpoint stored under name.
func (s *Store) SaveCheckpoint(ctx context.Context, name string, row CheckpointRow) error {
	if name == "" {
		return fmt.Errorf("checkpoint name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO scan_checkpoints (
			name, next_block, events, traces, transactions, logs, blocks, total_value, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric, now())
		ON CONFLICT (name) DO UPDATE SET
			next_block = EXCLUDED.next_block,
			events = EXCLUDED.events,
			traces = EXCLUDED.traces,
			transactions = EXCLUDED.transactions,
			logs = EXCLUDED.logs,
			blocks = EXCLUDED.blocks,
			total_value = EXCLUDED.total_value,
			updated_at = now()
	`,
		name,
		int64(row.NextBlock),
		int64(row.Totals.Events),
		int64(row.Totals.Traces),
		int64(row.Totals.Transactions),
		int64(row.Totals.Logs),
		int64(row.Totals.Blocks),
		row.Totals.TotalValueString(),
	)
	return err
}

// TransferSink adapts Store to the storage.Sink interface without closing
// the shared pool.
type TransferSink struct {
	Store *Store
}

func (t TransferSink) PutTransfers(ctx context.Context, transfers []model.Transfer) error {
	return t.Store.PutTransfers(ctx, transfers)
}

func (t TransferSink) Close() error { return nil }
