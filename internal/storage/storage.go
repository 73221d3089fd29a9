package storage

import (
	"context"

	"transferScan/internal/model"
)

//go:generate mockgen -destination=../mocks/sink.go -package=mocks transferScan/internal/storage Sink

// Sink receives decoded transfers, one batch per scanned page.
type Sink interface {
	PutTransfers(ctx context.Context, transfers []model.Transfer) error
	Close() error
}
