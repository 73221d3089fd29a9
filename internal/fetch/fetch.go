// Package fetch defines the page source consumed by the scan loop and its
// JSON-RPC implementation.
package fetch

import (
	"context"
	"errors"

	"transferScan/internal/model"
)

// ErrExhausted reports that no more data is available right now: the query
// start is past the chain tip.
var ErrExhausted = errors.New("stream exhausted")

// Fetcher returns the page starting at q.FromBlock. Implementations return
// ErrExhausted instead of a page once the source has nothing more to serve.
type Fetcher interface {
	Fetch(ctx context.Context, q model.Query) (*model.Page, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, q model.Query) (*model.Page, error)

func (f FetcherFunc) Fetch(ctx context.Context, q model.Query) (*model.Page, error) {
	return f(ctx, q)
}

//go:generate mockgen -destination=../mocks/fetcher.go -package=mocks transferScan/internal/fetch Fetcher
