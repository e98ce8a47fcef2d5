// Package store defines where the exchange-rate service keeps its resolved
// quote. The default is an in-process MemoryStore; RedisStore shares the
// quote between several server instances.
package store

import (
	"context"
	"errors"

	"github.com/investcalc/calc-engine/internal/model"
)

// ErrNotFound is returned by Load when no quote has been stored yet.
var ErrNotFound = errors.New("store: no quote stored")

// QuoteStore holds at most one quote. Save replaces the previous quote
// atomically; Load never returns a partially written quote.
type QuoteStore interface {
	// Load returns the stored quote, or ErrNotFound.
	Load(ctx context.Context) (model.Quote, error)

	// Save replaces the stored quote.
	Save(ctx context.Context, q model.Quote) error
}
