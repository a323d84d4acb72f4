package repository

import (
	"context"

	"github.com/since02/a-share-insight-web/internal/domain/models"
)

// Feed is one external data feed normalized to the internal Table schema.
// Implementations never panic and never return a mis-schemaed table: on any
// failure they return a correctly-schemaed empty table alongside the error,
// which callers use only for logging. Retries and fallback belong to the
// orchestrator, not the feed.
type Feed interface {
	Name() string
	Fetch(ctx context.Context) (models.Table, error)
}

// FeedFunc adapts a fetch function into a Feed.
type FeedFunc struct {
	FeedName string
	Fn       func(ctx context.Context) (models.Table, error)
}

func (f FeedFunc) Name() string { return f.FeedName }

func (f FeedFunc) Fetch(ctx context.Context) (models.Table, error) { return f.Fn(ctx) }

// NewFeed wraps a fetch function as a named Feed.
func NewFeed(name string, fn func(ctx context.Context) (models.Table, error)) Feed {
	return FeedFunc{FeedName: name, Fn: fn}
}

// KlineProvider fetches a recent daily kline for a single instrument.
type KlineProvider interface {
	SymbolKline(ctx context.Context, code string, days int) (models.Table, error)
}

// ChatService is an external text-generation service. The response is an
// opaque string embedded verbatim in the report.
type ChatService interface {
	Chat(ctx context.Context, system, user string) (string, error)
}
