// Package fetcher drives the data-acquisition resilience layer: every
// logical data set is tried live through a priority chain of feeds, then
// against the last persisted cache entry, and finally degrades to an
// explicitly empty table that the metrics layer substitutes defaults for.
package fetcher

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/since02/a-share-insight-web/internal/domain/models"
	"github.com/since02/a-share-insight-web/internal/domain/repository"
	"github.com/since02/a-share-insight-web/internal/store"
	"github.com/since02/a-share-insight-web/pkg/config"
	"github.com/since02/a-share-insight-web/pkg/logger"
	"github.com/since02/a-share-insight-web/pkg/metrics"
)

// Logical data set names, aliased from the domain layer for chain wiring.
const (
	SetIndexDailySH     = models.TblIndexDailySH
	SetIndexDailySZ     = models.TblIndexDailySZ
	SetMarketActivity   = models.TblMarketActivity
	SetSectorFundFlow   = models.TblSectorFundFlow
	SetMarketFundFlow   = models.TblMarketFundFlow
	SetMarginSH         = models.TblMarginSH
	SetMarginSZ         = models.TblMarginSZ
	SetNorthFlow        = models.TblNorthFlow
	SetCongestion       = models.TblCongestion
	SetRisingVolumeRank = models.TblRisingVolumeRank
	SetSpotSnapshot     = models.TblSpotSnapshot
	SetIndustryMap      = models.TblIndustryMap
	SetSymbolSnapshots  = models.TblSymbolSnapshots
)

// Chain is one logical data set with its prioritized feeds.
type Chain struct {
	Logical     string
	Granularity store.Granularity
	Schema      []models.Column
	Feeds       []repository.Feed
}

// ConstituentsFn fetches the member codes of one industry board.
type ConstituentsFn func(ctx context.Context, boardCode string) (models.Table, error)

// Options assembles a Fetcher.
type Options struct {
	Store    *store.Store
	Log      *logger.Logger
	Recorder *metrics.Recorder // optional

	Chains  []Chain
	Extends map[string]store.ExtendProducer // incremental base series per logical name

	Boards        repository.Feed
	Constituents  ConstituentsFn
	IndustryDelay time.Duration

	Kline        repository.KlineProvider
	Workers      int
	SnapshotDays int
}

// Fetcher is the resilient fetch orchestrator for one run.
type Fetcher struct {
	store *store.Store
	log   *logger.Logger
	rec   *metrics.Recorder

	chains  map[string]Chain
	extends map[string]store.ExtendProducer

	boards       repository.Feed
	constituents ConstituentsFn
	limiter      *rate.Limiter

	kline        repository.KlineProvider
	workers      int
	snapshotDays int
}

// New creates a Fetcher.
func New(opts Options) *Fetcher {
	chains := make(map[string]Chain, len(opts.Chains))
	for _, ch := range opts.Chains {
		chains[ch.Logical] = ch
	}
	delay := opts.IndustryDelay
	if delay <= 0 {
		delay = 300 * time.Millisecond
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 5
	}
	days := opts.SnapshotDays
	if days <= 0 {
		days = 21
	}
	return &Fetcher{
		store:        opts.Store,
		log:          opts.Log,
		rec:          opts.Recorder,
		chains:       chains,
		extends:      opts.Extends,
		boards:       opts.Boards,
		constituents: opts.Constituents,
		limiter:      rate.NewLimiter(rate.Every(delay), 1),
		kline:        opts.Kline,
		workers:      workers,
		snapshotDays: days,
	}
}

// Get resolves one logical data set through the three-tier fallback:
// live chain, last persisted cache entry, schemaed empty table. Rows from
// different sources are never mixed.
func (f *Fetcher) Get(ctx context.Context, logical string) models.Table {
	ch, ok := f.chains[logical]
	if !ok {
		f.log.Warn("unknown logical data set", logger.String("logical", logical))
		return models.Table{}
	}

	t := f.store.GetOrCompute(ctx, ch.Logical, nil, ch.Granularity, ch.Schema, func(ctx context.Context) (models.Table, error) {
		return f.fetchLive(ctx, ch)
	})
	if !t.Empty() {
		return t
	}

	if prev, ok := f.store.Latest(ctx, logical); ok && !prev.Empty() {
		f.recordFallback(logical, "cache")
		f.log.Info("using last persisted table", logger.String("logical", logical))
		return prev
	}

	f.recordFallback(logical, "empty")
	f.log.Warn("all tiers empty, degrading to defaults", logger.String("logical", logical))
	return models.EmptyTable(ch.Schema...)
}

// fetchLive walks the chain and returns the first non-empty table.
func (f *Fetcher) fetchLive(ctx context.Context, ch Chain) (models.Table, error) {
	for _, feed := range ch.Feeds {
		f.recordAttempt(feed.Name())
		t, err := feed.Fetch(ctx)
		if err != nil {
			f.recordFailure(feed.Name())
			f.log.Warn("feed failed", logger.String("feed", feed.Name()), logger.Err(err))
			continue
		}
		if t.Empty() {
			f.recordFailure(feed.Name())
			f.log.Warn("feed returned no rows", logger.String("feed", feed.Name()))
			continue
		}
		f.log.Debug("feed ok", logger.String("feed", feed.Name()), logger.Int("rows", t.Len()))
		return t, nil
	}
	return models.EmptyTable(ch.Schema...), fmt.Errorf("%s: every adapter came back empty", ch.Logical)
}

// IndexDaily resolves an index series: the incrementally-extended base
// history when it is healthy, otherwise the regular live chain.
func (f *Fetcher) IndexDaily(ctx context.Context, logical string) models.Table {
	if ext, ok := f.extends[logical]; ok {
		base := f.store.GetOrExtend(ctx, logical, models.ColDate, ext)
		if !base.Empty() {
			return base
		}
	}
	return f.Get(ctx, logical)
}

// FetchAll populates the run context with every logical data set, the
// industry map and the per-symbol snapshots.
func (f *Fetcher) FetchAll(ctx context.Context, rc *models.RunContext, symbols []config.Symbol) {
	rc.SetTable(SetIndexDailySH, f.IndexDaily(ctx, SetIndexDailySH))
	rc.SetTable(SetIndexDailySZ, f.IndexDaily(ctx, SetIndexDailySZ))

	for _, logical := range []string{
		SetMarketActivity,
		SetSectorFundFlow,
		SetMarketFundFlow,
		SetMarginSH,
		SetMarginSZ,
		SetNorthFlow,
		SetCongestion,
		SetRisingVolumeRank,
		SetSpotSnapshot,
	} {
		rc.SetTable(logical, f.Get(ctx, logical))
	}

	rc.SetTable(SetIndustryMap, f.IndustryTable(ctx))
	rc.SetTable(SetSymbolSnapshots, f.FetchSnapshots(ctx, symbols))
}

func (f *Fetcher) recordAttempt(feed string) {
	if f.rec != nil {
		f.rec.RecordFetchAttempt(feed)
	}
}

func (f *Fetcher) recordFailure(feed string) {
	if f.rec != nil {
		f.rec.RecordFetchFailure(feed)
	}
}

func (f *Fetcher) recordFallback(logical, tier string) {
	if f.rec != nil {
		f.rec.RecordFallback(logical, tier)
	}
}
