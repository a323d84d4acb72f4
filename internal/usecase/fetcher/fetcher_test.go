package fetcher

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/since02/a-share-insight-web/internal/domain/models"
	"github.com/since02/a-share-insight-web/internal/domain/repository"
	"github.com/since02/a-share-insight-web/internal/store"
	"github.com/since02/a-share-insight-web/pkg/cache"
	"github.com/since02/a-share-insight-web/pkg/config"
	"github.com/since02/a-share-insight-web/pkg/logger"
)

func testStore(now time.Time) *store.Store {
	return store.New(cache.NewMemoryCache(), logger.Nop(),
		store.WithClock(func() time.Time { return now }))
}

func activityRows(up, down float64) models.Table {
	t := models.NewTable(models.SchemaActivity...)
	_ = t.Append(models.Float(up), models.Float(down))
	return t
}

func TestGetUsesFirstHealthyFeed(t *testing.T) {
	now := time.Date(2026, 8, 28, 16, 0, 0, 0, time.Local)

	var order []string
	failing := repository.NewFeed("primary", func(ctx context.Context) (models.Table, error) {
		order = append(order, "primary")
		return models.Table{}, fmt.Errorf("timeout")
	})
	healthy := repository.NewFeed("secondary", func(ctx context.Context) (models.Table, error) {
		order = append(order, "secondary")
		return activityRows(600, 400), nil
	})
	third := repository.NewFeed("tertiary", func(ctx context.Context) (models.Table, error) {
		order = append(order, "tertiary")
		return activityRows(1, 1), nil
	})

	f := New(Options{
		Store: testStore(now),
		Log:   logger.Nop(),
		Chains: []Chain{{
			Logical:     SetMarketActivity,
			Granularity: store.Hourly,
			Schema:      models.SchemaActivity,
			Feeds:       []repository.Feed{failing, healthy, third},
		}},
	})

	got := f.Get(context.Background(), SetMarketActivity)
	require.Equal(t, 1, got.Len())
	up, _ := got.FloatAt(0, models.ColUp)
	assert.Equal(t, 600.0, up)
	// The chain stops at the first feed that returns rows.
	assert.Equal(t, []string{"primary", "secondary"}, order)
}

func TestGetFallsBackToLastPersisted(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.Local)
	kv := cache.NewMemoryCache()
	ctx := context.Background()

	// A previous bucket holds an earlier table.
	earlier := store.New(kv, logger.Nop(), store.WithClock(func() time.Time { return now }))
	earlier.PutBucket(ctx, SetMarketActivity, nil, store.Hourly, activityRows(555, 445))

	dead := repository.NewFeed("dead", func(ctx context.Context) (models.Table, error) {
		return models.Table{}, fmt.Errorf("down")
	})

	// Two hours later the persisted entry sits in a stale bucket, so the
	// live chain runs (and fails) before the cache tier kicks in.
	later := now.Add(2 * time.Hour)
	f := New(Options{
		Store: store.New(kv, logger.Nop(),
			store.WithClock(func() time.Time { return later })),
		Log: logger.Nop(),
		Chains: []Chain{{
			Logical:     SetMarketActivity,
			Granularity: store.Hourly,
			Schema:      models.SchemaActivity,
			Feeds:       []repository.Feed{dead},
		}},
	})

	got := f.Get(ctx, SetMarketActivity)
	require.Equal(t, 1, got.Len())
	up, _ := got.FloatAt(0, models.ColUp)
	assert.Equal(t, 555.0, up)
}

func TestGetDegradesToSchemaedEmpty(t *testing.T) {
	now := time.Date(2026, 8, 28, 16, 0, 0, 0, time.Local)
	dead := repository.NewFeed("dead", func(ctx context.Context) (models.Table, error) {
		return models.Table{}, fmt.Errorf("down")
	})

	f := New(Options{
		Store: testStore(now),
		Log:   logger.Nop(),
		Chains: []Chain{{
			Logical:     SetMarketActivity,
			Granularity: store.Hourly,
			Schema:      models.SchemaActivity,
			Feeds:       []repository.Feed{dead},
		}},
	})

	got := f.Get(context.Background(), SetMarketActivity)
	assert.True(t, got.Empty())
	assert.True(t, got.HasCols(models.ColUp, models.ColDown))
}

// countingKline counts per-symbol fetches and returns a fixed healthy series.
type countingKline struct {
	mu    sync.Mutex
	calls map[string]int
}

func newCountingKline() *countingKline {
	return &countingKline{calls: make(map[string]int)}
}

func (k *countingKline) SymbolKline(ctx context.Context, code string, days int) (models.Table, error) {
	k.mu.Lock()
	k.calls[code]++
	k.mu.Unlock()

	t := models.NewTable(models.SchemaIndexDaily...)
	day := time.Date(2026, 8, 1, 0, 0, 0, 0, time.Local)
	for i := 0; i < 21; i++ {
		_ = t.Append(models.Time(day.AddDate(0, 0, i)), models.Float(1.0+float64(i)*0.01), models.Float(1e8))
	}
	return t, nil
}

func (k *countingKline) total() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	n := 0
	for _, c := range k.calls {
		n += c
	}
	return n
}

func symbolUniverse(n int) []config.Symbol {
	out := make([]config.Symbol, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, config.Symbol{
			Code: fmt.Sprintf("sh5%05d", i),
			Name: fmt.Sprintf("ETF%02d", i),
		})
	}
	return out
}

func TestFetchSnapshotsResumesFromCheckpoint(t *testing.T) {
	now := time.Date(2026, 8, 28, 16, 0, 0, 0, time.Local)
	st := testStore(now)
	ctx := context.Background()
	universe := symbolUniverse(30)

	// Simulate an interrupted earlier run that completed 12 of 30 symbols.
	partial := models.NewTable(models.SchemaSnapshot...)
	for _, s := range universe[:12] {
		_ = partial.Append(models.Str(s.Code), models.Str(s.Name),
			models.Float(1.0), models.Float(1.0), models.Float(1.0))
	}
	st.PutBucket(ctx, SetSymbolSnapshots, nil, store.Daily, partial)

	kline := newCountingKline()
	f := New(Options{
		Store:   st,
		Log:     logger.Nop(),
		Kline:   kline,
		Workers: 5,
	})

	got := f.FetchSnapshots(ctx, universe)

	assert.Equal(t, 18, kline.total(), "only the unfinished symbols are fetched")
	require.Equal(t, 30, got.Len())

	seen := make(map[string]bool, got.Len())
	for i := 0; i < got.Len(); i++ {
		code, _ := got.StrAt(i, models.ColCode)
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
}

func TestFetchSnapshotsDedupesInput(t *testing.T) {
	now := time.Date(2026, 8, 28, 16, 0, 0, 0, time.Local)
	kline := newCountingKline()
	f := New(Options{
		Store:   testStore(now),
		Log:     logger.Nop(),
		Kline:   kline,
		Workers: 2,
	})

	dup := []config.Symbol{
		{Code: "sh510300", Name: "沪深300ETF"},
		{Code: "sh510300", Name: "沪深300ETF"},
		{Code: "sh512880", Name: "证券ETF"},
	}
	got := f.FetchSnapshots(context.Background(), dup)
	assert.Equal(t, 2, got.Len())
	assert.Equal(t, 2, kline.total())
}

func TestIndustryTableToleratesPartialFailures(t *testing.T) {
	now := time.Date(2026, 8, 28, 16, 0, 0, 0, time.Local)

	boards := repository.NewFeed("boards", func(ctx context.Context) (models.Table, error) {
		t := models.NewTable(models.SchemaBoards...)
		_ = t.Append(models.Str("BK001"), models.Str("半导体"))
		_ = t.Append(models.Str("BK002"), models.Str("煤炭"))
		_ = t.Append(models.Str("BK003"), models.Str("银行"))
		return t, nil
	})
	constituents := func(ctx context.Context, boardCode string) (models.Table, error) {
		if boardCode == "BK002" {
			return models.Table{}, fmt.Errorf("board endpoint 500")
		}
		t := models.NewTable(models.SchemaBoards...)
		_ = t.Append(models.Str("60"+boardCode), models.Str("股票"))
		return t, nil
	}

	f := New(Options{
		Store:         testStore(now),
		Log:           logger.Nop(),
		Boards:        boards,
		Constituents:  constituents,
		IndustryDelay: time.Millisecond,
	})

	got := f.IndustryTable(context.Background())
	require.Equal(t, 2, got.Len())

	m := IndustryMapOf(got)
	assert.Equal(t, "半导体", m["60BK001"])
	assert.Equal(t, "银行", m["60BK003"])
}

func TestIndustryTableEmptyIsFailure(t *testing.T) {
	now := time.Date(2026, 8, 28, 16, 0, 0, 0, time.Local)
	boards := repository.NewFeed("boards", func(ctx context.Context) (models.Table, error) {
		return models.Table{}, fmt.Errorf("down")
	})
	f := New(Options{
		Store:         testStore(now),
		Log:           logger.Nop(),
		Boards:        boards,
		Constituents:  func(ctx context.Context, code string) (models.Table, error) { return models.Table{}, nil },
		IndustryDelay: time.Millisecond,
	})

	got := f.IndustryTable(context.Background())
	assert.True(t, got.Empty())
	assert.True(t, got.HasCols(models.ColCode, models.ColIndustry))
}
