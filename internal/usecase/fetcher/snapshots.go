package fetcher

import (
	"context"
	"sync"

	"github.com/since02/a-share-insight-web/internal/domain/models"
	"github.com/since02/a-share-insight-web/internal/store"
	"github.com/since02/a-share-insight-web/pkg/config"
	"github.com/since02/a-share-insight-web/pkg/logger"
)

// FetchSnapshots pulls a per-symbol technical snapshot (close, MA5, MA20) for
// the instrument universe through a bounded worker pool. Completed items are
// checkpointed to the daily progress entry as they land, so an interrupted
// run resumes with only the missing symbols. The result is deduplicated by
// code.
func (f *Fetcher) FetchSnapshots(ctx context.Context, symbols []config.Symbol) models.Table {
	progress, ok := f.store.GetBucket(ctx, SetSymbolSnapshots, nil, store.Daily)
	if !ok || !progress.HasCols(models.ColCode, models.ColClose) {
		progress = models.NewTable(models.SchemaSnapshot...)
	}

	done := make(map[string]bool, progress.Len())
	for i := 0; i < progress.Len(); i++ {
		code, _ := progress.StrAt(i, models.ColCode)
		done[code] = true
	}

	var pending []config.Symbol
	seen := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		if seen[s.Code] || done[s.Code] {
			continue
		}
		seen[s.Code] = true
		pending = append(pending, s)
	}
	if len(pending) == 0 {
		return dedupeByCode(progress)
	}
	f.log.Info("fetching symbol snapshots",
		logger.Int("pending", len(pending)), logger.Int("resumed", progress.Len()))

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, f.workers)
	)
	for _, sym := range pending {
		wg.Add(1)
		sem <- struct{}{}
		go func(sym config.Symbol) {
			defer wg.Done()
			defer func() { <-sem }()

			row := f.snapshotRow(ctx, sym)

			mu.Lock()
			defer mu.Unlock()
			_ = progress.Append(row...)
			// checkpoint each completed item so a crash loses at most
			// the in-flight fetches
			f.store.PutBucket(ctx, SetSymbolSnapshots, nil, store.Daily, progress)
		}(sym)
	}
	wg.Wait()

	return dedupeByCode(progress)
}

// snapshotRow fetches one symbol's recent kline and derives its snapshot.
// A failed or too-short series yields a zeroed row; the scorer treats those
// as the weakest technical state rather than dropping the symbol.
func (f *Fetcher) snapshotRow(ctx context.Context, sym config.Symbol) []models.Value {
	zero := []models.Value{
		models.Str(sym.Code), models.Str(sym.Name),
		models.Float(0), models.Float(0), models.Float(0),
	}
	if f.kline == nil {
		return zero
	}

	t, err := f.kline.SymbolKline(ctx, sym.Code, f.snapshotDays)
	if err != nil {
		f.log.Warn("symbol kline failed", logger.String("code", sym.Code), logger.Err(err))
		return zero
	}
	n := t.Len()
	if n < 20 {
		f.log.Warn("symbol kline too short",
			logger.String("code", sym.Code), logger.Int("bars", n))
		return zero
	}

	closeV, _ := t.LastFloat(models.ColClose)
	return []models.Value{
		models.Str(sym.Code), models.Str(sym.Name),
		models.Float(closeV),
		models.Float(meanTail(t, models.ColClose, 5)),
		models.Float(meanTail(t, models.ColClose, 20)),
	}
}

// meanTail averages the last n values of a float column.
func meanTail(t models.Table, col string, n int) float64 {
	if t.Len() < n || n <= 0 {
		return 0
	}
	sum := 0.0
	for i := t.Len() - n; i < t.Len(); i++ {
		v, _ := t.FloatAt(i, col)
		sum += v
	}
	return sum / float64(n)
}

// dedupeByCode keeps the first row per code.
func dedupeByCode(t models.Table) models.Table {
	out := models.Table{Cols: t.Cols}
	seen := make(map[string]bool, t.Len())
	for i, row := range t.Rows {
		code, _ := t.StrAt(i, models.ColCode)
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		out.Rows = append(out.Rows, row)
	}
	return out
}
