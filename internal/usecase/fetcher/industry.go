package fetcher

import (
	"context"
	"fmt"

	"github.com/since02/a-share-insight-web/internal/domain/models"
	"github.com/since02/a-share-insight-web/internal/store"
	"github.com/since02/a-share-insight-web/pkg/logger"
)

// IndustryTable builds the stock-code → industry mapping table, memoized per
// day. One feed lists the industry boards; a second is called per board for
// its constituents. A failure on any single industry is skipped so the map
// may be partial; only a fully empty result counts as a failure.
func (f *Fetcher) IndustryTable(ctx context.Context) models.Table {
	return f.store.GetOrCompute(ctx, SetIndustryMap, nil, store.Daily, models.SchemaIndustryMap,
		func(ctx context.Context) (models.Table, error) {
			out := models.NewTable(models.SchemaIndustryMap...)

			if f.boards == nil || f.constituents == nil {
				return out, fmt.Errorf("industry map: feeds not configured")
			}

			f.recordAttempt(f.boards.Name())
			boards, err := f.boards.Fetch(ctx)
			if err != nil || boards.Empty() {
				f.recordFailure(f.boards.Name())
				return out, fmt.Errorf("industry map: board list unavailable: %w", err)
			}

			skipped := 0
			for i := 0; i < boards.Len(); i++ {
				code, _ := boards.StrAt(i, models.ColCode)
				name, _ := boards.StrAt(i, models.ColName)
				if code == "" || name == "" {
					continue
				}
				if err := f.limiter.Wait(ctx); err != nil {
					break
				}
				cons, err := f.constituents(ctx, code)
				if err != nil || cons.Empty() {
					skipped++
					f.log.Warn("industry constituents skipped",
						logger.String("industry", name), logger.Err(err))
					continue
				}
				for j := 0; j < cons.Len(); j++ {
					sc, _ := cons.StrAt(j, models.ColCode)
					if sc == "" {
						continue
					}
					_ = out.Append(models.Str(sc), models.Str(name))
				}
			}

			if out.Empty() {
				return out, fmt.Errorf("industry map: no constituents resolved")
			}
			if skipped > 0 {
				f.log.Info("industry map is partial", logger.Int("skipped", skipped))
			}
			return out, nil
		})
}

// IndustryMapOf converts the mapping table into a lookup map.
func IndustryMapOf(t models.Table) map[string]string {
	m := make(map[string]string, t.Len())
	for i := 0; i < t.Len(); i++ {
		code, _ := t.StrAt(i, models.ColCode)
		ind, _ := t.StrAt(i, models.ColIndustry)
		if code != "" && ind != "" {
			m[code] = ind
		}
	}
	return m
}
