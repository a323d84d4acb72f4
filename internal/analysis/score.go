package analysis

import (
	"github.com/since02/a-share-insight-web/internal/domain/models"
)

// SymbolScores grades every tracked symbol: a moving-average base score
// adjusted by the heat of the symbol's theme, clamped to [0, 5]. Symbols
// whose kline could not be fetched score the neutral base untouched by a
// heat adjustment they cannot earn.
func SymbolScores(rc *models.RunContext, sectorHeat models.Indicator) models.Indicator {
	snaps := rc.Table(models.TblSymbolSnapshots)
	if snaps.Empty() {
		return models.Unavailable(models.IndSymbolScores)
	}

	themeHeat := themeHeatMap(sectorHeat)

	ranked := models.NewTable(
		models.Column{Name: models.ColCode, Kind: models.KindString},
		models.Column{Name: models.ColName, Kind: models.KindString},
		models.Column{Name: models.ColTheme, Kind: models.KindString},
		models.Column{Name: models.ColScore, Kind: models.KindFloat},
	)
	for i := 0; i < snaps.Len(); i++ {
		code, _ := snaps.StrAt(i, models.ColCode)
		name, _ := snaps.StrAt(i, models.ColName)
		close, _ := snaps.FloatAt(i, models.ColClose)
		ma5, _ := snaps.FloatAt(i, models.ColMA5)
		ma20, _ := snaps.FloatAt(i, models.ColMA20)

		theme := ThemeFor(name)
		score := maBase(close, ma5, ma20)
		if heat, ok := themeHeat[theme]; ok && close > 0 {
			score += (heat - HeatAdjustCenter) / HeatAdjustScale
		}
		score = clamp(score, ScoreMin, ScoreMax)
		_ = ranked.Append(models.Str(code), models.Str(name), models.Str(theme), models.Float(score))
	}
	ranked = ranked.SortByFloatDesc(models.ColScore)

	return models.Indicator{
		Name:      models.IndSymbolScores,
		Available: true,
		Ranked:    ranked,
	}
}

// maBase grades the price against its 5- and 20-day moving averages. A
// zeroed row (failed kline) gets the neutral midpoint.
func maBase(close, ma5, ma20 float64) float64 {
	if close <= 0 || ma20 <= 0 {
		return ScoreNeutral
	}
	switch {
	case close > ma20 && ma5 > ma20:
		if close > ma5 {
			return ScoreBullish
		}
		return ScoreBullishPull
	case close < ma20:
		return ScoreBearish
	default:
		return ScoreNeutral
	}
}

// themeHeatMap folds the per-sector heat table into per-theme averages,
// classifying sector names through the same keyword rules as symbols.
func themeHeatMap(sectorHeat models.Indicator) map[string]float64 {
	out := make(map[string]float64)
	if !sectorHeat.Available {
		return out
	}
	sums := make(map[string]float64)
	counts := make(map[string]int)
	t := sectorHeat.Ranked
	for i := 0; i < t.Len(); i++ {
		name, ok := t.StrAt(i, models.ColName)
		if !ok {
			continue
		}
		heat, ok := t.FloatAt(i, models.ColHeat)
		if !ok {
			continue
		}
		theme := ThemeFor(name)
		sums[theme] += heat
		counts[theme]++
	}
	for theme, sum := range sums {
		out[theme] = sum / float64(counts[theme])
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
