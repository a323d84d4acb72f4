package analysis

import (
	"github.com/since02/a-share-insight-web/internal/domain/models"
)

// SectorHeat scores every industry by blending the percentile rank of its
// rising-stock count with the percentile rank of its net fund inflow. The
// rising counts come from the spot snapshot joined against the industry
// constituent map; the inflows from the sector fund flow table.
func SectorHeat(rc *models.RunContext, industryMap map[string]string) models.Indicator {
	flows := rc.Table(models.TblSectorFundFlow)
	if flows.Empty() {
		return models.Unavailable(models.IndSectorHeat)
	}

	rising := risingCounts(rc.Table(models.TblSpotSnapshot), industryMap)

	type sectorRow struct {
		name   string
		rising float64
		inflow float64
	}
	rows := make([]sectorRow, 0, flows.Len())
	for i := 0; i < flows.Len(); i++ {
		name, ok := flows.StrAt(i, models.ColName)
		if !ok || name == "" {
			continue
		}
		inflow, _ := flows.FloatAt(i, models.ColNetInflow)
		rows = append(rows, sectorRow{name: name, rising: float64(rising[name]), inflow: inflow})
	}
	if len(rows) == 0 {
		return models.Unavailable(models.IndSectorHeat)
	}

	risingVals := make([]float64, len(rows))
	inflowVals := make([]float64, len(rows))
	for i, r := range rows {
		risingVals[i] = r.rising
		inflowVals[i] = r.inflow
	}

	ranked := models.NewTable(
		models.Column{Name: models.ColName, Kind: models.KindString},
		models.Column{Name: models.ColHeat, Kind: models.KindFloat},
		models.Column{Name: models.ColRisingCount, Kind: models.KindFloat},
		models.Column{Name: models.ColNetInflow, Kind: models.KindFloat},
	)
	for _, r := range rows {
		heat := HeatRisingWeight*pctRank(risingVals, r.rising) + HeatInflowWeight*pctRank(inflowVals, r.inflow)
		_ = ranked.Append(models.Str(r.name), models.Float(heat), models.Float(r.rising), models.Float(r.inflow))
	}
	ranked = ranked.SortByFloatDesc(models.ColHeat)

	return models.Indicator{
		Name:      models.IndSectorHeat,
		Available: true,
		Ranked:    ranked,
	}
}

// pctRank is the inclusive percentile rank of v within vals, in (0, 100].
// Every value ranks at least itself, so the maximum always scores 100.
func pctRank(vals []float64, v float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	le := 0
	for _, x := range vals {
		if x <= v {
			le++
		}
	}
	return float64(le) / float64(len(vals)) * 100
}

// risingCounts tallies rising spot symbols per industry display name.
func risingCounts(spot models.Table, industryMap map[string]string) map[string]int {
	counts := make(map[string]int)
	for i := 0; i < spot.Len(); i++ {
		pct, ok := spot.FloatAt(i, models.ColPctChg)
		if !ok || pct <= 0 {
			continue
		}
		code, ok := spot.StrAt(i, models.ColCode)
		if !ok {
			continue
		}
		if industry, ok := industryMap[code]; ok && industry != "" {
			counts[industry]++
		}
	}
	return counts
}
