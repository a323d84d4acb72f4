package analysis

import (
	"fmt"
	"time"

	"github.com/since02/a-share-insight-web/internal/domain/models"
	"github.com/since02/a-share-insight-web/pkg/util"
)

// Turnover sums the latest Shanghai and Shenzhen index amounts into a
// whole-market turnover figure in 亿元, extrapolates intraday readings to a
// full session, and grades the result against the reference average.
func Turnover(rc *models.RunContext, now time.Time) models.Indicator {
	sh := rc.Table(models.TblIndexDailySH)
	sz := rc.Table(models.TblIndexDailySZ)
	if sh.Empty() && sz.Empty() {
		return models.Unavailable(models.IndTurnover)
	}

	today := lastAmount(sh, 0) + lastAmount(sz, 0)
	if today <= 0 {
		return models.Unavailable(models.IndTurnover)
	}
	if rc.Mode != models.ModePostMarket {
		if elapsed := util.ElapsedTradingMinutes(now); elapsed > 0 && elapsed < util.FullDayMinutes {
			today = today * util.FullDayMinutes / float64(elapsed)
		}
	}

	ind := models.Indicator{
		Name:      models.IndTurnover,
		Available: true,
		Scalar:    today,
		Label:     turnoverBand(today),
	}

	prev := lastAmount(sh, 1) + lastAmount(sz, 1)
	if prev > 0 {
		delta := today - prev
		verb := "放量"
		if delta < 0 {
			verb = "缩量"
			delta = -delta
		}
		ind.Reason = fmt.Sprintf("%s %.0f亿", verb, delta)
	}
	return ind
}

func turnoverBand(amount float64) string {
	switch {
	case amount < ReferenceAvgAmount*TurnoverLowRatio:
		return TurnoverShrink
	case amount < ReferenceAvgAmount*TurnoverMidRatio:
		return TurnoverNormal
	case amount < ReferenceAvgAmount*TurnoverHighRatio:
		return TurnoverHeavy
	default:
		return TurnoverExtrem
	}
}

// lastAmount returns the amount column offset rows from the end, in 亿元.
// Missing rows or columns contribute zero so one absent exchange does not
// sink the whole metric.
func lastAmount(t models.Table, offset int) float64 {
	row := t.Len() - 1 - offset
	if row < 0 {
		return 0
	}
	v, ok := t.FloatAt(row, models.ColAmount)
	if !ok || v <= 0 {
		return 0
	}
	return v / 1e8
}
