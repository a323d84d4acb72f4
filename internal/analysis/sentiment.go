package analysis

import (
	"fmt"

	"github.com/since02/a-share-insight-web/internal/domain/models"
)

// Sentiment derives the profit effect from the advance/decline counts and
// annotates it with the trading congestion reading. An empty activity table
// degrades to the neutral default instead of dropping the indicator, so the
// report always carries a sentiment section.
func Sentiment(rc *models.RunContext) models.Indicator {
	up, down := advanceDecline(rc.Table(models.TblMarketActivity))

	profit := DefaultProfitEffect
	if up+down > 0 {
		profit = up / (up + down) * 100
	}

	ind := models.Indicator{
		Name:      models.IndSentiment,
		Available: true,
		Scalar:    profit,
		Label:     sentimentLabel(profit),
		Reason:    fmt.Sprintf("上涨%.0f家，下跌%.0f家", up, down),
	}

	if n := rc.Table(models.TblRisingVolumeRank).Len(); n >= RisingVolumeStrongThreshold {
		ind.Reason += fmt.Sprintf("；量价齐升%d家", n)
	}
	if congestion, ok := latestCongestion(rc.Table(models.TblCongestion)); ok && congestion > CongestionCautionThreshold {
		ind.Reason += "；" + CongestionCautionReason
	}
	return ind
}

func sentimentLabel(profit float64) string {
	switch {
	case profit >= ProfitGreedy:
		return SentimentGreedy
	case profit >= ProfitWarm:
		return SentimentWarm
	case profit >= ProfitNeutral:
		return SentimentNeutral
	default:
		return SentimentCold
	}
}

func advanceDecline(t models.Table) (up, down float64) {
	if t.Empty() {
		return 0, 0
	}
	row := t.Len() - 1
	up, _ = t.FloatAt(row, models.ColUp)
	down, _ = t.FloatAt(row, models.ColDown)
	return up, down
}

func latestCongestion(t models.Table) (float64, bool) {
	if t.Empty() {
		return 0, false
	}
	return t.FloatAt(t.Len()-1, models.ColCongestion)
}
