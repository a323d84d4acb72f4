package analysis

import (
	"github.com/since02/a-share-insight-web/internal/domain/models"
)

// Stage narratives and risk labels. The decision table keys on the price
// position within the trailing 60-day range, the turnover band, and the
// direction of main fund flow.
const (
	StageUnclear = "阶段不明：关键数据缺失，暂不给出阶段判断"
	RiskUnknown  = "数据不足"
)

type stageVerdict struct {
	Narrative string
	Risk      string
}

// MarketStage classifies where the market sits in its cycle. Any missing
// dimension collapses to the generic unclear-stage verdict rather than a
// guess from partial inputs.
func MarketStage(rc *models.RunContext, turnover models.Indicator) models.Indicator {
	position, ok := pricePosition(rc.Table(models.TblIndexDailySH), StageWindowDays)
	if !ok || !turnover.Available {
		return unclearStage(position)
	}
	inflow, ok := rc.Table(models.TblMarketFundFlow).LastFloat(models.ColMainInflow)
	if !ok {
		return unclearStage(position)
	}

	v := stageTable(positionBand(position), turnover.Label, inflow > 0)
	return models.Indicator{
		Name:      models.IndMarketStage,
		Available: true,
		Scalar:    position,
		Label:     v.Risk,
		Reason:    v.Narrative,
	}
}

func unclearStage(position float64) models.Indicator {
	return models.Indicator{
		Name:      models.IndMarketStage,
		Available: true,
		Scalar:    position,
		Label:     RiskUnknown,
		Reason:    StageUnclear,
	}
}

func stageTable(position string, band string, inflowPositive bool) stageVerdict {
	heavy := band == TurnoverHeavy || band == TurnoverExtrem
	switch position {
	case "high":
		switch {
		case heavy && inflowPositive:
			return stageVerdict{"主升阶段：高位放量且主力资金流入，趋势仍强但波动加大", "追高风险"}
		case heavy:
			return stageVerdict{"高位滞涨：放量但主力资金流出，警惕兑现压力", "兑现风险"}
		default:
			return stageVerdict{"高位盘整：量能收敛，方向待选择", "回落风险"}
		}
	case "low":
		switch {
		case heavy && inflowPositive:
			return stageVerdict{"底部启动：低位放量且资金回流，关注右侧确认", "假突破风险"}
		case heavy:
			return stageVerdict{"低位换手：放量但资金仍流出，筑底尚未完成", "二次探底风险"}
		default:
			return stageVerdict{"缩量磨底：低位地量，以时间换空间", "时间成本"}
		}
	default:
		if inflowPositive {
			return stageVerdict{"震荡偏暖：中位运行且资金净流入，结构性机会为主", "轮动过快"}
		}
		return stageVerdict{"震荡偏弱：中位运行且资金净流出，控制仓位等待信号", "阴跌风险"}
	}
}

func positionBand(position float64) string {
	switch {
	case position >= PositionHighBand:
		return "high"
	case position <= PositionLowBand:
		return "low"
	default:
		return "mid"
	}
}

// pricePosition locates the latest close within the [min, max] range of the
// last window closes, as a fraction in [0, 1].
func pricePosition(t models.Table, window int) (float64, bool) {
	if t.Len() < 2 {
		return 0, false
	}
	start := t.Len() - window
	if start < 0 {
		start = 0
	}
	lo, hi := 0.0, 0.0
	first := true
	for i := start; i < t.Len(); i++ {
		c, ok := t.FloatAt(i, models.ColClose)
		if !ok || c <= 0 {
			continue
		}
		if first {
			lo, hi = c, c
			first = false
			continue
		}
		if c < lo {
			lo = c
		}
		if c > hi {
			hi = c
		}
	}
	if first || hi == lo {
		return 0, false
	}
	last, ok := t.LastFloat(models.ColClose)
	if !ok {
		return 0, false
	}
	return (last - lo) / (hi - lo), true
}
