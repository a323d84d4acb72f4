package analysis

import (
	"fmt"

	"github.com/since02/a-share-insight-web/internal/domain/models"
)

// Leverage relates the combined margin balance to the float market cap of
// the spot universe. Unlike sentiment it has no sensible default: missing
// margin or spot data marks the indicator unavailable.
func Leverage(rc *models.RunContext) models.Indicator {
	marginTotal := latestBalance(rc.Table(models.TblMarginSH)) + latestBalance(rc.Table(models.TblMarginSZ))
	if marginTotal <= 0 {
		return models.Unavailable(models.IndLeverage)
	}

	spot := rc.Table(models.TblSpotSnapshot)
	var floatCapTotal float64
	for i := 0; i < spot.Len(); i++ {
		if v, ok := spot.FloatAt(i, models.ColFloatCap); ok {
			floatCapTotal += v
		}
	}
	if floatCapTotal <= 0 {
		return models.Unavailable(models.IndLeverage)
	}

	ratio := marginTotal / floatCapTotal * 100
	return models.Indicator{
		Name:      models.IndLeverage,
		Available: true,
		Scalar:    ratio,
		Label:     leverageBand(ratio),
		Reason:    fmt.Sprintf("两融余额%.0f亿", marginTotal/1e8),
	}
}

func leverageBand(ratio float64) string {
	switch {
	case ratio < LeverageLow:
		return LeverageBandLow
	case ratio < LeverageMedium:
		return LeverageBandMedium
	case ratio < LeverageElevated:
		return LeverageBandElevated
	default:
		return LeverageBandRisk
	}
}

func latestBalance(t models.Table) float64 {
	if t.Empty() {
		return 0
	}
	v, _ := t.FloatAt(t.Len()-1, models.ColBalance)
	return v
}
