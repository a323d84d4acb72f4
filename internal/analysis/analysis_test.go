package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/since02/a-share-insight-web/internal/domain/models"
	"github.com/since02/a-share-insight-web/pkg/logger"
)

func indexTable(amounts ...float64) models.Table {
	t := models.NewTable(models.SchemaIndexDaily...)
	day := time.Date(2026, 8, 1, 0, 0, 0, 0, time.Local)
	for i, a := range amounts {
		_ = t.Append(models.Time(day.AddDate(0, 0, i)), models.Float(3000), models.Float(a))
	}
	return t
}

func activityTable(up, down float64) models.Table {
	t := models.NewTable(models.SchemaActivity...)
	_ = t.Append(models.Float(up), models.Float(down))
	return t
}

func postMarketContext() *models.RunContext {
	return models.NewRunContext(time.Date(2026, 8, 28, 16, 0, 0, 0, time.Local))
}

func TestTurnoverBandsAndChange(t *testing.T) {
	rc := postMarketContext()
	// 12000亿 split across the two exchanges, up from 9000亿 the day before.
	rc.SetTable(models.TblIndexDailySH,
		indexTable(4800e8, 5100e8, 4700e8, 5200e8, 5000e8, 7000e8))
	rc.SetTable(models.TblIndexDailySZ,
		indexTable(3900e8, 4200e8, 3800e8, 4100e8, 4000e8, 5000e8))

	ind := Turnover(rc, rc.StartedAt)
	require.True(t, ind.Available)
	assert.InDelta(t, 12000, ind.Scalar, 0.01)
	assert.Equal(t, TurnoverNormal, ind.Label)
	assert.Equal(t, "放量 3000亿", ind.Reason)
}

func TestTurnoverShrinkChange(t *testing.T) {
	rc := postMarketContext()
	rc.SetTable(models.TblIndexDailySH, indexTable(12000e8, 6000e8))

	ind := Turnover(rc, rc.StartedAt)
	require.True(t, ind.Available)
	assert.Equal(t, TurnoverShrink, ind.Label)
	assert.Equal(t, "缩量 6000亿", ind.Reason)
}

func TestTurnoverIntradayExtrapolation(t *testing.T) {
	// One hour into the morning session: 60 of 240 trading minutes elapsed.
	start := time.Date(2026, 8, 28, 10, 30, 0, 0, time.Local)
	rc := models.NewRunContext(start)
	rc.SetTable(models.TblIndexDailySH, indexTable(3000e8))

	ind := Turnover(rc, start)
	require.True(t, ind.Available)
	assert.InDelta(t, 12000, ind.Scalar, 0.01)
	assert.Equal(t, TurnoverNormal, ind.Label)
}

func TestTurnoverUnavailableWithoutData(t *testing.T) {
	ind := Turnover(postMarketContext(), time.Now())
	assert.False(t, ind.Available)
}

func TestSentimentWithCongestionCaution(t *testing.T) {
	rc := postMarketContext()
	rc.SetTable(models.TblMarketActivity, activityTable(600, 400))

	cong := models.NewTable(models.SchemaCongestion...)
	_ = cong.Append(models.Time(rc.StartedAt), models.Float(95))
	rc.SetTable(models.TblCongestion, cong)

	ind := Sentiment(rc)
	require.True(t, ind.Available)
	assert.InDelta(t, 60.0, ind.Scalar, 0.001)
	assert.Equal(t, SentimentWarm, ind.Label)
	assert.Contains(t, ind.Reason, CongestionCautionReason)
}

func TestSentimentDefaultsWhenActivityMissing(t *testing.T) {
	ind := Sentiment(postMarketContext())
	require.True(t, ind.Available)
	assert.Equal(t, DefaultProfitEffect, ind.Scalar)
	assert.Equal(t, SentimentNeutral, ind.Label)
}

func TestSentimentBounds(t *testing.T) {
	cases := []struct {
		up, down float64
		label    string
	}{
		{1000, 0, SentimentGreedy},
		{0, 1000, SentimentCold},
		{550, 450, SentimentWarm},
		{450, 550, SentimentNeutral},
	}
	for _, tc := range cases {
		rc := postMarketContext()
		rc.SetTable(models.TblMarketActivity, activityTable(tc.up, tc.down))
		ind := Sentiment(rc)
		assert.GreaterOrEqual(t, ind.Scalar, 0.0)
		assert.LessOrEqual(t, ind.Scalar, 100.0)
		assert.Equal(t, tc.label, ind.Label)
	}
}

func TestLeverageUnavailableWithoutMargin(t *testing.T) {
	rc := postMarketContext()
	spot := models.NewTable(models.SchemaSpot...)
	_ = spot.Append(models.Str("600000"), models.Str("浦发银行"), models.Float(1.2),
		models.Float(1.0), models.Float(3000e8))
	rc.SetTable(models.TblSpotSnapshot, spot)

	assert.False(t, Leverage(rc).Available)
}

func TestLeverageBands(t *testing.T) {
	rc := postMarketContext()
	margin := models.NewTable(models.SchemaMargin...)
	_ = margin.Append(models.Float(9000e8), models.Float(10e8))
	rc.SetTable(models.TblMarginSH, margin)
	margin2 := models.NewTable(models.SchemaMargin...)
	_ = margin2.Append(models.Float(9000e8), models.Float(-5e8))
	rc.SetTable(models.TblMarginSZ, margin2)

	spot := models.NewTable(models.SchemaSpot...)
	_ = spot.Append(models.Str("600000"), models.Str("浦发银行"), models.Float(0.5),
		models.Float(1.0), models.Float(900000e8))
	rc.SetTable(models.TblSpotSnapshot, spot)

	ind := Leverage(rc)
	require.True(t, ind.Available)
	// 18000亿 / 900000亿 = 2.0%
	assert.InDelta(t, 2.0, ind.Scalar, 0.001)
	assert.Equal(t, LeverageBandMedium, ind.Label)
}

func TestPctRankSpan(t *testing.T) {
	vals := []float64{10, 20, 30, 40}
	for _, v := range vals {
		r := pctRank(vals, v)
		assert.Greater(t, r, 0.0)
		assert.LessOrEqual(t, r, 100.0)
	}
	assert.Equal(t, 100.0, pctRank(vals, 40))
	assert.Equal(t, 25.0, pctRank(vals, 10))
}

func TestSectorHeatMaxInputRanksFirst(t *testing.T) {
	rc := postMarketContext()
	flows := models.NewTable(models.SchemaSectorFlow...)
	_ = flows.Append(models.Str("半导体"), models.Float(50e8), models.Float(2.1))
	_ = flows.Append(models.Str("煤炭"), models.Float(-10e8), models.Float(-0.5))
	_ = flows.Append(models.Str("银行"), models.Float(5e8), models.Float(0.3))
	rc.SetTable(models.TblSectorFundFlow, flows)

	spot := models.NewTable(models.SchemaSpot...)
	_ = spot.Append(models.Str("688001"), models.Str("华兴源创"), models.Float(3.0),
		models.Float(2.0), models.Float(100e8))
	rc.SetTable(models.TblSpotSnapshot, spot)

	ind := SectorHeat(rc, map[string]string{"688001": "半导体"})
	require.True(t, ind.Available)
	require.Equal(t, 3, ind.Ranked.Len())

	top, _ := ind.Ranked.StrAt(0, models.ColName)
	assert.Equal(t, "半导体", top)
	heat, _ := ind.Ranked.FloatAt(0, models.ColHeat)
	assert.Equal(t, 100.0, heat)
}

func TestThemeRuleOrderIsFirstMatchWins(t *testing.T) {
	// "新能源车芯片" matches both 科技 (芯片) and 新能源; the 科技 rule
	// sits first so it must win.
	assert.Equal(t, "科技", ThemeFor("新能源车芯片ETF"))
	assert.Equal(t, "新能源", ThemeFor("光伏产业ETF"))
	assert.Equal(t, "大金融", ThemeFor("证券ETF"))
	assert.Equal(t, DefaultTheme, ThemeFor("养殖ETF"))
}

func TestSymbolScoreClampAndOrdering(t *testing.T) {
	rc := postMarketContext()
	snaps := models.NewTable(models.SchemaSnapshot...)
	// Strong uptrend, strong downtrend, and a zeroed failed-fetch row.
	_ = snaps.Append(models.Str("sh512480"), models.Str("半导体ETF"),
		models.Float(1.30), models.Float(1.20), models.Float(1.10))
	_ = snaps.Append(models.Str("sh515220"), models.Str("煤炭ETF"),
		models.Float(0.90), models.Float(0.95), models.Float(1.00))
	_ = snaps.Append(models.Str("sh510300"), models.Str("沪深300ETF"),
		models.Float(0), models.Float(0), models.Float(0))
	rc.SetTable(models.TblSymbolSnapshots, snaps)

	heatRanked := models.NewTable(
		models.Column{Name: models.ColName, Kind: models.KindString},
		models.Column{Name: models.ColHeat, Kind: models.KindFloat},
	)
	_ = heatRanked.Append(models.Str("半导体"), models.Float(100))
	_ = heatRanked.Append(models.Str("煤炭"), models.Float(5))
	sectorHeat := models.Indicator{Name: models.IndSectorHeat, Available: true, Ranked: heatRanked}

	ind := SymbolScores(rc, sectorHeat)
	require.True(t, ind.Available)
	require.Equal(t, 3, ind.Ranked.Len())

	for i := 0; i < ind.Ranked.Len(); i++ {
		s, ok := ind.Ranked.FloatAt(i, models.ColScore)
		require.True(t, ok)
		assert.GreaterOrEqual(t, s, ScoreMin)
		assert.LessOrEqual(t, s, ScoreMax)
	}

	topCode, _ := ind.Ranked.StrAt(0, models.ColCode)
	assert.Equal(t, "sh512480", topCode)
	// 4.5 + (100-50)/15 clamps to 5.0.
	topScore, _ := ind.Ranked.FloatAt(0, models.ColScore)
	assert.Equal(t, ScoreMax, topScore)
}

func TestMaBase(t *testing.T) {
	assert.Equal(t, ScoreBullish, maBase(1.3, 1.2, 1.1))
	assert.Equal(t, ScoreBullishPull, maBase(1.15, 1.2, 1.1))
	assert.Equal(t, ScoreBearish, maBase(0.9, 0.95, 1.0))
	assert.Equal(t, ScoreNeutral, maBase(0, 0, 0))
}

func TestMarketStageGenericWhenInputsMissing(t *testing.T) {
	rc := postMarketContext()
	ind := MarketStage(rc, models.Unavailable(models.IndTurnover))
	require.True(t, ind.Available)
	assert.Equal(t, StageUnclear, ind.Reason)
	assert.Equal(t, RiskUnknown, ind.Label)
}

func TestMarketStageHighVolumeInflow(t *testing.T) {
	rc := postMarketContext()

	idx := models.NewTable(models.SchemaIndexDaily...)
	day := time.Date(2026, 6, 1, 0, 0, 0, 0, time.Local)
	for i := 0; i < 60; i++ {
		close := 3000 + float64(i)*10 // steady climb, last close at range top
		_ = idx.Append(models.Time(day.AddDate(0, 0, i)), models.Float(close), models.Float(5000e8))
	}
	rc.SetTable(models.TblIndexDailySH, idx)

	flow := models.NewTable(models.SchemaMarketFlow...)
	_ = flow.Append(models.Float(120e8))
	rc.SetTable(models.TblMarketFundFlow, flow)

	turnover := models.Indicator{Name: models.IndTurnover, Available: true, Label: TurnoverHeavy}
	ind := MarketStage(rc, turnover)
	require.True(t, ind.Available)
	assert.Equal(t, "追高风险", ind.Label)
	assert.Contains(t, ind.Reason, "主升")
	assert.InDelta(t, 1.0, ind.Scalar, 0.001)
}

func TestEngineIsolatesFailures(t *testing.T) {
	rc := postMarketContext()
	rc.SetTable(models.TblMarketActivity, activityTable(600, 400))

	eng := NewEngine(logger.Nop(), WithClock(func() time.Time { return rc.StartedAt }))
	eng.Run(rc, nil)

	// Sentiment computes; turnover and leverage degrade, nothing panics.
	assert.True(t, rc.Indicator(models.IndSentiment).Available)
	assert.False(t, rc.Indicator(models.IndTurnover).Available)
	assert.False(t, rc.Indicator(models.IndLeverage).Available)
	assert.False(t, rc.Indicator(models.IndSectorHeat).Available)

	// The stage still completes on the remaining inputs as the generic
	// unclear-stage verdict instead of vanishing with them.
	stage := rc.Indicator(models.IndMarketStage)
	assert.True(t, stage.Available)
	assert.Equal(t, StageUnclear, stage.Reason)
}
