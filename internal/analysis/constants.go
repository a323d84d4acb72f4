// Package analysis computes the derived indicators from the fetched tables.
// Every metric is a pure function, individually fault-isolated: a failure
// marks its indicator unavailable and the run continues.
package analysis

import "strings"

// Tuned thresholds. These were arrived at empirically in earlier iterations
// of the review and are kept as named constants rather than configuration.
const (
	// Turnover. Amounts are in 亿元 against a reference full-day average.
	ReferenceAvgAmount = 10000.0
	TurnoverLowRatio   = 0.7
	TurnoverMidRatio   = 1.5
	TurnoverHighRatio  = 2.5

	// Sentiment.
	DefaultProfitEffect         = 50.0
	ProfitGreedy                = 65.0
	ProfitWarm                  = 55.0
	ProfitNeutral               = 45.0
	CongestionCautionThreshold  = 90.0
	RisingVolumeStrongThreshold = 100

	// Leverage ratio bands, in percent of float market cap.
	LeverageLow      = 1.8
	LeverageMedium   = 2.2
	LeverageElevated = 2.5

	// Sector heat weights.
	HeatRisingWeight = 0.7
	HeatInflowWeight = 0.3

	// Composite symbol score.
	ScoreBullish     = 4.5
	ScoreBullishPull = 3.5
	ScoreNeutral     = 3.0
	ScoreBearish     = 2.0
	ScoreMin         = 0.0
	ScoreMax         = 5.0
	HeatAdjustCenter = 50.0
	HeatAdjustScale  = 15.0

	// Market stage: price position within the trailing 60-day range.
	StageWindowDays  = 60
	PositionHighBand = 0.8
	PositionLowBand  = 0.2
)

// Turnover band labels.
const (
	TurnoverShrink = "缩量水平"
	TurnoverNormal = "平量水平"
	TurnoverHeavy  = "放量水平"
	TurnoverExtrem = "天量水平"
)

// Sentiment labels.
const (
	SentimentGreedy  = "贪婪"
	SentimentWarm    = "偏暖"
	SentimentNeutral = "中性"
	SentimentCold    = "冰点"
)

// Leverage band labels.
const (
	LeverageBandLow      = "低位"
	LeverageBandMedium   = "适中"
	LeverageBandElevated = "偏高"
	LeverageBandRisk     = "风险区"
)

// CongestionCautionReason is appended to the sentiment reason whenever
// congestion breaches the caution threshold.
const CongestionCautionReason = "拥挤度过高，谨慎追高"

// ThemeRule maps display-name keywords to a broad investment theme. Rules
// are evaluated in order and the first match wins, so more specific
// keywords must precede broader ones; the order is part of the contract.
type ThemeRule struct {
	Keywords []string
	Theme    string
}

// DefaultTheme is used when no rule matches.
const DefaultTheme = "其他"

// ThemeRules is the ordered first-match-wins classification table.
var ThemeRules = []ThemeRule{
	{Keywords: []string{"半导体", "芯片", "传媒", "计算机", "通信"}, Theme: "科技"},
	{Keywords: []string{"光伏", "新能源", "电池", "储能"}, Theme: "新能源"},
	{Keywords: []string{"军工", "国防"}, Theme: "国防军工"},
	{Keywords: []string{"医疗", "医药", "生物"}, Theme: "医药"},
	{Keywords: []string{"券商", "证券", "银行", "保险"}, Theme: "大金融"},
	{Keywords: []string{"煤炭", "有色", "钢铁", "石油", "化工"}, Theme: "周期资源"},
	{Keywords: []string{"酒", "食品", "消费", "家电"}, Theme: "大消费"},
	{Keywords: []string{"房地产", "地产", "建筑"}, Theme: "地产基建"},
	{Keywords: []string{"沪深300", "中证500", "上证50", "创业板", "科创"}, Theme: "宽基指数"},
}

// ThemeFor classifies a display name through the rule table.
func ThemeFor(name string) string {
	for _, rule := range ThemeRules {
		for _, kw := range rule.Keywords {
			if strings.Contains(name, kw) {
				return rule.Theme
			}
		}
	}
	return DefaultTheme
}
