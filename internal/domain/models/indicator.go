package models

// Indicator is a named derived metric. Available is the tag: when false the
// remaining fields carry no meaning and consumers must render a placeholder
// instead of a value.
type Indicator struct {
	Name      string
	Available bool

	Scalar float64 // primary numeric result (percentage, 亿元 amount, ratio)
	Label  string  // categorical classification
	Reason string  // human-readable explanation / change description
	Ranked Table   // small ranked table results (sector heat, symbol scores)
}

// Unavailable builds the explicit "no data" state for an indicator.
func Unavailable(name string) Indicator {
	return Indicator{Name: name}
}

// Indicator names used across the run context and report.
const (
	IndTurnover     = "turnover"
	IndSentiment    = "sentiment"
	IndLeverage     = "leverage"
	IndSectorHeat   = "sector_heat"
	IndSymbolScores = "symbol_scores"
	IndMarketStage  = "market_stage"
)
