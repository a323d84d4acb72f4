package models

import "time"

// RunMode classifies the time of day a run started. It is derived once and
// held fixed for the run; the turnover metric uses it to decide whether to
// extrapolate an intraday reading to a full-day estimate.
type RunMode string

const (
	ModeLiveMorning   RunMode = "LIVE_MORNING"
	ModeMiddaySummary RunMode = "MIDDAY_SUMMARY"
	ModeLiveAfternoon RunMode = "LIVE_AFTERNOON"
	ModePostMarket    RunMode = "POST_MARKET"
)

// Display returns the Chinese report heading for a mode.
func (m RunMode) Display() string {
	switch m {
	case ModeLiveMorning:
		return "盘中速递（上午）"
	case ModeMiddaySummary:
		return "午间小结"
	case ModeLiveAfternoon:
		return "盘中速递（下午）"
	default:
		return "收盘复盘"
	}
}

// ModeFor derives the run mode from a wall-clock time using the exchange's
// two-session schedule (09:30-11:30, 13:00-15:00).
func ModeFor(t time.Time) RunMode {
	m := t.Hour()*60 + t.Minute()
	switch {
	case m >= 9*60+30 && m < 11*60+30:
		return ModeLiveMorning
	case m >= 11*60+30 && m < 13*60:
		return ModeMiddaySummary
	case m >= 13*60 && m < 15*60:
		return ModeLiveAfternoon
	default:
		return ModePostMarket
	}
}

// RunContext is the single mutable state of one execution: the fetched tables
// by logical name, the computed indicators by name, and the fixed run mode.
// It is owned by exactly one run and never shared.
type RunContext struct {
	Mode       RunMode
	StartedAt  time.Time
	Tables     map[string]Table
	Indicators map[string]Indicator
}

// NewRunContext builds a run context for the given start time.
func NewRunContext(start time.Time) *RunContext {
	return &RunContext{
		Mode:       ModeFor(start),
		StartedAt:  start,
		Tables:     make(map[string]Table),
		Indicators: make(map[string]Indicator),
	}
}

// SetTable stores a fetched table under its logical name.
func (rc *RunContext) SetTable(name string, t Table) { rc.Tables[name] = t }

// Table returns the table for a logical name, or a zero table when missing.
func (rc *RunContext) Table(name string) Table { return rc.Tables[name] }

// SetIndicator stores a computed indicator.
func (rc *RunContext) SetIndicator(ind Indicator) { rc.Indicators[ind.Name] = ind }

// Indicator returns the named indicator, defaulting to the unavailable state
// so consumers never have to distinguish "absent" from "unavailable".
func (rc *RunContext) Indicator(name string) Indicator {
	if ind, ok := rc.Indicators[name]; ok {
		return ind
	}
	return Unavailable(name)
}
