package analysis

import (
	"fmt"
	"time"

	"github.com/since02/a-share-insight-web/internal/domain/models"
	"github.com/since02/a-share-insight-web/pkg/logger"
	"github.com/since02/a-share-insight-web/pkg/metrics"
)

// Engine runs every metric over one run context. Metrics are isolated from
// each other: a panic or missing input in one marks only that indicator
// unavailable and the rest still compute.
type Engine struct {
	log      *logger.Logger
	recorder *metrics.Recorder
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithRecorder attaches a metrics recorder.
func WithRecorder(r *metrics.Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine builds a metric engine.
func NewEngine(log *logger.Logger, opts ...Option) *Engine {
	e := &Engine{log: log, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run computes all indicators into rc. The industry map links spot symbols
// to their sector for the heat calculation.
func (e *Engine) Run(rc *models.RunContext, industryMap map[string]string) {
	turnover := e.runSafe(models.IndTurnover, func() models.Indicator {
		return Turnover(rc, e.now())
	})
	rc.SetIndicator(turnover)

	rc.SetIndicator(e.runSafe(models.IndSentiment, func() models.Indicator {
		return Sentiment(rc)
	}))
	rc.SetIndicator(e.runSafe(models.IndLeverage, func() models.Indicator {
		return Leverage(rc)
	}))

	sectorHeat := e.runSafe(models.IndSectorHeat, func() models.Indicator {
		return SectorHeat(rc, industryMap)
	})
	rc.SetIndicator(sectorHeat)

	rc.SetIndicator(e.runSafe(models.IndSymbolScores, func() models.Indicator {
		return SymbolScores(rc, sectorHeat)
	}))
	rc.SetIndicator(e.runSafe(models.IndMarketStage, func() models.Indicator {
		return MarketStage(rc, turnover)
	}))
}

// runSafe shields the run from a single metric blowing up on malformed
// rows; the indicator degrades to unavailable instead.
func (e *Engine) runSafe(name string, compute func() models.Indicator) (ind models.Indicator) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("metric panicked",
				logger.String("indicator", name),
				logger.Err(fmt.Errorf("%v", r)),
			)
			ind = models.Unavailable(name)
		}
		if !ind.Available {
			e.log.Warn("indicator unavailable", logger.String("indicator", name))
			if e.recorder != nil {
				e.recorder.RecordIndicatorUnavailable(name)
			}
		}
	}()
	return compute()
}
