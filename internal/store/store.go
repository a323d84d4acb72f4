package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/since02/a-share-insight-web/internal/domain/models"
	"github.com/since02/a-share-insight-web/pkg/cache"
	"github.com/since02/a-share-insight-web/pkg/logger"
	"github.com/since02/a-share-insight-web/pkg/metrics"
	"github.com/since02/a-share-insight-web/pkg/util"
)

// Granularity selects the time bucket of a cache entry.
type Granularity int

const (
	Daily Granularity = iota
	Hourly
)

// EpochStart seeds incremental base series that have no prior data.
var EpochStart = time.Date(1990, 1, 1, 0, 0, 0, 0, time.Local)

const (
	keySep     = "|"
	basePrefix = "base" + keySep
)

// Producer computes a table when the current bucket has no entry.
type Producer func(ctx context.Context) (models.Table, error)

// ExtendProducer fetches the rows of an incremental series from a start date.
type ExtendProducer func(ctx context.Context, from time.Time) (models.Table, error)

// Store is the bucketed memoization layer over a generic cache backend.
// Entries are keyed (logical name, params, time bucket); bucket rollover
// creates a new entry rather than mutating the old one. Base entries hold
// incrementally-extended historical series and are never swept.
type Store struct {
	kv  cache.Service
	log *logger.Logger
	rec *metrics.Recorder
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the wall clock; used in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(rec *metrics.Recorder) Option {
	return func(s *Store) { s.rec = rec }
}

// New creates a Store over a cache backend.
func New(kv cache.Service, log *logger.Logger, opts ...Option) *Store {
	s := &Store{kv: kv, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) bucket(g Granularity) string {
	if g == Hourly {
		return util.HourBucket(s.now())
	}
	return util.DayBucket(s.now())
}

// paramsKey builds a stable serialization of the parameter tuple.
func paramsKey(params map[string]string) string {
	if len(params) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	return strings.Join(parts, ",")
}

func entryKey(name string, params map[string]string, bucket string) string {
	return name + keySep + paramsKey(params) + keySep + bucket
}

func baseKey(name string) string { return basePrefix + name }

// GetOrCompute returns the cached table for the current bucket, or invokes
// producer and persists its result. A producer failure is logged and yields
// an explicitly empty table with the given schema; it is never an error to
// the caller, and nothing is persisted for the bucket.
func (s *Store) GetOrCompute(ctx context.Context, name string, params map[string]string, g Granularity, schema []models.Column, producer Producer) models.Table {
	key := entryKey(name, params, s.bucket(g))

	if t, ok := s.load(ctx, key); ok {
		s.log.Debug("cache hit", logger.String("key", key))
		if s.rec != nil {
			s.rec.RecordCacheHit(name)
		}
		return t
	}

	t, err := producer(ctx)
	if err != nil {
		s.log.Warn("producer failed, returning empty table",
			logger.String("name", name), logger.Err(err))
		return models.EmptyTable(schema...)
	}

	s.save(ctx, key, t)
	return t
}

// GetBucket reads the current bucket's entry without computing.
func (s *Store) GetBucket(ctx context.Context, name string, params map[string]string, g Granularity) (models.Table, bool) {
	return s.load(ctx, entryKey(name, params, s.bucket(g)))
}

// PutBucket writes the current bucket's entry directly. Used for progress
// checkpoints that are appended to as work completes.
func (s *Store) PutBucket(ctx context.Context, name string, params map[string]string, g Granularity, t models.Table) {
	s.save(ctx, entryKey(name, params, s.bucket(g)), t)
}

// GetOrExtend manages an unbounded historical series. With no base entry the
// producer seeds the full series from EpochStart. Otherwise the producer is
// called from max(dateCol)+1 day and the result is merged into the base with
// new rows winning per date. Any fetch failure returns the existing base
// unchanged.
func (s *Store) GetOrExtend(ctx context.Context, name, dateCol string, producer ExtendProducer) models.Table {
	key := baseKey(name)

	base, ok := s.load(ctx, key)
	if !ok {
		seeded, err := producer(ctx, EpochStart)
		if err != nil {
			s.log.Warn("base seed failed", logger.String("name", name), logger.Err(err))
			return seeded
		}
		if !seeded.Empty() {
			s.save(ctx, key, seeded)
		}
		return seeded
	}

	maxDate, ok := base.MaxTime(dateCol)
	if !ok {
		return base
	}
	start := util.NextDay(maxDate)
	if start.After(s.now()) {
		return base
	}

	ext, err := producer(ctx, start)
	if err != nil {
		s.log.Warn("base extend failed, keeping existing series",
			logger.String("name", name), logger.Err(err))
		return base
	}
	if ext.Empty() {
		return base
	}

	merged := models.MergeByTime(base, ext, dateCol)
	s.save(ctx, key, merged)
	return merged
}

// Latest returns the most recently persisted table for a logical name across
// all buckets and parameter tuples. It is the orchestrator's tier-2 fallback
// when every live adapter came back empty.
func (s *Store) Latest(ctx context.Context, name string) (models.Table, bool) {
	keys, err := s.kv.Keys(ctx, name+keySep)
	if err != nil || len(keys) == 0 {
		return models.Table{}, false
	}

	best := ""
	bestBucket := ""
	for _, k := range keys {
		b := bucketOf(k)
		if b == "" {
			continue
		}
		// Daily buckets are 8 digits, hourly 10; compare daily ones as
		// end-of-day so a day entry outranks that day's early hours.
		cmp := b
		if len(cmp) == 8 {
			cmp += "24"
		}
		if best == "" || cmp > bestBucket {
			best, bestBucket = k, cmp
		}
	}
	if best == "" {
		return models.Table{}, false
	}
	return s.load(ctx, best)
}

// Cleanup removes every non-base entry whose bucket is not the current one.
// Base entries are never removed. Safe to run any number of times.
func (s *Store) Cleanup(ctx context.Context) {
	keys, err := s.kv.Keys(ctx, "")
	if err != nil {
		s.log.Warn("cleanup list failed", logger.Err(err))
		return
	}

	day := util.DayBucket(s.now())
	hour := util.HourBucket(s.now())

	var stale []string
	for _, k := range keys {
		if strings.HasPrefix(k, basePrefix) {
			continue
		}
		switch b := bucketOf(k); len(b) {
		case 8:
			if b != day {
				stale = append(stale, k)
			}
		case 10:
			if b != hour {
				stale = append(stale, k)
			}
		default:
			// not one of ours; leave it alone
		}
	}
	if len(stale) == 0 {
		return
	}
	if err := s.kv.Delete(ctx, stale...); err != nil {
		s.log.Warn("cleanup delete failed", logger.Err(err))
		return
	}
	s.log.Info("cache cleanup", logger.Int("removed", len(stale)))
}

// bucketOf extracts the bucket segment of an entry key, or "".
func bucketOf(key string) string {
	i := strings.LastIndex(key, keySep)
	if i < 0 {
		return ""
	}
	return key[i+1:]
}

func (s *Store) load(ctx context.Context, key string) (models.Table, bool) {
	b, err := s.kv.Get(ctx, key)
	if err != nil {
		return models.Table{}, false
	}
	var t models.Table
	if err := json.Unmarshal(b, &t); err != nil {
		// Corrupt entry: treat as a miss and clear it.
		s.log.Warn("corrupt cache entry dropped", logger.String("key", key), logger.Err(err))
		_ = s.kv.Delete(ctx, key)
		return models.Table{}, false
	}
	return t, true
}

func (s *Store) save(ctx context.Context, key string, t models.Table) {
	b, err := json.Marshal(t)
	if err != nil {
		s.log.Warn("cache marshal failed", logger.String("key", key), logger.Err(err))
		return
	}
	if err := s.kv.Set(ctx, key, b); err != nil {
		s.log.Warn(fmt.Sprintf("cache persist failed for %s", key), logger.Err(err))
	}
}
