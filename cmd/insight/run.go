package main

import (
	"context"
	"fmt"
	"time"

	"github.com/since02/a-share-insight-web/internal/analysis"
	"github.com/since02/a-share-insight-web/internal/commentary"
	"github.com/since02/a-share-insight-web/internal/domain/models"
	"github.com/since02/a-share-insight-web/internal/domain/repository"
	"github.com/since02/a-share-insight-web/internal/report"
	"github.com/since02/a-share-insight-web/internal/service/eastmoney"
	"github.com/since02/a-share-insight-web/internal/service/legu"
	"github.com/since02/a-share-insight-web/internal/service/sina"
	"github.com/since02/a-share-insight-web/internal/service/tencent"
	"github.com/since02/a-share-insight-web/internal/store"
	"github.com/since02/a-share-insight-web/internal/usecase/fetcher"
	"github.com/since02/a-share-insight-web/pkg/cache"
	"github.com/since02/a-share-insight-web/pkg/config"
	xhttp "github.com/since02/a-share-insight-web/pkg/http"
	"github.com/since02/a-share-insight-web/pkg/logger"
	"github.com/since02/a-share-insight-web/pkg/metrics"
)

const indexHistoryDays = 90

// run executes one complete review: fetch, analyze, comment, render.
// Everything except writing the report degrades instead of failing.
func run(cfg *config.Config) error {
	log, err := logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	kv, err := buildCache(cfg)
	if err != nil {
		return fmt.Errorf("init cache: %w", err)
	}
	defer kv.Close()

	var recorder *metrics.Recorder
	if cfg.Metrics.Enabled {
		recorder = metrics.New()
	}

	st := store.New(kv, log, store.WithRecorder(recorder))
	httpClient := xhttp.NewClient(xhttp.WithTimeout(cfg.HTTP.Timeout))

	tx := tencent.NewClient(httpClient, tencent.WithBaseURL(cfg.Providers.Tencent.BaseURL))
	em := eastmoney.NewClient(httpClient,
		eastmoney.WithBaseURL(cfg.Providers.Eastmoney.BaseURL),
		eastmoney.WithHistBaseURL(cfg.Providers.Eastmoney.HistBaseURL),
	)
	sn := sina.NewClient(httpClient, sina.WithBaseURL(cfg.Providers.Sina.BaseURL))
	lg := legu.NewClient(httpClient, legu.WithBaseURL(cfg.Providers.Legu.BaseURL))

	f := fetcher.New(fetcher.Options{
		Store:    st,
		Log:      log,
		Recorder: recorder,
		Chains:   buildChains(tx, em, sn, lg),
		Extends: map[string]store.ExtendProducer{
			fetcher.SetIndexDailySH: em.IndexHistFrom("sh"),
			fetcher.SetIndexDailySZ: em.IndexHistFrom("sz"),
		},
		Boards:        em.IndustryBoards(),
		Constituents:  em.BoardConstituents,
		IndustryDelay: cfg.IndustryMap.Delay,
		Kline:         tx,
		Workers:       cfg.Snapshot.Workers,
		SnapshotDays:  cfg.Snapshot.Days,
	})

	ctx := context.Background()
	rc := models.NewRunContext(time.Now())
	log.Info("run started",
		logger.String("mode", string(rc.Mode)),
		logger.String("backend", cfg.Cache.Backend),
	)

	f.FetchAll(ctx, rc, cfg.UniqueSymbols())

	engine := analysis.NewEngine(log, analysis.WithRecorder(recorder))
	engine.Run(rc, fetcher.IndustryMapOf(rc.Table(models.TblIndustryMap)))

	ai := commentary.New(log,
		commentary.WithEndpoint(cfg.Commentary.Endpoint),
		commentary.WithModel(cfg.Commentary.Model),
		commentary.WithAPIKey(commentaryKey(cfg)),
		commentary.WithTimeout(cfg.Commentary.Timeout),
	)

	assembler := report.New(ai.Commentary(ctx, rc))
	if err := assembler.Write(cfg.Report.OutputPath, rc); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	log.Info("report written", logger.String("path", cfg.Report.OutputPath))

	st.Cleanup(ctx)

	if recorder != nil {
		if err := recorder.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			log.Warn("metrics textfile", logger.Err(err))
		}
	}
	return nil
}

// commentaryKey honors the enabled switch: a configured key with the feature
// off must not trigger calls.
func commentaryKey(cfg *config.Config) string {
	if !cfg.Commentary.Enabled {
		return ""
	}
	return cfg.Commentary.APIKey
}

func buildCache(cfg *config.Config) (cache.Service, error) {
	var persistent cache.Service
	switch cfg.Cache.Backend {
	case "redis":
		r, err := cache.NewRedisCache(
			cache.WithRedisHost(cfg.Cache.Redis.Host),
			cache.WithRedisPort(cfg.Cache.Redis.Port),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
			cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
		)
		if err != nil {
			return nil, err
		}
		persistent = r
	default:
		f, err := cache.NewFileCache(cfg.Cache.Dir)
		if err != nil {
			return nil, err
		}
		persistent = f
	}
	return cache.NewLayeredCache(persistent), nil
}

// buildChains wires every logical data set to its prioritized feeds.
func buildChains(tx *tencent.Client, em *eastmoney.Client, sn *sina.Client, lg *legu.Client) []fetcher.Chain {
	return []fetcher.Chain{
		{
			Logical:     fetcher.SetIndexDailySH,
			Granularity: store.Hourly,
			Schema:      models.SchemaIndexDaily,
			Feeds: []repository.Feed{
				tx.IndexDaily("sh", indexHistoryDays),
				em.IndexDaily("sh"),
			},
		},
		{
			Logical:     fetcher.SetIndexDailySZ,
			Granularity: store.Hourly,
			Schema:      models.SchemaIndexDaily,
			Feeds: []repository.Feed{
				tx.IndexDaily("sz", indexHistoryDays),
				em.IndexDaily("sz"),
			},
		},
		{
			Logical:     fetcher.SetMarketActivity,
			Granularity: store.Hourly,
			Schema:      models.SchemaActivity,
			Feeds: []repository.Feed{
				tx.MarketActivity(),
				em.MarketActivity(),
			},
		},
		{
			Logical:     fetcher.SetSectorFundFlow,
			Granularity: store.Hourly,
			Schema:      models.SchemaSectorFlow,
			Feeds: []repository.Feed{
				em.SectorFundFlow(),
				tx.SectorBoard(),
			},
		},
		{
			Logical:     fetcher.SetMarketFundFlow,
			Granularity: store.Hourly,
			Schema:      models.SchemaMarketFlow,
			Feeds:       []repository.Feed{em.MarketFundFlow()},
		},
		{
			Logical:     fetcher.SetMarginSH,
			Granularity: store.Daily,
			Schema:      models.SchemaMargin,
			Feeds: []repository.Feed{
				sn.MarginBalance("sh"),
				sn.MarginBalanceHTML("sh"),
			},
		},
		{
			Logical:     fetcher.SetMarginSZ,
			Granularity: store.Daily,
			Schema:      models.SchemaMargin,
			Feeds: []repository.Feed{
				sn.MarginBalance("sz"),
				sn.MarginBalanceHTML("sz"),
			},
		},
		{
			Logical:     fetcher.SetNorthFlow,
			Granularity: store.Hourly,
			Schema:      models.SchemaNorth,
			Feeds:       []repository.Feed{em.NorthFlow()},
		},
		{
			Logical:     fetcher.SetCongestion,
			Granularity: store.Daily,
			Schema:      models.SchemaCongestion,
			Feeds:       []repository.Feed{lg.Congestion()},
		},
		{
			Logical:     fetcher.SetRisingVolumeRank,
			Granularity: store.Daily,
			Schema:      models.SchemaRisingRank,
			Feeds:       []repository.Feed{lg.RisingVolumeRank()},
		},
		{
			Logical:     fetcher.SetSpotSnapshot,
			Granularity: store.Hourly,
			Schema:      models.SchemaSpot,
			Feeds:       []repository.Feed{em.SpotSnapshot()},
		},
	}
}
