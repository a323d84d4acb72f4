// Package tencent wraps the gtimg quote endpoints: index/ETF daily klines,
// the up/down ratio, and the sector board list.
package tencent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/since02/a-share-insight-web/internal/domain/models"
	"github.com/since02/a-share-insight-web/internal/domain/repository"
	xhttp "github.com/since02/a-share-insight-web/pkg/http"
)

// Client issues requests against the gtimg appstock API.
type Client struct {
	baseURL string
	http    *xhttp.Client
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL overrides the endpoint base; used in tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// NewClient creates a Tencent quote client.
func NewClient(httpClient *xhttp.Client, opts ...Option) *Client {
	c := &Client{
		baseURL: "http://web.ifzq.gtimg.cn",
		http:    httpClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// The kline payload nests per-symbol data under data.<symbol>.day (or
// .qfqday for adjusted series), each row an array
// [date, open, close, high, low, volume, ...] of mixed strings and numbers.
type klineResp struct {
	Data map[string]struct {
		Day    [][]json.RawMessage `json:"day"`
		QfqDay [][]json.RawMessage `json:"qfqday"`
	} `json:"data"`
}

func rawStr(m json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(m, &s); err == nil {
		return s, nil
	}
	var f float64
	if err := json.Unmarshal(m, &f); err == nil {
		return fmt.Sprintf("%v", f), nil
	}
	return "", fmt.Errorf("cell is neither string nor number: %s", m)
}

func rawFloat(m json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(m, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(m, &s); err != nil {
		return 0, fmt.Errorf("cell is neither number nor string: %s", m)
	}
	var out float64
	if _, err := fmt.Sscanf(s, "%g", &out); err != nil {
		return 0, fmt.Errorf("parse %q: %w", s, err)
	}
	return out, nil
}

// kline fetches the last `days` daily bars for a symbol and normalizes them
// to the index-daily schema. Volume is reported in 万元; amount is derived
// the same way the review has always done it.
func (c *Client) kline(ctx context.Context, symbol string, days int) (models.Table, error) {
	out := models.NewTable(models.SchemaIndexDaily...)

	var resp klineResp
	err := c.http.GetJSON(ctx, c.baseURL+"/appstock/app/fqkline/get", map[string]string{
		"param": fmt.Sprintf("%s,day,,,%d,qfq", symbol, days),
	}, &resp)
	if err != nil {
		return out, fmt.Errorf("tencent kline %s: %w", symbol, err)
	}

	sym, ok := resp.Data[symbol]
	if !ok {
		return out, fmt.Errorf("tencent kline %s: symbol missing from payload", symbol)
	}
	rows := sym.Day
	if len(rows) == 0 {
		rows = sym.QfqDay
	}
	if len(rows) == 0 {
		return out, fmt.Errorf("tencent kline %s: no bars", symbol)
	}

	for _, r := range rows {
		if len(r) < 6 {
			continue
		}
		ds, err := rawStr(r[0])
		if err != nil {
			continue
		}
		d, err := time.ParseInLocation("2006-01-02", ds, time.Local)
		if err != nil {
			continue
		}
		closeV, err1 := rawFloat(r[2])
		volume, err2 := rawFloat(r[5])
		if err1 != nil || err2 != nil {
			continue
		}
		_ = out.Append(models.Time(d), models.Float(closeV), models.Float(volume*1e4))
	}
	if out.Empty() {
		return out, fmt.Errorf("tencent kline %s: no parseable bars", symbol)
	}
	return out, nil
}

// SymbolKline implements repository.KlineProvider for the snapshot pool.
func (c *Client) SymbolKline(ctx context.Context, code string, days int) (models.Table, error) {
	return c.kline(ctx, code, days)
}

// IndexDaily returns a Feed for a market's headline index ("sh" or "sz").
func (c *Client) IndexDaily(market string, days int) repository.Feed {
	symbol := "sh000001"
	if market == "sz" {
		symbol = "sz399001"
	}
	return repository.NewFeed("tencent.index_daily_"+market, func(ctx context.Context) (models.Table, error) {
		return c.kline(ctx, symbol, days)
	})
}

type adratioResp struct {
	Data struct {
		Adratio struct {
			Up   json.Number `json:"up"`
			Down json.Number `json:"down"`
		} `json:"adratio"`
	} `json:"data"`
}

// MarketActivity returns a Feed of market-wide advancing/declining counts.
func (c *Client) MarketActivity() repository.Feed {
	return repository.NewFeed("tencent.market_activity", func(ctx context.Context) (models.Table, error) {
		out := models.NewTable(models.SchemaActivity...)

		var resp adratioResp
		err := c.http.GetJSON(ctx, c.baseURL+"/appstock/app/hq/get", map[string]string{
			"type": "adratio",
		}, &resp)
		if err != nil {
			return out, fmt.Errorf("tencent adratio: %w", err)
		}

		up, err1 := resp.Data.Adratio.Up.Float64()
		down, err2 := resp.Data.Adratio.Down.Float64()
		if err1 != nil || err2 != nil {
			return out, fmt.Errorf("tencent adratio: malformed counts up=%q down=%q",
				resp.Data.Adratio.Up, resp.Data.Adratio.Down)
		}
		if up == 0 && down == 0 {
			return out, fmt.Errorf("tencent adratio: empty payload")
		}
		_ = out.Append(models.Float(up), models.Float(down))
		return out, nil
	})
}

type boardResp struct {
	Data struct {
		BD []struct {
			Name string      `json:"n"`
			Zd   json.Number `json:"zd"`
		} `json:"bd"`
	} `json:"data"`
}

// SectorBoard returns a Feed of the sector leaderboard. The board endpoint
// has no fund-flow figures, so net_inflow is zero-filled; it exists as the
// alternate behind the fund-flow ranking.
func (c *Client) SectorBoard() repository.Feed {
	return repository.NewFeed("tencent.sector_board", func(ctx context.Context) (models.Table, error) {
		out := models.NewTable(models.SchemaSectorFlow...)

		var resp boardResp
		err := c.http.GetJSON(ctx, c.baseURL+"/appstock/app/hq/get", map[string]string{
			"type": "bd",
		}, &resp)
		if err != nil {
			return out, fmt.Errorf("tencent board: %w", err)
		}
		for _, b := range resp.Data.BD {
			if b.Name == "" {
				continue
			}
			zd, err := b.Zd.Float64()
			if err != nil {
				continue
			}
			_ = out.Append(models.Str(b.Name), models.Float(0), models.Float(zd))
		}
		if out.Empty() {
			return out, fmt.Errorf("tencent board: no rows")
		}
		return out, nil
	})
}

var _ repository.KlineProvider = (*Client)(nil)
