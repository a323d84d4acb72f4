// Package eastmoney wraps the push2/push2his quote endpoints: index history,
// northbound flow, market and industry fund flows, industry boards with their
// constituents, and the whole-market spot snapshot.
package eastmoney

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/since02/a-share-insight-web/internal/domain/models"
	"github.com/since02/a-share-insight-web/internal/domain/repository"
	xhttp "github.com/since02/a-share-insight-web/pkg/http"
)

// Client issues requests against the Eastmoney push2 APIs.
type Client struct {
	baseURL     string
	histBaseURL string
	http        *xhttp.Client
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL overrides the realtime endpoint base; used in tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHistBaseURL overrides the history endpoint base; used in tests.
func WithHistBaseURL(u string) Option {
	return func(c *Client) { c.histBaseURL = u }
}

// NewClient creates an Eastmoney client.
func NewClient(httpClient *xhttp.Client, opts ...Option) *Client {
	c := &Client{
		baseURL:     "http://push2.eastmoney.com",
		histBaseURL: "http://push2his.eastmoney.com",
		http:        httpClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type histResp struct {
	Data struct {
		Klines []string `json:"klines"`
	} `json:"data"`
}

// IndexHistFrom fetches daily index bars from a start date. Each kline is a
// comma-joined "date,open,close,high,low,volume,amount,..." string. The
// returned func matches the store's extend-producer contract.
func (c *Client) IndexHistFrom(market string) func(ctx context.Context, from time.Time) (models.Table, error) {
	secid := "1.000001"
	if market == "sz" {
		secid = "0.399001"
	}
	return func(ctx context.Context, from time.Time) (models.Table, error) {
		out := models.NewTable(models.SchemaIndexDaily...)

		var resp histResp
		err := c.http.GetJSON(ctx, c.histBaseURL+"/api/qt/stock/kline/get", map[string]string{
			"secid":   secid,
			"klt":     "101",
			"fqt":     "1",
			"beg":     from.Format("20060102"),
			"end":     "20500101",
			"fields1": "f1,f2,f3",
			"fields2": "f51,f52,f53,f54,f55,f56,f57",
		}, &resp)
		if err != nil {
			return out, fmt.Errorf("eastmoney index hist %s: %w", market, err)
		}
		for _, line := range resp.Data.Klines {
			parts := strings.Split(line, ",")
			if len(parts) < 7 {
				continue
			}
			d, err := time.ParseInLocation("2006-01-02", parts[0], time.Local)
			if err != nil {
				continue
			}
			closeV, err1 := strconv.ParseFloat(parts[2], 64)
			amount, err2 := strconv.ParseFloat(parts[6], 64)
			if err1 != nil || err2 != nil {
				continue
			}
			_ = out.Append(models.Time(d), models.Float(closeV), models.Float(amount))
		}
		if out.Empty() {
			return out, fmt.Errorf("eastmoney index hist %s: no bars", market)
		}
		return out, nil
	}
}

// IndexDaily exposes the history endpoint as a plain Feed (last 90 days),
// the alternate behind the Tencent kline.
func (c *Client) IndexDaily(market string) repository.Feed {
	fetch := c.IndexHistFrom(market)
	return repository.NewFeed("eastmoney.index_daily_"+market, func(ctx context.Context) (models.Table, error) {
		return fetch(ctx, time.Now().AddDate(0, 0, -90))
	})
}

type kamtResp struct {
	Data struct {
		S2N json.Number `json:"s2n"`
	} `json:"data"`
}

// NorthFlow returns a Feed of today's northbound net inflow, in 亿元.
func (c *Client) NorthFlow() repository.Feed {
	return repository.NewFeed("eastmoney.north_flow", func(ctx context.Context) (models.Table, error) {
		out := models.NewTable(models.SchemaNorth...)

		var resp kamtResp
		err := c.http.GetJSON(ctx, c.baseURL+"/api/qt/kamt.rtmin/get", map[string]string{
			"fields1": "f1,f3",
			"fields2": "f51,f53",
		}, &resp)
		if err != nil {
			return out, fmt.Errorf("eastmoney kamt: %w", err)
		}
		v, err := resp.Data.S2N.Float64()
		if err != nil {
			return out, fmt.Errorf("eastmoney kamt: malformed s2n %q", resp.Data.S2N)
		}
		_ = out.Append(models.Float(v / 1e8))
		return out, nil
	})
}

type fflowResp struct {
	Data struct {
		Klines []string `json:"klines"`
	} `json:"data"`
}

// MarketFundFlow returns a Feed with the latest main-force net inflow for the
// whole market, in 亿元. The fflow kline is "date,main,small,mid,big,super,...".
func (c *Client) MarketFundFlow() repository.Feed {
	return repository.NewFeed("eastmoney.market_fund_flow", func(ctx context.Context) (models.Table, error) {
		out := models.NewTable(models.SchemaMarketFlow...)

		var resp fflowResp
		err := c.http.GetJSON(ctx, c.baseURL+"/api/qt/stock/fflow/daykline/get", map[string]string{
			"lmt":     "1",
			"klt":     "101",
			"secid":   "1.000001",
			"secid2":  "0.399001",
			"fields1": "f1,f2,f3,f7",
			"fields2": "f51,f52",
		}, &resp)
		if err != nil {
			return out, fmt.Errorf("eastmoney fflow: %w", err)
		}
		if len(resp.Data.Klines) == 0 {
			return out, fmt.Errorf("eastmoney fflow: no rows")
		}
		parts := strings.Split(resp.Data.Klines[len(resp.Data.Klines)-1], ",")
		if len(parts) < 2 {
			return out, fmt.Errorf("eastmoney fflow: malformed kline")
		}
		v, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return out, fmt.Errorf("eastmoney fflow: %w", err)
		}
		_ = out.Append(models.Float(v / 1e8))
		return out, nil
	})
}

// clistResp is the shared shape of the clist ranking endpoint; fields arrive
// keyed f12/f14/... and numbers may be the string "-" when suspended.
type clistResp struct {
	Data struct {
		Diff []map[string]json.RawMessage `json:"diff"`
	} `json:"data"`
}

func clistStr(row map[string]json.RawMessage, field string) string {
	raw, ok := row[field]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func clistFloat(row map[string]json.RawMessage, field string) (float64, bool) {
	raw, ok := row[field]
	if !ok {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false // "-" placeholder or missing
	}
	return f, true
}

func (c *Client) clist(ctx context.Context, fs, fields string, size int) (clistResp, error) {
	var resp clistResp
	err := c.http.GetJSON(ctx, c.baseURL+"/api/qt/clist/get", map[string]string{
		"pn":     "1",
		"pz":     strconv.Itoa(size),
		"po":     "1",
		"np":     "1",
		"fltt":   "2",
		"invt":   "2",
		"fid":    "f3",
		"fs":     fs,
		"fields": fields,
	}, &resp)
	return resp, err
}

// SectorFundFlow returns a Feed of today's per-industry main net inflow
// ranking: name, net_inflow (元), pct_chg.
func (c *Client) SectorFundFlow() repository.Feed {
	return repository.NewFeed("eastmoney.sector_fund_flow", func(ctx context.Context) (models.Table, error) {
		out := models.NewTable(models.SchemaSectorFlow...)

		resp, err := c.clist(ctx, "m:90+t:2", "f3,f14,f62", 100)
		if err != nil {
			return out, fmt.Errorf("eastmoney sector flow: %w", err)
		}
		for _, row := range resp.Data.Diff {
			name := clistStr(row, "f14")
			if name == "" {
				continue
			}
			inflow, _ := clistFloat(row, "f62")
			pct, _ := clistFloat(row, "f3")
			_ = out.Append(models.Str(name), models.Float(inflow), models.Float(pct))
		}
		if out.Empty() {
			return out, fmt.Errorf("eastmoney sector flow: no rows")
		}
		return out, nil
	})
}

// IndustryBoards returns a Feed listing industry boards (code, name).
func (c *Client) IndustryBoards() repository.Feed {
	return repository.NewFeed("eastmoney.industry_boards", func(ctx context.Context) (models.Table, error) {
		out := models.NewTable(models.SchemaBoards...)

		resp, err := c.clist(ctx, "m:90+t:2", "f12,f14", 100)
		if err != nil {
			return out, fmt.Errorf("eastmoney boards: %w", err)
		}
		for _, row := range resp.Data.Diff {
			code := clistStr(row, "f12")
			name := clistStr(row, "f14")
			if code == "" || name == "" {
				continue
			}
			_ = out.Append(models.Str(code), models.Str(name))
		}
		if out.Empty() {
			return out, fmt.Errorf("eastmoney boards: no rows")
		}
		return out, nil
	})
}

// BoardConstituents fetches the stock codes of one industry board.
func (c *Client) BoardConstituents(ctx context.Context, boardCode string) (models.Table, error) {
	out := models.NewTable(models.SchemaBoards...)

	resp, err := c.clist(ctx, "b:"+boardCode, "f12,f14", 1000)
	if err != nil {
		return out, fmt.Errorf("eastmoney constituents %s: %w", boardCode, err)
	}
	for _, row := range resp.Data.Diff {
		code := clistStr(row, "f12")
		if code == "" {
			continue
		}
		_ = out.Append(models.Str(code), models.Str(clistStr(row, "f14")))
	}
	if out.Empty() {
		return out, fmt.Errorf("eastmoney constituents %s: no rows", boardCode)
	}
	return out, nil
}

// MarketActivity returns a Feed that derives market-wide up/down counts from
// the spot list, the alternate behind the Tencent adratio.
func (c *Client) MarketActivity() repository.Feed {
	return repository.NewFeed("eastmoney.market_activity", func(ctx context.Context) (models.Table, error) {
		out := models.NewTable(models.SchemaActivity...)

		resp, err := c.clist(ctx, "m:0+t:6,m:0+t:80,m:1+t:2,m:1+t:23", "f3,f12", 6000)
		if err != nil {
			return out, fmt.Errorf("eastmoney activity: %w", err)
		}
		var up, down float64
		for _, row := range resp.Data.Diff {
			pct, ok := clistFloat(row, "f3")
			if !ok {
				continue
			}
			switch {
			case pct > 0:
				up++
			case pct < 0:
				down++
			}
		}
		if up == 0 && down == 0 {
			return out, fmt.Errorf("eastmoney activity: no rows")
		}
		_ = out.Append(models.Float(up), models.Float(down))
		return out, nil
	})
}

// SpotSnapshot returns a Feed of the all-A spot list: code, name, pct_chg,
// volume_ratio and float market cap (元).
func (c *Client) SpotSnapshot() repository.Feed {
	return repository.NewFeed("eastmoney.spot_snapshot", func(ctx context.Context) (models.Table, error) {
		out := models.NewTable(models.SchemaSpot...)

		resp, err := c.clist(ctx, "m:0+t:6,m:0+t:80,m:1+t:2,m:1+t:23", "f3,f10,f12,f14,f21", 6000)
		if err != nil {
			return out, fmt.Errorf("eastmoney spot: %w", err)
		}
		for _, row := range resp.Data.Diff {
			code := clistStr(row, "f12")
			if code == "" {
				continue
			}
			pct, _ := clistFloat(row, "f3")
			vr, _ := clistFloat(row, "f10")
			fc, _ := clistFloat(row, "f21")
			_ = out.Append(models.Str(code), models.Str(clistStr(row, "f14")),
				models.Float(pct), models.Float(vr), models.Float(fc))
		}
		if out.Empty() {
			return out, fmt.Errorf("eastmoney spot: no rows")
		}
		return out, nil
	})
}
