// Package sina wraps the Sina finance margin-trading endpoints. The JSON
// service drifts often, so a scrape of the legacy HTML summary page sits
// behind it as the alternate.
package sina

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/since02/a-share-insight-web/internal/domain/models"
	"github.com/since02/a-share-insight-web/internal/domain/repository"
	xhttp "github.com/since02/a-share-insight-web/pkg/http"
)

// Client issues requests against the Sina quotes service.
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

// NewClient creates a Sina client.
func NewClient(httpClient *xhttp.Client, opts ...Option) *Client {
	c := &Client{
		baseURL: "https://vip.stock.finance.sina.com.cn",
		http:    httpClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type marginResp struct {
	Balance json.Number `json:"balance"`
	Change  json.Number `json:"change"`
}

// nodes per exchange on the qInfo service.
var marginNodes = map[string]string{
	"sh": "margin",
	"sz": "margin_sz",
}

// MarginBalance returns a Feed of one exchange's margin-financing balance and
// its day-over-day change, both in 元.
func (c *Client) MarginBalance(exchange string) repository.Feed {
	node := marginNodes[exchange]
	return repository.NewFeed("sina.margin_"+exchange, func(ctx context.Context) (models.Table, error) {
		out := models.NewTable(models.SchemaMargin...)
		if node == "" {
			return out, fmt.Errorf("sina margin: unknown exchange %q", exchange)
		}

		var resp marginResp
		err := c.http.GetJSON(ctx, c.baseURL+"/quotesService/view/qInfo.php", map[string]string{
			"format": "json",
			"node":   node,
		}, &resp)
		if err != nil {
			return out, fmt.Errorf("sina margin %s: %w", exchange, err)
		}
		bal, err1 := resp.Balance.Float64()
		chg, err2 := resp.Change.Float64()
		if err1 != nil || err2 != nil || bal == 0 {
			return out, fmt.Errorf("sina margin %s: malformed payload balance=%q change=%q",
				exchange, resp.Balance, resp.Change)
		}
		_ = out.Append(models.Float(bal), models.Float(chg))
		return out, nil
	})
}

// MarginBalanceHTML returns a Feed that scrapes the legacy margin summary
// page. It looks for the first table row whose label cell mentions 余额 and
// parses the 亿-denominated figures back to 元.
func (c *Client) MarginBalanceHTML(exchange string) repository.Feed {
	path := "/mkt/marginSummary/" + exchange + ".html"
	return repository.NewFeed("sina.margin_html_"+exchange, func(ctx context.Context) (models.Table, error) {
		out := models.NewTable(models.SchemaMargin...)

		var body []byte
		err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
			Method: xhttp.MethodGet,
			URL:    c.baseURL + path,
		}, &body)
		if err != nil {
			return out, fmt.Errorf("sina margin page %s: %w", exchange, err)
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
		if err != nil {
			return out, fmt.Errorf("sina margin page %s: %w", exchange, err)
		}

		var balance, change float64
		var found bool
		doc.Find("table tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
			cells := row.Find("td")
			if cells.Length() < 3 {
				return true
			}
			if !strings.Contains(cells.Eq(0).Text(), "余额") {
				return true
			}
			b, err1 := parseYi(cells.Eq(1).Text())
			ch, err2 := parseYi(cells.Eq(2).Text())
			if err1 != nil || err2 != nil {
				return true
			}
			balance, change, found = b, ch, true
			return false
		})
		if !found || balance == 0 {
			return out, fmt.Errorf("sina margin page %s: balance row not found", exchange)
		}
		_ = out.Append(models.Float(balance), models.Float(change))
		return out, nil
	})
}

// parseYi parses figures like "16,234.5亿" or "+120.3亿" into 元.
func parseYi(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "亿")
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", s, err)
	}
	return v * 1e8, nil
}
