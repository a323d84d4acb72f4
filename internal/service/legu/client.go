// Package legu wraps the legulegu sentiment endpoints: market congestion and
// the rising-price-on-rising-volume ranking.
package legu

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/since02/a-share-insight-web/internal/domain/models"
	"github.com/since02/a-share-insight-web/internal/domain/repository"
	xhttp "github.com/since02/a-share-insight-web/pkg/http"
)

// Client issues requests against the legulegu data API.
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

// NewClient creates a legulegu client.
func NewClient(httpClient *xhttp.Client, opts ...Option) *Client {
	c := &Client{
		baseURL: "https://legulegu.com",
		http:    httpClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type congestionResp struct {
	Data []struct {
		Date       string      `json:"date"`
		Congestion json.Number `json:"congestion"`
	} `json:"data"`
}

// Congestion returns a Feed of the market congestion series (percent of
// turnover concentrated in the hottest decile of stocks).
func (c *Client) Congestion() repository.Feed {
	return repository.NewFeed("legu.congestion", func(ctx context.Context) (models.Table, error) {
		out := models.NewTable(models.SchemaCongestion...)

		var resp congestionResp
		err := c.http.GetJSON(ctx, c.baseURL+"/api/stockdata/congestion", nil, &resp)
		if err != nil {
			return out, fmt.Errorf("legu congestion: %w", err)
		}
		for _, row := range resp.Data {
			d, err := time.ParseInLocation("2006-01-02", row.Date, time.Local)
			if err != nil {
				continue
			}
			v, err := row.Congestion.Float64()
			if err != nil {
				continue
			}
			_ = out.Append(models.Time(d), models.Float(v))
		}
		if out.Empty() {
			return out, fmt.Errorf("legu congestion: no rows")
		}
		return out, nil
	})
}

type ljqsResp struct {
	Data []struct {
		Code string `json:"code"`
		Name string `json:"name"`
	} `json:"data"`
}

// RisingVolumeRank returns a Feed listing stocks rising on rising volume.
// The metric layer only needs the row count, but codes are kept so sector
// heat can attribute them.
func (c *Client) RisingVolumeRank() repository.Feed {
	return repository.NewFeed("legu.rising_volume_rank", func(ctx context.Context) (models.Table, error) {
		out := models.NewTable(models.SchemaRisingRank...)

		var resp ljqsResp
		err := c.http.GetJSON(ctx, c.baseURL+"/api/stockdata/ljqs", nil, &resp)
		if err != nil {
			return out, fmt.Errorf("legu ljqs: %w", err)
		}
		for _, row := range resp.Data {
			if row.Code == "" {
				continue
			}
			_ = out.Append(models.Str(row.Code), models.Str(row.Name))
		}
		if out.Empty() {
			return out, fmt.Errorf("legu ljqs: no rows")
		}
		return out, nil
	})
}
