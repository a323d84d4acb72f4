// Package commentary produces the AI review paragraph through the Ark chat
// completion API. The report never depends on it succeeding: any failure
// falls back to a fixed sentence.
package commentary

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/since02/a-share-insight-web/internal/domain/models"
	"github.com/since02/a-share-insight-web/internal/domain/repository"
	xhttp "github.com/since02/a-share-insight-web/pkg/http"
	"github.com/since02/a-share-insight-web/pkg/logger"
)

const (
	defaultEndpoint = "https://ark.cn-beijing.volces.com/api/v3/bots/chat/completions"
	defaultTimeout  = 30 * time.Second

	// Fallback is rendered when the model is disabled or unreachable.
	Fallback = "AI点评暂不可用，请结合上方数据自行判断。"

	systemPrompt = "角色：你是专业的A股复盘分析师。根据给出的当日市场数据，" +
		"用不超过200字给出当日核心矛盾解读和次日操作思路，语气克制，" +
		"不要给出确定性预测，不包含任何免责声明以外的承诺。"
)

// Client calls an OpenAI-style chat completion endpoint.
type Client struct {
	endpoint string
	model    string
	apiKey   string
	http     *xhttp.Client
	log      *logger.Logger
}

// Option configures the client.
type Option func(*Client)

// WithEndpoint overrides the completion endpoint.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithModel sets the model identifier.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithAPIKey sets the bearer token. An empty key disables the client.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithTimeout bounds one completion call.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http = xhttp.NewClient(xhttp.WithTimeout(timeout))
		}
	}
}

// New builds a commentary client.
func New(log *logger.Logger, opts ...Option) *Client {
	c := &Client{
		endpoint: defaultEndpoint,
		http:     xhttp.NewClient(xhttp.WithTimeout(defaultTimeout)),
		log:      log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether the client is configured to make calls.
func (c *Client) Enabled() bool { return c.apiKey != "" && c.model != "" }

var _ repository.ChatService = (*Client)(nil)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Stream   bool          `json:"stream"`
	Messages []chatMessage `json:"messages"`
	Thinking struct {
		Type string `json:"type"`
	} `json:"thinking"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Chat performs one synchronous completion.
func (c *Client) Chat(ctx context.Context, system, user string) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("commentary disabled: no api key or model")
	}

	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
	req.Thinking.Type = "disabled"

	var resp chatResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.endpoint,
		Headers: map[string]string{
			"Authorization": "Bearer " + c.apiKey,
		},
		Body: req,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("chat completion: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Commentary summarizes the run's indicators for the model and returns its
// review, or the fixed fallback sentence on any failure.
func (c *Client) Commentary(ctx context.Context, rc *models.RunContext) string {
	if !c.Enabled() {
		return Fallback
	}

	text, err := c.Chat(ctx, systemPrompt, summarize(rc))
	if err != nil {
		c.log.Warn("commentary fallback", logger.Err(err))
		return Fallback
	}
	return strings.TrimSpace(text)
}

// summarize flattens the indicator set into the user prompt.
func summarize(rc *models.RunContext) string {
	var b strings.Builder
	b.WriteString("当日市场数据：\n")

	if t := rc.Indicator(models.IndTurnover); t.Available {
		fmt.Fprintf(&b, "成交额 %.0f亿（%s，%s）\n", t.Scalar, t.Label, t.Reason)
	}
	if s := rc.Indicator(models.IndSentiment); s.Available {
		fmt.Fprintf(&b, "赚钱效应 %.1f%%（%s），%s\n", s.Scalar, s.Label, s.Reason)
	}
	if l := rc.Indicator(models.IndLeverage); l.Available {
		fmt.Fprintf(&b, "杠杆率 %.2f%%（%s）\n", l.Scalar, l.Label)
	}
	if stage := rc.Indicator(models.IndMarketStage); stage.Available {
		fmt.Fprintf(&b, "阶段判断：%s（风险：%s）\n", stage.Reason, stage.Label)
	}
	if heat := rc.Indicator(models.IndSectorHeat); heat.Available {
		b.WriteString("热度前五板块：")
		top := heat.Ranked.Head(5)
		names := make([]string, 0, top.Len())
		for i := 0; i < top.Len(); i++ {
			if name, ok := top.StrAt(i, models.ColName); ok {
				names = append(names, name)
			}
		}
		b.WriteString(strings.Join(names, "、"))
		b.WriteString("\n")
	}
	return b.String()
}
