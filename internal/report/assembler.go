// Package report assembles the review into a static HTML page. Sections are
// rendered in a fixed order; an unavailable indicator renders its placeholder
// line instead of dropping the section.
package report

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"github.com/since02/a-share-insight-web/internal/domain/models"
)

const (
	divider     = "================================================================================"
	placeholder = "暂无数据"
	disclaimer  = "免责声明: 仅供参考，不构成投资建议。"
	title       = "A-Share 全面复盘+AI决策"
)

const htmlShell = `<!DOCTYPE html>
<html lang="zh-CN"><head><meta charset="utf-8">
<title>%s</title>
<style>
body{font-family:Consolas,monospace;font-size:14px;line-height:1.6;margin:2rem;}
h3{color:#444;}
</style>
</head><body><pre>%s</pre></body></html>`

// Assembler renders one run context into the report page.
type Assembler struct {
	commentary string
}

// New builds an assembler; commentary is the AI paragraph (or its fallback).
func New(commentary string) *Assembler {
	return &Assembler{commentary: commentary}
}

// Render produces the full HTML document.
func (a *Assembler) Render(rc *models.RunContext) string {
	text := a.renderText(rc)
	return fmt.Sprintf(htmlShell, title, html.EscapeString(text))
}

func (a *Assembler) renderText(rc *models.RunContext) string {
	var lines []string
	add := func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}

	add(divider)
	add("%s  %s  %s", title, rc.StartedAt.Format("2006-01-02 15:04"), rc.Mode.Display())
	add(divider)

	add("")
	add("一、AI 点评")
	if a.commentary != "" {
		add("%s", a.commentary)
	} else {
		add(placeholder)
	}

	add("")
	add("二、市场阶段")
	if stage := rc.Indicator(models.IndMarketStage); stage.Available {
		add("【阶段】%s", stage.Reason)
		add("【风险】%s", stage.Label)
	} else {
		add(placeholder)
	}

	add("")
	add("三、数据速览")
	if t := rc.Indicator(models.IndTurnover); t.Available {
		line := fmt.Sprintf("【量能】成交额 %.0f 亿  %s", t.Scalar, t.Label)
		if t.Reason != "" {
			line += "（" + t.Reason + "）"
		}
		add("%s", line)
	} else {
		add("【量能】%s", placeholder)
	}
	if s := rc.Indicator(models.IndSentiment); s.Available {
		add("【情绪】赚钱效应 %.2f%%  %s（%s）", s.Scalar, s.Label, s.Reason)
	} else {
		add("【情绪】%s", placeholder)
	}
	if l := rc.Indicator(models.IndLeverage); l.Available {
		add("【两融】杠杆率 %.2f%%  %s  %s", l.Scalar, l.Label, l.Reason)
	} else {
		add("【两融】%s", placeholder)
	}
	add("%s", northLine(rc))

	add("")
	add("四、板块热度 TOP5")
	if heat := rc.Indicator(models.IndSectorHeat); heat.Available {
		top := heat.Ranked.Head(5)
		for i := 0; i < top.Len(); i++ {
			name, _ := top.StrAt(i, models.ColName)
			h, _ := top.FloatAt(i, models.ColHeat)
			inflow, _ := top.FloatAt(i, models.ColNetInflow)
			add("  - %s  热度 %.1f  净流入 %+.1f 亿", name, h, inflow/1e8)
		}
	} else {
		add(placeholder)
	}

	add("")
	add("五、ETF 综合评分 TOP10")
	if scores := rc.Indicator(models.IndSymbolScores); scores.Available {
		top := scores.Ranked.Head(10)
		for i := 0; i < top.Len(); i++ {
			code, _ := top.StrAt(i, models.ColCode)
			name, _ := top.StrAt(i, models.ColName)
			theme, _ := top.StrAt(i, models.ColTheme)
			score, _ := top.FloatAt(i, models.ColScore)
			add("  - %s(%s)  主题 %s  得分 %.1f", name, code, theme, score)
		}
	} else {
		add(placeholder)
	}

	add("")
	add(divider)
	add(disclaimer)
	add(divider)
	return strings.Join(lines, "\n")
}

// northLine formats the northbound flow straight from its table; it is a raw
// data line, not a derived indicator.
func northLine(rc *models.RunContext) string {
	north := rc.Table(models.TblNorthFlow)
	if v, ok := north.LastFloat(models.ColNetInflow); ok {
		return fmt.Sprintf("【北向】净流入 %+.2f 亿", v)
	}
	return "【北向】" + placeholder
}

// Write atomically replaces path with the rendered document. This is the one
// failure the caller treats as fatal.
func (a *Assembler) Write(path string, rc *models.RunContext) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".report-*")
	if err != nil {
		return fmt.Errorf("create temp report: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(a.Render(rc)); err != nil {
		tmp.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace report: %w", err)
	}
	return nil
}
