// Package report renders a completed run as Markdown or JSON. Rendering is
// deterministic: the same Result always produces byte-identical output, so
// reports can be diffed across runs and checked into version control.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradeforge/quantback/backtest"
)

const pricePlaces = 2
const ratioPlaces = 4

const markdownTmpl = `# Backtest Report: {{.Strategy}} on {{.Symbol}}

## Configuration

| Setting | Value |
|---|---|
| Strategy | {{.Strategy}} |
| Symbol | {{.Symbol}} |
| Period | {{.Start}} to {{.End}} |
| Initial Capital | {{.InitialCapital}} |
| Commission | {{.Commission}} |
| Slippage | {{.Slippage}} |

## Performance

| Metric | Value |
|---|---|
| Final Equity | {{.FinalEquity}} |
| Total Return | {{.TotalReturn}} |
| CAGR | {{.CAGR}} |
| Annualized Return | {{.AnnualizedRet}} |
| Sharpe Ratio | {{.Sharpe}} |
| Max Drawdown | {{.MaxDrawdown}} |
| Max Drawdown Duration | {{.MaxDrawdownDays}} days |
| Total Trades | {{.TotalTrades}} |
| Winning / Losing | {{.WinningTrades}} / {{.LosingTrades}} |
| Win Rate | {{.WinRate}} |
| Profit Factor | {{.ProfitFactor}} |
| Average Win | {{.AverageWin}} |
| Average Loss | {{.AverageLoss}} |
| Largest Win | {{.LargestWin}} |
| Largest Loss | {{.LargestLoss}} |
| Total Commission | {{.TotalCommission}} |
| Total Slippage | {{.TotalSlippage}} |

## Trades

{{if .Trades}}| # | Entry | Exit | Shares | Entry Price | Exit Price | P/L | P/L % | Days | Exit Reason |
|---|---|---|---|---|---|---|---|---|---|
{{range .Trades}}| {{.N}} | {{.EntryTime}} | {{.ExitTime}} | {{.Shares}} | {{.EntryPrice}} | {{.ExitPrice}} | {{.PnL}} | {{.PnLPct}} | {{.HoldingDays}} | {{.ExitReason}} |
{{end}}{{else}}No trades were executed.
{{end}}
## Equity

| | Time | Value |
|---|---|---|
| First | {{.EquityFirst.Time}} | {{.EquityFirst.Value}} |
| Peak | {{.EquityPeak.Time}} | {{.EquityPeak.Value}} |
| Last | {{.EquityLast.Time}} | {{.EquityLast.Value}} |

{{if .Warnings}}## Data Warnings

{{range .Warnings}}- {{.}}
{{end}}{{end}}`

var mdTemplate = template.Must(template.New("report").Parse(markdownTmpl))

type tradeRow struct {
	N           int
	EntryTime   string
	ExitTime    string
	Shares      string
	EntryPrice  string
	ExitPrice   string
	PnL         string
	PnLPct      string
	HoldingDays int
	ExitReason  string
}

type equityRow struct {
	Time  string
	Value string
}

type markdownData struct {
	Strategy        string
	Symbol          string
	Start, End      string
	InitialCapital  string
	Commission      string
	Slippage        string
	FinalEquity     string
	TotalReturn     string
	CAGR            string
	AnnualizedRet   string
	Sharpe          string
	MaxDrawdown     string
	MaxDrawdownDays int
	TotalTrades     int
	WinningTrades   int
	LosingTrades    int
	WinRate         string
	ProfitFactor    string
	AverageWin      string
	AverageLoss     string
	LargestWin      string
	LargestLoss     string
	TotalCommission string
	TotalSlippage   string
	Trades          []tradeRow
	EquityFirst     equityRow
	EquityPeak      equityRow
	EquityLast      equityRow
	Warnings        []string
}

func day(t time.Time) string { return t.UTC().Format("2006-01-02") }

func price(d decimal.Decimal) string { return d.StringFixed(pricePlaces) }

// pct renders a fraction as a fixed-places percentage, e.g. 0.2 -> "20.00%".
func pct(d decimal.Decimal) string {
	return d.Mul(decimal.NewFromInt(100)).StringFixed(pricePlaces) + "%"
}

// Markdown renders the run as a Markdown document.
func Markdown(res *backtest.Result) (string, error) {
	m := res.Metrics

	data := markdownData{
		Strategy:        res.Config.Strategy,
		Symbol:          res.Symbol,
		Start:           day(res.Config.Start),
		End:             day(res.Config.End),
		InitialCapital:  price(res.Config.InitialCapital),
		Commission:      price(res.Config.Commission),
		Slippage:        pct(res.Config.Slippage),
		FinalEquity:     price(m.FinalEquity),
		TotalReturn:     pct(m.TotalReturn),
		CAGR:            pct(m.CAGR),
		AnnualizedRet:   pct(m.AnnualizedRet),
		Sharpe:          m.SharpeRatio.StringFixed(ratioPlaces),
		MaxDrawdown:     pct(m.MaxDrawdown),
		MaxDrawdownDays: m.MaxDrawdownDays,
		TotalTrades:     m.TotalTrades,
		WinningTrades:   m.WinningTrades,
		LosingTrades:    m.LosingTrades,
		WinRate:         pct(m.WinRate),
		ProfitFactor:    profitFactor(m),
		AverageWin:      price(m.AverageWin),
		AverageLoss:     price(m.AverageLoss),
		LargestWin:      price(m.LargestWin),
		LargestLoss:     price(m.LargestLoss),
		TotalCommission: price(m.TotalCommission),
		TotalSlippage:   price(m.TotalSlippage),
		Warnings:        res.DataWarnings,
	}

	for i, tr := range res.Trades {
		data.Trades = append(data.Trades, tradeRow{
			N:           i + 1,
			EntryTime:   day(tr.EntryTime),
			ExitTime:    day(tr.ExitTime),
			Shares:      tr.Shares.String(),
			EntryPrice:  price(tr.EntryPrice),
			ExitPrice:   price(tr.ExitPrice),
			PnL:         price(tr.PnL),
			PnLPct:      pct(tr.PnLPct),
			HoldingDays: tr.HoldingDays,
			ExitReason:  tr.ExitReason,
		})
	}

	if len(res.EquityCurve) > 0 {
		first := res.EquityCurve[0]
		last := res.EquityCurve[len(res.EquityCurve)-1]
		peak := first
		for _, pt := range res.EquityCurve {
			if pt.Value.GreaterThan(peak.Value) {
				peak = pt
			}
		}
		data.EquityFirst = equityRow{Time: day(first.Time), Value: price(first.Value)}
		data.EquityPeak = equityRow{Time: day(peak.Time), Value: price(peak.Value)}
		data.EquityLast = equityRow{Time: day(last.Time), Value: price(last.Value)}
	}

	var buf bytes.Buffer
	if err := mdTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("report: render markdown: %w", err)
	}
	return buf.String(), nil
}

func profitFactor(m backtest.Performance) string {
	if !m.ProfitFactorDefined {
		return "n/a (no losing trades)"
	}
	return m.ProfitFactor.StringFixed(ratioPlaces)
}

// jsonReport is the stable machine-readable schema. Money and ratios are
// decimal strings so consumers round-trip them exactly.
type jsonReport struct {
	Strategy string                 `json:"strategy"`
	Symbol   string                 `json:"symbol"`
	Start    string                 `json:"start"`
	End      string                 `json:"end"`
	Config   backtest.Config        `json:"config"`
	Metrics  backtest.Performance   `json:"metrics"`
	Trades   []backtest.Trade       `json:"trades"`
	Equity   []backtest.EquityPoint `json:"equity_curve"`
	Warnings []string               `json:"data_warnings,omitempty"`
}

// JSON renders the run as indented JSON with a stable field order.
func JSON(res *backtest.Result) ([]byte, error) {
	out := jsonReport{
		Strategy: res.Config.Strategy,
		Symbol:   res.Symbol,
		Start:    day(res.Config.Start),
		End:      day(res.Config.End),
		Config:   res.Config,
		Metrics:  res.Metrics,
		Trades:   res.Trades,
		Equity:   res.EquityCurve,
		Warnings: res.DataWarnings,
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("report: marshal json: %w", err)
	}
	return append(b, '\n'), nil
}

// WriteFiles writes the Markdown and JSON renderings of the run into dir,
// named <symbol>_<strategy>.md and .json. It returns the two paths written.
func WriteFiles(res *backtest.Result, dir string) (mdPath, jsonPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("report: create dir: %w", err)
	}

	base := fmt.Sprintf("%s_%s", strings.ToUpper(res.Symbol), sanitize(res.Config.Strategy))

	md, err := Markdown(res)
	if err != nil {
		return "", "", err
	}
	mdPath = filepath.Join(dir, base+".md")
	if err := os.WriteFile(mdPath, []byte(md), 0o644); err != nil {
		return "", "", fmt.Errorf("report: write markdown: %w", err)
	}

	js, err := JSON(res)
	if err != nil {
		return "", "", err
	}
	jsonPath = filepath.Join(dir, base+".json")
	if err := os.WriteFile(jsonPath, js, 0o644); err != nil {
		return "", "", fmt.Errorf("report: write json: %w", err)
	}
	return mdPath, jsonPath, nil
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, name)
}
