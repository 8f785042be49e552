package backtest

import (
	"math"

	"github.com/shopspring/decimal"
)

// tradingDaysPerYear is the annualization factor for daily returns.
const tradingDaysPerYear = 252

// Performance aggregates the statistics of one completed run. Ratios are
// fractions, not percentages: a TotalReturn of 0.25 means +25%.
type Performance struct {
	InitialCapital decimal.Decimal `json:"initial_capital"`
	FinalEquity    decimal.Decimal `json:"final_equity"`
	TotalReturn    decimal.Decimal `json:"total_return"`
	CAGR           decimal.Decimal `json:"cagr"`
	AnnualizedRet  decimal.Decimal `json:"annualized_return"`
	SharpeRatio    decimal.Decimal `json:"sharpe_ratio"`

	MaxDrawdown         decimal.Decimal `json:"max_drawdown"`
	MaxDrawdownDays     int             `json:"max_drawdown_days"`
	MaxDrawdownRecorded bool            `json:"max_drawdown_recorded"`

	TotalTrades   int             `json:"total_trades"`
	WinningTrades int             `json:"winning_trades"`
	LosingTrades  int             `json:"losing_trades"`
	WinRate       decimal.Decimal `json:"win_rate"`

	// ProfitFactor is gross profit over gross loss. When the run has wins
	// but no losses the ratio is unbounded; ProfitFactorDefined reports
	// whether the value is meaningful.
	ProfitFactor        decimal.Decimal `json:"profit_factor"`
	ProfitFactorDefined bool            `json:"profit_factor_defined"`

	GrossProfit decimal.Decimal `json:"gross_profit"`
	GrossLoss   decimal.Decimal `json:"gross_loss"`
	NetProfit   decimal.Decimal `json:"net_profit"`

	AverageWin  decimal.Decimal `json:"average_win"`
	AverageLoss decimal.Decimal `json:"average_loss"`
	LargestWin  decimal.Decimal `json:"largest_win"`
	LargestLoss decimal.Decimal `json:"largest_loss"`

	TotalCommission decimal.Decimal `json:"total_commission"`
	TotalSlippage   decimal.Decimal `json:"total_slippage"`
}

// Compute derives the full statistics set from a run's closed trades and
// equity curve. It is a pure function of its inputs.
func Compute(trades []Trade, equity []EquityPoint, cfg Config) Performance {
	p := Performance{
		InitialCapital: cfg.InitialCapital,
		FinalEquity:    cfg.InitialCapital,
		TotalTrades:    len(trades),
	}
	if len(equity) > 0 {
		p.FinalEquity = equity[len(equity)-1].Value
	}

	if cfg.InitialCapital.Sign() > 0 {
		p.TotalReturn = p.FinalEquity.Div(cfg.InitialCapital).Sub(one)
	}
	p.NetProfit = p.FinalEquity.Sub(cfg.InitialCapital)

	computeTradeStats(&p, trades)
	computeReturnStats(&p, equity, cfg)
	computeDrawdown(&p, equity)
	return p
}

func computeTradeStats(p *Performance, trades []Trade) {
	for _, t := range trades {
		p.TotalCommission = p.TotalCommission.Add(t.Commission)
		p.TotalSlippage = p.TotalSlippage.Add(t.Slippage)

		// A break-even trade counts as a loss.
		if t.PnL.Sign() > 0 {
			p.WinningTrades++
			p.GrossProfit = p.GrossProfit.Add(t.PnL)
			if t.PnL.GreaterThan(p.LargestWin) {
				p.LargestWin = t.PnL
			}
		} else {
			p.LosingTrades++
			p.GrossLoss = p.GrossLoss.Add(t.PnL.Abs())
			if t.PnL.LessThan(p.LargestLoss) {
				p.LargestLoss = t.PnL
			}
		}
	}

	if p.TotalTrades > 0 {
		p.WinRate = decimal.NewFromInt(int64(p.WinningTrades)).
			Div(decimal.NewFromInt(int64(p.TotalTrades)))
	}
	if p.WinningTrades > 0 {
		p.AverageWin = p.GrossProfit.Div(decimal.NewFromInt(int64(p.WinningTrades)))
	}
	if p.LosingTrades > 0 {
		p.AverageLoss = p.GrossLoss.Neg().Div(decimal.NewFromInt(int64(p.LosingTrades)))
	}

	if p.GrossLoss.Sign() > 0 {
		p.ProfitFactor = p.GrossProfit.Div(p.GrossLoss)
		p.ProfitFactorDefined = true
	} else if p.GrossProfit.Sign() == 0 {
		// No wins and no losses: 0/0 is conventionally zero.
		p.ProfitFactorDefined = true
	}
}

// computeReturnStats derives CAGR, annualized return, and Sharpe. CAGR and
// the Sharpe standard deviation need pow/sqrt, so these pass through float64
// and back; everything else stays in decimal.
func computeReturnStats(p *Performance, equity []EquityPoint, cfg Config) {
	if len(equity) < 2 || cfg.InitialCapital.Sign() <= 0 {
		return
	}

	days := equity[len(equity)-1].Time.Sub(equity[0].Time).Hours() / 24
	growth, _ := p.FinalEquity.Div(cfg.InitialCapital).Float64()
	if days > 0 && growth > 0 {
		cagr := math.Pow(growth, 365/days) - 1
		p.CAGR = decimal.NewFromFloat(cagr)
	}

	// Daily simple returns off the equity curve.
	daily := make([]decimal.Decimal, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Value
		if prev.Sign() == 0 {
			continue
		}
		daily = append(daily, equity[i].Value.Div(prev).Sub(one))
	}
	if len(daily) == 0 {
		return
	}

	n := decimal.NewFromInt(int64(len(daily)))
	mean := decimal.Zero
	for _, r := range daily {
		mean = mean.Add(r)
	}
	mean = mean.Div(n)

	annFactor := decimal.NewFromInt(tradingDaysPerYear)
	p.AnnualizedRet = mean.Mul(annFactor)

	variance := decimal.Zero
	for _, r := range daily {
		d := r.Sub(mean)
		variance = variance.Add(d.Mul(d))
	}
	variance = variance.Div(n)

	varF, _ := variance.Float64()
	annStdev := decimal.NewFromFloat(math.Sqrt(varF)).
		Mul(decimal.NewFromFloat(math.Sqrt(tradingDaysPerYear)))

	// Zero volatility means Sharpe stays at its zero value rather than
	// dividing by zero.
	if annStdev.Sign() > 0 {
		p.SharpeRatio = p.AnnualizedRet.Sub(cfg.RiskFreeRate).Div(annStdev)
	}
}

// computeDrawdown finds the deepest peak-to-trough decline as a fraction of
// the peak, and the longest span in days from a peak to its recovery (or to
// the end of the curve if equity never recovers).
func computeDrawdown(p *Performance, equity []EquityPoint) {
	if len(equity) == 0 {
		return
	}
	p.MaxDrawdownRecorded = true

	peak := equity[0]
	ddStart := equity[0]
	for _, pt := range equity {
		if pt.Value.GreaterThanOrEqual(peak.Value) {
			// Recovered: close out the span measurement.
			span := int(pt.Time.Sub(ddStart.Time).Hours() / 24)
			if span > p.MaxDrawdownDays {
				p.MaxDrawdownDays = span
			}
			peak = pt
			ddStart = pt
			continue
		}
		if peak.Value.Sign() > 0 {
			dd := peak.Value.Sub(pt.Value).Div(peak.Value)
			if dd.GreaterThan(p.MaxDrawdown) {
				p.MaxDrawdown = dd
			}
		}
	}
	// Unrecovered drawdown runs to the end of the curve.
	span := int(equity[len(equity)-1].Time.Sub(ddStart.Time).Hours() / 24)
	if span > p.MaxDrawdownDays {
		p.MaxDrawdownDays = span
	}
}
