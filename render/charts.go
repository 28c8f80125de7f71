package render

import (
	"fmt"

	"github.com/rustyeddy/tradedash/model"
	"github.com/rustyeddy/tradedash/view"
)

// DefaultChartPoints is how many recent trades the P/L chart shows, and the
// most it will show.
const DefaultChartPoints = 20

// Palette holds the chart colors.
type Palette struct {
	Primary string
	Success string
	Danger  string
}

// ChartOptions controls the chart projection.
type ChartOptions struct {
	Palette Palette
	Points  int
	Order   model.Order
	Kind    view.ChartKind // bar or line for the P/L chart
}

// Charts is the chart state owned by the controller. Handles are created on
// first use and then updated in place, so at most one chart per slot exists.
type Charts struct {
	Trades   view.Chart
	Outcomes view.Chart
}

// TradeSeries derives the P/L window: labels T1..Tn, oldest first, with a
// success or danger color per point.
func TradeSeries(trades []model.Trade, opt ChartOptions) ([]string, view.Dataset) {
	points := opt.Points
	if points <= 0 || points > DefaultChartPoints {
		points = DefaultChartPoints
	}
	window := model.RecentWindow(trades, points, opt.Order)

	labels := make([]string, len(window))
	ds := view.Dataset{
		Label:  "Profit/Loss ($)",
		Data:   make([]float64, len(window)),
		Colors: make([]string, len(window)),
	}
	for i, t := range window {
		labels[i] = fmt.Sprintf("T%d", i+1)
		ds.Data[i] = t.Profit.InexactFloat64()
		if model.SignTone(t.Profit) == model.Positive {
			ds.Colors[i] = opt.Palette.Success
		} else {
			ds.Colors[i] = opt.Palette.Danger
		}
	}
	return labels, ds
}

// OutcomeSeries derives the win/loss proportion over all trades given.
func OutcomeSeries(trades []model.Trade, opt ChartOptions) ([]string, view.Dataset) {
	o := model.CountOutcomes(trades)
	labels := []string{fmt.Sprintf("Wins (%d)", o.Wins), fmt.Sprintf("Losses (%d)", o.Losses)}
	return labels, view.Dataset{
		Label:  "Outcomes",
		Data:   []float64{float64(o.Wins), float64(o.Losses)},
		Colors: []string{opt.Palette.Success, opt.Palette.Danger},
	}
}

// RenderCharts pushes trades into both charts and returns the updated state.
// With no trades the charts are left untouched.
func RenderCharts(st Charts, f view.ChartFactory, trades []model.Trade, opt ChartOptions) Charts {
	if len(trades) == 0 || f == nil {
		return st
	}

	kind := opt.Kind
	if kind == "" {
		kind = view.Bar
	}
	if st.Trades == nil {
		st.Trades = f.NewChart(view.ChartTrades, kind)
	}
	if st.Outcomes == nil {
		st.Outcomes = f.NewChart(view.ChartOutcomes, view.Doughnut)
	}

	labels, ds := TradeSeries(trades, opt)
	st.Trades.Update(labels, []view.Dataset{ds})

	labels, ds = OutcomeSeries(trades, opt)
	st.Outcomes.Update(labels, []view.Dataset{ds})
	return st
}

// Destroy releases both charts and returns the empty state.
func (c Charts) Destroy() Charts {
	if c.Trades != nil {
		c.Trades.Destroy()
	}
	if c.Outcomes != nil {
		c.Outcomes.Destroy()
	}
	return Charts{}
}
