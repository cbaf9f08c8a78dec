// Package momentum turns trailing bar windows into return signals.
package momentum

import (
	"sort"

	"github.com/vh1572/alpaca-rebalance/internal/market"
)

// Score computes the trailing-window return for every symbol whose series
// holds at least two bars, using the first bar's open and the last bar's
// close. Symbols with fewer bars are skipped: a closed market, a delisting,
// or a data gap is a coverage condition, not an error. Output is ordered by
// symbol so cycles log deterministically.
func Score(bars map[string][]market.Bar) []market.MomentumSample {
	symbols := make([]string, 0, len(bars))
	for sym := range bars {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	samples := make([]market.MomentumSample, 0, len(symbols))
	for _, sym := range symbols {
		series := bars[sym]
		if len(series) < 2 {
			continue
		}
		firstOpen := series[0].Open
		if firstOpen.IsZero() {
			continue
		}
		lastClose := series[len(series)-1].Close
		ret := lastClose.Sub(firstOpen).Div(firstOpen)
		samples = append(samples, market.MomentumSample{
			Symbol:    sym,
			ReturnPct: ret.InexactFloat64(),
		})
	}
	return samples
}
