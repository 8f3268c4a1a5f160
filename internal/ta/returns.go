package ta

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// AnnualRiskFreePct is the yearly risk-free rate used by SharpeSeries.
const AnnualRiskFreePct = 4.2

// DailyRiskFree is AnnualRiskFreePct compounded down to one calendar day.
var DailyRiskFree = math.Pow(1+AnnualRiskFreePct/100, 1.0/365) - 1

// DailyReturns returns the close-to-close percentage change. The first
// position has no previous close and is NaN.
func DailyReturns(closes []float64) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		if i == 0 || closes[i-1] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = (closes[i] - closes[i-1]) / closes[i-1] * 100
	}
	return out
}

// SharpeSeries returns the expanding daily Sharpe ratio of percentage
// returns: the mean excess return over everything seen so far divided by the
// sample standard deviation of the same window. NaN returns are skipped and
// positions with fewer than two returns, or zero deviation, are NaN.
func SharpeSeries(returnsPct []float64) []float64 {
	out := make([]float64, len(returnsPct))
	window := make([]float64, 0, len(returnsPct))
	for i, r := range returnsPct {
		if !math.IsNaN(r) {
			window = append(window, r*0.01)
		}
		if len(window) < 2 {
			out[i] = math.NaN()
			continue
		}
		mean, std := stat.MeanStdDev(window, nil)
		if std == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = (mean - DailyRiskFree) / std
	}
	return out
}

// BollingerPosition returns where each close sits inside its band, 0 at the
// lower band and 1 at the upper band.
func BollingerPosition(closes []float64, period int, stdDevs float64) []float64 {
	_, upper, lower := BollingerSeries(closes, period, stdDevs)
	out := make([]float64, len(closes))
	for i := range closes {
		width := upper[i] - lower[i]
		if math.IsNaN(width) || width == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = (closes[i] - lower[i]) / width
	}
	return out
}
