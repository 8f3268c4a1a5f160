// Package ta computes the indicator series the signal features are built
// from. Every series is aligned with its input closes; positions without
// enough history are NaN so the feature frame can drop them as warm-up.
package ta

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// MeanStd returns the population mean and standard deviation.
func MeanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	return stat.PopMeanStdDev(values, nil)
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// EMASeries smooths values with factor 2/(period+1), seeded with the first
// value. A period of 1 or less returns a copy.
func EMASeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	if period <= 1 {
		copy(out, values)
		return out
	}
	alpha := 2.0 / float64(period+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// RSISeries is Wilder's relative strength index in [0, 100]. The first
// period positions are NaN, as is every position when there are not more
// than period closes.
func RSISeries(closes []float64, period int) []float64 {
	series := nanSeries(len(closes))
	if period <= 0 || len(closes) <= period {
		return series
	}

	var gainSum, lossSum float64
	for i := 1; i <= period; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gainSum += delta
		} else {
			lossSum -= delta
		}
	}
	avgGain := gainSum / float64(period)
	avgLoss := lossSum / float64(period)
	series[period] = rsiFromAvg(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		avgGain = (avgGain*float64(period-1) + math.Max(delta, 0)) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + math.Max(-delta, 0)) / float64(period)
		series[i] = rsiFromAvg(avgGain, avgLoss)
	}
	return series
}

func rsiFromAvg(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// MACD holds the three aligned MACD series.
type MACD struct {
	Line      []float64
	Signal    []float64
	Histogram []float64
}

// MACDSeries returns the fast-minus-slow EMA line, its signal EMA and the
// histogram (line minus signal). The histogram is the momentum feature.
func MACDSeries(values []float64, fast, slow, signal int) MACD {
	fastEMA := EMASeries(values, fast)
	slowEMA := EMASeries(values, slow)
	line := make([]float64, len(values))
	for i := range values {
		line[i] = fastEMA[i] - slowEMA[i]
	}
	sig := EMASeries(line, signal)
	hist := make([]float64, len(values))
	for i := range values {
		hist[i] = line[i] - sig[i]
	}
	return MACD{Line: line, Signal: sig, Histogram: hist}
}

// BollingerSeries returns the middle, upper and lower bands: a rolling mean
// over period closes plus and minus stdDevs population deviations.
func BollingerSeries(values []float64, period int, stdDevs float64) (middle, upper, lower []float64) {
	middle = nanSeries(len(values))
	upper = nanSeries(len(values))
	lower = nanSeries(len(values))
	if period <= 0 {
		return middle, upper, lower
	}
	for i := period - 1; i < len(values); i++ {
		mean, std := MeanStd(values[i-period+1 : i+1])
		middle[i] = mean
		upper[i] = mean + stdDevs*std
		lower[i] = mean - stdDevs*std
	}
	return middle, upper, lower
}
