package ta

import (
	"math"
	"testing"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestMeanStdIsPopulation(t *testing.T) {
	mean, std := MeanStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if mean != 5 || !near(std, 2) {
		t.Fatalf("MeanStd = %v, %v", mean, std)
	}
}

func TestDailyReturns(t *testing.T) {
	got := DailyReturns([]float64{100, 110, 99})
	if !math.IsNaN(got[0]) || !near(got[1], 10) || !near(got[2], -10) {
		t.Fatalf("unexpected returns %v", got)
	}
}

func TestSharpeSeriesExpanding(t *testing.T) {
	returns := []float64{math.NaN(), 1, 3}
	got := SharpeSeries(returns)
	if !math.IsNaN(got[0]) || !math.IsNaN(got[1]) {
		t.Fatalf("expected warm-up NaN, got %v", got)
	}
	// window {0.01, 0.03}: mean 0.02, sample std sqrt(0.0002)
	want := (0.02 - DailyRiskFree) / math.Sqrt(0.0002)
	if !near(got[2], want) {
		t.Fatalf("sharpe = %v, want %v", got[2], want)
	}
}

func TestRSIBounds(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + float64(i%5) - float64(i%3)
	}
	for i, v := range RSISeries(closes, 14) {
		if i < 14 {
			if !math.IsNaN(v) {
				t.Fatalf("expected NaN before period, got %v at %d", v, i)
			}
			continue
		}
		if v < 0 || v > 100 {
			t.Fatalf("rsi out of range: %v", v)
		}
	}
}

func TestBollingerPosition(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5}
	pos := BollingerPosition(closes, 3, 2)
	if !math.IsNaN(pos[1]) {
		t.Fatalf("expected NaN during warm-up, got %v", pos[1])
	}
	if pos[4] <= 0.5 || pos[4] >= 1 {
		t.Fatalf("rising close should sit in the upper half of the band, got %v", pos[4])
	}
}

func TestRSIShortInputIsAllNaN(t *testing.T) {
	got := RSISeries([]float64{1, 2, 3}, 14)
	if len(got) != 3 {
		t.Fatalf("expected aligned series, got %d values", len(got))
	}
	for i, v := range got {
		if !math.IsNaN(v) {
			t.Fatalf("expected NaN at %d, got %v", i, v)
		}
	}
}

func TestMACDHistogramIsLineMinusSignal(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	macd := MACDSeries(closes, 12, 26, 9)
	if len(macd.Line) != len(closes) || len(macd.Histogram) != len(closes) {
		t.Fatalf("series not aligned with closes")
	}
	for i := range closes {
		if !near(macd.Histogram[i], macd.Line[i]-macd.Signal[i]) {
			t.Fatalf("histogram mismatch at %d", i)
		}
	}
	if macd.Line[59] <= 0 {
		t.Fatalf("steady uptrend should give a positive MACD line, got %v", macd.Line[59])
	}
}
