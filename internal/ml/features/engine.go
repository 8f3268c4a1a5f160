// Package features turns daily candles into a labelled, keyed frame.
package features

import (
	"fmt"
	"sort"

	"signal-forest/internal/dataset"
	"signal-forest/internal/domain"
	"signal-forest/internal/ml/common"
	"signal-forest/internal/ta"
)

const (
	rsiPeriod  = 14
	macdFast   = 12
	macdSlow   = 26
	macdSignal = 9
	bbPeriod   = 20
	bbStdDevs  = 2.0

	// DefaultSignalThreshold is the next-day return, in percent, beyond
	// which a day is labelled Buy or Sell.
	DefaultSignalThreshold = 0.5
)

// Frame column names.
const (
	ColOpen        = "Open"
	ColHigh        = "High"
	ColLow         = "Low"
	ColClose       = "Close"
	ColVolume      = "Volume"
	ColDailyReturn = "DailyReturn"
	ColSharpe      = "DailySharpeRatio"
	ColRSI         = "RSI14"
	ColMACDHist    = "MACDHist"
	ColBBPos       = "BBPos"
	ColSignal      = "Signal"
	ColNextReturn  = "NextReturn"
)

// Target selects the label column of a frame.
type Target int

const (
	// TargetSignal labels each day with the encoded Buy/Hold/Sell action.
	TargetSignal Target = iota
	// TargetNextReturn labels each day with the next day's percent return.
	TargetNextReturn
)

// Column returns the frame column holding the target.
func (t Target) Column() string {
	if t == TargetNextReturn {
		return ColNextReturn
	}
	return ColSignal
}

// FeatureColumns lists the non-label columns in frame order.
func FeatureColumns() []string {
	return []string{ColOpen, ColHigh, ColLow, ColClose, ColVolume, ColDailyReturn, ColSharpe, ColRSI, ColMACDHist, ColBBPos}
}

// SignalEncoder returns the encoder for signal labels. Codes follow sorted
// label order: B=0, H=1, S=2.
func SignalEncoder() *dataset.LabelEncoder {
	return dataset.NewLabelEncoder([]string{string(domain.SignalBuy), string(domain.SignalHold), string(domain.SignalSell)})
}

type Engine struct {
	threshold float64
	encoder   *dataset.LabelEncoder
}

func NewEngine(threshold float64) *Engine {
	if threshold < 0 {
		threshold = DefaultSignalThreshold
	}
	return &Engine{threshold: threshold, encoder: SignalEncoder()}
}

// Encoder returns the signal label encoder used by BuildFrame.
func (e *Engine) Encoder() *dataset.LabelEncoder { return e.encoder }

// BuildFrame sorts candles by date and emits one row per day that has every
// indicator warmed up and a next day to label from. The last day is never
// emitted since its label is unknown.
func (e *Engine) BuildFrame(candles []*domain.Candle, target Target) (*dataset.Frame, error) {
	bars := normalizeCandles(candles)
	if len(bars) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 candles, got %d", common.ErrInvalidData, len(bars))
	}

	closes := make([]float64, len(bars))
	for i := range bars {
		closes[i] = bars[i].Close
	}
	returns := ta.DailyReturns(closes)
	sharpe := ta.SharpeSeries(returns)
	rsi := ta.RSISeries(closes, rsiPeriod)
	macd := ta.MACDSeries(closes, macdFast, macdSlow, macdSignal)
	bbPos := ta.BollingerPosition(closes, bbPeriod, bbStdDevs)

	frame, err := dataset.NewFrame(append(FeatureColumns(), target.Column()))
	if err != nil {
		return nil, err
	}
	for i := 0; i < len(bars)-1; i++ {
		label := returns[i+1]
		if target == TargetSignal {
			code, err := e.encoder.Encode(string(domain.LabelForReturn(returns[i+1], e.threshold)))
			if err != nil {
				return nil, err
			}
			label = code
		}
		b := bars[i]
		if err := frame.Append(b.DateKey(),
			b.Open, b.High, b.Low, b.Close, b.Volume,
			returns[i], sharpe[i], rsi[i], macd.Histogram[i], bbPos[i],
			label,
		); err != nil {
			return nil, err
		}
	}
	return frame.DropNonFinite(), nil
}

func normalizeCandles(in []*domain.Candle) []domain.Candle {
	out := make([]domain.Candle, 0, len(in))
	for _, c := range in {
		if c == nil {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].OpenTime.Before(out[j].OpenTime)
	})
	return out
}
