package domain

import "time"

// IntervalDaily is the only bar interval the provider serves.
const IntervalDaily = "1d"

// Candle is a single OHLCV bar for a ticker.
type Candle struct {
	Symbol   string    `json:"symbol"`
	Interval string    `json:"interval"`
	OpenTime time.Time `json:"open_time"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

// DateKey formats the bar date the way frames key their rows.
func (c Candle) DateKey() string {
	return c.OpenTime.UTC().Format(time.DateOnly)
}
