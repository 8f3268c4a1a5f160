package domain

import "time"

// SignalLabel is the trading action a day is labelled with.
type SignalLabel string

const (
	SignalBuy  SignalLabel = "B"
	SignalHold SignalLabel = "H"
	SignalSell SignalLabel = "S"
)

// LabelForReturn classifies a next-day percentage return against a symmetric
// threshold.
func LabelForReturn(nextReturnPct, threshold float64) SignalLabel {
	switch {
	case nextReturnPct > threshold:
		return SignalBuy
	case nextReturnPct < -threshold:
		return SignalSell
	default:
		return SignalHold
	}
}

type TrainingRunStatus string

const (
	RunSucceeded TrainingRunStatus = "succeeded"
	RunFailed    TrainingRunStatus = "failed"
)

// TrainingRun is the persisted record of one ensemble fit and evaluation.
type TrainingRun struct {
	ID          int64             `json:"id"`
	Symbol      string            `json:"symbol"`
	Learner     string            `json:"learner"`
	Classifier  bool              `json:"classifier"`
	Bags        int               `json:"bags"`
	LeafSize    int               `json:"leaf_size"`
	MaxDepth    int               `json:"max_depth"`
	Seed        uint64            `json:"seed"`
	TrainRows   int               `json:"train_rows"`
	TestRows    int               `json:"test_rows"`
	TrainFrom   time.Time         `json:"train_from"`
	TestTo      time.Time         `json:"test_to"`
	Status      TrainingRunStatus `json:"status"`
	MetricsJSON string            `json:"metrics_json"`
	Error       string            `json:"error,omitempty"`
	DurationMS  int64             `json:"duration_ms"`
	CreatedAt   time.Time         `json:"created_at"`
}
