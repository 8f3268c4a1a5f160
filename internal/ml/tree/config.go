package tree

import (
	"fmt"
	"strings"

	"signal-forest/internal/ml/common"
)

// Kind names a split selection policy.
type Kind string

const (
	// KindDecision splits on the feature most correlated with the target.
	KindDecision Kind = "dt"
	// KindRandom splits on a uniformly drawn feature.
	KindRandom Kind = "rt"
)

// ParseKind accepts the short names and a couple of long aliases.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dt", "decision":
		return KindDecision, nil
	case "rt", "random":
		return KindRandom, nil
	default:
		return "", fmt.Errorf("%w: unknown learner kind %q", common.ErrInvalidConfig, s)
	}
}

// Config controls tree growth.
type Config struct {
	// LeafSize is the row count at or below which a node stops splitting.
	LeafSize int
	// MaxDepth caps the depth of every leaf.
	MaxDepth int
	// Classifier selects majority-label leaves instead of mean-value leaves.
	Classifier bool
}

func DefaultConfig() Config {
	return Config{LeafSize: 1, MaxDepth: 5}
}

func (c Config) Validate() error {
	if c.MaxDepth <= 0 {
		return fmt.Errorf("%w: max depth must be positive, got %d", common.ErrInvalidConfig, c.MaxDepth)
	}
	if c.LeafSize < 1 {
		return fmt.Errorf("%w: leaf size must be at least 1, got %d", common.ErrInvalidConfig, c.LeafSize)
	}
	return nil
}
