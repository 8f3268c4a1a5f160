package dataset

import (
	"fmt"
	"sort"

	"signal-forest/internal/ml/common"
)

// LabelEncoder maps class labels to float codes in sorted label order.
type LabelEncoder struct {
	labels []string
	codes  map[string]float64
}

// NewLabelEncoder fits an encoder over the distinct labels in values.
func NewLabelEncoder(values []string) *LabelEncoder {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	labels := make([]string, 0, len(seen))
	for v := range seen {
		labels = append(labels, v)
	}
	sort.Strings(labels)
	codes := make(map[string]float64, len(labels))
	for i, l := range labels {
		codes[l] = float64(i)
	}
	return &LabelEncoder{labels: labels, codes: codes}
}

// Labels returns the known labels in code order.
func (e *LabelEncoder) Labels() []string { return append([]string(nil), e.labels...) }

// Encode returns the code of label.
func (e *LabelEncoder) Encode(label string) (float64, error) {
	c, ok := e.codes[label]
	if !ok {
		return 0, fmt.Errorf("%w: unknown label %q", common.ErrInvalidData, label)
	}
	return c, nil
}

// EncodeAll encodes every label.
func (e *LabelEncoder) EncodeAll(labels []string) ([]float64, error) {
	out := make([]float64, len(labels))
	for i, l := range labels {
		c, err := e.Encode(l)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

// Decode returns the label of code. Non-integral or out-of-range codes fail.
func (e *LabelEncoder) Decode(code float64) (string, error) {
	i := int(code)
	if float64(i) != code || i < 0 || i >= len(e.labels) {
		return "", fmt.Errorf("%w: unknown label code %v", common.ErrInvalidData, code)
	}
	return e.labels[i], nil
}

// DecodeAll decodes every code.
func (e *LabelEncoder) DecodeAll(codes []float64) ([]string, error) {
	out := make([]string, len(codes))
	for i, c := range codes {
		l, err := e.Decode(c)
		if err != nil {
			return nil, err
		}
		out[i] = l
	}
	return out, nil
}
