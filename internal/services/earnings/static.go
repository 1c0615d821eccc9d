package earnings

import (
	"context"
	"fmt"
	"strings"

	"VolScreen/internal/domain/models"
	domsvc "VolScreen/internal/domain/service"
)

// StaticSource serves surprises from a fixed table, keyed by upper-case symbol.
type StaticSource struct {
	values map[string]float64
}

func NewStaticSource(values map[string]float64) *StaticSource {
	m := make(map[string]float64, len(values))
	for k, v := range values {
		m[strings.ToUpper(strings.TrimSpace(k))] = v
	}
	return &StaticSource{values: m}
}

func (s *StaticSource) LatestSurprise(_ context.Context, symbol string) (float64, error) {
	v, ok := s.values[strings.ToUpper(symbol)]
	if !ok {
		return 0, fmt.Errorf("earnings %s: %w", symbol, models.ErrDataUnavailable)
	}
	return v, nil
}

// Neutral reports no surprise for every symbol.
type Neutral struct{}

func (Neutral) LatestSurprise(context.Context, string) (float64, error) { return 0, nil }

var (
	_ domsvc.EarningsSource = (*StaticSource)(nil)
	_ domsvc.EarningsSource = Neutral{}
)
