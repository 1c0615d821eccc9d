package service

import (
	"context"

	"VolScreen/internal/domain/models"
)

// MetricsCalculator builds one symbol's record. ok is false when the symbol
// must be left out of the run; the cause is logged, never returned.
type MetricsCalculator interface {
	ComputeMetrics(ctx context.Context, symbol string) (m *models.VolatilityMetrics, ok bool)
}
