package earnings

import (
	"context"
	"math"

	"VolScreen/internal/domain/models"
	domrepo "VolScreen/internal/domain/repository"
	domsvc "VolScreen/internal/domain/service"
	applogger "VolScreen/pkg/logger"
)

// FailSoft adapts an EarningsSource into an EarningsSignalProvider: absence,
// failure, cancellation and non-finite values all collapse to 0.
type FailSoft struct {
	source  domsvc.EarningsSource
	log     *applogger.Logger
	metrics domrepo.Metrics
}

func NewFailSoft(source domsvc.EarningsSource, l *applogger.Logger, m domrepo.Metrics) *FailSoft {
	return &FailSoft{source: source, log: l, metrics: m}
}

func (f *FailSoft) LatestSurprise(ctx context.Context, symbol string) (v float64) {
	defer func() {
		if r := recover(); r != nil {
			f.log.Warn("earnings source panicked", applogger.String("symbol", symbol), applogger.Any("panic", r))
			f.metrics.RecordFallback("earnings")
			v = 0
		}
	}()

	v, err := f.source.LatestSurprise(ctx, symbol)
	if err != nil {
		f.log.Debug("earnings surprise unavailable, using 0",
			applogger.String("symbol", symbol),
			applogger.String("kind", models.ErrorKind(err)),
			applogger.Error(err),
		)
		f.metrics.RecordFallback("earnings")
		return 0
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		f.metrics.RecordFallback("earnings")
		return 0
	}
	return v
}

var _ domsvc.EarningsSignalProvider = (*FailSoft)(nil)
