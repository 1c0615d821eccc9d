package usecase

import (
	"context"
	"math"
	"sort"
	"time"

	"VolScreen/internal/domain/models"
	domrepo "VolScreen/internal/domain/repository"
	domsvc "VolScreen/internal/domain/service"
	applogger "VolScreen/pkg/logger"
	"VolScreen/pkg/util"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const DefaultTopN = 5

type ScreeningConfig struct {
	Watchlist   []string
	TopN        int
	Concurrency int
	Timeout     time.Duration
}

// ScreeningService scores a watchlist concurrently and ranks it by volatility
// score. A run never fails: symbols that error or miss the deadline are left out.
type ScreeningService struct {
	calc      domsvc.MetricsCalculator
	publisher domrepo.ResultPublisher
	cfg       ScreeningConfig
	log       *applogger.Logger
	metrics   domrepo.Metrics
	now       func() time.Time
}

// NewScreeningService builds the service. publisher may be nil.
func NewScreeningService(calc domsvc.MetricsCalculator, publisher domrepo.ResultPublisher, cfg ScreeningConfig, l *applogger.Logger, m domrepo.Metrics) *ScreeningService {
	if cfg.TopN < 1 {
		cfg.TopN = DefaultTopN
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	cfg.Watchlist = util.NormalizeSymbols(cfg.Watchlist)
	return &ScreeningService{
		calc:      calc,
		publisher: publisher,
		cfg:       cfg,
		log:       l,
		metrics:   m,
		now:       time.Now,
	}
}

// Screen returns at most topN records, highest volatility score first.
func (s *ScreeningService) Screen(ctx context.Context, watchlist []string, topN int) []models.VolatilityMetrics {
	return s.Run(ctx, watchlist, topN).Results
}

// Run is Screen plus the run envelope. An empty watchlist falls back to the
// configured one and topN < 1 to the configured default.
func (s *ScreeningService) Run(ctx context.Context, watchlist []string, topN int) *models.ScreenResult {
	started := s.now()
	symbols := util.NormalizeSymbols(watchlist)
	if len(symbols) == 0 {
		symbols = append([]string(nil), s.cfg.Watchlist...)
	}
	if topN < 1 {
		topN = s.cfg.TopN
	}

	slots := s.fanOut(ctx, symbols)

	res := &models.ScreenResult{
		RunID:     uuid.NewString(),
		StartedAt: started.UTC(),
		Watchlist: symbols,
		TopN:      topN,
		Dropped:   []string{},
		Results:   make([]models.VolatilityMetrics, 0, len(symbols)),
	}
	for i, m := range slots {
		if m == nil {
			res.Dropped = append(res.Dropped, symbols[i])
			continue
		}
		if math.IsNaN(m.VolatilityScore) || math.IsInf(m.VolatilityScore, 0) {
			s.log.Warn("discarding non-finite volatility score",
				applogger.String("symbol", symbols[i]),
				applogger.Float64("score", m.VolatilityScore),
			)
			res.Dropped = append(res.Dropped, symbols[i])
			continue
		}
		res.Results = append(res.Results, *m)
	}
	res.Succeeded = len(res.Results)

	sort.SliceStable(res.Results, func(i, j int) bool {
		return res.Results[i].VolatilityScore > res.Results[j].VolatilityScore
	})
	if len(res.Results) > topN {
		res.Results = res.Results[:topN]
	}

	elapsed := s.now().Sub(started)
	res.DurationMS = elapsed.Milliseconds()
	s.metrics.RecordLatency("screen", elapsed.Seconds())
	s.log.Info("screening run finished",
		applogger.String("run_id", res.RunID),
		applogger.Int("requested", len(symbols)),
		applogger.Int("succeeded", res.Succeeded),
		applogger.Strings("dropped", res.Dropped),
		applogger.Duration("duration_ms", elapsed),
	)

	s.publish(ctx, res)
	return res
}

type scored struct {
	idx int
	m   *models.VolatilityMetrics
}

// fanOut scores symbols with bounded parallelism. It returns once every symbol
// finished or the run deadline passed; slot i is nil when symbol i is absent.
func (s *ScreeningService) fanOut(parent context.Context, symbols []string) []*models.VolatilityMetrics {
	ctx := parent
	cancel := context.CancelFunc(func() {})
	if s.cfg.Timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, s.cfg.Timeout)
	}
	defer cancel()

	out := make(chan scored, len(symbols))
	done := make(chan struct{})

	go func() {
		defer close(done)
		var g errgroup.Group
		g.SetLimit(s.cfg.Concurrency)
		for i, sym := range symbols {
			if ctx.Err() != nil {
				break
			}
			i, sym := i, sym
			g.Go(func() error {
				if ctx.Err() != nil {
					return nil
				}
				m, ok := s.calc.ComputeMetrics(ctx, sym)
				if ok && ctx.Err() == nil {
					out <- scored{idx: i, m: m}
				}
				return nil
			})
		}
		_ = g.Wait()
	}()

	slots := make([]*models.VolatilityMetrics, len(symbols))
	drain := func() []*models.VolatilityMetrics {
		for {
			select {
			case r := <-out:
				slots[r.idx] = r.m
			default:
				return slots
			}
		}
	}
	for {
		select {
		case r := <-out:
			slots[r.idx] = r.m
		case <-done:
			return drain()
		case <-ctx.Done():
			s.log.Warn("screening deadline reached, abandoning pending symbols",
				applogger.Error(ctx.Err()),
			)
			return drain()
		}
	}
}

func (s *ScreeningService) publish(ctx context.Context, res *models.ScreenResult) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishResult(ctx, res); err != nil {
		s.log.Error("publish screen result failed",
			applogger.String("run_id", res.RunID),
			applogger.Error(err),
		)
	}
}
