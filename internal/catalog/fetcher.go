package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Source is the upstream API the fetcher reads from.
type Source interface {
	GetAllMakes(ctx context.Context) ([]VPICMake, error)
	GetModelsForMakeID(ctx context.Context, makeID int64) ([]VPICModel, error)
	GetModelYearsForMakeID(ctx context.Context, makeID int64) ([]string, error)
}

// FetcherConfig bounds a catalog fetch.
type FetcherConfig struct {
	MaxMakes    int // 0 means all makes
	Concurrency int
}

// Fetcher builds catalog records from a Source.
type Fetcher struct {
	source Source
	cfg    FetcherConfig
	logger *zap.Logger
}

func NewFetcher(source Source, cfg FetcherConfig, logger *zap.Logger) *Fetcher {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{source: source, cfg: cfg, logger: logger}
}

// Fetch lists makes and fetches the models and model years of the first
// MaxMakes of them concurrently. A make whose details cannot be fetched is
// logged and skipped; only failing to list makes, or cancellation, is an
// error. Makes without models are dropped. Output keeps upstream order.
func (f *Fetcher) Fetch(ctx context.Context) ([]MakeRecord, error) {
	makes, err := f.source.GetAllMakes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list makes: %w", err)
	}
	if f.cfg.MaxMakes > 0 && len(makes) > f.cfg.MaxMakes {
		makes = makes[:f.cfg.MaxMakes]
	}

	records := make([]MakeRecord, len(makes))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(f.cfg.Concurrency)
	for i, mk := range makes {
		g.Go(func() error {
			rec, err := f.fetchMake(gCtx, mk)
			if err != nil {
				if gCtx.Err() != nil {
					return gCtx.Err()
				}
				f.logger.Warn("failed to fetch make details",
					zap.String("make", mk.Name), zap.Int64("make_id", mk.ID), zap.Error(err))
				rec = MakeRecord{Name: strings.TrimSpace(mk.Name)}
			}
			records[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := records[:0]
	for _, rec := range records {
		if len(rec.Models) > 0 {
			out = append(out, rec)
		}
	}
	f.logger.Info("catalog fetched", zap.Int("makes_listed", len(makes)), zap.Int("makes_with_models", len(out)))
	return out, nil
}

func (f *Fetcher) fetchMake(ctx context.Context, mk VPICMake) (MakeRecord, error) {
	models, err := f.source.GetModelsForMakeID(ctx, mk.ID)
	if err != nil {
		return MakeRecord{}, fmt.Errorf("models: %w", err)
	}
	rawYears, err := f.source.GetModelYearsForMakeID(ctx, mk.ID)
	if err != nil {
		return MakeRecord{}, fmt.Errorf("model years: %w", err)
	}
	start, end := yearRange(rawYears)

	rec := MakeRecord{Name: strings.TrimSpace(mk.Name), Models: make([]ModelRecord, 0, len(models))}
	for _, m := range models {
		name := strings.TrimSpace(m.Name)
		if name == "" {
			continue
		}
		rec.Models = append(rec.Models, ModelRecord{Name: name, YearStart: start, YearEnd: end})
	}
	return rec, nil
}

// yearRange returns the min and max of the parseable years, or zeros when
// none parse.
func yearRange(raw []string) (int, int) {
	start, end := 0, 0
	for _, r := range raw {
		y, err := strconv.Atoi(strings.TrimSpace(r))
		if err != nil || y <= 0 {
			continue
		}
		if start == 0 || y < start {
			start = y
		}
		if y > end {
			end = y
		}
	}
	return start, end
}
