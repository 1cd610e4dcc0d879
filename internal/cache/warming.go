package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kjstillabower/weathernow/internal/models"
)

// warmConcurrency bounds concurrent geocoding calls during warming.
const warmConcurrency = 4

// PlaceResolver is implemented by the service layer to geocode a city through the cache.
// Used by Warmer to avoid a circular dependency on the service package.
type PlaceResolver interface {
	ResolvePlace(ctx context.Context, city string) (models.Place, error)
}

// Warmer pre-resolves a list of cities so their first page view skips geocoding.
type Warmer struct {
	resolver PlaceResolver
	logger   *zap.Logger
}

// NewWarmer creates a Warmer that uses the given resolver and logger.
func NewWarmer(resolver PlaceResolver, logger *zap.Logger) *Warmer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Warmer{resolver: resolver, logger: logger}
}

// Warm resolves the cities with at most warmConcurrency lookups in flight. One
// failing city does not stop the others; the per-city errors are joined.
func (w *Warmer) Warm(ctx context.Context, cities []string) error {
	start := time.Now()
	w.logger.Info("warming place cache", zap.Int("cities", len(cities)))

	var (
		mu   sync.Mutex
		errs []error
	)
	var g errgroup.Group
	g.SetLimit(warmConcurrency)
	for _, city := range cities {
		city := city
		g.Go(func() error {
			if _, err := w.resolver.ResolvePlace(ctx, city); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("warm %s: %w", city, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	w.logger.Info("place cache warming complete",
		zap.Int("cities", len(cities)),
		zap.Int("errors", len(errs)),
		zap.Duration("duration", time.Since(start)))
	return errors.Join(errs...)
}
