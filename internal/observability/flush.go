package observability

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// FlushTelemetry exports buffered spans and flushes logs before process exit.
// Call during graceful shutdown after in-flight requests have drained.
func FlushTelemetry(ctx context.Context, logger *zap.Logger) error {
	var errs []error
	if err := shutdownTracing(ctx); err != nil {
		errs = append(errs, fmt.Errorf("flush spans: %w", err))
	}
	if logger != nil {
		if err := logger.Sync(); err != nil {
			errs = append(errs, fmt.Errorf("flush logs: %w", err))
		}
	}
	return errors.Join(errs...)
}
