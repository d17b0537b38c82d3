package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// persister runs durable writes after the store has already been updated.
// Failures are logged and counted; callers decide whether they surface.
type persister struct {
	metrics *MetricsService
	logger  *zap.Logger
}

func newPersister(metrics *MetricsService, logger *zap.Logger) persister {
	if logger == nil {
		logger = zap.NewNop()
	}
	return persister{metrics: metrics, logger: logger}
}

func (p persister) write(ctx context.Context, collection, op string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	p.metrics.RecordPersistence(collection, op, err, time.Since(start))
	if err != nil {
		p.logger.Warn("persistence write failed",
			zap.String("collection", collection),
			zap.String("op", op),
			zap.Error(err),
		)
	}
	return err
}
