package cron

import (
	"context"
	"errors"
	"time"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/logger"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/metrics"
)

const (
	orderTTLJobName    = "expire-stale-orders"
	defaultOrderTTL    = 24 * time.Hour
	defaultExpiryBatch = 200
)

type staleOrderExpirer interface {
	ExpireStale(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

type OrderTTLJobParams struct {
	Logger  *logger.Logger
	Orders  staleOrderExpirer
	Metrics *metrics.CronJobMetrics
	// TTL is how long an order may sit in created before it is failed.
	TTL   time.Duration
	Batch int
}

// NewOrderTTLJob fails gateway orders that were created but never paid.
func NewOrderTTLJob(params OrderTTLJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.Orders == nil {
		return nil, errors.New("orders service required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultOrderTTL
	}
	batch := params.Batch
	if batch <= 0 {
		batch = defaultExpiryBatch
	}
	return &orderTTLJob{
		logg:    params.Logger,
		orders:  params.Orders,
		metrics: params.Metrics,
		ttl:     ttl,
		batch:   batch,
		now:     time.Now,
	}, nil
}

type orderTTLJob struct {
	logg    *logger.Logger
	orders  staleOrderExpirer
	metrics *metrics.CronJobMetrics
	ttl     time.Duration
	batch   int
	now     func() time.Time
}

func (j *orderTTLJob) Name() string { return orderTTLJobName }

// Run drains stale orders batch by batch. A batch that expires fewer rows
// than requested ends the run, which also stops a loop on rows that keep
// failing.
func (j *orderTTLJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	total := 0
	for {
		expired, err := j.orders.ExpireStale(ctx, cutoff, j.batch)
		total += expired
		if err != nil {
			j.metrics.AddAffected(orderTTLJobName, int64(total))
			return err
		}
		if expired < j.batch {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	j.metrics.AddAffected(orderTTLJobName, int64(total))
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff,
		"expired": total,
	}), "stale order sweep complete")
	return nil
}
