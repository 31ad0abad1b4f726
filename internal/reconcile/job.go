// Package reconcile re-derives every lot's remaining quantity from the
// allocation ledger on a schedule, correcting whatever drift the live traffic
// accumulated. The sweep is idempotent: with no intervening allocations a
// second run changes nothing.
package reconcile

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-fulfillment-service/internal/lot"
	"github.com/fekuna/omnipos-fulfillment-service/internal/model"
	"github.com/fekuna/omnipos-fulfillment-service/pkg/cache"
	"github.com/fekuna/omnipos-fulfillment-service/pkg/logger"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const lockKey = "lock:reconcile:lots"

type Job struct {
	lots      lot.Repository
	cache     *cache.RedisClient
	logger    logger.ZapLogger
	batchSize int
	lockTTL   time.Duration
}

func NewJob(lots lot.Repository, cache *cache.RedisClient, log logger.ZapLogger, batchSize int, lockTTL time.Duration) *Job {
	if batchSize <= 0 {
		batchSize = 200
	}
	return &Job{
		lots:      lots,
		cache:     cache,
		logger:    log,
		batchSize: batchSize,
		lockTTL:   lockTTL,
	}
}

// Schedule registers the sweep on the given cron runner.
func (j *Job) Schedule(c *cron.Cron, spec string) error {
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), j.lockTTL)
		defer cancel()
		j.Run(ctx)
	})
	return err
}

// Run sweeps every lot in batches, committing per batch so live order traffic
// is never blocked behind one long transaction. Single-flight: a run that
// cannot take the lock is skipped, not queued.
func (j *Job) Run(ctx context.Context) {
	if j.cache != nil {
		lockValue := uuid.New().String()
		acquired, err := j.cache.AcquireLock(ctx, lockKey, lockValue, j.lockTTL)
		if err != nil {
			j.logger.Error("reconcile: failed to acquire lock", zap.Error(err))
			return
		}
		if !acquired {
			j.logger.Info("reconcile: previous run still holds the lock, skipping")
			return
		}
		defer j.cache.ReleaseLock(ctx, lockKey, lockValue)
	}

	started := time.Now()
	ids, err := j.lots.ListIDs(ctx)
	if err != nil {
		j.logger.Error("reconcile: failed to list lots", zap.Error(err))
		return
	}

	var swept, corrected int
	for start := 0; start < len(ids); start += j.batchSize {
		end := start + j.batchSize
		if end > len(ids) {
			end = len(ids)
		}

		results, err := j.lots.ReconcileRemaining(ctx, ids[start:end])
		if err != nil {
			// Per-item failures inside the batch are already skipped; log and
			// keep sweeping.
			j.logger.Error("reconcile: batch had failures", zap.Error(err))
		}
		for _, res := range results {
			swept++
			if res.Changed {
				corrected++
				j.logger.Warn("reconcile: corrected remaining quantity",
					zap.String("lot_id", res.LotID),
					zap.Int64("quantity_remaining", res.QuantityRemaining),
				)
			}
		}
	}

	j.logger.Info("reconcile: sweep finished",
		zap.Int("lots_swept", swept),
		zap.Int("lots_corrected", corrected),
		zap.Duration("took", time.Since(started)),
	)
}

// ReconcileLots recomputes the given lots on demand and returns the per-lot
// outcomes. Unlike the background sweep, errors are surfaced to the caller.
func (j *Job) ReconcileLots(ctx context.Context, lotIDs []string) ([]model.ReconcileResult, error) {
	return j.lots.ReconcileRemaining(ctx, lotIDs)
}
