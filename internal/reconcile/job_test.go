package reconcile

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/fekuna/omnipos-fulfillment-service/internal/lot/dto"
	"github.com/fekuna/omnipos-fulfillment-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// driftLotRepo simulates lots whose stored remaining quantity has drifted from
// the value the allocation ledger implies.
type driftLotRepo struct {
	stored  map[string]int64
	derived map[string]int64
	broken  map[string]bool
	calls   int
}

func newDriftLotRepo() *driftLotRepo {
	return &driftLotRepo{
		stored:  make(map[string]int64),
		derived: make(map[string]int64),
		broken:  make(map[string]bool),
	}
}

func (r *driftLotRepo) add(id string, stored, derived int64) {
	r.stored[id] = stored
	r.derived[id] = derived
}

func (r *driftLotRepo) Create(ctx context.Context, l *model.Lot) error { return nil }
func (r *driftLotRepo) GetByID(ctx context.Context, id string) (*model.Lot, error) {
	return nil, nil
}
func (r *driftLotRepo) ListBySKU(ctx context.Context, skuID string) ([]model.Lot, error) {
	return nil, nil
}
func (r *driftLotRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Lot, error) {
	return nil, nil
}
func (r *driftLotRepo) FindAll(ctx context.Context, filters *dto.LotFilters) ([]model.Lot, int, error) {
	return nil, 0, nil
}

func (r *driftLotRepo) ListIDs(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(r.stored))
	for i := 0; i < len(r.stored); i++ {
		ids = append(ids, fmt.Sprintf("lot-%d", i))
	}
	return ids, nil
}

func (r *driftLotRepo) ReconcileRemaining(ctx context.Context, lotIDs []string) ([]model.ReconcileResult, error) {
	r.calls++
	var errs []error
	results := make([]model.ReconcileResult, 0, len(lotIDs))
	for _, id := range lotIDs {
		if r.broken[id] {
			errs = append(errs, fmt.Errorf("lot %s: simulated failure", id))
			continue
		}
		want := r.derived[id]
		changed := r.stored[id] != want
		r.stored[id] = want
		results = append(results, model.ReconcileResult{
			LotID:             id,
			QuantityRemaining: want,
			Changed:           changed,
		})
	}
	return results, errors.Join(errs...)
}

func TestReconcileLots_CorrectsDrift(t *testing.T) {
	repo := newDriftLotRepo()
	repo.add("lot-0", 70, 70)
	repo.add("lot-1", 55, 40) // drifted

	job := NewJob(repo, nil, zap.NewNop(), 200, time.Minute)

	results, err := job.ReconcileLots(context.Background(), []string{"lot-0", "lot-1"})
	require.NoError(t, err)
	require.Len(t, results, 2)

	byID := make(map[string]model.ReconcileResult)
	for _, res := range results {
		byID[res.LotID] = res
	}
	assert.False(t, byID["lot-0"].Changed)
	assert.True(t, byID["lot-1"].Changed)
	assert.Equal(t, int64(40), byID["lot-1"].QuantityRemaining)
	assert.Equal(t, int64(40), repo.stored["lot-1"])
}

func TestReconcileLots_Idempotent(t *testing.T) {
	repo := newDriftLotRepo()
	repo.add("lot-0", 55, 40)

	job := NewJob(repo, nil, zap.NewNop(), 200, time.Minute)

	first, err := job.ReconcileLots(context.Background(), []string{"lot-0"})
	require.NoError(t, err)
	require.True(t, first[0].Changed)

	second, err := job.ReconcileLots(context.Background(), []string{"lot-0"})
	require.NoError(t, err)
	assert.False(t, second[0].Changed, "a second sweep with no new allocations must change nothing")
}

func TestRun_SweepsInBatches(t *testing.T) {
	repo := newDriftLotRepo()
	for i := 0; i < 5; i++ {
		repo.add(fmt.Sprintf("lot-%d", i), 10, 10)
	}

	job := NewJob(repo, nil, zap.NewNop(), 2, time.Minute)
	job.Run(context.Background())

	assert.Equal(t, 3, repo.calls, "5 lots at batch size 2 should take 3 batches")
}

func TestRun_SkipsFailedItemsAndKeepsSweeping(t *testing.T) {
	repo := newDriftLotRepo()
	repo.add("lot-0", 10, 10)
	repo.add("lot-1", 30, 20)
	repo.add("lot-2", 10, 10)
	repo.broken["lot-0"] = true

	job := NewJob(repo, nil, zap.NewNop(), 1, time.Minute)
	job.Run(context.Background())

	// The failed lot is skipped, the drifted one is still corrected.
	assert.Equal(t, int64(20), repo.stored["lot-1"])
	assert.Equal(t, 3, repo.calls)
}
