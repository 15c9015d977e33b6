package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waitlistlottery/internal/domain"
)

// overlapLottery records how many calls run at once per event.
type overlapLottery struct {
	active    atomic.Int32
	maxActive atomic.Int32
	calls     atomic.Int32
}

func (o *overlapLottery) run(eventID string, outcome domain.Outcome) (*domain.LotteryResult, error) {
	o.calls.Add(1)
	n := o.active.Add(1)
	for {
		cur := o.maxActive.Load()
		if n <= cur || o.maxActive.CompareAndSwap(cur, n) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)
	o.active.Add(-1)
	return &domain.LotteryResult{EventID: eventID, Outcome: outcome}, nil
}

func (o *overlapLottery) RunLottery(ctx context.Context, eventID string) (*domain.LotteryResult, error) {
	return o.run(eventID, domain.OutcomeLottery)
}

func (o *overlapLottery) PoolReplacementAuto(ctx context.Context, eventID string) (*domain.LotteryResult, error) {
	return o.run(eventID, domain.OutcomePool)
}

func (o *overlapLottery) PoolReplacement(ctx context.Context, eventID string, n int) (*domain.LotteryResult, error) {
	return o.run(eventID, domain.OutcomePool)
}

func (o *overlapLottery) DrawOrPool(ctx context.Context, eventID string) (*domain.LotteryResult, error) {
	return o.run(eventID, domain.OutcomeLottery)
}

func TestSingleFlightLottery_SerializesPerEvent(t *testing.T) {
	inner := &overlapLottery{}
	svc := NewSingleFlightLottery(inner)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(4)
		go func() { defer wg.Done(); _, _ = svc.RunLottery(ctx, "ev-1") }()
		go func() { defer wg.Done(); _, _ = svc.PoolReplacementAuto(ctx, "ev-1") }()
		go func(n int) { defer wg.Done(); _, _ = svc.PoolReplacement(ctx, "ev-1", n+1) }(i)
		go func() { defer wg.Done(); _, _ = svc.DrawOrPool(ctx, "ev-1") }()
	}
	wg.Wait()

	assert.Equal(t, int32(1), inner.maxActive.Load())
	sf := svc.(*singleFlightLottery)
	assert.Empty(t, sf.locks.held)
}

func TestSingleFlightLottery_PassesResultThrough(t *testing.T) {
	pinShuffle(t)
	store := &stubStore{
		limit:   intPtr(1),
		buckets: map[domain.Status][]domain.Entry{domain.StatusWaiting: entries("A", "B")},
	}
	svc := NewSingleFlightLottery(NewLotteryService(store, discardLogger(), LotteryOptions{}))

	got, err := svc.DrawOrPool(context.Background(), "ev-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, got.Invited)

	_, err = svc.PoolReplacement(context.Background(), "ev-1", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// gatedLottery blocks each run until release is closed or the run's ctx ends.
type gatedLottery struct {
	overlapLottery
	started chan struct{}
	release chan struct{}
}

func (g *gatedLottery) RunLottery(ctx context.Context, eventID string) (*domain.LotteryResult, error) {
	g.calls.Add(1)
	g.started <- struct{}{}
	select {
	case <-g.release:
		return &domain.LotteryResult{EventID: eventID, Outcome: domain.OutcomeLottery}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestSingleFlightLottery_CancelledCallerDoesNotAbortSharedRun(t *testing.T) {
	inner := &gatedLottery{started: make(chan struct{}, 1), release: make(chan struct{})}
	svc := NewSingleFlightLottery(inner)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := svc.RunLottery(ctxA, "ev-1")
		errA <- err
	}()
	<-inner.started

	type outcome struct {
		res *domain.LotteryResult
		err error
	}
	doneB := make(chan outcome, 1)
	go func() {
		res, err := svc.RunLottery(context.Background(), "ev-1")
		doneB <- outcome{res, err}
	}()
	time.Sleep(10 * time.Millisecond)

	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)

	close(inner.release)
	got := <-doneB
	require.NoError(t, got.err)
	assert.Equal(t, domain.OutcomeLottery, got.res.Outcome)
	assert.Equal(t, int32(1), inner.calls.Load())
}
