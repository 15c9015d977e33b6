package services

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"waitlistlottery/internal/domain"
)

// singleFlightLottery serializes allocation runs per event. Identical concurrent
// calls (same operation, same event) share one execution and one result.
type singleFlightLottery struct {
	inner domain.LotteryService
	group singleflight.Group
	locks eventLocks
}

// NewSingleFlightLottery wraps inner so two runs for the same event never overlap.
func NewSingleFlightLottery(inner domain.LotteryService) domain.LotteryService {
	return &singleFlightLottery{
		inner: inner,
		locks: eventLocks{held: make(map[string]*eventLock)},
	}
}

// do runs fn once per in-flight key. The shared run is detached from the
// caller that started it; each caller stops waiting when its own ctx ends.
func (s *singleFlightLottery) do(ctx context.Context, eventID, key string, fn func(context.Context) (*domain.LotteryResult, error)) (*domain.LotteryResult, error) {
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(eventID+"/"+key, func() (any, error) {
		unlock := s.locks.lock(eventID)
		defer unlock()
		return fn(shared)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*domain.LotteryResult), nil
	}
}

func (s *singleFlightLottery) RunLottery(ctx context.Context, eventID string) (*domain.LotteryResult, error) {
	return s.do(ctx, eventID, "run", func(ctx context.Context) (*domain.LotteryResult, error) {
		return s.inner.RunLottery(ctx, eventID)
	})
}

func (s *singleFlightLottery) PoolReplacementAuto(ctx context.Context, eventID string) (*domain.LotteryResult, error) {
	return s.do(ctx, eventID, "pool", func(ctx context.Context) (*domain.LotteryResult, error) {
		return s.inner.PoolReplacementAuto(ctx, eventID)
	})
}

func (s *singleFlightLottery) PoolReplacement(ctx context.Context, eventID string, n int) (*domain.LotteryResult, error) {
	return s.do(ctx, eventID, "pool/"+strconv.Itoa(n), func(ctx context.Context) (*domain.LotteryResult, error) {
		return s.inner.PoolReplacement(ctx, eventID, n)
	})
}

func (s *singleFlightLottery) DrawOrPool(ctx context.Context, eventID string) (*domain.LotteryResult, error) {
	return s.do(ctx, eventID, "draw", func(ctx context.Context) (*domain.LotteryResult, error) {
		return s.inner.DrawOrPool(ctx, eventID)
	})
}

type eventLock struct {
	mu   sync.Mutex
	refs int
}

// eventLocks hands out one mutex per event and forgets it when nobody holds it.
type eventLocks struct {
	mu   sync.Mutex
	held map[string]*eventLock
}

func (l *eventLocks) lock(eventID string) func() {
	l.mu.Lock()
	el, ok := l.held[eventID]
	if !ok {
		el = &eventLock{}
		l.held[eventID] = el
	}
	el.refs++
	l.mu.Unlock()

	el.mu.Lock()
	return func() {
		el.mu.Unlock()
		l.mu.Lock()
		el.refs--
		if el.refs == 0 {
			delete(l.held, eventID)
		}
		l.mu.Unlock()
	}
}
