package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waitlistlottery/internal/domain"
)

var errStoreDown = errors.New("store down")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func intPtr(v int) *int { return &v }

func entries(ids ...string) []domain.Entry {
	out := make([]domain.Entry, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Entry{EntrantID: id, Marker: &domain.Marker{}})
	}
	return out
}

// stubStore is a hand-written StatusStore. Reads are served from fixed fields and
// every commit is recorded, never applied.
type stubStore struct {
	limit      *int
	limitErr   error
	ran        bool
	ranErr     error
	buckets    map[domain.Status][]domain.Entry
	bucketErrs map[domain.Status]error
	hasAnyErr  error
	commitErr  error

	mu      sync.Mutex
	commits []*domain.Update
}

func (s *stubStore) ReadEntrantLimit(ctx context.Context, eventID string) (*int, error) {
	if s.limitErr != nil {
		return nil, s.limitErr
	}
	return s.limit, nil
}

func (s *stubStore) ReadLotteryRan(ctx context.Context, eventID string) (bool, error) {
	return s.ran, s.ranErr
}

func (s *stubStore) ReadEntry(ctx context.Context, p domain.Path) (*domain.Marker, error) {
	if err := s.bucketErrs[p.Bucket]; err != nil {
		return nil, err
	}
	for _, e := range s.buckets[p.Bucket] {
		if e.EntrantID == p.EntrantID {
			return e.Marker, nil
		}
	}
	return nil, nil
}

func (s *stubStore) ReadBucket(ctx context.Context, eventID string, status domain.Status) ([]domain.Entry, error) {
	if err := s.bucketErrs[status]; err != nil {
		return nil, err
	}
	return append([]domain.Entry{}, s.buckets[status]...), nil
}

func (s *stubStore) BucketHasAny(ctx context.Context, eventID string, status domain.Status) (bool, error) {
	if s.hasAnyErr != nil {
		return false, s.hasAnyErr
	}
	return len(s.buckets[status]) > 0, nil
}

func (s *stubStore) Commit(ctx context.Context, u *domain.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.commitErr != nil {
		return s.commitErr
	}
	s.commits = append(s.commits, u)
	return nil
}

// pinShuffle makes every Fisher-Yates step pick j == i, so order is preserved.
func pinShuffle(t *testing.T) {
	t.Helper()
	prev := shuffleRandomInt
	shuffleRandomInt = func(max int) (int, error) { return max - 1, nil }
	t.Cleanup(func() { shuffleRandomInt = prev })
}

func putsByBucket(u *domain.Update) map[domain.Status][]string {
	out := map[domain.Status][]string{}
	for _, w := range u.Puts() {
		out[w.Path.Bucket] = append(out[w.Path.Bucket], w.Path.EntrantID)
	}
	return out
}

func TestLotteryService_RunLottery(t *testing.T) {
	pinShuffle(t)

	tests := []struct {
		name          string
		store         *stubStore
		wantErr       error
		wantOutcome   domain.Outcome
		wantInvited   []string
		wantUninvited []string
		wantCommit    bool
	}{
		{
			name: "limit 2 over three waiting",
			store: &stubStore{
				limit:   intPtr(2),
				buckets: map[domain.Status][]domain.Entry{domain.StatusWaiting: entries("A", "B", "C")},
			},
			wantOutcome:   domain.OutcomeLottery,
			wantInvited:   []string{"A", "B"},
			wantUninvited: []string{"C"},
			wantCommit:    true,
		},
		{
			name: "limit larger than waiting invites everyone",
			store: &stubStore{
				limit:   intPtr(5),
				buckets: map[domain.Status][]domain.Entry{domain.StatusWaiting: entries("A", "B")},
			},
			wantOutcome:   domain.OutcomeLottery,
			wantInvited:   []string{"A", "B"},
			wantUninvited: []string{},
			wantCommit:    true,
		},
		{
			name: "limit 0 makes everyone uninvited",
			store: &stubStore{
				limit:   intPtr(0),
				buckets: map[domain.Status][]domain.Entry{domain.StatusWaiting: entries("A", "B")},
			},
			wantOutcome:   domain.OutcomeLottery,
			wantInvited:   []string{},
			wantUninvited: []string{"A", "B"},
			wantCommit:    true,
		},
		{
			name: "empty waiting list is a no-op",
			store: &stubStore{
				limit: intPtr(2),
			},
			wantOutcome:   domain.OutcomeNoop,
			wantInvited:   []string{},
			wantUninvited: []string{},
		},
		{
			name: "missing limit aborts",
			store: &stubStore{
				buckets: map[domain.Status][]domain.Entry{domain.StatusWaiting: entries("A")},
			},
			wantErr: domain.ErrMissingEntrantLimit,
		},
		{
			name: "limit read failure issues no write",
			store: &stubStore{
				limitErr: errStoreDown,
				buckets:  map[domain.Status][]domain.Entry{domain.StatusWaiting: entries("A")},
			},
			wantErr: domain.ErrReadFailure,
		},
		{
			name: "waiting read failure issues no write",
			store: &stubStore{
				limit:      intPtr(1),
				bucketErrs: map[domain.Status]error{domain.StatusWaiting: errStoreDown},
			},
			wantErr: domain.ErrReadFailure,
		},
		{
			name: "commit failure is a write failure",
			store: &stubStore{
				limit:     intPtr(1),
				buckets:   map[domain.Status][]domain.Entry{domain.StatusWaiting: entries("A")},
				commitErr: errStoreDown,
			},
			wantErr: domain.ErrWriteFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewLotteryService(tt.store, discardLogger(), LotteryOptions{})
			got, err := svc.RunLottery(context.Background(), "ev-1")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				assert.Empty(t, tt.store.commits)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOutcome, got.Outcome)
			assert.Equal(t, tt.wantInvited, got.Invited)
			assert.Equal(t, tt.wantUninvited, got.Uninvited)
			if !tt.wantCommit {
				assert.Empty(t, tt.store.commits)
				return
			}
			require.Len(t, tt.store.commits, 1)
			u := tt.store.commits[0]
			assert.True(t, u.MarkLotteryRan)
			assert.Len(t, u.Deletes(), len(tt.wantInvited)+len(tt.wantUninvited))
			for _, p := range u.Deletes() {
				assert.Equal(t, domain.StatusWaiting, p.Bucket)
			}
		})
	}
}

func TestLotteryService_RunLotteryWritesEveryMoveAtomically(t *testing.T) {
	pinShuffle(t)
	store := &stubStore{
		limit:   intPtr(2),
		buckets: map[domain.Status][]domain.Entry{domain.StatusWaiting: entries("A", "B", "C")},
	}
	svc := NewLotteryService(store, discardLogger(), LotteryOptions{})

	_, err := svc.RunLottery(context.Background(), "ev-1")
	require.NoError(t, err)
	require.Len(t, store.commits, 1)
	u := store.commits[0]
	assert.Equal(t, 6, u.Len())
	assert.Equal(t, map[domain.Status][]string{
		domain.StatusInvited:   {"A", "B"},
		domain.StatusUninvited: {"C"},
	}, putsByBucket(u))
	require.NoError(t, u.Validate())
}

func TestLotteryService_RunLotteryUsesShuffle(t *testing.T) {
	prev := shuffleRandomInt
	shuffleRandomInt = func(max int) (int, error) { return 0, nil }
	t.Cleanup(func() { shuffleRandomInt = prev })

	store := &stubStore{
		limit:   intPtr(2),
		buckets: map[domain.Status][]domain.Entry{domain.StatusWaiting: entries("A", "B", "C")},
	}
	svc := NewLotteryService(store, discardLogger(), LotteryOptions{})
	got, err := svc.RunLottery(context.Background(), "ev-1")
	require.NoError(t, err)
	// [A B C] -> swap(2,0) -> [C B A] -> swap(1,0) -> [B C A]
	assert.Equal(t, []string{"B", "C"}, got.Invited)
	assert.Equal(t, []string{"A"}, got.Uninvited)
}

func TestLotteryService_MarkersAreCarriedToNewBucket(t *testing.T) {
	pinShuffle(t)
	loc := &domain.Location{Latitude: 53.52, Longitude: -113.52}
	store := &stubStore{
		limit: intPtr(1),
		buckets: map[domain.Status][]domain.Entry{domain.StatusWaiting: {
			{EntrantID: "A", Marker: &domain.Marker{Location: loc}},
			{EntrantID: "B", Marker: &domain.Marker{}},
		}},
	}
	svc := NewLotteryService(store, discardLogger(), LotteryOptions{})
	_, err := svc.RunLottery(context.Background(), "ev-1")
	require.NoError(t, err)

	for _, w := range store.commits[0].Puts() {
		if w.Path.EntrantID == "A" {
			assert.Equal(t, domain.StatusInvited, w.Path.Bucket)
			assert.Equal(t, loc, w.Marker.Location)
		}
	}
}

func TestLotteryService_PoolReplacementAuto(t *testing.T) {
	pinShuffle(t)

	tests := []struct {
		name          string
		opts          LotteryOptions
		store         *stubStore
		wantErr       error
		wantOutcome   domain.Outcome
		wantInvited   []string
		wantUninvited []string
	}{
		{
			name: "empty invited fills full limit",
			store: &stubStore{
				limit:   intPtr(3),
				buckets: map[domain.Status][]domain.Entry{domain.StatusWaiting: entries("B", "C", "D")},
			},
			wantOutcome:   domain.OutcomePool,
			wantInvited:   []string{"B", "C", "D"},
			wantUninvited: []string{},
		},
		{
			name: "fills only the remaining seats",
			store: &stubStore{
				limit: intPtr(3),
				buckets: map[domain.Status][]domain.Entry{
					domain.StatusInvited: entries("X"),
					domain.StatusWaiting: entries("B", "C", "D"),
				},
			},
			wantOutcome:   domain.OutcomePool,
			wantInvited:   []string{"B", "C"},
			wantUninvited: []string{"D"},
		},
		{
			name: "absent limit is unlimited",
			store: &stubStore{
				buckets: map[domain.Status][]domain.Entry{
					domain.StatusInvited: entries("X"),
					domain.StatusWaiting: entries("A", "B"),
				},
			},
			wantOutcome:   domain.OutcomePool,
			wantInvited:   []string{"A", "B"},
			wantUninvited: []string{},
		},
		{
			name: "full event is a no-op",
			store: &stubStore{
				limit: intPtr(2),
				buckets: map[domain.Status][]domain.Entry{
					domain.StatusInvited: entries("X", "Y"),
					domain.StatusWaiting: entries("A"),
				},
			},
			wantOutcome: domain.OutcomeNoop,
		},
		{
			name: "zero limit is closed",
			store: &stubStore{
				limit:   intPtr(0),
				buckets: map[domain.Status][]domain.Entry{domain.StatusWaiting: entries("A")},
			},
			wantOutcome: domain.OutcomeNoop,
		},
		{
			name: "zero limit as unlimited when configured",
			opts: LotteryOptions{ZeroLimitIsUnlimited: true},
			store: &stubStore{
				limit:   intPtr(0),
				buckets: map[domain.Status][]domain.Entry{domain.StatusWaiting: entries("A")},
			},
			wantOutcome:   domain.OutcomePool,
			wantInvited:   []string{"A"},
			wantUninvited: []string{},
		},
		{
			name: "no waiting entrants is a no-op",
			store: &stubStore{
				limit:   intPtr(2),
				buckets: map[domain.Status][]domain.Entry{domain.StatusInvited: entries("X")},
			},
			wantOutcome: domain.OutcomeNoop,
		},
		{
			name: "invited read failure issues no write",
			store: &stubStore{
				limit:      intPtr(2),
				buckets:    map[domain.Status][]domain.Entry{domain.StatusWaiting: entries("A")},
				bucketErrs: map[domain.Status]error{domain.StatusInvited: errStoreDown},
			},
			wantErr: domain.ErrReadFailure,
		},
		{
			name: "limit read failure issues no write",
			store: &stubStore{
				limitErr: errStoreDown,
				buckets:  map[domain.Status][]domain.Entry{domain.StatusWaiting: entries("A")},
			},
			wantErr: domain.ErrReadFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewLotteryService(tt.store, discardLogger(), tt.opts)
			got, err := svc.PoolReplacementAuto(context.Background(), "ev-1")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, tt.store.commits)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOutcome, got.Outcome)
			if tt.wantOutcome == domain.OutcomeNoop {
				assert.NotEmpty(t, got.Reason)
				assert.Empty(t, tt.store.commits)
				return
			}
			assert.Equal(t, tt.wantInvited, got.Invited)
			assert.Equal(t, tt.wantUninvited, got.Uninvited)
			require.Len(t, tt.store.commits, 1)
		})
	}
}

func TestLotteryService_PoolReplacement(t *testing.T) {
	pinShuffle(t)

	t.Run("rejects non-positive count", func(t *testing.T) {
		store := &stubStore{buckets: map[domain.Status][]domain.Entry{domain.StatusWaiting: entries("A")}}
		svc := NewLotteryService(store, discardLogger(), LotteryOptions{})
		for _, n := range []int{0, -1} {
			_, err := svc.PoolReplacement(context.Background(), "ev-1", n)
			require.ErrorIs(t, err, domain.ErrInvalidInput)
		}
		assert.Empty(t, store.commits)
	})

	t.Run("drains waiting list", func(t *testing.T) {
		store := &stubStore{buckets: map[domain.Status][]domain.Entry{domain.StatusWaiting: entries("A", "B", "C")}}
		svc := NewLotteryService(store, discardLogger(), LotteryOptions{})
		got, err := svc.PoolReplacement(context.Background(), "ev-1", 1)
		require.NoError(t, err)
		assert.Equal(t, domain.OutcomePool, got.Outcome)
		assert.Equal(t, []string{"A"}, got.Invited)
		assert.Equal(t, []string{"B", "C"}, got.Uninvited)
		require.Len(t, store.commits, 1)
		assert.Len(t, store.commits[0].Deletes(), 3)
	})

	t.Run("empty waiting list is a no-op", func(t *testing.T) {
		store := &stubStore{}
		svc := NewLotteryService(store, discardLogger(), LotteryOptions{})
		got, err := svc.PoolReplacement(context.Background(), "ev-1", 4)
		require.NoError(t, err)
		assert.Equal(t, domain.OutcomeNoop, got.Outcome)
		assert.Empty(t, store.commits)
	})
}

func TestLotteryService_DrawOrPool(t *testing.T) {
	pinShuffle(t)

	tests := []struct {
		name        string
		opts        LotteryOptions
		store       *stubStore
		wantErr     error
		wantOutcome domain.Outcome
	}{
		{
			name: "no invited entrants runs the lottery",
			store: &stubStore{
				limit:   intPtr(1),
				buckets: map[domain.Status][]domain.Entry{domain.StatusWaiting: entries("A", "B")},
			},
			wantOutcome: domain.OutcomeLottery,
		},
		{
			name: "invited entrants run pool replacement",
			store: &stubStore{
				limit: intPtr(2),
				buckets: map[domain.Status][]domain.Entry{
					domain.StatusInvited: entries("X"),
					domain.StatusWaiting: entries("A"),
				},
			},
			wantOutcome: domain.OutcomePool,
		},
		{
			name: "persisted flag runs pool even when invited is empty",
			opts: LotteryOptions{RanCheck: domain.RanCheckPersistedFlag},
			store: &stubStore{
				limit:   intPtr(2),
				ran:     true,
				buckets: map[domain.Status][]domain.Entry{domain.StatusWaiting: entries("A")},
			},
			wantOutcome: domain.OutcomePool,
		},
		{
			name: "persisted flag unset runs the lottery",
			opts: LotteryOptions{RanCheck: domain.RanCheckPersistedFlag},
			store: &stubStore{
				limit: intPtr(2),
				buckets: map[domain.Status][]domain.Entry{
					domain.StatusInvited: entries("X"),
					domain.StatusWaiting: entries("A"),
				},
			},
			wantOutcome: domain.OutcomeLottery,
		},
		{
			name: "existence read failure surfaces",
			store: &stubStore{
				limit:     intPtr(2),
				hasAnyErr: errStoreDown,
				buckets:   map[domain.Status][]domain.Entry{domain.StatusWaiting: entries("A")},
			},
			wantErr: domain.ErrReadFailure,
		},
		{
			name: "flag read failure surfaces",
			opts: LotteryOptions{RanCheck: domain.RanCheckPersistedFlag},
			store: &stubStore{
				ranErr:  errStoreDown,
				buckets: map[domain.Status][]domain.Entry{domain.StatusWaiting: entries("A")},
			},
			wantErr: domain.ErrReadFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewLotteryService(tt.store, discardLogger(), tt.opts)
			got, err := svc.DrawOrPool(context.Background(), "ev-1")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, tt.store.commits)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOutcome, got.Outcome)
		})
	}
}

func TestLotteryService_RejectsEmptyEventID(t *testing.T) {
	svc := NewLotteryService(&stubStore{}, discardLogger(), LotteryOptions{})
	ctx := context.Background()

	_, err := svc.RunLottery(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.PoolReplacementAuto(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.PoolReplacement(ctx, "", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.DrawOrPool(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
