package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"waitlistlottery/internal/domain"
)

// LotteryOptions tunes the allocation engine.
type LotteryOptions struct {
	// RanCheck picks how DrawOrPool detects a previous lottery.
	RanCheck domain.RanCheck
	// ZeroLimitIsUnlimited makes pool replacement treat an explicit zero limit as
	// "no limit" instead of "closed".
	ZeroLimitIsUnlimited bool
	// Timeout bounds one allocation call, reads and commit included.
	Timeout time.Duration
}

type lotteryService struct {
	store  domain.StatusStore
	logger *slog.Logger
	opts   LotteryOptions
}

// NewLotteryService creates the allocation engine over store.
func NewLotteryService(store domain.StatusStore, logger *slog.Logger, opts LotteryOptions) domain.LotteryService {
	if opts.RanCheck == "" {
		opts.RanCheck = domain.RanCheckCurrentInvited
	}
	return &lotteryService{
		store:  store,
		logger: logger,
		opts:   opts,
	}
}

func (s *lotteryService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opts.Timeout)
}

func requireEventID(eventID string) error {
	if eventID == "" {
		return fmt.Errorf("%w: event id is required", domain.ErrInvalidInput)
	}
	return nil
}

func (s *lotteryService) RunLottery(ctx context.Context, eventID string) (*domain.LotteryResult, error) {
	if err := requireEventID(eventID); err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.runLottery(ctx, eventID)
}

func (s *lotteryService) runLottery(ctx context.Context, eventID string) (*domain.LotteryResult, error) {
	limit, err := s.store.ReadEntrantLimit(ctx, eventID)
	if err != nil {
		return nil, domain.ReadFailure("entrant limit", err)
	}
	if limit == nil {
		s.logger.ErrorContext(ctx, "lottery aborted: event has no entrant limit", "event_id", eventID)
		return nil, fmt.Errorf("event %s: %w", eventID, domain.ErrMissingEntrantLimit)
	}

	waiting, err := s.store.ReadBucket(ctx, eventID, domain.StatusWaiting)
	if err != nil {
		return nil, domain.ReadFailure("waiting list", err)
	}
	if len(waiting) == 0 {
		s.logger.InfoContext(ctx, "lottery skipped: waiting list is empty", "event_id", eventID)
		return noop(eventID, "waiting list is empty"), nil
	}

	if *limit <= 0 {
		s.logger.WarnContext(ctx, "entrant limit is 0, every waiting entrant becomes uninvited", "event_id", eventID)
		return s.commitPartition(ctx, eventID, domain.OutcomeLottery, nil, waiting)
	}

	shuffled, err := shuffleEntries(waiting)
	if err != nil {
		return nil, fmt.Errorf("shuffle waiting list: %w", err)
	}
	invited, uninvited := splitAt(shuffled, *limit)
	return s.commitPartition(ctx, eventID, domain.OutcomeLottery, invited, uninvited)
}

func (s *lotteryService) PoolReplacementAuto(ctx context.Context, eventID string) (*domain.LotteryResult, error) {
	if err := requireEventID(eventID); err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.poolReplacementAuto(ctx, eventID)
}

func (s *lotteryService) poolReplacementAuto(ctx context.Context, eventID string) (*domain.LotteryResult, error) {
	var (
		limit        *int
		invitedCount int
		waitingCount int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := s.store.ReadEntrantLimit(gctx, eventID)
		if err != nil {
			return domain.ReadFailure("entrant limit", err)
		}
		limit = v
		return nil
	})
	g.Go(func() error {
		invited, err := s.store.ReadBucket(gctx, eventID, domain.StatusInvited)
		if err != nil {
			return domain.ReadFailure("invited list", err)
		}
		invitedCount = len(invited)
		return nil
	})
	g.Go(func() error {
		waiting, err := s.store.ReadBucket(gctx, eventID, domain.StatusWaiting)
		if err != nil {
			return domain.ReadFailure("waiting list", err)
		}
		waitingCount = len(waiting)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	capacity := domain.CapacityFromLimit(limit, s.opts.ZeroLimitIsUnlimited)
	log := s.logger.With("event_id", eventID, "invited", invitedCount, "waiting", waitingCount)
	switch {
	case !capacity.IsUnlimited() && capacity.Limit() == 0:
		log.WarnContext(ctx, "pool skipped: entrant limit is 0")
		return noop(eventID, "entrant limit is 0"), nil
	case invitedCount >= capacity.Limit():
		log.InfoContext(ctx, "pool skipped: event already full", "limit", capacity.Limit())
		return noop(eventID, "event already full"), nil
	case waitingCount == 0:
		log.InfoContext(ctx, "pool skipped: no waiting entrants")
		return noop(eventID, "waiting list is empty"), nil
	}

	return s.poolReplacement(ctx, eventID, capacity.Remaining(invitedCount))
}

func (s *lotteryService) PoolReplacement(ctx context.Context, eventID string, n int) (*domain.LotteryResult, error) {
	if err := requireEventID(eventID); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, fmt.Errorf("%w: replacement count must be positive, got %d", domain.ErrInvalidInput, n)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.poolReplacement(ctx, eventID, n)
}

// poolReplacement promotes min(n, waiting) entrants; every other waiting entrant
// becomes uninvited, so WAITING is drained by each pass.
func (s *lotteryService) poolReplacement(ctx context.Context, eventID string, n int) (*domain.LotteryResult, error) {
	waiting, err := s.store.ReadBucket(ctx, eventID, domain.StatusWaiting)
	if err != nil {
		return nil, domain.ReadFailure("waiting list", err)
	}
	if len(waiting) == 0 {
		s.logger.InfoContext(ctx, "pool skipped: no waiting entrants", "event_id", eventID)
		return noop(eventID, "waiting list is empty"), nil
	}

	shuffled, err := shuffleEntries(waiting)
	if err != nil {
		return nil, fmt.Errorf("shuffle waiting list: %w", err)
	}
	invited, uninvited := splitAt(shuffled, n)
	return s.commitPartition(ctx, eventID, domain.OutcomePool, invited, uninvited)
}

func (s *lotteryService) DrawOrPool(ctx context.Context, eventID string) (*domain.LotteryResult, error) {
	if err := requireEventID(eventID); err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	ran, err := s.lotteryRan(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !ran {
		s.logger.InfoContext(ctx, "initial lottery has not run, running full lottery", "event_id", eventID)
		return s.runLottery(ctx, eventID)
	}
	s.logger.InfoContext(ctx, "initial lottery already ran, running pool replacement", "event_id", eventID)
	return s.poolReplacementAuto(ctx, eventID)
}

func (s *lotteryService) lotteryRan(ctx context.Context, eventID string) (bool, error) {
	switch s.opts.RanCheck {
	case domain.RanCheckPersistedFlag:
		ran, err := s.store.ReadLotteryRan(ctx, eventID)
		if err != nil {
			return false, domain.ReadFailure("lottery ran flag", err)
		}
		return ran, nil
	default:
		has, err := s.store.BucketHasAny(ctx, eventID, domain.StatusInvited)
		if err != nil {
			return false, domain.ReadFailure("invited list", err)
		}
		return has, nil
	}
}

// commitPartition moves invited and uninvited out of WAITING in one atomic write.
func (s *lotteryService) commitPartition(ctx context.Context, eventID string, outcome domain.Outcome, invited, uninvited []domain.Entry) (*domain.LotteryResult, error) {
	u := domain.NewUpdate(eventID)
	u.MarkLotteryRan = true
	res := &domain.LotteryResult{
		EventID:   eventID,
		Outcome:   outcome,
		Invited:   make([]string, 0, len(invited)),
		Uninvited: make([]string, 0, len(uninvited)),
	}
	for _, e := range invited {
		writes, err := domain.Transition(eventID, e.EntrantID, domain.StatusWaiting, domain.StatusInvited, e.Marker)
		if err != nil {
			return nil, err
		}
		u.Add(writes...)
		res.Invited = append(res.Invited, e.EntrantID)
	}
	for _, e := range uninvited {
		writes, err := domain.Transition(eventID, e.EntrantID, domain.StatusWaiting, domain.StatusUninvited, e.Marker)
		if err != nil {
			return nil, err
		}
		u.Add(writes...)
		res.Uninvited = append(res.Uninvited, e.EntrantID)
	}

	if err := s.store.Commit(ctx, u); err != nil {
		s.logger.ErrorContext(ctx, "allocation commit failed", "event_id", eventID, "outcome", outcome, "err", err)
		return nil, domain.WriteFailure(err)
	}
	s.logger.InfoContext(ctx, "allocation committed",
		"event_id", eventID,
		"outcome", outcome,
		"invited", len(res.Invited),
		"uninvited", len(res.Uninvited),
	)
	return res, nil
}

func noop(eventID, reason string) *domain.LotteryResult {
	return &domain.LotteryResult{
		EventID:   eventID,
		Outcome:   domain.OutcomeNoop,
		Reason:    reason,
		Invited:   []string{},
		Uninvited: []string{},
	}
}
