package domain

import (
	"context"
	"fmt"
)

// Outcome names what an allocation call did.
type Outcome string

const (
	// OutcomeLottery is an initial lottery commit.
	OutcomeLottery Outcome = "lottery"
	// OutcomePool is a replacement pool commit.
	OutcomePool Outcome = "pool"
	// OutcomeNoop means the call succeeded without writing anything.
	OutcomeNoop Outcome = "noop"
)

// LotteryResult reports the partition committed by one allocation call.
type LotteryResult struct {
	EventID   string   `json:"event_id"`
	Outcome   Outcome  `json:"outcome"`
	Reason    string   `json:"reason,omitempty"`
	Invited   []string `json:"invited"`
	Uninvited []string `json:"uninvited"`
}

// RanCheck selects how DrawOrPool decides whether the initial lottery already ran.
type RanCheck string

const (
	// RanCheckCurrentInvited infers "ran" from current INVITED membership.
	// An event whose invitees all moved on reads as "not ran".
	RanCheckCurrentInvited RanCheck = "current_invited"
	// RanCheckPersistedFlag reads the lotteryRan flag written by RunLottery.
	RanCheckPersistedFlag RanCheck = "persisted_flag"
)

// ParseRanCheck validates a configured policy name. Empty means the default.
func ParseRanCheck(s string) (RanCheck, error) {
	switch RanCheck(s) {
	case "", RanCheckCurrentInvited:
		return RanCheckCurrentInvited, nil
	case RanCheckPersistedFlag:
		return RanCheckPersistedFlag, nil
	}
	return "", fmt.Errorf("%w: unknown lottery ran check %q", ErrInvalidInput, s)
}

// LotteryService is the allocation engine.
type LotteryService interface {
	// RunLottery partitions WAITING into INVITED and UNINVITED.
	RunLottery(ctx context.Context, eventID string) (*LotteryResult, error)
	// PoolReplacementAuto refills vacated capacity from WAITING.
	PoolReplacementAuto(ctx context.Context, eventID string) (*LotteryResult, error)
	// PoolReplacement promotes up to n WAITING entrants and drains the rest.
	PoolReplacement(ctx context.Context, eventID string, n int) (*LotteryResult, error)
	// DrawOrPool runs the initial lottery once, replacement pools afterwards.
	DrawOrPool(ctx context.Context, eventID string) (*LotteryResult, error)
}
