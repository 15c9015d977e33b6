package services

import (
	crand "crypto/rand"
	"errors"
	"math/big"
	"slices"

	"waitlistlottery/internal/domain"
)

var errInvalidRandomBound = errors.New("invalid random bound")

// shuffleRandomInt returns a uniform integer in [0, max). Tests swap it to pin the draw.
var shuffleRandomInt = secureRandomInt

func secureRandomInt(max int) (int, error) {
	if max <= 0 {
		return 0, errInvalidRandomBound
	}
	n, err := crand.Int(crand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}

// shuffleEntries returns a uniformly permuted copy of entries (Fisher-Yates).
func shuffleEntries(entries []domain.Entry) ([]domain.Entry, error) {
	out := slices.Clone(entries)
	for i := len(out) - 1; i > 0; i-- {
		j, err := shuffleRandomInt(i + 1)
		if err != nil {
			return nil, err
		}
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// splitAt returns the first min(n, len) entries and the rest.
func splitAt(entries []domain.Entry, n int) (head, tail []domain.Entry) {
	if n < 0 {
		n = 0
	}
	if n > len(entries) {
		n = len(entries)
	}
	return entries[:n], entries[n:]
}
