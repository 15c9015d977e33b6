package domain

import (
	"cmp"
	"context"
	"fmt"
	"slices"
)

// Path addresses one membership: WaitingList/{eventId}/{bucket}/{entrantId}.
type Path struct {
	EventID   string
	Bucket    Status
	EntrantID string
}

func (p Path) String() string {
	return fmt.Sprintf("WaitingList/%s/%s/%s", p.EventID, p.Bucket, p.EntrantID)
}

// Location is the position an entrant reported when joining.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Marker is the value stored at a membership path. Its presence means membership;
// the optional location rides along unmodified through every transition.
type Marker struct {
	Location *Location
}

// Entry is one child of a bucket as returned by ReadBucket.
type Entry struct {
	EntrantID string
	Marker    *Marker
}

// Write is a single path operation. A nil Marker deletes the path.
type Write struct {
	Path   Path
	Marker *Marker
}

// Update is an atomic multi-path write for one event. Either every write is
// applied or none is.
type Update struct {
	EventID        string
	Writes         map[Path]*Marker
	MarkLotteryRan bool
}

// NewUpdate returns an empty update for eventID.
func NewUpdate(eventID string) *Update {
	return &Update{EventID: eventID, Writes: make(map[Path]*Marker)}
}

// Add records ws. A later write to the same path replaces an earlier one.
func (u *Update) Add(ws ...Write) {
	for _, w := range ws {
		u.Writes[w.Path] = w.Marker
	}
}

// Len returns the number of path writes.
func (u *Update) Len() int { return len(u.Writes) }

// Deletes returns the deleted paths in a stable order.
func (u *Update) Deletes() []Path {
	var out []Path
	for p, m := range u.Writes {
		if m == nil {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, comparePaths)
	return out
}

// Puts returns the upserted paths in a stable order.
func (u *Update) Puts() []Write {
	var out []Write
	for p, m := range u.Writes {
		if m != nil {
			out = append(out, Write{Path: p, Marker: m})
		}
	}
	slices.SortFunc(out, func(a, b Write) int { return comparePaths(a.Path, b.Path) })
	return out
}

// Validate rejects writes outside the event, unknown buckets, empty entrant ids,
// and any update that would put one entrant into two buckets.
func (u *Update) Validate() error {
	if u.EventID == "" {
		return fmt.Errorf("%w: update without event id", ErrInvalidInput)
	}
	putFor := make(map[string]Status)
	for p, m := range u.Writes {
		if p.EventID != u.EventID {
			return fmt.Errorf("%w: path %s outside event %s", ErrInvalidInput, p, u.EventID)
		}
		if !p.Bucket.Valid() || p.EntrantID == "" {
			return fmt.Errorf("%w: bad path %s", ErrInvalidInput, p)
		}
		if m == nil {
			continue
		}
		if prev, ok := putFor[p.EntrantID]; ok && prev != p.Bucket {
			return fmt.Errorf("%w: entrant %s put into %s and %s", ErrInvalidInput, p.EntrantID, prev, p.Bucket)
		}
		putFor[p.EntrantID] = p.Bucket
	}
	return nil
}

func comparePaths(a, b Path) int {
	if c := cmp.Compare(a.Bucket, b.Bucket); c != 0 {
		return c
	}
	return cmp.Compare(a.EntrantID, b.EntrantID)
}

// StatusStore is the backing store the allocation engine runs against.
// Reads are single round trips; Commit is all-or-nothing.
type StatusStore interface {
	// ReadEntrantLimit returns the event's entrantLimit, or nil when absent.
	ReadEntrantLimit(ctx context.Context, eventID string) (*int, error)
	// ReadLotteryRan returns the persisted "initial lottery ran" flag.
	ReadLotteryRan(ctx context.Context, eventID string) (bool, error)
	// ReadEntry returns the marker at p, or nil when the path is absent.
	ReadEntry(ctx context.Context, p Path) (*Marker, error)
	// ReadBucket returns every entrant of a bucket in store order.
	ReadBucket(ctx context.Context, eventID string, bucket Status) ([]Entry, error)
	// BucketHasAny reports whether the bucket has at least one member.
	BucketHasAny(ctx context.Context, eventID string, bucket Status) (bool, error)
	// Commit applies u atomically. On error the store is unchanged.
	Commit(ctx context.Context, u *Update) error
}
