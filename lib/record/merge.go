package record

import (
	"fmt"
	"slices"
)

// UpdateFrom reconciles this record with another copy of the same record, e.g. a stored record with a
// freshly fetched one. If this record has more explicit retweets, the other copy is considered stale and
// nothing is merged. Otherwise explicit counters, replies and duplicates are taken from the other copy.
// Fails with ErrIdentityMismatch without any change if ids differ.
func (r *Record) UpdateFrom(other *Record) (*Record, error) {
	if other == nil || r.id != other.id {
		return r, fmt.Errorf("%w, this: %d, update: %v", ErrIdentityMismatch, r.id, idOf(other))
	}

	if r.retweetCount > other.retweetCount {
		return r, nil
	}

	r.replyCount = other.replyCount
	r.retweetCount = other.retweetCount

	// replies of the other copy already point to the same id, references are kept as is
	r.replies = slices.Clone(other.replies)
	r.duplicates = slices.Clone(other.duplicates)
	return r, nil
}

// Absorb adds replies and duplicates of another copy of the same record which are not present yet.
// Own attributes and counters are not changed.
func (r *Record) Absorb(other *Record) error {
	if other == nil || r.id != other.id {
		return fmt.Errorf("%w, this: %d, other: %v", ErrIdentityMismatch, r.id, idOf(other))
	}
	for _, rp := range other.replies {
		if !r.hasReply(rp.ID) {
			r.replies = append(r.replies, rp)
		}
	}
	for _, id := range other.duplicates {
		r.AddDuplicate(id)
	}
	return nil
}

// Reactivate takes over replies and duplicates collected by a daemon placeholder with the same id,
// used when the real record shows up after a daemon was stored for it.
func (r *Record) Reactivate(daemon *Record) error {
	if daemon != nil && r.id == daemon.id && !daemon.daemon {
		return fmt.Errorf("%w: %d", ErrNotDaemon, daemon.id)
	}
	return r.Absorb(daemon)
}

func idOf(r *Record) any {
	if r == nil {
		return nil
	}
	return r.id
}
