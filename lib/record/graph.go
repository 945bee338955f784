package record

import (
	"errors"
	"fmt"
	"slices"
)

// ErrNotFound returned by Table when a record is missing
var ErrNotFound = errors.New("record not found")

// Reply is a reference to a reply record. Retweet copies the reply's retweet flag,
// which never changes after construction.
type Reply struct {
	ID      int64 `json:"id"`
	Retweet bool  `json:"retweet"`
}

// AddReply adds child to replies and points the child's parent to this record.
// It doesn't detach the child from a previous parent, use Table.Link for that.
// Adding a record as its own reply is ignored.
func (r *Record) AddReply(child *Record) *Record {
	if child == nil || child.id == r.id {
		return r
	}
	if !r.hasReply(child.id) {
		r.replies = append(r.replies, Reply{ID: child.id, Retweet: child.retweet})
	}
	child.parentID = r.id
	return r
}

// Replies returns references to replies in insertion order
func (r *Record) Replies() []Reply {
	return slices.Clone(r.replies)
}

// ReplyCount returns explicit reply count plus the number of linked replies.
// Both may count the same reply, the sum is kept as is.
func (r *Record) ReplyCount() int {
	return r.replyCount + len(r.replies)
}

// RetweetCount returns explicit retweet count plus the number of linked retweets.
// Both may count the same retweet, the sum is kept as is.
func (r *Record) RetweetCount() int {
	res := r.retweetCount
	for _, rp := range r.replies {
		if rp.Retweet {
			res++
		}
	}
	return res
}

// ExplicitReplyCount returns reply count reported by the upstream
func (r *Record) ExplicitReplyCount() int { return r.replyCount }

// SetExplicitReplyCount sets reply count reported by the upstream
func (r *Record) SetExplicitReplyCount(n int) { r.replyCount = n }

// ExplicitRetweetCount returns retweet count reported by the upstream
func (r *Record) ExplicitRetweetCount() int { return r.retweetCount }

// SetExplicitRetweetCount sets retweet count reported by the upstream
func (r *Record) SetExplicitRetweetCount(n int) { r.retweetCount = n }

// ParentID returns id of the record this one replies to, NoParent if none
func (r *Record) ParentID() int64 { return r.parentID }

// HasParent returns true if the record is a reply
func (r *Record) HasParent() bool { return !IsDefaultParentID(r.parentID) }

// SetParent sets parent id from the parent record, nil clears it
func (r *Record) SetParent(parent *Record) {
	if parent == nil {
		r.parentID = NoParent
		return
	}
	r.parentID = parent.id
}

// IsDefaultParentID checks if id is the "no parent" sentinel
func IsDefaultParentID(id int64) bool { return id == NoParent }

// AddDuplicate records id of a near-duplicate record, own id is ignored
func (r *Record) AddDuplicate(id int64) {
	if id == r.id || slices.Contains(r.duplicates, id) {
		return
	}
	r.duplicates = append(r.duplicates, id)
}

// Duplicates returns ids of near-duplicate records in insertion order
func (r *Record) Duplicates() []int64 {
	return slices.Clone(r.duplicates)
}

// IsDaemon returns true for a placeholder standing in for a record known only by id, e.g. the parent
// of a reply which couldn't be located. Daemons are rare, a few per thousand records, and expensive to
// look for; the ingestion decides how much to search before making one.
func (r *Record) IsDaemon() bool { return r.daemon }

// SetDaemon sets daemon flag
func (r *Record) SetDaemon(d bool) *Record {
	r.daemon = d
	return r
}

func (r *Record) hasReply(id int64) bool {
	return slices.ContainsFunc(r.replies, func(rp Reply) bool { return rp.ID == id })
}

func (r *Record) removeReply(id int64) {
	r.replies = slices.DeleteFunc(r.replies, func(rp Reply) bool { return rp.ID == id })
}

// Table is an id-keyed index of records used to resolve parent and reply relations.
// Not thread-safe.
type Table struct {
	records map[int64]*Record
}

// NewTable makes an empty table
func NewTable() *Table {
	return &Table{records: make(map[int64]*Record)}
}

// Put adds or replaces the record with the same id
func (t *Table) Put(recs ...*Record) {
	for _, r := range recs {
		t.records[r.id] = r
	}
}

// Get returns record by id
func (t *Table) Get(id int64) (*Record, bool) {
	r, ok := t.records[id]
	return r, ok
}

// Len returns number of records
func (t *Table) Len() int { return len(t.records) }

// Records returns all records sorted by id
func (t *Table) Records() []*Record {
	res := make([]*Record, 0, len(t.records))
	for _, r := range t.records {
		res = append(res, r)
	}
	slices.SortFunc(res, compareID)
	return res
}

// Parent resolves the parent of the record
func (t *Table) Parent(r *Record) (*Record, bool) {
	if !r.HasParent() {
		return nil, false
	}
	return t.Get(r.parentID)
}

// Replies resolves replies of the record, replies missing in the table are skipped
func (t *Table) Replies(r *Record) []*Record {
	res := make([]*Record, 0, len(r.replies))
	for _, rp := range r.replies {
		if child, ok := t.records[rp.ID]; ok {
			res = append(res, child)
		}
	}
	return res
}

// Link makes child a reply of parent. If the child was linked to another parent in the table,
// it is removed from that parent's replies first.
func (t *Table) Link(parentID, childID int64) error {
	parent, ok := t.records[parentID]
	if !ok {
		return fmt.Errorf("parent %d: %w", parentID, ErrNotFound)
	}
	child, ok := t.records[childID]
	if !ok {
		return fmt.Errorf("child %d: %w", childID, ErrNotFound)
	}
	if child.HasParent() && child.parentID != parentID {
		if prev, found := t.records[child.parentID]; found {
			prev.removeReply(childID)
		}
	}
	parent.AddReply(child)
	return nil
}
