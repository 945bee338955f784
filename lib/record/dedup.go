package record

import (
	"cmp"
	"slices"
)

// SortAndDeduplicate stable-sorts records by id and removes a record if it has the same id or
// exactly the same text as the previous kept record. The comparison is adjacent-only:
// records with identical text separated by a different record after sorting are all kept,
// so of two adjacent identical texts the lower id wins.
// The input slice is reused, the returned slice holds kept records.
func SortAndDeduplicate(recs []*Record) []*Record {
	if len(recs) < 2 {
		return recs
	}
	slices.SortStableFunc(recs, compareID)

	res := recs[:1]
	prev := recs[0]
	for _, r := range recs[1:] {
		if r.id == prev.id || r.text == prev.text {
			continue
		}
		res = append(res, r)
		prev = r
	}
	clear(recs[len(res):]) // drop references to removed records
	return res
}

func compareID(a, b *Record) int {
	return cmp.Compare(a.id, b.id)
}
