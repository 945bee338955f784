package ingest

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/forPelevin/gomoji"
	cache "github.com/go-pkgz/expirable-cache/v3"

	"github.com/umputun/tweet-ingest/app/storage"
	"github.com/umputun/tweet-ingest/lib/record"
)

// Check is a result of a quality rule. Factor is applied to the record quality on hit.
type Check struct {
	Name    string
	Hit     bool
	Factor  float64
	Details string
}

// String returns "name: details" as it is added to the quality trail
func (c Check) String() string {
	return fmt.Sprintf("%s: %s", c.Name, c.Details)
}

// Rule checks a record and reports if its quality has to be reduced
type Rule func(r *record.Record) Check

const (
	lowFactor = float64(record.QualLow) / record.QualMax
	badFactor = float64(record.QualBad) / record.QualMax
)

// LinksRule reduces quality of records with more than limit links.
// Links reported by upstream are used if present, otherwise links are counted in the text.
func LinksRule(limit int) Rule {
	return func(r *record.Record) Check {
		links := len(r.URLs())
		if links == 0 {
			links = strings.Count(r.LowerText(), "http://") + strings.Count(r.LowerText(), "https://")
		}
		if links > limit {
			return Check{Name: "links", Hit: true, Factor: lowFactor, Details: fmt.Sprintf("too many links %d/%d", links, limit)}
		}
		return Check{Name: "links", Details: fmt.Sprintf("links %d/%d", links, limit)}
	}
}

// EmojiRule reduces quality of records with more than limit emojis
func EmojiRule(limit int) Rule {
	return func(r *record.Record) Check {
		count := len(gomoji.CollectAll(r.Text()))
		if count > limit {
			return Check{Name: "emoji", Hit: true, Factor: lowFactor, Details: fmt.Sprintf("too many emojis %d/%d", count, limit)}
		}
		return Check{Name: "emoji", Details: fmt.Sprintf("emojis %d/%d", count, limit)}
	}
}

// duplicates tracks ids of recently seen records by hash of their lower-cased text.
// Every other record seen with the same text within ttl halves the quality and is added to record duplicates.
// Ids of the current batch are kept pending until commit, discard drops them if the batch failed.
type duplicates struct {
	cache   cache.Cache[string, []int64]
	ttl     time.Duration
	pending map[string][]int64
}

func newDuplicates(maxKeys int, ttl time.Duration) *duplicates {
	return &duplicates{
		cache:   cache.NewCache[string, []int64]().WithMaxKeys(maxKeys).WithTTL(ttl),
		ttl:     ttl,
		pending: map[string][]int64{},
	}
}

// rule tracks the record and returns the duplicate check for it
func (d *duplicates) rule(r *record.Record) Check {
	if strings.TrimSpace(r.LowerText()) == "" {
		return Check{Name: "duplicate", Details: "empty text"}
	}

	hash := storage.TextHash(r.LowerText())
	ids := d.seen(hash)
	hits := 0
	for _, id := range ids {
		if id == r.ID() {
			continue
		}
		r.AddDuplicate(id)
		hits++
	}
	if !slices.Contains(ids, r.ID()) {
		d.pending[hash] = append(d.pending[hash], r.ID())
	}

	if hits == 0 {
		return Check{Name: "duplicate", Details: "unique text"}
	}
	return Check{Name: "duplicate", Hit: true, Factor: math.Pow(badFactor, float64(hits)),
		Details: fmt.Sprintf("same text seen %d times", hits)}
}

// commit moves pending ids to the cache
func (d *duplicates) commit() {
	for hash := range d.pending {
		d.cache.Set(hash, d.seen(hash), d.ttl)
	}
	clear(d.pending)
}

// discard drops pending ids
func (d *duplicates) discard() {
	clear(d.pending)
}

// seen returns committed and pending ids for the text hash
func (d *duplicates) seen(hash string) []int64 {
	cached, _ := d.cache.Get(hash)
	res := slices.Clone(cached)
	for _, id := range d.pending[hash] {
		if !slices.Contains(res, id) {
			res = append(res, id)
		}
	}
	return res
}

// ids returns ids of recently seen records with the lower-cased text
func (d *duplicates) ids(lowerText string) []int64 {
	return d.seen(storage.TextHash(lowerText))
}
