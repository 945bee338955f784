// Package record implements the ingested short-text record (a tweet) with its mutable scoring and
// classification state, retweet detection, reply/duplicate relations, batch deduplication and reconciliation
// of two copies of the same record.
//
// A Record is not thread-safe. The caller must serialize all mutations of a given record, e.g. by
// processing all records with the same id in a single goroutine. Operations on distinct records are
// independent.
//
// Relations between records are stored as ids only. Table resolves them to live records at read time.
package record

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/umputun/tweet-ingest/lib/lexicon"
)

// NoParent is the parent id of a record which is not a reply
const NoParent int64 = -1

// validation errors
var (
	ErrNegativeVersion   = errors.New("version can't be negative")
	ErrVersionRegression = errors.New("version can't decrease")
	ErrIdentityMismatch  = errors.New("ids have to be the same")
	ErrNotDaemon         = errors.New("record is not a daemon")
)

// Record is a single ingested message identified by id
type Record struct {
	id        int64
	text      string
	lowerText string
	author    string
	createdAt time.Time
	updatedAt time.Time // zero if not persisted yet

	quality        int
	qualDebug      string
	qualReductions int

	retweet bool
	daemon  bool

	parentID     int64
	replies      []Reply
	replyCount   int // explicit, reported by the upstream
	retweetCount int // explicit, reported by the upstream
	duplicates   []int64

	language   string
	languages  map[string]int
	textTerms  map[string]int
	feedSource string
	location   string
	lat, lon   float64
	protected  bool
	urls       []string

	version        int64
	updateCount    int
	instantiatedAt time.Time
}

// Upstream is a tweet as delivered by the upstream source, used to construct a Record
type Upstream struct {
	ID           int64     `json:"id"`
	Text         string    `json:"text"`
	Author       string    `json:"author"`
	CreatedAt    time.Time `json:"created_at"`
	Geo          *Geo      `json:"geo,omitempty"`
	InReplyTo    int64     `json:"in_reply_to,omitempty"` // 0 if not a reply
	URLs         []string  `json:"urls,omitempty"`
	Location     string    `json:"location,omitempty"`
	FeedSource   string    `json:"feed_source,omitempty"`
	Protected    bool      `json:"protected,omitempty"`
	ReplyCount   int       `json:"reply_count,omitempty"`
	RetweetCount int       `json:"retweet_count,omitempty"`
}

// Geo is a point reported by the upstream
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// New makes a record with sanitized text, full quality and no relations
func New(id int64, text, author string, createdAt time.Time) *Record {
	res := &Record{
		id:             id,
		author:         author,
		createdAt:      createdAt,
		quality:        QualMax,
		parentID:       NoParent,
		language:       lexicon.UnknownLang,
		languages:      map[string]int{},
		textTerms:      map[string]int{},
		instantiatedAt: time.Now(),
	}
	res.setText(text)
	return res
}

// FromUpstream makes a record from the upstream tweet
func FromUpstream(u Upstream) *Record {
	res := New(u.ID, u.Text, u.Author, u.CreatedAt)
	if u.InReplyTo > 0 {
		res.parentID = u.InReplyTo
	}
	if u.Geo != nil {
		res.SetGeo(u.Geo.Lat, u.Geo.Lon)
	}
	res.urls = append(res.urls, u.URLs...)
	res.location = u.Location
	res.feedSource = u.FeedSource
	res.protected = u.Protected
	res.replyCount = u.ReplyCount
	res.retweetCount = u.RetweetCount
	return res
}

// setText is the only place text is assigned, derived fields are computed here once
func (r *Record) setText(text string) {
	r.text = Sanitize(text)
	r.lowerText = strings.ToLower(r.text)
	r.retweet = strings.Contains(r.lowerText, retweetMarker)
}

// Sanitize removes invalid utf-8 sequences and characters not allowed in XML 1.0.
// The result is never longer than the input.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if isXMLChar(r) {
			return r
		}
		return -1
	}, strings.ToValidUTF8(s, ""))
}

func isXMLChar(r rune) bool {
	switch {
	case r == 0x9 || r == 0xA || r == 0xD:
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	}
	return false
}

// ID returns record id
func (r *Record) ID() int64 { return r.id }

// Text returns sanitized text
func (r *Record) Text() string { return r.text }

// LowerText returns lower-cased text
func (r *Record) LowerText() string { return r.lowerText }

// Author returns the screen name of the author
func (r *Record) Author() string { return r.author }

// CreatedAt returns creation time reported by the upstream
func (r *Record) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns the time the record was made persistent, zero if not persisted
func (r *Record) UpdatedAt() time.Time { return r.updatedAt }

// SetUpdatedAt sets persistence time
func (r *Record) SetUpdatedAt(t time.Time) { r.updatedAt = t }

// MakePersistent marks record as persistent now
func (r *Record) MakePersistent() *Record {
	r.updatedAt = time.Now()
	return r
}

// IsPersistent returns false if the record is eligible for removal by retention
func (r *Record) IsPersistent() bool { return !r.updatedAt.IsZero() }

// Version returns record version
func (r *Record) Version() int64 { return r.version }

// SetVersion sets version, rejects negative and decreasing values
func (r *Record) SetVersion(v int64) error {
	if v < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeVersion, v)
	}
	if v < r.version {
		return fmt.Errorf("%w: %d < %d", ErrVersionRegression, v, r.version)
	}
	r.version = v
	return nil
}

// UpdateCount returns the number of updates applied to the stored record
func (r *Record) UpdateCount() int { return r.updateCount }

// SetUpdateCount sets the number of updates
func (r *Record) SetUpdateCount(n int) { r.updateCount = n }

// Language returns detected language, lexicon.UnknownLang by default
func (r *Record) Language() string { return r.language }

// SetLanguage sets detected language
func (r *Record) SetLanguage(lang string) { r.language = lang }

// Languages returns a copy of language frequencies reported by the detector
func (r *Record) Languages() map[string]int { return maps.Clone(r.languages) }

// SetLanguages sets language frequencies
func (r *Record) SetLanguages(m map[string]int) { r.languages = nonNilMap(m) }

// TextTerms returns a copy of term frequencies of the text reported by the detector
func (r *Record) TextTerms() map[string]int { return maps.Clone(r.textTerms) }

// SetTextTerms sets term frequencies
func (r *Record) SetTextTerms(m map[string]int) { r.textTerms = nonNilMap(m) }

// FeedSource returns the name of the feed the record was fetched from
func (r *Record) FeedSource() string { return r.feedSource }

// SetFeedSource sets feed name
func (r *Record) SetFeedSource(s string) { r.feedSource = s }

// Location returns free-form location reported by the upstream
func (r *Record) Location() string { return r.location }

// SetLocation sets free-form location
func (r *Record) SetLocation(s string) { r.location = s }

// Geo returns latitude and longitude
func (r *Record) Geo() (lat, lon float64) { return r.lat, r.lon }

// SetGeo sets latitude and longitude
func (r *Record) SetGeo(lat, lon float64) {
	r.lat, r.lon = lat, lon
}

// IsProtected returns true if the author's account is protected
func (r *Record) IsProtected() bool { return r.protected }

// SetProtected sets protected flag
func (r *Record) SetProtected(p bool) { r.protected = p }

// URLs returns a copy of urls attached to the record
func (r *Record) URLs() []string { return slices.Clone(r.urls) }

// URL returns the first attached url or empty string
func (r *Record) URL() string {
	if len(r.urls) == 0 {
		return ""
	}
	return r.urls[0]
}

// AddURL attaches url to the record
func (r *Record) AddURL(u string) *Record {
	r.urls = append(r.urls, u)
	return r
}

// QueueAge returns time passed since the record was instantiated
func (r *Record) QueueAge() time.Duration {
	return time.Since(r.instantiatedAt)
}

// String implements Stringer interface
func (r *Record) String() string {
	return fmt.Sprintf("%d %s %s v%d", r.id, r.createdAt.Format(time.RFC3339), r.text, r.version)
}

func nonNilMap(m map[string]int) map[string]int {
	if m == nil {
		return map[string]int{}
	}
	return m
}
