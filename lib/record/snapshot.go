package record

import (
	"maps"
	"slices"
	"time"
)

// Snapshot is a full copy of record attributes, including derived ones, for persistence and indexing
type Snapshot struct {
	ID             int64          `json:"id"`
	Text           string         `json:"text"`
	LowerText      string         `json:"lower_text"`
	Author         string         `json:"author"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      *time.Time     `json:"updated_at,omitempty"` // nil if not persisted
	Quality        int            `json:"quality"`
	QualDebug      string         `json:"qual_debug,omitempty"`
	QualReductions int            `json:"qual_reductions"`
	Spam           bool           `json:"spam"`
	Retweet        bool           `json:"retweet"`
	Daemon         bool           `json:"daemon"`
	ParentID       int64          `json:"parent_id"`
	Replies        []Reply        `json:"replies,omitempty"`
	ReplyCount     int            `json:"reply_count"`   // explicit
	RetweetCount   int            `json:"retweet_count"` // explicit
	Duplicates     []int64        `json:"duplicates,omitempty"`
	Language       string         `json:"language"`
	Languages      map[string]int `json:"languages,omitempty"`
	TextTerms      map[string]int `json:"text_terms,omitempty"`
	FeedSource     string         `json:"feed_source,omitempty"`
	Location       string         `json:"location,omitempty"`
	Lat            float64        `json:"lat"`
	Lon            float64        `json:"lon"`
	Protected      bool           `json:"protected"`
	URLs           []string       `json:"urls,omitempty"`
	Version        int64          `json:"version"`
	UpdateCount    int            `json:"update_count"`
	InstantiatedAt time.Time      `json:"instantiated_at"`
}

// Snapshot returns a copy of all record attributes, safe to use after the record changes
func (r *Record) Snapshot() Snapshot {
	res := Snapshot{
		ID:             r.id,
		Text:           r.text,
		LowerText:      r.lowerText,
		Author:         r.author,
		CreatedAt:      r.createdAt,
		Quality:        r.quality,
		QualDebug:      r.qualDebug,
		QualReductions: r.qualReductions,
		Spam:           r.IsSpam(),
		Retweet:        r.retweet,
		Daemon:         r.daemon,
		ParentID:       r.parentID,
		Replies:        slices.Clone(r.replies),
		ReplyCount:     r.replyCount,
		RetweetCount:   r.retweetCount,
		Duplicates:     slices.Clone(r.duplicates),
		Language:       r.language,
		Languages:      maps.Clone(r.languages),
		TextTerms:      maps.Clone(r.textTerms),
		FeedSource:     r.feedSource,
		Location:       r.location,
		Lat:            r.lat,
		Lon:            r.lon,
		Protected:      r.protected,
		URLs:           slices.Clone(r.urls),
		Version:        r.version,
		UpdateCount:    r.updateCount,
		InstantiatedAt: r.instantiatedAt,
	}
	if !r.updatedAt.IsZero() {
		ts := r.updatedAt
		res.UpdatedAt = &ts
	}
	return res
}

// FromSnapshot restores a record. Derived fields are recomputed from the text, negative version is reset to 0.
func FromSnapshot(s Snapshot) *Record {
	res := New(s.ID, s.Text, s.Author, s.CreatedAt)
	if s.UpdatedAt != nil {
		res.updatedAt = *s.UpdatedAt
	}
	res.quality = s.Quality
	res.qualDebug = s.QualDebug
	res.qualReductions = s.QualReductions
	res.daemon = s.Daemon
	res.parentID = s.ParentID
	if s.ParentID <= 0 {
		res.parentID = NoParent
	}
	res.replies = slices.Clone(s.Replies)
	res.replyCount = s.ReplyCount
	res.retweetCount = s.RetweetCount
	for _, id := range s.Duplicates {
		res.AddDuplicate(id)
	}
	if s.Language != "" {
		res.language = s.Language
	}
	res.languages = nonNilMap(maps.Clone(s.Languages))
	res.textTerms = nonNilMap(maps.Clone(s.TextTerms))
	res.feedSource = s.FeedSource
	res.location = s.Location
	res.lat, res.lon = s.Lat, s.Lon
	res.protected = s.Protected
	res.urls = slices.Clone(s.URLs)
	res.version = max(s.Version, 0)
	res.updateCount = s.UpdateCount
	if !s.InstantiatedAt.IsZero() {
		res.instantiatedAt = s.InstantiatedAt
	}
	return res
}

// Clone returns an independent copy of the record
func (r *Record) Clone() *Record { return FromSnapshot(r.Snapshot()) }
