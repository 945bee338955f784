// Package lexicon builds the shared word lexicon used by the language detector. The lexicon consists of
// two maps, both keyed by a normalized (trimmed, lower-cased) word:
//
//   - noise index: word -> tags of the noise lists containing the word. A tag is a language code
//     (e.g. "en") or one of the auxiliary buckets (UnknownLang, MiscTerms, SingleCharTerms, NumTerms).
//   - detection index: word -> language tags the word signals. Every per-language noise word is folded
//     into this index as well, so the detector can vote on common words too.
//
// Both maps are built once from a set of Source lists and never mutated afterward, so a Lexicon is safe
// for concurrent reads without locking. The merge is a union of tag sets, the result doesn't depend on
// the order of sources.
//
// The process-wide lexicon built from the embedded word lists is available with Default.
package lexicon

import (
	"iter"
	"slices"
	"strings"
	"sync"
)

// tags for auxiliary noise buckets
const (
	UnknownLang     = "unknown"
	MiscTerms       = "misc"
	SingleCharTerms = "single"
	NumTerms        = "num"
)

// commentPrefix marks a comment line in word lists
const commentPrefix = "//"

// Lexicon is an immutable pair of word indexes plus a phrase whitelist, thread-safe for reads.
type Lexicon struct {
	noise     map[string]tagSet
	detection map[string]tagSet
	phrases   map[string]struct{}
}

// Stats is a summary of the lexicon size
type Stats struct {
	NoiseWords     int `json:"noise_words"`
	DetectionWords int `json:"detection_words"`
	Phrases        int `json:"phrases"`
}

type tagSet map[string]struct{}

var (
	defaultOnce sync.Once
	defaultLex  *Lexicon
	defaultErr  error
)

// Default returns the process-wide lexicon built from the embedded word lists for all supported languages.
// It is built on the first call only, concurrent callers wait for the same result. A load failure is
// returned to every caller and is expected to abort the initialization of the caller.
func Default() (*Lexicon, error) {
	defaultOnce.Do(func() {
		sources, err := EmbeddedSources(Languages...)
		if err != nil {
			defaultErr = err
			return
		}
		defaultLex = New(sources...)
	})
	return defaultLex, defaultErr
}

// New builds a lexicon from the given sources. Sources are merged in a fixed order by kind:
// detection lists, then per-language noise lists, then each noise entry folded into the detection index,
// then auxiliary buckets into the noise index only. Phrase sources fill the phrase whitelist.
func New(sources ...Source) *Lexicon {
	res := &Lexicon{
		noise:     make(map[string]tagSet),
		detection: make(map[string]tagSet),
		phrases:   make(map[string]struct{}),
	}

	for s := range byKind(sources, KindDetection) {
		addWords(res.detection, s.Tag, s.Words)
	}

	for s := range byKind(sources, KindNoise) {
		addWords(res.noise, s.Tag, s.Words)
	}

	// folding must see the complete per-language noise index and must not see auxiliary buckets
	for word, tags := range res.noise {
		addTags(res.detection, word, tags)
	}

	for s := range byKind(sources, KindAux) {
		addWords(res.noise, s.Tag, s.Words)
	}

	for s := range byKind(sources, KindPhrase) {
		for _, p := range s.Words {
			if p, ok := normalize(p); ok {
				res.phrases[p] = struct{}{}
			}
		}
	}
	return res
}

// NoiseTags returns sorted tags of noise lists containing the word, nil if the word is not a noise word
func (l *Lexicon) NoiseTags(word string) []string {
	return lookup(l.noise, word)
}

// DetectionTags returns sorted language tags signaled by the word, nil if unknown
func (l *Lexicon) DetectionTags(word string) []string {
	return lookup(l.detection, word)
}

// IsNoise checks if the word is in any noise list
func (l *Lexicon) IsNoise(word string) bool {
	w, ok := normalize(word)
	if !ok {
		return false
	}
	_, found := l.noise[w]
	return found
}

// IsWhitelisted checks if the phrase is exempt from language voting
func (l *Lexicon) IsWhitelisted(phrase string) bool {
	p, ok := normalize(phrase)
	if !ok {
		return false
	}
	_, found := l.phrases[p]
	return found
}

// PhraseWhitelist returns sorted whitelisted phrases
func (l *Lexicon) PhraseWhitelist() []string {
	res := make([]string, 0, len(l.phrases))
	for p := range l.phrases {
		res = append(res, p)
	}
	slices.Sort(res)
	return res
}

// NoiseWords iterates over the noise index in word order
func (l *Lexicon) NoiseWords() iter.Seq2[string, []string] {
	return iterate(l.noise)
}

// DetectionWords iterates over the detection index in word order
func (l *Lexicon) DetectionWords() iter.Seq2[string, []string] {
	return iterate(l.detection)
}

// Stats returns sizes of the lexicon parts
func (l *Lexicon) Stats() Stats {
	return Stats{NoiseWords: len(l.noise), DetectionWords: len(l.detection), Phrases: len(l.phrases)}
}

func byKind(sources []Source, kind Kind) iter.Seq[Source] {
	return func(yield func(Source) bool) {
		for _, s := range sources {
			if s.Kind != kind {
				continue
			}
			if !yield(s) {
				return
			}
		}
	}
}

// addWords adds tag to every normalized word, accumulating with tags already present
func addWords(index map[string]tagSet, tag string, words []string) {
	for _, w := range words {
		if w, ok := normalize(w); ok {
			addTags(index, w, tagSet{tag: {}})
		}
	}
}

func addTags(index map[string]tagSet, word string, tags tagSet) {
	ts, ok := index[word]
	if !ok {
		ts = make(tagSet, len(tags))
		index[word] = ts
	}
	for t := range tags {
		ts[t] = struct{}{}
	}
}

func lookup(index map[string]tagSet, word string) []string {
	w, ok := normalize(word)
	if !ok {
		return nil
	}
	ts, found := index[w]
	if !found {
		return nil
	}
	return ts.sorted()
}

func iterate(index map[string]tagSet) iter.Seq2[string, []string] {
	return func(yield func(string, []string) bool) {
		words := make([]string, 0, len(index))
		for w := range index {
			words = append(words, w)
		}
		slices.Sort(words)
		for _, w := range words {
			if !yield(w, index[w].sorted()) {
				return
			}
		}
	}
}

func (ts tagSet) sorted() []string {
	res := make([]string, 0, len(ts))
	for t := range ts {
		res = append(res, t)
	}
	slices.Sort(res)
	return res
}

// normalize trims and lower-cases a word list entry, returns false for empty and comment entries
func normalize(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || strings.HasPrefix(s, commentPrefix) {
		return "", false
	}
	return s, true
}
