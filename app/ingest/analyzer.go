package ingest

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/umputun/tweet-ingest/lib/lexicon"
	"github.com/umputun/tweet-ingest/lib/record"
)

// Analyzer sets language votes, detected language and text terms of records using the lexicon
type Analyzer struct {
	lex     *lexicon.Lexicon
	phrases []string
}

// NewAnalyzer makes an analyzer for the lexicon
func NewAnalyzer(lex *lexicon.Lexicon) *Analyzer {
	phrases := lex.PhraseWhitelist()
	// longer phrases first, so a phrase containing a shorter one wins
	slices.SortStableFunc(phrases, func(a, b string) int { return len(b) - len(a) })
	return &Analyzer{lex: lex, phrases: phrases}
}

// Analyze votes for languages with every detection word of the text and picks the language with most votes,
// ties resolved by tag order. Whitelisted phrases are kept as terms and don't vote. Terms exclude noise words,
// mentions, links and single-character tokens.
func (a *Analyzer) Analyze(r *record.Record) {
	text := r.LowerText()
	if r.IsRetweet() {
		if quoted := r.ExtractQuotedText(); quoted != "" {
			text = strings.ToLower(quoted)
		}
	}

	terms := map[string]int{}
	for _, p := range a.phrases {
		if n := strings.Count(text, p); n > 0 {
			terms[p] += n
			text = strings.ReplaceAll(text, p, " ")
		}
	}

	votes := map[string]int{}
	for _, tok := range tokenize(text) {
		for _, tag := range a.lex.DetectionTags(tok) {
			votes[tag]++
		}
		if a.lex.IsNoise(tok) || utf8.RuneCountInString(tok) < 2 {
			continue
		}
		terms[tok]++
	}

	r.SetLanguages(votes)
	r.SetTextTerms(terms)
	r.SetLanguage(pickLanguage(votes))
}

// pickLanguage returns the tag with most votes or UnknownLang without votes
func pickLanguage(votes map[string]int) string {
	res, best := lexicon.UnknownLang, 0
	tags := make([]string, 0, len(votes))
	for tag := range votes {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	for _, tag := range tags {
		if votes[tag] > best {
			res, best = tag, votes[tag]
		}
	}
	return res
}

// tokenize splits lower-cased text to words, dropping mentions and links
func tokenize(text string) []string {
	fields := strings.FieldsFunc(text, func(c rune) bool {
		return !unicode.IsLetter(c) && !unicode.IsDigit(c) && c != '@' && c != '#' && c != '\'' && c != ':' && c != '/' && c != '.'
	})
	res := make([]string, 0, len(fields))
	for _, f := range fields {
		if strings.HasPrefix(f, "@") || strings.HasPrefix(f, "http:") || strings.HasPrefix(f, "https:") || strings.HasPrefix(f, "www.") {
			continue
		}
		f = strings.Trim(f, "#':/.")
		if f != "" {
			res = append(res, f)
		}
	}
	return res
}
