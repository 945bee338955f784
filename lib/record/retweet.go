package record

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// retweetMarker is the textual convention for a retweet, matched in lower-cased text
const retweetMarker = "rt @"

// IsRetweet returns true if the text contains "rt @", case-insensitive
func (r *Record) IsRetweet() bool { return r.retweet }

// ExtractQuotedText returns the retweeted text, i.e. everything after the first whitespace
// following "rt @". Returns empty string if there is no marker or nothing follows the handle.
func (r *Record) ExtractQuotedText() string {
	// ascii folding keeps byte offsets identical to the original text
	idx := strings.Index(asciiLower(r.text), retweetMarker)
	if idx < 0 {
		return ""
	}
	start := idx + len(retweetMarker)
	ws := strings.IndexFunc(r.text[start:], unicode.IsSpace)
	if ws < 0 {
		return ""
	}
	ws += start
	_, size := utf8.DecodeRuneInString(r.text[ws:])
	return strings.TrimSpace(r.text[ws+size:])
}

// IsRetweetOf checks if this record retweets the candidate, i.e. contains
// "rt @author: text" or "rt @author text" literally, case-insensitive.
// Any other difference in punctuation or spacing is a mismatch.
func (r *Record) IsRetweetOf(candidate *Record) bool {
	if !r.retweet || candidate == nil {
		return false
	}
	handle := retweetMarker + strings.ToLower(candidate.author)
	return strings.Contains(r.lowerText, handle+": "+candidate.lowerText) ||
		strings.Contains(r.lowerText, handle+" "+candidate.lowerText)
}

func asciiLower(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}
