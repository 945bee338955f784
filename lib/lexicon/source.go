package lexicon

import (
	"bufio"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"unicode/utf8"

	"github.com/hashicorp/go-multierror"
)

//go:embed data/*.txt
var embedded embed.FS

// Languages lists languages with embedded noise and detection word lists
var Languages = []string{"en", "de", "es", "fr", "pt"}

// Kind defines how a source is merged into the lexicon
type Kind string

// enum of source kinds
const (
	KindNoise     Kind = "noise"     // per-language noise words, folded into detection index
	KindDetection Kind = "detection" // per-language detection cues
	KindAux       Kind = "aux"       // auxiliary noise bucket, noise index only
	KindPhrase    Kind = "phrase"    // phrase exempt from language voting
)

// Source is a raw word list with the tag it contributes
type Source struct {
	Tag   string
	Kind  Kind
	Words []string
}

// Validate checks if the kind is known
func (k Kind) Validate() error {
	switch k {
	case KindNoise, KindDetection, KindAux, KindPhrase:
		return nil
	}
	return fmt.Errorf("invalid lexicon kind: %q", k)
}

// String implements Stringer interface
func (k Kind) String() string { return string(k) }

// ReadSource reads a word list, one word or phrase per line. Lines are kept raw, normalization happens
// when the source is merged. Invalid utf-8 makes the whole list malformed.
func ReadSource(r io.Reader, tag string, kind Kind) (Source, error) {
	if err := kind.Validate(); err != nil {
		return Source{}, err
	}
	res := Source{Tag: tag, Kind: kind}
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if !utf8.ValidString(line) {
			return Source{}, fmt.Errorf("invalid utf-8 in %s/%s line %d", kind, tag, lineNum)
		}
		res.Words = append(res.Words, line)
	}
	if err := scanner.Err(); err != nil {
		return Source{}, fmt.Errorf("failed to read %s/%s: %w", kind, tag, err)
	}
	return res, nil
}

// LoadSources loads noise_words_<lang>.txt and lang_det_<lang>.txt for each language from fsys.
// All missing or malformed files are reported together, no partial result is returned.
func LoadSources(fsys fs.FS, langs ...string) ([]Source, error) {
	var errs error
	res := make([]Source, 0, 2*len(langs))
	load := func(name, tag string, kind Kind) {
		fh, err := fsys.Open(name)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("can't open %s: %w", name, err))
			return
		}
		defer fh.Close()
		src, err := ReadSource(fh, tag, kind)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("can't load %s: %w", name, err))
			return
		}
		res = append(res, src)
	}

	for _, lang := range langs {
		load("noise_words_"+lang+".txt", lang, KindNoise)
		load("lang_det_"+lang+".txt", lang, KindDetection)
	}
	if errs != nil {
		return nil, errs
	}
	return res, nil
}

// EmbeddedSources returns word lists shipped with the package for given languages,
// plus auxiliary buckets and the phrase whitelist
func EmbeddedSources(langs ...string) ([]Source, error) {
	data, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, fmt.Errorf("can't access embedded word lists: %w", err)
	}
	res, err := LoadSources(data, langs...)
	if err != nil {
		return nil, err
	}
	return append(res, AuxSources()...), nil
}

// AuxSources returns language-independent noise buckets and the phrase whitelist
func AuxSources() []Source {
	return []Source{
		{Tag: UnknownLang, Kind: KindAux, Words: unsortedNoise},
		{Tag: MiscTerms, Kind: KindAux, Words: miscNoise},
		{Tag: SingleCharTerms, Kind: KindAux, Words: singleCharNoise()},
		{Tag: NumTerms, Kind: KindAux, Words: numNoise()},
		{Tag: "", Kind: KindPhrase, Words: phraseWhitelist},
	}
}

// phraseWhitelist holds phrases which would otherwise mislead detection, e.g. "bin" in "bin laden"
var phraseWhitelist = []string{"bin laden", "open source"}

// miscNoise holds twitter slang and markup fragments
var miscNoise = []string{
	"ah", "aw", "cu", "ff", "haha", "hahaha", "hehe", "hey", "hi", "pls",
	"rt", "re", "soo", "thx", "yeah", "via", "/by", "/cc", "/via",
	"+1", "-1", ";d", "^^", ".", ",", ";", "ur", "tx", "ini", "ii", "iii",
	`\n`, "com", "de", "el", "en", "je", "jp", "lol", "ne", "om", "ve", "ya", "yr", "za",
}

// unsortedNoise holds short words of languages without own lists
var unsortedNoise = []string{
	"¿qué", "ak", "aku", "aja", "al", "ada", "amb", "así", "au", "avec", "δεν",
	"bien", "boa", "bom", "bueno", "ca", "ça", "cap", "ce", "c'est", "cek", "ces", "che", "chi", "ci",
	"col", "com", "como", "con", "crec", "cosa", "cuando", "cumpleaños",
	"dan", "dans", "dc", "del", "decir", "dólar", "dong", "dua", "di",
	"ed", "een", "ei", "el", "els", "em", "en", "entre", "era", "és", "est",
	"está", "esta", "estes", "estoy", "eso", "et", "été", "ex", "fer", "fu",
	"ga", "ge", "gue", "ha", "hay", "han", "het", "ho", "hoy", "ik", "il", "inte", "iv",
	"jajaja", "je", "jo", "jos", "ju", "και", "ki", "ke",
	"la", "las", "le", "les", "lett", "leur", "li", "lo", "los", "mas", "más",
	"mejor", "més", "merci", "ma", "me", "mi", "mon", "muchas", "muy", "με",
	"não", "nada", "ne", "ni", "nih", "non", "nor", "nos", "notre", "nu", "nya",
	"gracias", "gua", "guau", "θα", "opció", "ou", "oui",
	"par", "para", "pas", "per", "pero", "por", "pour", "pro", "qualche", "que", "qu", "qui",
	"san", "se", "sen", "ses", "sí", "si", "sin", "sólo", "son", "somme", "soirée", "sous",
	"su", "suis", "sul", "sur", "sus", "ta", "també", "te", "té", "tem", "ti", "tinc", "tion", "tive",
	"todos", "το", "tous", "tra", "très", "tu", "uma", "un", "una", "une", "ut",
	"va", "van", "να", "vi", "vie", "vos", "vous", "votre", "yang", "για", "yg", "yo", "qué",
}

// singleCharNoise returns latin letters a-z
func singleCharNoise() []string {
	res := make([]string, 0, 26)
	for c := 'a'; c <= 'z'; c++ {
		res = append(res, string(c))
	}
	return res
}

// numNoise returns "00".."09", "1".."100" and "000"
func numNoise() []string {
	res := make([]string, 0, 111)
	for i := range 10 {
		res = append(res, "0"+strconv.Itoa(i))
	}
	for i := 1; i <= 100; i++ {
		res = append(res, strconv.Itoa(i))
	}
	return append(res, "000")
}
