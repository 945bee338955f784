package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/umputun/tweet-ingest/lib/lexicon"
)

func (s *StorageTestSuite) TestDictionary_AddAndEntries() {
	ctx := context.Background()
	for _, db := range s.getTestDB() {
		s.Run(fmt.Sprintf("with %s", db.Type()), func() {
			d, err := NewDictionary(ctx, db)
			s.Require().NoError(err)
			defer s.dropTables(db, "dictionary")

			tests := []struct {
				name    string
				tag     string
				kind    lexicon.Kind
				word    string
				wantErr string
			}{
				{name: "noise word", tag: "en", kind: lexicon.KindNoise, word: "gonna"},
				{name: "detection word", tag: "de", kind: lexicon.KindDetection, word: "bitte"},
				{name: "phrase", tag: "", kind: lexicon.KindPhrase, word: "new york"},
				{name: "duplicate ignored", tag: "en", kind: lexicon.KindNoise, word: " gonna "},
				{name: "invalid kind", tag: "en", kind: "bad", word: "x", wantErr: "invalid lexicon kind"},
				{name: "empty word", tag: "en", kind: lexicon.KindNoise, word: "  ", wantErr: "word cannot be empty"},
			}
			for _, tt := range tests {
				s.Run(tt.name, func() {
					err := d.Add(ctx, tt.tag, tt.kind, tt.word)
					if tt.wantErr != "" {
						s.Require().Error(err)
						s.Contains(err.Error(), tt.wantErr)
						return
					}
					s.Require().NoError(err)
				})
			}

			all, err := d.Entries(ctx, "")
			s.Require().NoError(err)
			s.Len(all, 3)

			noise, err := d.Entries(ctx, lexicon.KindNoise)
			s.Require().NoError(err)
			s.Require().Len(noise, 1)
			s.Equal("gonna", noise[0].Word)
			s.Equal("en", noise[0].Tag)

			_, err = d.Entries(ctx, "bad")
			s.Error(err)

			st, err := d.Stats(ctx)
			s.Require().NoError(err)
			s.Equal(&DictionaryStats{Noise: 1, Detection: 1, Phrases: 1}, st)
			s.Equal("noise: 1, detection: 1, aux: 0, phrases: 1", st.String())
		})
	}
}

func (s *StorageTestSuite) TestDictionary_Delete() {
	ctx := context.Background()
	for _, db := range s.getTestDB() {
		s.Run(fmt.Sprintf("with %s", db.Type()), func() {
			d, err := NewDictionary(ctx, db)
			s.Require().NoError(err)
			defer s.dropTables(db, "dictionary")

			s.Require().NoError(d.Add(ctx, "en", lexicon.KindNoise, "gonna"))
			entries, err := d.Entries(ctx, lexicon.KindNoise)
			s.Require().NoError(err)
			s.Require().Len(entries, 1)

			s.Require().NoError(d.Delete(ctx, entries[0].ID))
			err = d.Delete(ctx, entries[0].ID)
			s.Require().ErrorIs(err, ErrNotFound)

			entries, err = d.Entries(ctx, lexicon.KindNoise)
			s.Require().NoError(err)
			s.Empty(entries)
		})
	}
}

func (s *StorageTestSuite) TestDictionary_ImportAndSources() {
	ctx := context.Background()
	for _, db := range s.getTestDB() {
		s.Run(fmt.Sprintf("with %s", db.Type()), func() {
			d, err := NewDictionary(ctx, db)
			s.Require().NoError(err)
			defer s.dropTables(db, "dictionary")

			input := "// extra english noise\ngonna\n\nwanna\n  gotta  \n"
			st, err := d.Import(ctx, "en", lexicon.KindNoise, strings.NewReader(input), false)
			s.Require().NoError(err)
			s.Equal(3, st.Noise)

			st, err = d.Import(ctx, "de", lexicon.KindDetection, strings.NewReader("bitte\ndanke"), false)
			s.Require().NoError(err)
			s.Equal(2, st.Detection)

			// cleanup replaces entries with the same tag and kind only
			st, err = d.Import(ctx, "en", lexicon.KindNoise, strings.NewReader("kinda"), true)
			s.Require().NoError(err)
			s.Equal(&DictionaryStats{Noise: 1, Detection: 2}, st)

			srcs, err := d.Sources(ctx)
			s.Require().NoError(err)
			s.Equal([]lexicon.Source{
				{Tag: "de", Kind: lexicon.KindDetection, Words: []string{"bitte", "danke"}},
				{Tag: "en", Kind: lexicon.KindNoise, Words: []string{"kinda"}},
			}, srcs)

			lex := lexicon.New(srcs...)
			s.True(lex.IsNoise("kinda"))
			s.Equal([]string{"de"}, lex.DetectionTags("danke"))

			_, err = d.Import(ctx, "en", lexicon.KindNoise, nil, false)
			s.Error(err)
			_, err = d.Import(ctx, "en", lexicon.KindNoise, strings.NewReader("bad \xff"), false)
			s.Error(err)
			_, err = d.Import(ctx, "en", "bad", strings.NewReader("x"), false)
			s.Error(err)
		})
	}
}
