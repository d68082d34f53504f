// Package lexicon implements [phonemizer.Converter] backed by a pronunciation
// dictionary.
//
// The dictionary uses the ipa-dict text format: one entry per line, the word,
// a tab, then one or more slash-delimited pronunciations separated by commas:
//
//	cat	/ˈkæt/
//	read	/ˈɹɛd/, /ˈɹid/
//
// Only the first pronunciation is used. Stress-ambiguity markers ("*") are
// removed. Words are looked up lower-cased with surrounding punctuation
// trimmed. Misses go to an optional fallback converter; without one, the
// lower-cased word is returned.
package lexicon

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/MrWong99/phonoscore/pkg/provider/phonemizer"
)

// schwa is removed from word endings by [WithDropFinalSchwa].
const schwa = "ə"

// Ensure Lexicon implements phonemizer.Converter at compile time.
var _ phonemizer.Converter = (*Lexicon)(nil)

// Option is a functional option for configuring a [Lexicon].
type Option func(*Lexicon)

// WithFallback sets the converter consulted for words missing from the
// dictionary.
func WithFallback(c phonemizer.Converter) Option {
	return func(l *Lexicon) {
		l.fallback = c
	}
}

// WithDropFinalSchwa strips a word-final schwa from every result. Hindi and
// Marathi speakers drop the inherent vowel at the end of a word.
func WithDropFinalSchwa() Option {
	return func(l *Lexicon) {
		l.dropFinalSchwa = true
	}
}

// Lexicon converts words by dictionary lookup. It is read-only after
// construction and safe for concurrent use.
type Lexicon struct {
	entries        map[string]string
	fallback       phonemizer.Converter
	dropFinalSchwa bool
}

// Open reads the dictionary file at path.
func Open(path string, opts ...Option) (*Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("lexicon: open: %w", err)
	}
	defer f.Close()
	return Parse(f, opts...)
}

// Parse reads a dictionary from r. Blank lines and lines starting with "#"
// are skipped. A line without a tab is an error.
func Parse(r io.Reader, opts ...Option) (*Lexicon, error) {
	l := &Lexicon{entries: make(map[string]string)}
	for _, o := range opts {
		o(l)
	}

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		word, prons, ok := strings.Cut(text, "\t")
		if !ok {
			return nil, fmt.Errorf("lexicon: line %d: missing tab separator", line)
		}
		key := normalizeKey(word)
		if key == "" {
			continue
		}
		if _, dup := l.entries[key]; dup {
			continue
		}
		l.entries[key] = firstPronunciation(prons)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("lexicon: read: %w", err)
	}
	return l, nil
}

// Len returns the number of dictionary entries.
func (l *Lexicon) Len() int { return len(l.entries) }

// Lookup returns the dictionary pronunciation of word and whether it exists.
func (l *Lexicon) Lookup(word string) (string, bool) {
	ipa, ok := l.entries[normalizeKey(word)]
	return ipa, ok
}

// Convert returns the phonemic form of word.
func (l *Lexicon) Convert(word string) string {
	if phonemizer.IsDegenerate(word) {
		return word
	}
	ipa, ok := l.Lookup(word)
	if !ok {
		if l.fallback != nil {
			ipa = l.fallback.Convert(word)
		} else {
			ipa = strings.ToLower(word)
		}
	}
	if l.dropFinalSchwa {
		ipa = strings.TrimSuffix(ipa, schwa)
	}
	return ipa
}

func normalizeKey(word string) string {
	return strings.ToLower(strings.TrimFunc(word, unicode.IsPunct))
}

// firstPronunciation extracts "ˈkæt" from "/ˈkæt/, /kæt/".
func firstPronunciation(prons string) string {
	first, _, _ := strings.Cut(prons, ",")
	first = strings.TrimSpace(first)
	first = strings.Trim(first, "/")
	return strings.ReplaceAll(first, "*", "")
}
