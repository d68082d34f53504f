// Package sample serves practice sentences for pronunciation attempts.
//
// Sentences are grouped by language and bucketed into difficulty categories
// by word count. [MemStore] holds sentences loaded from CSV files;
// [PostgresStore] keeps them in a PostgreSQL table.
package sample

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNoSentence is returned when no sentence matches the requested language
// and category.
var ErrNoSentence = errors.New("sample: no matching sentence")

// Category is a difficulty bucket.
type Category int

// Categories. [Any] matches every sentence.
const (
	Any Category = iota
	Easy
	Medium
	Hard
)

// Word-count upper bounds of the Easy and Medium categories.
const (
	maxEasyWords   = 8
	maxMediumWords = 20
)

// String returns the lower-case category name.
func (c Category) String() string {
	switch c {
	case Any:
		return "any"
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// Valid reports whether c is one of the defined categories.
func (c Category) Valid() bool {
	return c >= Any && c <= Hard
}

// CategoryOf returns the difficulty of sentence: [Easy] up to 8 words,
// [Medium] up to 20 words, [Hard] otherwise. A sentence without words is
// [Hard].
func CategoryOf(sentence string) Category {
	n := len(strings.Fields(sentence))
	switch {
	case n > 0 && n <= maxEasyWords:
		return Easy
	case n > maxEasyWords && n <= maxMediumWords:
		return Medium
	default:
		return Hard
	}
}

// Store provides random sentence lookup.
// Implementations must be safe for concurrent use.
type Store interface {
	// Random returns a uniformly chosen sentence of the given language and
	// category. It returns [ErrNoSentence] if none match.
	Random(ctx context.Context, language string, category Category) (string, error)
}
