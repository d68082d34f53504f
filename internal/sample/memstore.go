package sample

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"
	"sync"
)

// sentenceColumn is the CSV header naming the column that holds sentences.
const sentenceColumn = "sentence"

// Compile-time assertion that MemStore satisfies the Store interface.
var _ Store = (*MemStore)(nil)

// MemOption is a functional option for a [MemStore].
type MemOption func(*MemStore)

// WithRand sets the random source. Defaults to the global math/rand/v2
// generator.
func WithRand(r *rand.Rand) MemOption {
	return func(s *MemStore) {
		s.rnd = r
	}
}

// MemStore is a thread-safe, in-memory implementation of [Store].
type MemStore struct {
	mu        sync.RWMutex
	sentences map[string][]string
	rnd       *rand.Rand
}

// NewMemStore returns an empty [MemStore].
func NewMemStore(opts ...MemOption) *MemStore {
	s := &MemStore{sentences: make(map[string][]string)}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Add appends sentences for language. Blank sentences are skipped.
func (s *MemStore) Add(language string, sentences ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sent := range sentences {
		if sent = strings.TrimSpace(sent); sent != "" {
			s.sentences[language] = append(s.sentences[language], sent)
		}
	}
}

// Len returns the number of sentences stored for language.
func (s *MemStore) Len(language string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sentences[language])
}

// LoadCSVFile reads the CSV file at path into language. See [MemStore.LoadCSV].
func (s *MemStore) LoadCSVFile(language, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("sample: open %q: %w", path, err)
	}
	defer f.Close()
	if err := s.LoadCSV(language, f); err != nil {
		return fmt.Errorf("sample: load %q: %w", path, err)
	}
	return nil
}

// LoadCSV reads ';'-delimited CSV data from r and adds every value of its
// "sentence" column to language. Other columns are ignored.
func (s *MemStore) LoadCSV(language string, r io.Reader) error {
	sentences, err := ReadCSV(r)
	if err != nil {
		return err
	}
	s.Add(language, sentences...)
	return nil
}

// ReadCSV returns the "sentence" column of ';'-delimited CSV data.
func ReadCSV(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("sample: csv is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("sample: read csv header: %w", err)
	}
	col := -1
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")), sentenceColumn) {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("sample: csv has no %q column", sentenceColumn)
	}

	var out []string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("sample: read csv: %w", err)
		}
		if col < len(rec) {
			out = append(out, rec[col])
		}
	}
}

// Random implements [Store.Random].
func (s *MemStore) Random(_ context.Context, language string, category Category) (string, error) {
	if !category.Valid() {
		return "", fmt.Errorf("sample: invalid category %d", int(category))
	}

	s.mu.RLock()
	var candidates []string
	for _, sent := range s.sentences[language] {
		if category == Any || CategoryOf(sent) == category {
			candidates = append(candidates, sent)
		}
	}
	s.mu.RUnlock()

	if len(candidates) == 0 {
		return "", fmt.Errorf("%w: language %q, category %s", ErrNoSentence, language, category)
	}
	return candidates[s.intN(len(candidates))], nil
}

func (s *MemStore) intN(n int) int {
	if s.rnd != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.rnd.IntN(n)
	}
	return rand.IntN(n)
}
