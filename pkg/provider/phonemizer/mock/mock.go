// Package mock provides a test double for the phonemizer.Converter interface.
//
// Converter looks words up in a fixed table and records every call:
//
//	c := &mock.Converter{Table: map[string]string{"cat": "kæt"}}
//	ipa := c.Convert("cat") // "kæt"
package mock

import (
	"strings"
	"sync"

	"github.com/MrWong99/phonoscore/pkg/provider/phonemizer"
)

// Ensure Converter implements phonemizer.Converter at compile time.
var _ phonemizer.Converter = (*Converter)(nil)

// Converter is a mock implementation of phonemizer.Converter.
type Converter struct {
	mu sync.Mutex

	// Table maps lower-cased words to their phonemic forms. Words not in the
	// table are returned lower-cased.
	Table map[string]string

	// Calls records every word passed to Convert.
	Calls []string
}

// Convert records the call and returns the table entry for word.
func (c *Converter) Convert(word string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls = append(c.Calls, word)
	if phonemizer.IsDegenerate(word) {
		return word
	}
	key := strings.ToLower(word)
	if ipa, ok := c.Table[key]; ok {
		return ipa
	}
	return key
}

// Reset clears all recorded calls. Thread-safe.
func (c *Converter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls = nil
}

// CallCount returns the number of recorded calls. Thread-safe.
func (c *Converter) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Calls)
}
