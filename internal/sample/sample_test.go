package sample_test

import (
	"strings"
	"testing"

	"github.com/MrWong99/phonoscore/internal/sample"
)

func TestCategoryOf(t *testing.T) {
	t.Parallel()

	words := func(n int) string { return strings.TrimSpace(strings.Repeat("word ", n)) }
	tests := []struct {
		name     string
		sentence string
		want     sample.Category
	}{
		{"one word", "Hello", sample.Easy},
		{"eight words", words(8), sample.Easy},
		{"nine words", words(9), sample.Medium},
		{"twenty words", words(20), sample.Medium},
		{"twenty-one words", words(21), sample.Hard},
		{"empty", "   ", sample.Hard},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := sample.CategoryOf(tt.sentence); got != tt.want {
				t.Errorf("CategoryOf = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCategory_String(t *testing.T) {
	t.Parallel()

	for c, want := range map[sample.Category]string{
		sample.Any:    "any",
		sample.Easy:   "easy",
		sample.Medium: "medium",
		sample.Hard:   "hard",
		7:             "category(7)",
	} {
		if got := c.String(); got != want {
			t.Errorf("Category(%d).String() = %q, want %q", int(c), got, want)
		}
	}
	if sample.Category(4).Valid() || sample.Category(-1).Valid() {
		t.Error("out-of-range categories reported valid")
	}
}
