package category_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/MrWong99/phonoscore/internal/scoring/category"
)

func TestCategorize_DefaultAnchors(t *testing.T) {
	t.Parallel()

	c := category.Default()
	tests := []struct {
		acc  float64
		want int
	}{
		{100, 0},
		{80, 0},
		{71, 0},
		{70, 0}, // tie between 80 and 60 goes to the lower index
		{69, 1},
		{60, 1},
		{50, 1}, // tie between 60 and 40
		{49.9, 2},
		{40, 2},
		{0, 2},
	}
	for _, tt := range tests {
		if got := c.Categorize(tt.acc); got != tt.want {
			t.Errorf("Categorize(%v) = %d, want %d", tt.acc, got, tt.want)
		}
	}
}

func TestCategorizeAll(t *testing.T) {
	t.Parallel()

	c := category.Default()
	in := []float64{100, 66.7, 0, 45}
	got := c.CategorizeAll(in)
	want := []int{0, 1, 2, 2}
	if !slices.Equal(got, want) {
		t.Errorf("CategorizeAll(%v) = %v, want %v", in, got, want)
	}
	if got := c.CategorizeAll(nil); len(got) != 0 {
		t.Errorf("CategorizeAll(nil) = %v, want empty", got)
	}
}

func TestNew_CustomAnchors(t *testing.T) {
	t.Parallel()

	c, err := category.New(90, 50)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.Categorize(75); got != 0 {
		t.Errorf("Categorize(75) = %d, want 0", got)
	}
	if got := c.Categorize(65); got != 1 {
		t.Errorf("Categorize(65) = %d, want 1", got)
	}
	if !slices.Equal(c.Anchors(), []float64{90, 50}) {
		t.Errorf("Anchors = %v", c.Anchors())
	}
}

func TestNew_NoAnchors(t *testing.T) {
	t.Parallel()

	if _, err := category.New(); !errors.Is(err, category.ErrNoAnchors) {
		t.Errorf("New() err = %v, want ErrNoAnchors", err)
	}
}
