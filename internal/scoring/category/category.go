// Package category buckets per-word accuracy percentages into coarse
// feedback categories.
//
// A [Categorizer] holds an ordered list of anchor percentages. An accuracy is
// assigned the index of the nearest anchor, so with the default anchors
// [80, 60, 40] category 0 is good, 1 is acceptable and 2 is poor. Accuracies
// far below the last anchor still land in the last category.
package category

import (
	"errors"
	"math"
)

// DefaultAnchors are the anchors used by [Default].
var DefaultAnchors = []float64{80, 60, 40}

// ErrNoAnchors is returned by [New] when no anchors are given.
var ErrNoAnchors = errors.New("category: at least one anchor is required")

// Categorizer assigns accuracies to the nearest anchor. It is immutable and
// safe for concurrent use.
type Categorizer struct {
	anchors []float64
}

// New returns a [Categorizer] for anchors, in category order.
func New(anchors ...float64) (*Categorizer, error) {
	if len(anchors) == 0 {
		return nil, ErrNoAnchors
	}
	return &Categorizer{anchors: append([]float64(nil), anchors...)}, nil
}

// Default returns a [Categorizer] using [DefaultAnchors].
func Default() *Categorizer {
	c, _ := New(DefaultAnchors...)
	return c
}

// Anchors returns a copy of the anchors.
func (c *Categorizer) Anchors() []float64 {
	return append([]float64(nil), c.anchors...)
}

// Categorize returns the index of the anchor closest to accuracy. Ties go to
// the lowest index.
func (c *Categorizer) Categorize(accuracy float64) int {
	best, bestDist := 0, math.Inf(1)
	for i, a := range c.anchors {
		if d := math.Abs(accuracy - a); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// CategorizeAll categorizes every element of accuracies. The result has the
// same length as the input.
func (c *Categorizer) CategorizeAll(accuracies []float64) []int {
	out := make([]int, len(accuracies))
	for i, a := range accuracies {
		out[i] = c.Categorize(a)
	}
	return out
}
