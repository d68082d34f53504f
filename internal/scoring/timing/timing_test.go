package timing_test

import (
	"slices"
	"testing"

	"github.com/MrWong99/phonoscore/internal/scoring/align"
	"github.com/MrWong99/phonoscore/internal/scoring/timing"
	"github.com/MrWong99/phonoscore/pkg/types"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	spans := []types.Span{
		{Start: 0, End: 8000},
		{Start: 8000, End: 24000},
	}
	a := align.Alignment{
		align.Matched(1),
		align.Gap,
		align.Matched(0),
		align.Unresolved("cat"),
		align.Matched(5),
	}

	rep := timing.New(16000).Resolve(a, spans)

	wantStart := []float64{0.5, 0, 0, 0, 0}
	wantEnd := []float64{1.5, 0, 0.5, 0, 0}
	if !slices.Equal(rep.Start, wantStart) {
		t.Errorf("Start = %v, want %v", rep.Start, wantStart)
	}
	if !slices.Equal(rep.End, wantEnd) {
		t.Errorf("End = %v, want %v", rep.End, wantEnd)
	}
}

func TestResolve_Empty(t *testing.T) {
	t.Parallel()

	rep := timing.New(16000).Resolve(align.AllGaps(2), nil)
	if len(rep.Start) != 2 || len(rep.End) != 2 {
		t.Fatalf("lengths = %d/%d, want 2/2", len(rep.Start), len(rep.End))
	}
}

func TestNew_DefaultRate(t *testing.T) {
	t.Parallel()

	if got := timing.New(0).SampleRate(); got != types.DefaultSampleRate {
		t.Errorf("SampleRate = %d, want %d", got, types.DefaultSampleRate)
	}
}
