package stt_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/MrWong99/phonoscore/pkg/provider/stt"
	"github.com/MrWong99/phonoscore/pkg/types"
)

func TestSampleSpans(t *testing.T) {
	t.Parallel()

	words := []stt.WordDetail{
		{Word: "the", Start: 0, End: 250 * time.Millisecond},
		{Word: "cat", Start: 500 * time.Millisecond, End: 750 * time.Millisecond},
		{Word: "sat", Start: 900 * time.Millisecond, End: 1100 * time.Millisecond},
	}
	// 1 s of audio at 16 kHz; the last word runs past the end.
	got := stt.SampleSpans(words, 16000, stt.DefaultFade, 16000)
	want := []types.Span{
		{Start: 0, End: 4800},
		{Start: 7200, End: 12800},
		{Start: 13600, End: 15999},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SampleSpans = %v, want %v", got, want)
	}
	for i, s := range got {
		if err := s.Validate(); err != nil {
			t.Errorf("span %d invalid: %v", i, err)
		}
	}
}

func TestSampleSpans_Empty(t *testing.T) {
	t.Parallel()

	if got := stt.SampleSpans(nil, 16000, stt.DefaultFade, 100); len(got) != 0 {
		t.Errorf("SampleSpans(nil) = %v, want empty", got)
	}
	// A zero-length clip still yields valid spans.
	got := stt.SampleSpans([]stt.WordDetail{{Start: time.Second, End: 2 * time.Second}}, 16000, 0, 0)
	if got[0] != (types.Span{}) {
		t.Errorf("span = %v, want zero", got[0])
	}
}

func TestSplitSegment(t *testing.T) {
	t.Parallel()

	got := stt.SplitSegment(" hi there ", time.Second, 2400*time.Millisecond)
	want := []stt.WordDetail{
		{Word: "hi", Start: time.Second, End: 1400 * time.Millisecond},
		{Word: "there", Start: 1400 * time.Millisecond, End: 2400 * time.Millisecond},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitSegment = %+v, want %+v", got, want)
	}
	if got := stt.SplitSegment("   ", 0, time.Second); got != nil {
		t.Errorf("SplitSegment(blank) = %v, want nil", got)
	}
}

func TestCleanWords(t *testing.T) {
	t.Parallel()

	in := []stt.WordDetail{
		{Word: " Hello", Start: 0, End: time.Second, Confidence: 0.9},
		{Word: "  ", Start: time.Second, End: time.Second},
		{Word: "big world", Start: time.Second, End: 3 * time.Second, Confidence: 0.5},
	}
	got := stt.CleanWords(in)
	want := []stt.WordDetail{
		{Word: "Hello", Start: 0, End: time.Second, Confidence: 0.9},
		{Word: "big", Start: time.Second, End: 1750 * time.Millisecond, Confidence: 0.5},
		{Word: "world", Start: 1750 * time.Millisecond, End: 3 * time.Second, Confidence: 0.5},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CleanWords = %+v, want %+v", got, want)
	}
	if text := stt.TextFromWords(got); text != "Hello big world" {
		t.Errorf("TextFromWords = %q", text)
	}
}

func TestConfig_Rate(t *testing.T) {
	t.Parallel()

	if got := (stt.Config{}).Rate(); got != types.DefaultSampleRate {
		t.Errorf("Rate = %d, want %d", got, types.DefaultSampleRate)
	}
	if got := (stt.Config{SampleRate: 8000}).Rate(); got != 8000 {
		t.Errorf("Rate = %d, want 8000", got)
	}
}
