package app

import (
	"strconv"
	"strings"

	"github.com/MrWong99/phonoscore/internal/scoring"
)

// LegacyResponse is the flat, string-valued result format consumed by
// existing pronunciation trainer front ends. List fields are space-joined;
// letter correctness also ends every word with a space.
type LegacyResponse struct {
	RealTranscript          string `json:"real_transcript"`
	IPATranscript           string `json:"ipa_transcript"`
	PronunciationAccuracy   string `json:"pronunciation_accuracy"`
	RealTranscripts         string `json:"real_transcripts"`
	MatchedTranscripts      string `json:"matched_transcripts"`
	RealTranscriptsIPA      string `json:"real_transcripts_ipa"`
	MatchedTranscriptsIPA   string `json:"matched_transcripts_ipa"`
	PairAccuracyCategory    string `json:"pair_accuracy_category"`
	StartTime               string `json:"start_time"`
	EndTime                 string `json:"end_time"`
	IsLetterCorrectAllWords string `json:"is_letter_correct_all_words"`
}

// Legacy converts res into a [LegacyResponse].
func Legacy(res *scoring.Result) LegacyResponse {
	n := len(res.Words)
	var (
		real       = make([]string, n)
		matched    = make([]string, n)
		realIPA    = make([]string, n)
		matchedIPA = make([]string, n)
		cats       = make([]string, n)
		starts     = make([]string, n)
		ends       = make([]string, n)
		letters    = make([]string, n)
	)
	for i, w := range res.Words {
		real[i] = w.Reference
		matched[i] = w.Matched
		realIPA[i] = w.ReferenceIPA
		matchedIPA[i] = w.MatchedIPA
		cats[i] = strconv.Itoa(w.Category)
		starts[i] = formatSeconds(w.Start)
		ends[i] = formatSeconds(w.End)
		letters[i] = letterString(w.Letters)
	}
	return LegacyResponse{
		RealTranscript:          res.Transcript,
		IPATranscript:           res.TranscriptIPA,
		PronunciationAccuracy:   strconv.Itoa(res.Accuracy),
		RealTranscripts:         strings.Join(real, " "),
		MatchedTranscripts:      strings.Join(matched, " "),
		RealTranscriptsIPA:      strings.Join(realIPA, " "),
		MatchedTranscriptsIPA:   strings.Join(matchedIPA, " "),
		PairAccuracyCategory:    strings.Join(cats, " "),
		StartTime:               strings.Join(starts, " "),
		EndTime:                 strings.Join(ends, " "),
		IsLetterCorrectAllWords: terminateEach(letters),
	}
}

// terminateEach joins parts with a space after every part, including the
// last one, as the front ends expect for letter correctness.
func terminateEach(parts []string) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p)
		b.WriteByte(' ')
	}
	return b.String()
}

// formatSeconds renders v with the shortest exact representation and at
// least one fractional digit ("0.0", "1.25").
func formatSeconds(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// letterString encodes letter correctness as a string of '1' and '0'.
func letterString(letters []bool) string {
	var b strings.Builder
	b.Grow(len(letters))
	for _, ok := range letters {
		if ok {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}
