package audio

import "math"

// Resample converts c to dstRate using linear interpolation. If the rates
// already match, or either rate is non-positive, c is returned unchanged.
func Resample(c Clip, dstRate int) Clip {
	srcRate := c.SampleRate
	if srcRate <= 0 || dstRate <= 0 || srcRate == dstRate || len(c.Samples) == 0 {
		return c
	}
	src := c.Samples
	dstLen := int(int64(len(src)) * int64(dstRate) / int64(srcRate))
	out := make([]float32, dstLen)
	ratio := float64(srcRate) / float64(dstRate)

	for i := range dstLen {
		pos := float64(i) * ratio
		idx := int(pos)
		frac := pos - float64(idx)

		s0 := float64(src[idx])
		s1 := s0
		if idx+1 < len(src) {
			s1 = float64(src[idx+1])
		}
		out[i] = float32(s0*(1-frac) + s1*frac)
	}
	return Clip{Samples: out, SampleRate: dstRate}
}

// Float32ToPCM16 converts samples in [-1, 1] to signed 16-bit PCM, clamping
// values outside that range.
func Float32ToPCM16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		v := math.Round(float64(s) * 32767)
		switch {
		case v > math.MaxInt16:
			v = math.MaxInt16
		case v < math.MinInt16:
			v = math.MinInt16
		}
		out[i] = int16(v)
	}
	return out
}
