package audio

import "math"

// DefaultSilenceThreshold is the RMS energy below which a 16-bit PCM
// recording is treated as containing no usable speech. Tuned against
// typical phone and laptop microphones.
const DefaultSilenceThreshold = 120.0

// RMS computes the root-mean-square energy of 16-bit little-endian PCM.
func RMS(pcm []byte) float64 {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}

	var sum float64
	for i := 0; i+1 < len(pcm); i += 2 {
		s := int16(pcm[i]) | int16(pcm[i+1])<<8
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(n))
}

// LikelySilent reports whether the recording's energy sits below the
// threshold. Used for a warning only; silence is still sent to the
// transcriber, which is the authority on whether speech was present.
func LikelySilent(pcm []byte, threshold float64) bool {
	if threshold <= 0 {
		threshold = DefaultSilenceThreshold
	}
	return RMS(pcm) < threshold
}
