package search

import "math"

// CalculateSimilarity computes the cosine similarity between two vectors,
// clamped to [0, 1]. Vectors of different lengths are compared over their
// common prefix. Returns 0 when either vector has zero magnitude.
func CalculateSimilarity(a, b []float32) float32 {
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}

	var dot, magA, magB float64
	for i := 0; i < minLen; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	for _, v := range a {
		magA += float64(v) * float64(v)
	}
	for _, v := range b {
		magB += float64(v) * float64(v)
	}

	if magA == 0 || magB == 0 {
		return 0
	}

	similarity := dot / (math.Sqrt(magA) * math.Sqrt(magB))
	if similarity < 0 {
		return 0
	}
	if similarity > 1 {
		return 1
	}
	return float32(similarity)
}
