package search

import (
	"fmt"

	"modalsearch/internal/service"
)

// Combine merges per-part query embeddings (text plus any uploaded files)
// into one query vector and a dominant modality, computed before search.
//
// The combined vector is the element-wise arithmetic mean of the inputs.
// The combined modality is the most frequent label; a tie resolves to
// whichever of the tied labels was encountered first.
func Combine(vectors [][]float32, modalities []string) ([]float32, string, error) {
	if len(vectors) == 0 {
		return nil, "", fmt.Errorf("%w: no embeddings to combine", service.ErrInvalidInput)
	}
	if len(vectors) != len(modalities) {
		return nil, "", fmt.Errorf("%w: %d embeddings but %d modality labels",
			service.ErrInvalidInput, len(vectors), len(modalities))
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, "", fmt.Errorf("%w: empty embedding", service.ErrInvalidInput)
	}
	for i, v := range vectors[1:] {
		if len(v) != dim {
			return nil, "", fmt.Errorf("%w: embedding %d has %d dimensions, expected %d",
				service.ErrDimensionMismatch, i+1, len(v), dim)
		}
	}

	// Sum in float64 to keep the mean stable across many parts.
	sums := make([]float64, dim)
	for _, v := range vectors {
		for i, x := range v {
			sums[i] += float64(x)
		}
	}
	combined := make([]float32, dim)
	n := float64(len(vectors))
	for i, s := range sums {
		combined[i] = float32(s / n)
	}

	counts := make(map[string]int, len(modalities))
	firstSeen := make(map[string]int, len(modalities))
	for i, m := range modalities {
		if _, seen := counts[m]; !seen {
			firstSeen[m] = i
		}
		counts[m]++
	}

	dominant := modalities[0]
	for m, c := range counts {
		switch {
		case c > counts[dominant]:
			dominant = m
		case c == counts[dominant] && firstSeen[m] < firstSeen[dominant]:
			dominant = m
		}
	}

	return combined, dominant, nil
}
