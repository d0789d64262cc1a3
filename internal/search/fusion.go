package search

import (
	"fmt"
	"math"

	"modalsearch/internal/modality"
	"modalsearch/internal/vectorstore"
)

// FusionPolicy makes raw similarity scores comparable across modality pairs
// before groups are merged into one ranked list. Raw distances from
// different modality subspaces are not directly comparable: a same-modality
// pair naturally scores higher than a cross-modality pair even when both
// are relevant, and a naive global sort starves cross-modality results.
type FusionPolicy interface {
	// Name returns the config label selecting this policy.
	Name() string
	// Apply filters and/or rescores one modality group. Candidate order
	// within the group (nearest-first) is preserved.
	Apply(queryMod, targetMod string, candidates []vectorstore.Candidate) []vectorstore.Candidate
}

// NewPolicy returns the fusion policy selected by config.
func NewPolicy(name string) (FusionPolicy, error) {
	switch name {
	case "softmax":
		return SoftmaxPolicy{}, nil
	case "threshold":
		return NewThresholdPolicy(DefaultThresholds()), nil
	default:
		return nil, fmt.Errorf("unknown fusion policy %q", name)
	}
}

// SoftmaxPolicy normalizes each modality group into a distribution that
// sums to 1, inflating relative differences within sparse groups.
type SoftmaxPolicy struct{}

// Name returns the config label selecting this policy.
func (SoftmaxPolicy) Name() string { return "softmax" }

// Apply replaces each raw score with its softmax weight within the group.
func (SoftmaxPolicy) Apply(queryMod, targetMod string, candidates []vectorstore.Candidate) []vectorstore.Candidate {
	if len(candidates) == 0 {
		return candidates
	}

	// Max-subtracted for numerical stability.
	maxScore := candidates[0].Score
	for _, c := range candidates[1:] {
		if c.Score > maxScore {
			maxScore = c.Score
		}
	}

	exps := make([]float64, len(candidates))
	var sum float64
	for i, c := range candidates {
		exps[i] = math.Exp(c.Score - maxScore)
		sum += exps[i]
	}

	out := make([]vectorstore.Candidate, len(candidates))
	for i, c := range candidates {
		c.Score = exps[i] / sum
		out[i] = c
	}
	return out
}

// ThresholdPolicy gates candidates on a static modality-pair table and
// passes surviving raw scores through unchanged.
type ThresholdPolicy struct {
	table map[string]map[string]float64
}

// DefaultThresholds returns the reference modality-pair table. Same-modality
// pairs demand a high raw similarity; cross-modality similarities compress
// near zero even for true matches, so their bar is low. These values are
// load-bearing for result compatibility, change them only deliberately.
func DefaultThresholds() map[string]map[string]float64 {
	return map[string]map[string]float64{
		modality.Text:  {modality.Text: 0.65, modality.Image: 0.2, modality.Audio: 0.2},
		modality.Image: {modality.Text: 0.2, modality.Image: 0.5, modality.Audio: 0.1},
		modality.Audio: {modality.Text: 0.2, modality.Image: 0.1, modality.Audio: 0.5},
	}
}

// NewThresholdPolicy creates a threshold-gated policy from a pair table.
func NewThresholdPolicy(table map[string]map[string]float64) *ThresholdPolicy {
	return &ThresholdPolicy{table: table}
}

// Name returns the config label selecting this policy.
func (p *ThresholdPolicy) Name() string { return "threshold" }

// Apply drops candidates whose raw score is strictly below the bar for the
// (query modality, target modality) pair. Survivors keep their raw score.
func (p *ThresholdPolicy) Apply(queryMod, targetMod string, candidates []vectorstore.Candidate) []vectorstore.Candidate {
	bar, ok := p.table[queryMod][targetMod]
	if !ok {
		// Unknown pair: nothing can clear an undefined bar.
		return nil
	}

	out := make([]vectorstore.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Score >= bar {
			out = append(out, c)
		}
	}
	return out
}
