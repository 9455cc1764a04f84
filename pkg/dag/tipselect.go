package dag

import (
	"math"
	"math/rand"
)

// maxDistinctTipRetries bounds how many times the weighted draw is retried
// looking for a second tip distinct from the first before falling back to
// a deterministic scan.
const maxDistinctTipRetries = 10

// TipSelector picks two parent candidates for a new transaction via a
// weighted random walk over the current tip set: each tip's weight is
// exp(alpha*score), so higher-scored tips are exponentially more likely to
// be chosen without ever fully starving low-scored ones.
type TipSelector struct {
	engine *Engine
	alpha  float64
}

// NewTipSelector builds a selector over engine using alpha as the initial
// temperature.
func NewTipSelector(engine *Engine, alpha float64) *TipSelector {
	return &TipSelector{engine: engine, alpha: clampAlpha(alpha)}
}

func clampAlpha(a float64) float64 {
	if a < 0 {
		return 0
	}
	if a > 1 {
		return 1
	}
	return a
}

// Alpha returns the selector's current temperature.
func (s *TipSelector) Alpha() float64 {
	return s.alpha
}

// SetAlpha updates the temperature, clamped to [0, 1].
func (s *TipSelector) SetAlpha(a float64) {
	s.alpha = clampAlpha(a)
}

// SelectTips returns two parent hashes for a new transaction. With exactly
// one tip available it degenerately returns that tip twice - the
// bootstrap case where there is nothing else to reference. With zero tips
// it returns ErrNoTips.
func (s *TipSelector) SelectTips() ([2]Hash, error) {
	return s.SelectTipsWithPreference(nil)
}

// SelectTipsWithPreference is SelectTips with each tip's weight multiplied
// by prefer(tip), a caller-supplied scoring function (e.g. to bias toward
// tips from a particular peer during sync catch-up). A nil prefer behaves
// like a constant 1.0 multiplier.
func (s *TipSelector) SelectTipsWithPreference(prefer func(Hash) float64) ([2]Hash, error) {
	var out [2]Hash

	tips := s.engine.GetTips()
	if len(tips) == 0 {
		return out, ErrNoTips
	}
	if len(tips) == 1 {
		out[0], out[1] = tips[0], tips[0]
		return out, nil
	}

	weights := make([]float64, len(tips))
	for i, t := range tips {
		w := math.Exp(s.engine.GetScore(t) * s.alpha)
		if prefer != nil {
			w *= prefer(t)
		}
		weights[i] = w
	}

	tip1Idx := weightedPick(weights)
	out[0] = tips[tip1Idx]

	for attempt := 0; attempt < maxDistinctTipRetries; attempt++ {
		idx := weightedPick(weights)
		if tips[idx] != out[0] {
			out[1] = tips[idx]
			return out, nil
		}
	}

	for _, t := range tips {
		if t != out[0] {
			out[1] = t
			return out, nil
		}
	}
	return out, ErrCouldNotSelectDistinct
}

// weightedPick samples an index from weights proportional to their value
// via cumulative-distribution sampling. Callers guarantee len(weights) > 0
// and at least one positive weight.
func weightedPick(weights []float64) int {
	var total float64
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return rand.Intn(len(weights))
	}
	r := rand.Float64() * total
	var cum float64
	for i, w := range weights {
		cum += w
		if r <= cum {
			return i
		}
	}
	return len(weights) - 1
}
