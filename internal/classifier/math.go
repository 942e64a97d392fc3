package classifier

import (
	"cmp"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// Softmax converts logits into probabilities. It subtracts the max logit
// first so large values do not overflow.
func Softmax(logits []float64) []float64 {
	if len(logits) == 0 {
		return nil
	}
	out := make([]float64, len(logits))
	maxLogit := floats.Max(logits)
	for i, v := range logits {
		out[i] = math.Exp(v - maxLogit)
	}
	floats.Scale(1/floats.Sum(out), out)
	return out
}

// ArgMax returns the index of the largest value; the first wins on ties.
// It returns -1 for an empty slice.
func ArgMax(values []float64) int {
	if len(values) == 0 {
		return -1
	}
	return floats.MaxIdx(values)
}

// Ranked is one entry of a top-K ranking.
type Ranked struct {
	Index      int     `json:"index"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// TopK returns the k most probable classes in descending order. Ties keep
// class order.
func TopK(probs []float64, labels []string, k int) []Ranked {
	k = min(k, len(probs))
	if k <= 0 {
		return nil
	}

	idx := make([]int, len(probs))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return cmp.Compare(probs[b], probs[a])
	})

	out := make([]Ranked, k)
	for i := range k {
		j := idx[i]
		out[i] = Ranked{Index: j, Confidence: probs[j]}
		if j < len(labels) {
			out[i].Label = labels[j]
		}
	}
	return out
}
