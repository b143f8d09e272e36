package learning

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// AODE is an Averaged One-Dependence Estimator. Each attribute whose
// support for a candidate class value exceeds the threshold acts as a
// super-parent; the candidate score is the mean of their log-likelihoods.
type AODE struct {
	model
	threshold int
}

// NewAODE creates an untrained AODE classifier with the given minimum support
func NewAODE(threshold int) (*AODE, error) {
	if threshold < 0 {
		return nil, fmt.Errorf("threshold must be >= 0, got %d", threshold)
	}
	return &AODE{
		model:     model{variant: VariantAODE},
		threshold: threshold,
	}, nil
}

// Threshold returns the minimum support a super-parent must exceed
func (m *AODE) Threshold() int { return m.threshold }

// Classify returns the predicted value of every class attribute
func (m *AODE) Classify(attributes []string) ([]string, error) {
	preds, err := m.Predict(attributes)
	if err != nil {
		return nil, err
	}
	return values(preds), nil
}

// Predict scores every candidate of every class attribute and keeps the arg-max.
// Candidates with no surviving super-parent score -Inf; when that holds for
// the whole domain the first candidate is returned with Fallback set.
func (m *AODE) Predict(attributes []string) ([]Prediction, error) {
	if err := m.ready(attributes); err != nil {
		return nil, err
	}

	preds := make([]Prediction, m.schema.NumClasses())
	for k := range preds {
		chosen := false
		for _, c := range m.schema.ClassDomain(k) {
			lls := m.superParentScores(attributes, k, c)

			score := math.Inf(-1)
			if len(lls) > 0 {
				score = floats.Sum(lls) / float64(len(lls))
			}

			if !chosen || score > preds[k].Score {
				preds[k] = Prediction{Value: c, Score: score, Parents: len(lls)}
				chosen = true
			}
		}
		preds[k].Fallback = preds[k].Parents == 0
	}

	return preds, nil
}

// SuperParents returns the attribute indices whose support for class value c
// of class attribute k exceeds the threshold
func (m *AODE) SuperParents(attributes []string, k int, c string) ([]int, error) {
	if err := m.ready(attributes); err != nil {
		return nil, err
	}
	var parents []int
	for i, ai := range attributes {
		if m.supported(i, ai, k, c) {
			parents = append(parents, i)
		}
	}
	return parents, nil
}

func (m *AODE) supported(i int, ai string, k int, c string) bool {
	sup, ok := m.counts.PairCount(i, ai, k, c)
	return ok && sup > m.threshold
}

// superParentScores computes the one-dependence log-likelihood of every surviving super-parent
//
//	ll_i = (1-n)·log N((i,a_i),(k,c)) + Σ_{j≠i} log N((j,a_j),(i,a_i),(k,c))
//
// with missing triple counts defaulting to 1.
func (m *AODE) superParentScores(attributes []string, k int, c string) []float64 {
	n := len(attributes)
	var lls []float64

	for i, ai := range attributes {
		if !m.supported(i, ai, k, c) {
			continue
		}
		sup, _ := m.counts.PairCount(i, ai, k, c)
		ll := float64(1-n) * math.Log(float64(sup))

		for j, aj := range attributes {
			if j == i {
				continue
			}
			triple, ok := m.counts.TripleCount(j, aj, i, ai, k, c)
			if !ok {
				triple = 1
			}
			ll += math.Log(float64(triple))
		}
		lls = append(lls, ll)
	}
	return lls
}
