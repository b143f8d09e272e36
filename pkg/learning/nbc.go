package learning

import (
	"math"
)

// NBC is a Naive Bayes classifier over categorical attributes. Attributes
// are assumed conditionally independent given each class attribute.
type NBC struct {
	model
}

// NewNBC creates an untrained Naive Bayes classifier
func NewNBC() *NBC {
	return &NBC{model: model{variant: VariantNBC}}
}

// Classify returns the predicted value of every class attribute
func (m *NBC) Classify(attributes []string) ([]string, error) {
	preds, err := m.Predict(attributes)
	if err != nil {
		return nil, err
	}
	return values(preds), nil
}

// Predict scores every candidate of every class attribute and keeps the arg-max.
//
//	score(c) = (1-n)·log N(k,c) + Σ_i log N((i,a_i),(k,c))
//
// A missing class count defaults to the class domain size and a missing
// joint count to 1. Ties keep the first candidate in domain order.
func (m *NBC) Predict(attributes []string) ([]Prediction, error) {
	if err := m.ready(attributes); err != nil {
		return nil, err
	}

	n := len(attributes)
	preds := make([]Prediction, m.schema.NumClasses())

	for k := range preds {
		domain := m.schema.ClassDomain(k)
		chosen := false

		for _, c := range domain {
			classCount, ok := m.counts.ClassCount(k, c)
			if !ok {
				classCount = len(domain)
			}
			ll := float64(1-n) * math.Log(float64(classCount))

			for i, a := range attributes {
				joint, ok := m.counts.PairCount(i, a, k, c)
				if !ok {
					joint = 1
				}
				ll += math.Log(float64(joint))
			}

			if !chosen || ll > preds[k].Score {
				preds[k] = Prediction{Value: c, Score: ll}
				chosen = true
			}
		}
	}

	return preds, nil
}
