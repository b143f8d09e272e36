package learning

import (
	"github.com/pkg/errors"
	"github.com/zpam/bnclass/pkg/schema"
)

// ErrUninitializedModel is returned when classification is attempted before training
var ErrUninitializedModel = errors.New("model has not been trained")

// Classifier defines the interface shared by the NBC and AODE models
type Classifier interface {
	Name() string
	Variant() Variant

	// Train replaces the count model with one built from src
	Train(s *schema.Schema, src RowSource) error
	// Fit installs a count model built elsewhere, e.g. merged from shards
	Fit(s *schema.Schema, counts *Counts) error

	Classify(attributes []string) ([]string, error)
	Predict(attributes []string) ([]Prediction, error)

	Schema() *schema.Schema
	Counts() *Counts
}

// Prediction is the arg-max candidate chosen for one class attribute
type Prediction struct {
	Value string
	Score float64

	// Parents is the number of super-parents that passed the support
	// threshold for Value. Always zero for NBC.
	Parents int
	// Fallback is set when no candidate had a surviving super-parent and
	// the first candidate of the domain was taken.
	Fallback bool
}

// New creates an untrained classifier by name
func New(name string, threshold int) (Classifier, error) {
	v, err := ParseVariant(name)
	if err != nil {
		return nil, err
	}
	if v == VariantAODE {
		return NewAODE(threshold)
	}
	return NewNBC(), nil
}

// model holds the state common to both variants
type model struct {
	variant Variant
	schema  *schema.Schema
	counts  *Counts
}

func (m *model) Variant() Variant { return m.variant }
func (m *model) Schema() *schema.Schema { return m.schema }
func (m *model) Counts() *Counts { return m.counts }
func (m *model) Name() string { return m.variant.String() }

func (m *model) Train(s *schema.Schema, src RowSource) error {
	counts, err := Count(s, src, m.variant)
	if err != nil {
		return err
	}
	m.schema = s
	m.counts = counts
	return nil
}

func (m *model) Fit(s *schema.Schema, counts *Counts) error {
	if counts == nil {
		return errors.New("nil count model")
	}
	if counts.Variant != m.variant {
		return errors.Errorf("cannot fit %s model with %s counts", m.variant, counts.Variant)
	}
	m.schema = s
	m.counts = counts
	return nil
}

// ready checks the model is trained and the attribute vector is well formed
func (m *model) ready(attributes []string) error {
	if m.counts == nil || m.schema == nil {
		return ErrUninitializedModel
	}
	return m.schema.ValidateAttributes(0, attributes)
}

func values(preds []Prediction) []string {
	out := make([]string, len(preds))
	for i, p := range preds {
		out[i] = p.Value
	}
	return out
}

// Both implementations satisfy the interface
var _ Classifier = (*NBC)(nil)
var _ Classifier = (*AODE)(nil)
