package learning

import (
	"errors"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zpam/bnclass/pkg/schema"
)

func newSchema(t *testing.T, nclasses int, fields ...schema.Attribute) *schema.Schema {
	t.Helper()
	s, err := schema.New(fields, nclasses)
	require.NoError(t, err)
	return s
}

// weatherSchema has two attributes {a,b} x {b,c} and a binary class
func weatherSchema(t *testing.T) *schema.Schema {
	return newSchema(t, 1,
		schema.NewAttribute("attr0", []string{"a", "b"}),
		schema.NewAttribute("attr1", []string{"b", "c"}),
		schema.NewAttribute("class", []string{"0", "1"}),
	)
}

var weatherRows = [][]string{
	{"a", "b", "0"},
	{"a", "c", "1"},
	{"b", "b", "0"},
	{"a", "b", "0"},
}

// multiSchema has three attributes and two class attributes
func multiSchema(t *testing.T) *schema.Schema {
	return newSchema(t, 2,
		schema.NewAttribute("x", []string{"p", "q", "r"}),
		schema.NewAttribute("y", []string{"u", "v"}),
		schema.NewAttribute("z", []string{"s", "t"}),
		schema.NewAttribute("c1", []string{"yes", "no"}),
		schema.NewAttribute("c2", []string{"lo", "mid", "hi"}),
	)
}

var multiRows = [][]string{
	{"p", "u", "s", "yes", "lo"},
	{"q", "u", "t", "no", "mid"},
	{"r", "v", "s", "yes", "hi"},
	{"p", "v", "t", "no", "lo"},
	{"p", "u", "s", "yes", "lo"},
	{"q", "v", "s", "no", "hi"},
	{"r", "u", "t", "yes", "mid"},
	{"q", "u", "s", "no", "mid"},
}

func TestCountExample(t *testing.T) {
	s := weatherSchema(t)
	counts, err := Count(s, Rows(weatherRows[:3]), VariantNBC)
	require.NoError(t, err)

	n, ok := counts.ClassCount(0, "0")
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	n, _ = counts.ClassCount(0, "1")
	assert.Equal(t, 1, n)

	n, _ = counts.PairCount(0, "a", 0, "0")
	assert.Equal(t, 1, n)

	_, ok = counts.PairCount(1, "c", 0, "0")
	assert.False(t, ok)

	assert.Equal(t, 3, counts.Instances)
	assert.Empty(t, counts.Triple)
}

func TestCountInvariant(t *testing.T) {
	s := multiSchema(t)

	for _, v := range []Variant{VariantNBC, VariantAODE} {
		counts, err := Count(s, Rows(multiRows), v)
		require.NoError(t, err)

		for k := 0; k < s.NumClasses(); k++ {
			total := 0
			for _, c := range s.ClassDomain(k) {
				n, _ := counts.ClassCount(k, c)
				total += n
			}
			assert.Equal(t, len(multiRows), total, "variant %s class %d", v, k)
		}
	}
}

func TestCountTriples(t *testing.T) {
	s := weatherSchema(t)
	counts, err := Count(s, Rows(weatherRows), VariantAODE)
	require.NoError(t, err)

	n, _ := counts.TripleCount(1, "b", 0, "a", 0, "0")
	assert.Equal(t, 2, n)
	n, _ = counts.TripleCount(0, "a", 1, "b", 0, "0")
	assert.Equal(t, 2, n)
	n, _ = counts.TripleCount(0, "a", 1, "c", 0, "1")
	assert.Equal(t, 1, n)

	// one triple per ordered attribute pair per class attribute per instance
	total := 0
	for _, n := range counts.Triple {
		total += n
	}
	assert.Equal(t, len(weatherRows)*2*1, total)

	for k := range counts.Triple {
		assert.NotEqual(t, k.Child.Index, k.Parent.Index)
	}
}

func TestCountDeterminism(t *testing.T) {
	s := multiSchema(t)

	reversed := make([][]string, len(multiRows))
	for i, row := range multiRows {
		reversed[len(multiRows)-1-i] = row
	}

	for _, v := range []Variant{VariantNBC, VariantAODE} {
		a, err := Count(s, Rows(multiRows), v)
		require.NoError(t, err)
		b, err := Count(s, Rows(reversed), v)
		require.NoError(t, err)
		c, err := Count(s, Rows(multiRows), v)
		require.NoError(t, err)

		assert.Equal(t, a, b)
		assert.Equal(t, a, c)
	}
}

func TestCountErrors(t *testing.T) {
	s := weatherSchema(t)

	_, err := Count(s, Rows([][]string{{"a", "b", "0"}, {"a", "b"}}), VariantNBC)
	var mismatch *schema.SchemaMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, 2, mismatch.Row)

	_, err = Count(s, Rows([][]string{{"a", "x", "0"}}), VariantAODE)
	var violation *schema.DomainViolationError
	require.True(t, errors.As(err, &violation))
	assert.Equal(t, 1, violation.Field)
	assert.Equal(t, "x", violation.Value)

	_, err = Count(s, Rows([][]string{{"a", "b", "7"}}), VariantNBC)
	assert.True(t, errors.As(err, &violation))
}

type failingSource struct{}

func (failingSource) Next() ([]string, error) { return nil, io.ErrUnexpectedEOF }

func TestCountSourceError(t *testing.T) {
	_, err := Count(weatherSchema(t), failingSource{}, VariantNBC)
	require.Error(t, err)
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
}

func TestMerge(t *testing.T) {
	s := multiSchema(t)
	whole, err := Count(s, Rows(multiRows), VariantAODE)
	require.NoError(t, err)

	merged, err := Count(s, Rows(multiRows[:3]), VariantAODE)
	require.NoError(t, err)
	rest, err := Count(s, Rows(multiRows[3:]), VariantAODE)
	require.NoError(t, err)
	require.NoError(t, merged.Merge(rest))

	assert.Equal(t, whole, merged)

	assert.Error(t, merged.Merge(NewCounts(VariantNBC)))
}

func TestEntriesSorted(t *testing.T) {
	counts, err := Count(weatherSchema(t), Rows(weatherRows[:1]), VariantNBC)
	require.NoError(t, err)

	entries := counts.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, Entry{Key: "((0,a),(0,0))", Count: 1}, entries[0])
	assert.Equal(t, Entry{Key: "((1,b),(0,0))", Count: 1}, entries[1])
	assert.Equal(t, Entry{Key: "(0,0)", Count: 1}, entries[2])
}

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant("nbc")
	require.NoError(t, err)
	assert.Equal(t, VariantNBC, v)

	v, err = ParseVariant("aode")
	require.NoError(t, err)
	assert.Equal(t, VariantAODE, v)

	v, err = ParseVariant("aod")
	require.NoError(t, err)
	assert.Equal(t, VariantAODE, v)

	_, err = ParseVariant("tan")
	assert.Error(t, err)
}

func TestNewClassifier(t *testing.T) {
	m, err := New("nbc", 0)
	require.NoError(t, err)
	assert.Equal(t, "nbc", m.Name())

	m, err = New("aode", 3)
	require.NoError(t, err)
	assert.Equal(t, "aode", m.Name())
	assert.Equal(t, 3, m.(*AODE).Threshold())

	_, err = New("aode", -1)
	assert.Error(t, err)

	_, err = New("svm", 0)
	assert.Error(t, err)
}

func TestUninitializedModel(t *testing.T) {
	aode, err := NewAODE(0)
	require.NoError(t, err)

	for _, m := range []Classifier{NewNBC(), aode} {
		_, err := m.Classify([]string{"a", "b"})
		assert.True(t, errors.Is(err, ErrUninitializedModel), m.Name())
	}
}

func TestFit(t *testing.T) {
	s := weatherSchema(t)
	counts, err := Count(s, Rows(weatherRows), VariantNBC)
	require.NoError(t, err)

	m := NewNBC()
	require.NoError(t, m.Fit(s, counts))
	got, err := m.Classify([]string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"0"}, got)

	aode, err := NewAODE(0)
	require.NoError(t, err)
	assert.Error(t, aode.Fit(s, counts))
	assert.Error(t, aode.Fit(s, nil))
}

func TestRetrainReplacesCounts(t *testing.T) {
	s := weatherSchema(t)
	m := NewNBC()

	require.NoError(t, m.Train(s, Rows(weatherRows)))
	first := m.Counts()
	require.NoError(t, m.Train(s, Rows(weatherRows[:1])))

	assert.Equal(t, 4, first.Instances)
	assert.Equal(t, 1, m.Counts().Instances)
}

func TestNBCPredict(t *testing.T) {
	s := weatherSchema(t)
	m := NewNBC()
	require.NoError(t, m.Train(s, Rows(weatherRows)))

	preds, err := m.Predict([]string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, preds, 1)

	// c=0: -log 3 + log 2 + log 3; c=1: -log 1 + log 1 + log 1 (missing joint)
	assert.Equal(t, "0", preds[0].Value)
	assert.InDelta(t, math.Log(2), preds[0].Score, 1e-12)
	assert.False(t, preds[0].Fallback)

	got, err := m.Classify([]string{"a", "c"})
	require.NoError(t, err)
	// c=0: -log 3 + log 2 + log 1 ; c=1: 0 + log 1 + log 1
	assert.Equal(t, []string{"1"}, got)
}

func TestNBCMissingClassCountUsesDomainSize(t *testing.T) {
	s := weatherSchema(t)
	m := NewNBC()
	// only class "1" observed
	require.NoError(t, m.Train(s, Rows([][]string{{"b", "c", "1"}})))

	preds, err := m.Predict([]string{"a", "b"})
	require.NoError(t, err)

	// c=0: -log |D|=2 ; c=1: -log 1 = 0
	assert.Equal(t, "1", preds[0].Value)
	assert.InDelta(t, 0.0, preds[0].Score, 1e-12)
}

func TestNBCTieKeepsFirstCandidate(t *testing.T) {
	s := weatherSchema(t)
	m := NewNBC()
	require.NoError(t, m.Train(s, Rows([][]string{{"a", "b", "0"}, {"a", "b", "1"}})))

	got, err := m.Classify([]string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"0"}, got)
}

func TestNBCValidatesAttributes(t *testing.T) {
	s := weatherSchema(t)
	m := NewNBC()
	require.NoError(t, m.Train(s, Rows(weatherRows)))

	_, err := m.Classify([]string{"a"})
	var mismatch *schema.SchemaMismatchError
	assert.True(t, errors.As(err, &mismatch))

	_, err = m.Classify([]string{"a", "z"})
	var violation *schema.DomainViolationError
	assert.True(t, errors.As(err, &violation))
}

func TestAODEPredict(t *testing.T) {
	s := weatherSchema(t)
	m, err := NewAODE(0)
	require.NoError(t, err)
	require.NoError(t, m.Train(s, Rows(weatherRows)))

	preds, err := m.Predict([]string{"a", "b"})
	require.NoError(t, err)

	// c=0: mean(-log2+log2, -log3+log2) ; c=1: mean(-log1+log1)
	assert.Equal(t, "1", preds[0].Value)
	assert.InDelta(t, 0.0, preds[0].Score, 1e-12)
	assert.Equal(t, 1, preds[0].Parents)
	assert.False(t, preds[0].Fallback)
}

func TestAODEThresholdGatesSuperParents(t *testing.T) {
	s := weatherSchema(t)
	m, err := NewAODE(1)
	require.NoError(t, err)
	require.NoError(t, m.Train(s, Rows(weatherRows)))

	preds, err := m.Predict([]string{"a", "b"})
	require.NoError(t, err)

	assert.Equal(t, "0", preds[0].Value)
	assert.InDelta(t, math.Log(2.0/3.0)/2, preds[0].Score, 1e-12)
	assert.Equal(t, 2, preds[0].Parents)

	parents, err := m.SuperParents([]string{"a", "b"}, 0, "1")
	require.NoError(t, err)
	assert.Empty(t, parents)
}

func TestAODEFallback(t *testing.T) {
	s := weatherSchema(t)
	m, err := NewAODE(3)
	require.NoError(t, err)
	require.NoError(t, m.Train(s, Rows(weatherRows)))

	preds, err := m.Predict([]string{"a", "b"})
	require.NoError(t, err)

	assert.Equal(t, "0", preds[0].Value)
	assert.True(t, preds[0].Fallback)
	assert.Equal(t, 0, preds[0].Parents)
	assert.True(t, math.IsInf(preds[0].Score, -1))
}

func TestAODESingleInstanceFallback(t *testing.T) {
	s := weatherSchema(t)
	m, err := NewAODE(1)
	require.NoError(t, err)
	require.NoError(t, m.Train(s, Rows([][]string{{"b", "c", "1"}})))

	for _, attrs := range [][]string{{"a", "b"}, {"b", "c"}, {"b", "b"}} {
		preds, err := m.Predict(attrs)
		require.NoError(t, err)
		assert.True(t, preds[0].Fallback, "%v", attrs)
		assert.Equal(t, "0", preds[0].Value)
	}
}

func TestAODESingleInstanceThresholdZero(t *testing.T) {
	s := weatherSchema(t)
	m, err := NewAODE(0)
	require.NoError(t, err)
	require.NoError(t, m.Train(s, Rows([][]string{{"b", "c", "1"}})))

	// a single observation has support 1, which exceeds a zero threshold
	preds, err := m.Predict([]string{"b", "c"})
	require.NoError(t, err)
	assert.Equal(t, "1", preds[0].Value)
	assert.Equal(t, 2, preds[0].Parents)
}

func TestAODEThresholdMonotonicity(t *testing.T) {
	s := multiSchema(t)
	var previous map[string]int

	for threshold := 0; threshold <= len(multiRows); threshold++ {
		m, err := NewAODE(threshold)
		require.NoError(t, err)
		require.NoError(t, m.Train(s, Rows(multiRows)))

		current := make(map[string]int)
		for _, row := range multiRows {
			attrs := row[:s.NumAttributes()]
			for k := 0; k < s.NumClasses(); k++ {
				for _, c := range s.ClassDomain(k) {
					parents, err := m.SuperParents(attrs, k, c)
					require.NoError(t, err)
					key := attrs[0] + attrs[1] + attrs[2] + s.ClassNames()[k] + c
					current[key] = len(parents)
					if previous != nil {
						assert.LessOrEqual(t, current[key], previous[key])
					}
				}
			}
		}
		previous = current
	}

	// no pair count can exceed the number of training instances
	m, err := NewAODE(len(multiRows))
	require.NoError(t, err)
	require.NoError(t, m.Train(s, Rows(multiRows)))
	for _, row := range multiRows {
		preds, err := m.Predict(row[:s.NumAttributes()])
		require.NoError(t, err)
		for _, p := range preds {
			assert.True(t, p.Fallback)
		}
	}
}

func TestClassificationTotality(t *testing.T) {
	s := multiSchema(t)
	aode, err := NewAODE(1)
	require.NoError(t, err)

	for _, m := range []Classifier{NewNBC(), aode} {
		require.NoError(t, m.Train(s, Rows(multiRows)))

		for _, x := range s.Field(0).Domain {
			for _, y := range s.Field(1).Domain {
				for _, z := range s.Field(2).Domain {
					got, err := m.Classify([]string{x, y, z})
					require.NoError(t, err)
					require.Len(t, got, s.NumClasses())
					for k, v := range got {
						assert.Contains(t, s.ClassDomain(k), v)
					}
				}
			}
		}
	}
}

func TestZeroAttributes(t *testing.T) {
	s := newSchema(t, 1, schema.NewAttribute("class", []string{"x", "y"}))
	rows := [][]string{{"y"}, {"y"}, {"x"}}

	nbc := NewNBC()
	require.NoError(t, nbc.Train(s, Rows(rows)))
	got, err := nbc.Classify(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, got)

	aode, err := NewAODE(0)
	require.NoError(t, err)
	require.NoError(t, aode.Train(s, Rows(rows)))
	preds, err := aode.Predict(nil)
	require.NoError(t, err)
	assert.True(t, preds[0].Fallback)
	assert.Equal(t, "x", preds[0].Value)
}
