package learning

import (
	"fmt"
	"sort"
)

// Variant selects which count families a model collects
type Variant int

const (
	VariantNBC Variant = iota
	VariantAODE
)

func (v Variant) String() string {
	switch v {
	case VariantNBC:
		return "nbc"
	case VariantAODE:
		return "aode"
	default:
		return fmt.Sprintf("variant(%d)", int(v))
	}
}

// ParseVariant maps a model name to its variant
func ParseVariant(name string) (Variant, error) {
	switch name {
	case "nbc":
		return VariantNBC, nil
	case "aode", "aod":
		return VariantAODE, nil
	default:
		return 0, fmt.Errorf("unknown classifier type: %s (want nbc or aode)", name)
	}
}

// AttrValue identifies a value of the attribute at Index
type AttrValue struct {
	Index int
	Value string
}

// ClassValue identifies a value of the class attribute at Index
type ClassValue struct {
	Index int
	Value string
}

// PairKey is the co-occurrence of an attribute value with a class value
type PairKey struct {
	Attr  AttrValue
	Class ClassValue
}

// TripleKey is the co-occurrence of a child attribute value with a
// super-parent attribute value under a class value. Child.Index != Parent.Index.
type TripleKey struct {
	Child  AttrValue
	Parent AttrValue
	Class  ClassValue
}

// Counts is the sparse count model built from a training set. Absent keys mean zero.
type Counts struct {
	Variant   Variant
	Instances int

	Class  map[ClassValue]int
	Pair   map[PairKey]int
	Triple map[TripleKey]int
}

// NewCounts creates an empty count model for variant v
func NewCounts(v Variant) *Counts {
	c := &Counts{
		Variant: v,
		Class:   make(map[ClassValue]int),
		Pair:    make(map[PairKey]int),
	}
	if v == VariantAODE {
		c.Triple = make(map[TripleKey]int)
	}
	return c
}

// ClassCount returns classCount[(k, value)] and whether it was observed
func (c *Counts) ClassCount(k int, value string) (int, bool) {
	n, ok := c.Class[ClassValue{k, value}]
	return n, ok
}

// PairCount returns the attribute/class co-occurrence count
func (c *Counts) PairCount(i int, a string, k int, value string) (int, bool) {
	n, ok := c.Pair[PairKey{AttrValue{i, a}, ClassValue{k, value}}]
	return n, ok
}

// TripleCount returns the child/super-parent/class co-occurrence count
func (c *Counts) TripleCount(j int, aj string, i int, ai string, k int, value string) (int, bool) {
	n, ok := c.Triple[TripleKey{AttrValue{j, aj}, AttrValue{i, ai}, ClassValue{k, value}}]
	return n, ok
}

// Len returns the number of distinct keys across all families
func (c *Counts) Len() int {
	return len(c.Class) + len(c.Pair) + len(c.Triple)
}

// Merge adds every count of other into c
func (c *Counts) Merge(other *Counts) error {
	if other.Variant != c.Variant {
		return fmt.Errorf("cannot merge %s counts into %s counts", other.Variant, c.Variant)
	}
	c.Instances += other.Instances
	for k, n := range other.Class {
		c.Class[k] += n
	}
	for k, n := range other.Pair {
		c.Pair[k] += n
	}
	if len(other.Triple) > 0 && c.Triple == nil {
		c.Triple = make(map[TripleKey]int, len(other.Triple))
	}
	for k, n := range other.Triple {
		c.Triple[k] += n
	}
	return nil
}

// Entry is a single rendered count
type Entry struct {
	Key   string
	Count int
}

// Entries renders every count sorted by key
func (c *Counts) Entries() []Entry {
	entries := make([]Entry, 0, c.Len())
	for k, n := range c.Class {
		entries = append(entries, Entry{Key: fmt.Sprintf("(%d,%s)", k.Index, k.Value), Count: n})
	}
	for k, n := range c.Pair {
		entries = append(entries, Entry{
			Key:   fmt.Sprintf("((%d,%s),(%d,%s))", k.Attr.Index, k.Attr.Value, k.Class.Index, k.Class.Value),
			Count: n,
		})
	}
	for k, n := range c.Triple {
		entries = append(entries, Entry{
			Key: fmt.Sprintf("((%d,%s),(%d,%s),(%d,%s))",
				k.Child.Index, k.Child.Value, k.Parent.Index, k.Parent.Value, k.Class.Index, k.Class.Value),
			Count: n,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})
	return entries
}
