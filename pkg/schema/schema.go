package schema

import (
	"fmt"
	"strings"
)

// Attribute is a named categorical field with a finite value domain
type Attribute struct {
	Name   string
	Domain []string

	members map[string]struct{}
}

// NewAttribute creates an attribute. Duplicate domain values are collapsed,
// keeping the first occurrence so iteration order stays reproducible.
func NewAttribute(name string, domain []string) Attribute {
	attr := Attribute{
		Name:    name,
		Domain:  make([]string, 0, len(domain)),
		members: make(map[string]struct{}, len(domain)),
	}
	for _, v := range domain {
		if _, dup := attr.members[v]; dup {
			continue
		}
		attr.members[v] = struct{}{}
		attr.Domain = append(attr.Domain, v)
	}
	return attr
}

// Contains reports whether v belongs to the attribute domain
func (a Attribute) Contains(v string) bool {
	if a.members == nil {
		for _, d := range a.Domain {
			if d == v {
				return true
			}
		}
		return false
	}
	_, ok := a.members[v]
	return ok
}

// String renders the attribute the way it is declared in a dataset header
func (a Attribute) String() string {
	return fmt.Sprintf("%s {%s}", a.Name, strings.Join(a.Domain, ","))
}

// Schema is an ordered list of attributes whose trailing entries are class attributes
type Schema struct {
	attrs    []Attribute
	nclasses int

	// domains of the class attributes, indexed 0..nclasses-1
	classDomains [][]string
	classNames   []string
}

// New builds a schema from attrs, designating the last nclasses entries as class attributes
func New(attrs []Attribute, nclasses int) (*Schema, error) {
	if nclasses < 1 {
		return nil, fmt.Errorf("number of class attributes must be >= 1, got %d", nclasses)
	}
	if nclasses > len(attrs) {
		return nil, fmt.Errorf("number of class attributes (%d) exceeds number of fields (%d)", nclasses, len(attrs))
	}

	s := &Schema{
		attrs:        make([]Attribute, len(attrs)),
		nclasses:     nclasses,
		classDomains: make([][]string, 0, nclasses),
		classNames:   make([]string, 0, nclasses),
	}
	for i, a := range attrs {
		if len(a.Domain) == 0 {
			return nil, fmt.Errorf("attribute %q (field %d) has an empty domain", a.Name, i)
		}
		if a.members == nil {
			a = NewAttribute(a.Name, a.Domain)
		}
		s.attrs[i] = a
	}
	for _, a := range s.attrs[len(attrs)-nclasses:] {
		s.classDomains = append(s.classDomains, a.Domain)
		s.classNames = append(s.classNames, a.Name)
	}
	return s, nil
}

// Len returns the number of fields of an instance
func (s *Schema) Len() int { return len(s.attrs) }

// NumAttributes returns the number of non-class attributes
func (s *Schema) NumAttributes() int { return len(s.attrs) - s.nclasses }

// NumClasses returns the number of class attributes
func (s *Schema) NumClasses() int { return s.nclasses }

// Field returns the i-th field definition
func (s *Schema) Field(i int) Attribute { return s.attrs[i] }

// Fields returns all field definitions in order
func (s *Schema) Fields() []Attribute { return s.attrs }

// Attributes returns the non-class attribute definitions
func (s *Schema) Attributes() []Attribute { return s.attrs[:s.NumAttributes()] }

// Classes returns the class attribute definitions
func (s *Schema) Classes() []Attribute { return s.attrs[s.NumAttributes():] }

// ClassDomain returns the domain of the k-th class attribute
func (s *Schema) ClassDomain(k int) []string { return s.classDomains[k] }

// ClassNames returns the class attribute names in order
func (s *Schema) ClassNames() []string { return s.classNames }

// Split divides a row into its attribute and class parts.
// row is the 1-based instance ordinal used for error reporting.
func (s *Schema) Split(row int, fields []string) (attributes, classes []string, err error) {
	if len(fields) != len(s.attrs) {
		return nil, nil, &SchemaMismatchError{Row: row, Got: len(fields), Want: len(s.attrs)}
	}
	n := s.NumAttributes()
	return fields[:n], fields[n:], nil
}

// Validate checks row length and domain membership of every field
func (s *Schema) Validate(row int, fields []string) error {
	if len(fields) != len(s.attrs) {
		return &SchemaMismatchError{Row: row, Got: len(fields), Want: len(s.attrs)}
	}
	for i, v := range fields {
		if !s.attrs[i].Contains(v) {
			return &DomainViolationError{Row: row, Field: i, Attribute: s.attrs[i].Name, Value: v}
		}
	}
	return nil
}

// ValidateAttributes checks a vector of non-class attribute values
func (s *Schema) ValidateAttributes(row int, attributes []string) error {
	n := s.NumAttributes()
	if len(attributes) != n {
		return &SchemaMismatchError{Row: row, Got: len(attributes), Want: n}
	}
	for i, v := range attributes {
		if !s.attrs[i].Contains(v) {
			return &DomainViolationError{Row: row, Field: i, Attribute: s.attrs[i].Name, Value: v}
		}
	}
	return nil
}

// Compatible reports an error when other does not describe instances of the same shape
func (s *Schema) Compatible(other *Schema) error {
	if other.Len() != s.Len() {
		return &SchemaMismatchError{Got: other.Len(), Want: s.Len()}
	}
	if other.NumClasses() != s.NumClasses() {
		return fmt.Errorf("class attribute count mismatch: got %d, want %d", other.NumClasses(), s.NumClasses())
	}
	return nil
}
