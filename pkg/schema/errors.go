package schema

import "fmt"

// SchemaMismatchError is returned when a row does not have the number of fields the schema declares
type SchemaMismatchError struct {
	Row  int // 1-based instance ordinal, 0 when not tied to a row
	Got  int
	Want int
}

func (e *SchemaMismatchError) Error() string {
	if e.Row == 0 {
		return fmt.Sprintf("schema mismatch: got %d fields, want %d", e.Got, e.Want)
	}
	return fmt.Sprintf("schema mismatch at instance %d: got %d fields, want %d", e.Row, e.Got, e.Want)
}

// DomainViolationError is returned when a field value is not in its attribute domain
type DomainViolationError struct {
	Row       int
	Field     int
	Attribute string
	Value     string
}

func (e *DomainViolationError) Error() string {
	if e.Row == 0 {
		return fmt.Sprintf("domain violation: value %q not in domain of attribute %q (field %d)",
			e.Value, e.Attribute, e.Field)
	}
	return fmt.Sprintf("domain violation at instance %d: value %q not in domain of attribute %q (field %d)",
		e.Row, e.Value, e.Attribute, e.Field)
}
