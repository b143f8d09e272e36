package learning

import (
	"io"

	"github.com/pkg/errors"
	"github.com/zpam/bnclass/pkg/schema"
)

// RowSource streams instance rows. Next returns io.EOF after the last row.
type RowSource interface {
	Next() ([]string, error)
}

// sliceSource serves rows from memory
type sliceSource struct {
	rows [][]string
	pos  int
}

// Rows wraps an in-memory row set as a RowSource
func Rows(rows [][]string) RowSource {
	return &sliceSource{rows: rows}
}

func (s *sliceSource) Next() ([]string, error) {
	if s.pos >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.pos]
	s.pos++
	return row, nil
}

// Count builds a count model for variant v from every row of src in a single pass
func Count(s *schema.Schema, src RowSource, v Variant) (*Counts, error) {
	counts := NewCounts(v)
	for row := 1; ; row++ {
		fields, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read training instance %d", row)
		}
		if err := counts.add(s, row, fields); err != nil {
			return nil, err
		}
	}
	return counts, nil
}

// countRows counts rows whose first element is instance number first
func countRows(s *schema.Schema, rows [][]string, first int, v Variant) (*Counts, error) {
	counts := NewCounts(v)
	for i, fields := range rows {
		if err := counts.add(s, first+i, fields); err != nil {
			return nil, err
		}
	}
	return counts, nil
}

// add validates one instance and increments the counts it touches
func (c *Counts) add(s *schema.Schema, row int, fields []string) error {
	if err := s.Validate(row, fields); err != nil {
		return err
	}
	attrs, classes, _ := s.Split(row, fields)

	c.Instances++
	for k, cv := range classes {
		c.Class[ClassValue{k, cv}]++
	}

	for i, ai := range attrs {
		parent := AttrValue{i, ai}
		for k, cv := range classes {
			class := ClassValue{k, cv}
			c.Pair[PairKey{parent, class}]++

			if c.Variant != VariantAODE {
				continue
			}
			for j, aj := range attrs {
				if j == i {
					continue
				}
				c.Triple[TripleKey{AttrValue{j, aj}, parent, class}]++
			}
		}
	}
	return nil
}
