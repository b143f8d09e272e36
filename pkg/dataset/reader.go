package dataset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/zpam/bnclass/pkg/schema"
	"go.uber.org/multierr"
)

// CommentMarker starts a comment that runs to the end of the line
const CommentMarker = "%"

// ParseError reports a malformed header or data line
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// Header holds the declarations that precede the data section
type Header struct {
	Relation   string
	Attributes []schema.Attribute
}

// Schema builds the schema of the header, the last nclasses attributes being class attributes
func (h *Header) Schema(nclasses int) (*schema.Schema, error) {
	return schema.New(h.Attributes, nclasses)
}

// Reader parses a dataset header eagerly and then streams its data rows
type Reader struct {
	Header Header

	scanner *bufio.Scanner
	line    int
	closer  io.Closer
}

// NewReader reads the header from r up to and including the @data directive
func NewReader(r io.Reader) (*Reader, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	dr := &Reader{scanner: scanner}
	if err := dr.readHeader(); err != nil {
		return nil, err
	}
	return dr, nil
}

// Open opens a dataset file and reads its header
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open dataset")
	}
	dr, err := NewReader(f)
	if err != nil {
		err = multierr.Append(errors.Wrapf(err, "failed to read header of %s", path), f.Close())
		return nil, err
	}
	dr.closer = f
	return dr, nil
}

// Close releases the underlying file, if any
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// Line returns the number of the last line read
func (r *Reader) Line() int { return r.line }

// Next returns the fields of the next data row, or io.EOF after the last one
func (r *Reader) Next() ([]string, error) {
	for {
		line, ok, err := r.nextLine()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, io.EOF
		}
		if line == "" {
			continue
		}
		return splitFields(line), nil
	}
}

// ReadAll returns every remaining data row
func (r *Reader) ReadAll() ([][]string, error) {
	var rows [][]string
	for {
		row, err := r.Next()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
}

func (r *Reader) readHeader() error {
	for {
		line, ok, err := r.nextLine()
		if err != nil {
			return err
		}
		if !ok {
			return &ParseError{Line: r.line, Msg: "missing @data directive"}
		}
		if line == "" {
			continue
		}

		directive, rest := splitDirective(line)
		switch directive {
		case "@relation":
			r.Header.Relation = rest
		case "@attribute":
			attr, err := parseAttribute(rest)
			if err != nil {
				return &ParseError{Line: r.line, Msg: err.Error()}
			}
			r.Header.Attributes = append(r.Header.Attributes, attr)
		case "@data":
			if len(r.Header.Attributes) == 0 {
				return &ParseError{Line: r.line, Msg: "@data before any @attribute"}
			}
			return nil
		default:
			return &ParseError{Line: r.line, Msg: fmt.Sprintf("unexpected header line %q", line)}
		}
	}
}

// nextLine returns the next line with comments and surrounding space removed
func (r *Reader) nextLine() (string, bool, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", false, errors.Wrapf(err, "failed to read line %d", r.line+1)
		}
		return "", false, nil
	}
	r.line++
	return StripComment(r.scanner.Text()), true, nil
}

// StripComment drops everything from the first comment marker and trims the rest
func StripComment(line string) string {
	if i := strings.Index(line, CommentMarker); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}

func splitDirective(line string) (string, string) {
	i := strings.IndexAny(line, " \t")
	if i < 0 {
		return strings.ToLower(line), ""
	}
	return strings.ToLower(line[:i]), strings.TrimSpace(line[i+1:])
}

// parseAttribute parses `<name> {v1,v2,...}`
func parseAttribute(decl string) (schema.Attribute, error) {
	i := strings.IndexAny(decl, " \t")
	if i < 0 {
		return schema.Attribute{}, fmt.Errorf("malformed @attribute %q: missing domain", decl)
	}
	name, domain := decl[:i], strings.TrimSpace(decl[i+1:])

	if !strings.HasPrefix(domain, "{") || !strings.HasSuffix(domain, "}") {
		return schema.Attribute{}, fmt.Errorf("malformed @attribute %s: domain must be enclosed in braces", name)
	}
	values := splitFields(domain[1 : len(domain)-1])
	if len(values) == 1 && values[0] == "" {
		return schema.Attribute{}, fmt.Errorf("attribute %s has an empty domain", name)
	}
	return schema.NewAttribute(name, values), nil
}

func splitFields(line string) []string {
	fields := strings.Split(line, ",")
	for i, f := range fields {
		fields[i] = strings.TrimSpace(f)
	}
	return fields
}
