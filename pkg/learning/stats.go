package learning

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/zpam/bnclass/pkg/schema"
)

// ModelInfo summarises a trained model
type ModelInfo struct {
	Type          string
	Instances     int
	Fields        int
	Classes       int
	Attributes    int
	MaxDomainSize int
	AvgDomainSize float64
	Entries       int
}

// GetModelInfo returns information about the trained model
func GetModelInfo(m Classifier) (*ModelInfo, error) {
	s, counts := m.Schema(), m.Counts()
	if s == nil || counts == nil {
		return nil, ErrUninitializedModel
	}

	info := &ModelInfo{
		Type:       m.Name(),
		Instances:  counts.Instances,
		Fields:     s.Len(),
		Classes:    s.NumClasses(),
		Attributes: s.NumAttributes(),
		Entries:    counts.Len(),
	}

	total := 0
	for _, a := range s.Attributes() {
		total += len(a.Domain)
		info.MaxDomainSize = max(info.MaxDomainSize, len(a.Domain))
	}
	if info.Attributes > 0 {
		info.AvgDomainSize = float64(total) / float64(info.Attributes)
	}
	return info, nil
}

// PrintStats prints training diagnostics. Level 1 prints the summary, level 2
// adds the relation and attribute listing, level 3 dumps every count.
func PrintStats(w io.Writer, m Classifier, dataset, relation string, verbose int) error {
	if verbose < 1 {
		return nil
	}
	info, err := GetModelInfo(m)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "=== TRAINING (%s) ===\n\n", info.Type)
	fmt.Fprintf(w, ">> training dataset: %s\n", dataset)
	fmt.Fprintf(w, ">> number of instances  = %s\n", humanize.Comma(int64(info.Instances)))
	fmt.Fprintf(w, ">> number of fields     = %d\n", info.Fields)
	fmt.Fprintf(w, ">> number of classes    = %d\n", info.Classes)
	fmt.Fprintf(w, ">> number of attributes = %d\n", info.Attributes)
	fmt.Fprintf(w, ">> domain size: max = %d, avg = %.2f\n", info.MaxDomainSize, info.AvgDomainSize)
	fmt.Fprintf(w, ">> count entries        = %s\n", humanize.Comma(int64(info.Entries)))
	if a, ok := m.(*AODE); ok {
		fmt.Fprintf(w, ">> support threshold    = %d\n", a.Threshold())
	}
	fmt.Fprintf(w, "\n")

	if verbose > 1 {
		fmt.Fprintf(w, "@relation = %s\n\n", relation)
		printFields(w, "@attributes", m.Schema().Attributes(), m.Schema())
		printFields(w, "@classes", m.Schema().Classes(), m.Schema())
	}

	if verbose > 2 {
		fmt.Fprintf(w, "@counts = {\n")
		for _, e := range m.Counts().Entries() {
			fmt.Fprintf(w, "  N[%s] = %d\n", e.Key, e.Count)
		}
		fmt.Fprintf(w, "}\n\n")
	}
	return nil
}

func printFields(w io.Writer, title string, attrs []schema.Attribute, s *schema.Schema) {
	width := 0
	for _, a := range s.Fields() {
		width = max(width, len(a.Name))
	}
	fmt.Fprintf(w, "%s = {\n", title)
	for _, a := range attrs {
		fmt.Fprintf(w, "  %-*s  :   domain=%v\n", width, a.Name, a.Domain)
	}
	fmt.Fprintf(w, "}\n\n")
}
