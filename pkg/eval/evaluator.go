package eval

import (
	"fmt"
	"io"
	"math"
)

// Evaluator tallies correct and incorrect predictions per class attribute
type Evaluator struct {
	names     []string
	correct   []int
	incorrect []int
	instances int
}

// NewEvaluator creates an evaluator for the named class attributes
func NewEvaluator(classNames []string) *Evaluator {
	return &Evaluator{
		names:     append([]string(nil), classNames...),
		correct:   make([]int, len(classNames)),
		incorrect: make([]int, len(classNames)),
	}
}

// Record tallies one prediction of class attribute k
func (e *Evaluator) Record(k int, predicted, actual string) error {
	if k < 0 || k >= len(e.names) {
		return fmt.Errorf("class attribute index %d out of range [0,%d)", k, len(e.names))
	}
	if predicted == actual {
		e.correct[k]++
	} else {
		e.incorrect[k]++
	}
	return nil
}

// RecordInstance tallies the predictions of every class attribute of one instance
func (e *Evaluator) RecordInstance(predicted, actual []string) error {
	if len(predicted) != len(e.names) || len(actual) != len(e.names) {
		return fmt.Errorf("expected %d class values, got %d predicted and %d actual",
			len(e.names), len(predicted), len(actual))
	}
	for k := range predicted {
		if err := e.Record(k, predicted[k], actual[k]); err != nil {
			return err
		}
	}
	e.instances++
	return nil
}

// ClassResult holds the tallies of one class attribute, or the aggregate
type ClassResult struct {
	Name      string
	Correct   int
	Incorrect int
}

// Total returns the number of recorded predictions
func (r ClassResult) Total() int { return r.Correct + r.Incorrect }

// Defined reports whether at least one prediction was recorded
func (r ClassResult) Defined() bool { return r.Total() > 0 }

// Ratio returns correct/(correct+incorrect), or NaN when nothing was recorded
func (r ClassResult) Ratio() float64 {
	if !r.Defined() {
		return math.NaN()
	}
	return float64(r.Correct) / float64(r.Total())
}

func (r ClassResult) ratioString() string {
	if !r.Defined() {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", r.Ratio())
}

// Report is the accuracy summary of an evaluation
type Report struct {
	Classes   []ClassResult
	Total     ClassResult
	Instances int
}

// Report returns the per class attribute results and their aggregate
func (e *Evaluator) Report() *Report {
	r := &Report{
		Classes:   make([]ClassResult, len(e.names)),
		Total:     ClassResult{Name: "total"},
		Instances: e.instances,
	}
	for k, name := range e.names {
		r.Classes[k] = ClassResult{Name: name, Correct: e.correct[k], Incorrect: e.incorrect[k]}
		r.Total.Correct += e.correct[k]
		r.Total.Incorrect += e.incorrect[k]
	}
	return r
}

// Print writes the report in the classic results layout
func (r *Report) Print(w io.Writer) {
	width := 0
	for _, c := range r.Classes {
		width = max(width, len(c.Name))
	}

	fmt.Fprintf(w, ">> Results:\n")
	for _, c := range r.Classes {
		fmt.Fprintf(w, "class = %-*s => correct = %d, incorrect = %d, ratio = %s\n",
			width, c.Name, c.Correct, c.Incorrect, c.ratioString())
	}
	fmt.Fprintf(w, "total => correct = %d, incorrect = %d, ratio = %s\n\n",
		r.Total.Correct, r.Total.Incorrect, r.Total.ratioString())
}
