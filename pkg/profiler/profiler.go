package profiler

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Phase names used by the CLI
const (
	PhaseTrain = "train"
	PhaseStore = "store"
	PhaseTest  = "test"
)

// Profiler accumulates wall time per named phase, in the order phases first ran
type Profiler struct {
	mu     sync.Mutex
	order  []string
	phases map[string]*Stats
	now    func() time.Time
}

// Stats holds the timings of one phase
type Stats struct {
	Name  string
	Count int
	Total time.Duration
	Max   time.Duration
}

// Average returns the mean duration of a run of the phase
func (s Stats) Average() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

// New creates an empty profiler
func New() *Profiler {
	return &Profiler{
		phases: make(map[string]*Stats),
		now:    time.Now,
	}
}

// Timer measures a single run of a phase
type Timer struct {
	p     *Profiler
	name  string
	start time.Time
}

// Start begins timing a run of the named phase
func (p *Profiler) Start(name string) *Timer {
	return &Timer{p: p, name: name, start: p.now()}
}

// Stop records the elapsed time since Start
func (t *Timer) Stop() time.Duration {
	d := t.p.now().Sub(t.start)
	t.p.Record(t.name, d)
	return d
}

// Record adds one run of the named phase
func (p *Profiler) Record(name string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.phases[name]
	if !ok {
		s = &Stats{Name: name}
		p.phases[name] = s
		p.order = append(p.order, name)
	}
	s.Count++
	s.Total += d
	if d > s.Max {
		s.Max = d
	}
}

// Stats returns a copy of the timings of every phase
func (p *Profiler) Stats() []Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Stats, 0, len(p.order))
	for _, name := range p.order {
		out = append(out, *p.phases[name])
	}
	return out
}

// Time runs fn as one run of the named phase and returns its error
func (p *Profiler) Time(name string, fn func() error) error {
	t := p.Start(name)
	defer t.Stop()
	return fn()
}

// PrintReport writes one line per phase
func (p *Profiler) PrintReport(w io.Writer) {
	stats := p.Stats()
	if len(stats) == 0 {
		return
	}

	fmt.Fprintf(w, ">> Timings:\n")
	for _, s := range stats {
		if s.Count == 1 {
			fmt.Fprintf(w, "%-6s %s\n", s.Name, formatDuration(s.Total))
			continue
		}
		fmt.Fprintf(w, "%-6s %s (%d runs, avg %s, max %s)\n",
			s.Name, formatDuration(s.Total), s.Count, formatDuration(s.Average()), formatDuration(s.Max))
	}
	fmt.Fprintln(w)
}

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Microsecond:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	case d < time.Millisecond:
		return fmt.Sprintf("%.1fµs", float64(d.Nanoseconds())/1e3)
	case d < time.Second:
		return fmt.Sprintf("%.2fms", float64(d.Nanoseconds())/1e6)
	default:
		return fmt.Sprintf("%.3fs", d.Seconds())
	}
}
