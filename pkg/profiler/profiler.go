package profiler

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	prettytable "github.com/tatsushid/go-prettytable"
)

// Phase names used by the bcl commands
const (
	PhaseDomains  = "read domains"
	PhaseModel    = "read model"
	PhaseTable    = "read table"
	PhaseInduce   = "induce"
	PhaseClassify = "classify"
	PhaseSample   = "sample"
	PhaseXVal     = "cross validate"
	PhaseWrite    = "write"
)

// Profiler tracks execution times for the phases of a command. A nil
// Profiler records nothing, so commands can time phases
// unconditionally.
type Profiler struct {
	mu    sync.RWMutex
	times map[string][]time.Duration
}

// NewProfiler creates a new profiler
func NewProfiler() *Profiler {
	return &Profiler{
		times: make(map[string][]time.Duration),
	}
}

// Timer represents a timing operation
type Timer struct {
	profiler *Profiler
	name     string
	start    time.Time
}

// Start begins timing a phase
func (p *Profiler) Start(name string) *Timer {
	return &Timer{
		profiler: p,
		name:     name,
		start:    time.Now(),
	}
}

// Stop completes the timing and records the duration
func (t *Timer) Stop() time.Duration {
	duration := time.Since(t.start)
	t.profiler.Record(t.name, duration)
	return duration
}

// Record manually records a timing
func (p *Profiler) Record(name string, duration time.Duration) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.times[name] = append(p.times[name], duration)
	p.mu.Unlock()
}

// Stats contains timing statistics
type Stats struct {
	Name    string
	Count   int
	Total   time.Duration
	Average time.Duration
	Min     time.Duration
	Max     time.Duration
}

// GetStats returns timing statistics for a phase
func (p *Profiler) GetStats(name string) *Stats {
	if p == nil {
		return &Stats{Name: name}
	}
	p.mu.RLock()
	times := p.times[name]
	p.mu.RUnlock()

	if len(times) == 0 {
		return &Stats{Name: name}
	}

	stats := &Stats{Name: name, Count: len(times), Min: times[0], Max: times[0]}
	for _, t := range times {
		stats.Total += t
		if t < stats.Min {
			stats.Min = t
		}
		if t > stats.Max {
			stats.Max = t
		}
	}
	stats.Average = stats.Total / time.Duration(len(times))
	return stats
}

// GetAllStats returns statistics for all tracked phases sorted by name
func (p *Profiler) GetAllStats() []*Stats {
	if p == nil {
		return nil
	}
	p.mu.RLock()
	names := make([]string, 0, len(p.times))
	for name := range p.times {
		names = append(names, name)
	}
	p.mu.RUnlock()

	sort.Strings(names)

	stats := make([]*Stats, 0, len(names))
	for _, name := range names {
		stats = append(stats, p.GetStats(name))
	}
	return stats
}

// Reset clears all timing data
func (p *Profiler) Reset() {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.times = make(map[string][]time.Duration)
	p.mu.Unlock()
}

// PrintReport writes a table of the phase timings to w
func (p *Profiler) PrintReport(w io.Writer) error {
	stats := p.GetAllStats()
	if len(stats) == 0 {
		_, err := fmt.Fprintln(w, "No timing data available")
		return err
	}

	tbl, err := prettytable.NewTable(
		prettytable.Column{Header: "Phase"},
		prettytable.Column{Header: "Count", AlignRight: true},
		prettytable.Column{Header: "Total", AlignRight: true},
		prettytable.Column{Header: "Avg", AlignRight: true},
		prettytable.Column{Header: "Min", AlignRight: true},
		prettytable.Column{Header: "Max", AlignRight: true},
	)
	if err != nil {
		return err
	}
	tbl.Separator = "  "
	for _, s := range stats {
		tbl.AddRow(s.Name, s.Count, formatDuration(s.Total), formatDuration(s.Average),
			formatDuration(s.Min), formatDuration(s.Max))
	}
	_, err = tbl.WriteTo(w)
	return err
}

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Microsecond:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	case d < time.Millisecond:
		return fmt.Sprintf("%.1fus", float64(d.Nanoseconds())/1000)
	case d < time.Second:
		return fmt.Sprintf("%.2fms", float64(d.Nanoseconds())/1e6)
	default:
		return fmt.Sprintf("%.3fs", d.Seconds())
	}
}
