package volren

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// profilerWindow is the number of frames averaged per scope.
const profilerWindow = 60

type scopeStats struct {
	started time.Time
	last    time.Duration
	samples [profilerWindow]time.Duration
	n       int
	next    int
}

func (s *scopeStats) add(d time.Duration) {
	s.last = d
	s.samples[s.next] = d
	s.next = (s.next + 1) % profilerWindow
	if s.n < profilerWindow {
		s.n++
	}
}

func (s *scopeStats) average() time.Duration {
	if s.n == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range s.samples[:s.n] {
		sum += d
	}
	return sum / time.Duration(s.n)
}

// Profiler records CPU time spent in each render pass, averaged over the
// last frames, plus plain event counters.
type Profiler struct {
	scopes map[string]*scopeStats
	order  []string
	counts map[string]int
}

func NewProfiler() *Profiler {
	return &Profiler{
		scopes: make(map[string]*scopeStats),
		counts: make(map[string]int),
	}
}

// BeginScope starts timing name.
func (p *Profiler) BeginScope(name string) {
	s, ok := p.scopes[name]
	if !ok {
		s = &scopeStats{}
		p.scopes[name] = s
		p.order = append(p.order, name)
	}
	s.started = time.Now()
}

// EndScope closes a scope opened by BeginScope; unmatched calls are ignored.
func (p *Profiler) EndScope(name string) {
	s, ok := p.scopes[name]
	if !ok || s.started.IsZero() {
		return
	}
	s.add(time.Since(s.started))
	s.started = time.Time{}
}

// Count increments the named counter.
func (p *Profiler) Count(name string) { p.counts[name]++ }

// Counter returns the named counter.
func (p *Profiler) Counter(name string) int { return p.counts[name] }

// Scopes lists scope names in first-seen order.
func (p *Profiler) Scopes() []string { return slices.Clone(p.order) }

// Last is the duration of the most recent closed run of name.
func (p *Profiler) Last(name string) time.Duration {
	if s, ok := p.scopes[name]; ok {
		return s.last
	}
	return 0
}

// Average is the mean of the recent samples of name.
func (p *Profiler) Average(name string) time.Duration {
	if s, ok := p.scopes[name]; ok {
		return s.average()
	}
	return 0
}

// Reset drops every sample and counter.
func (p *Profiler) Reset() {
	clear(p.scopes)
	clear(p.counts)
	p.order = p.order[:0]
}

// GetStatsString formats scope timings, then counters by name.
func (p *Profiler) GetStatsString() string {
	var sb strings.Builder
	sb.WriteString("Passes (CPU, last / avg):\n")
	for _, name := range p.order {
		s := p.scopes[name]
		fmt.Fprintf(&sb, "  %-16s %7.3f ms %7.3f ms\n", name, ms(s.last), ms(s.average()))
	}

	keys := make([]string, 0, len(p.counts))
	for k := range p.counts {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, "  %-16s %d\n", k, p.counts[k])
	}
	return sb.String()
}

func ms(d time.Duration) float64 { return float64(d.Microseconds()) / 1000 }
