// Package proc implements the /repeat and /quote process scheduler:
// lightweight timed jobs the event loop ticks, each firing a script body
// or the next line of a quoted source on its interval.
package proc

import (
	"sort"
	"time"
)

// Kind distinguishes process types.
type Kind int

const (
	// KindRepeat runs a script body on each fire.
	KindRepeat Kind = iota
	// KindQuote sends the next queued line on each fire.
	KindQuote
)

// Proc is one scheduled process.
type Proc struct {
	PID      int
	Kind     Kind
	Interval time.Duration
	// RunsLeft is the remaining fire count; nil means run forever.
	RunsLeft *int
	NextFire time.Time

	// Body is the script run by a repeat process.
	Body string
	// Lines are the pending lines of a quote process.
	Lines []string
	// Prefix is prepended to each quoted line.
	Prefix string
	// World receives the process output; empty means the foreground
	// world at fire time.
	World string
}

// Done reports whether the process has no runs left.
func (p *Proc) Done() bool {
	if p.Kind == KindQuote {
		return len(p.Lines) == 0
	}
	return p.RunsLeft != nil && *p.RunsLeft <= 0
}

// Scheduler owns the process table.
type Scheduler struct {
	nextPID int
	procs   []*Proc
}

// NewScheduler returns an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{nextPID: 1}
}

// AddRepeat schedules a repeat process. count < 0 means infinite.
func (s *Scheduler) AddRepeat(count int, interval time.Duration, body, world string, now time.Time) *Proc {
	p := &Proc{
		PID:      s.nextPID,
		Kind:     KindRepeat,
		Interval: interval,
		Body:     body,
		World:    world,
		NextFire: now.Add(interval),
	}
	if count >= 0 {
		runs := count
		p.RunsLeft = &runs
	}
	s.nextPID++
	s.procs = append(s.procs, p)
	return p
}

// AddQuote schedules a quote process over a fixed set of lines.
func (s *Scheduler) AddQuote(lines []string, interval time.Duration, prefix, world string, now time.Time) *Proc {
	p := &Proc{
		PID:      s.nextPID,
		Kind:     KindQuote,
		Interval: interval,
		Lines:    lines,
		Prefix:   prefix,
		World:    world,
		NextFire: now.Add(interval),
	}
	s.nextPID++
	s.procs = append(s.procs, p)
	return p
}

// Remove kills a process by pid.
func (s *Scheduler) Remove(pid int) bool {
	for i, p := range s.procs {
		if p.PID == pid {
			s.procs = append(s.procs[:i], s.procs[i+1:]...)
			return true
		}
	}
	return false
}

// KillAll empties the process table.
func (s *Scheduler) KillAll() { s.procs = nil }

// Len returns the number of live processes.
func (s *Scheduler) Len() int { return len(s.procs) }

// All returns the processes ordered by pid.
func (s *Scheduler) All() []*Proc {
	out := make([]*Proc, len(s.procs))
	copy(out, s.procs)
	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out
}

// NextWakeup returns the earliest fire time, or false when no process is
// scheduled.
func (s *Scheduler) NextWakeup() (time.Time, bool) {
	if len(s.procs) == 0 {
		return time.Time{}, false
	}
	earliest := s.procs[0].NextFire
	for _, p := range s.procs[1:] {
		if p.NextFire.Before(earliest) {
			earliest = p.NextFire
		}
	}
	return earliest, true
}

// Fire is one due process invocation.
type Fire struct {
	PID   int
	World string
	// Body is the script to run (repeat) or line to send (quote).
	Body string
	// Send distinguishes quote fires (send text) from repeat fires
	// (run script).
	Send bool
}

// TakeDue collects every invocation due at now, advances fire times, and
// removes exhausted processes.
func (s *Scheduler) TakeDue(now time.Time) []Fire {
	var fires []Fire
	survivors := s.procs[:0]
	for _, p := range s.procs {
		for !p.Done() && !p.NextFire.After(now) {
			switch p.Kind {
			case KindRepeat:
				fires = append(fires, Fire{PID: p.PID, World: p.World, Body: p.Body})
				if p.RunsLeft != nil {
					*p.RunsLeft--
				}
			case KindQuote:
				fires = append(fires, Fire{
					PID:   p.PID,
					World: p.World,
					Body:  p.Prefix + p.Lines[0],
					Send:  true,
				})
				p.Lines = p.Lines[1:]
			}
			p.NextFire = p.NextFire.Add(p.Interval)
			if p.Interval <= 0 {
				// Zero-interval processes drain completely in one tick;
				// guard the loop for infinite repeats.
				if p.RunsLeft == nil && p.Kind == KindRepeat {
					p.NextFire = now.Add(time.Millisecond)
				}
			}
		}
		if !p.Done() {
			survivors = append(survivors, p)
		}
	}
	s.procs = survivors
	return fires
}
