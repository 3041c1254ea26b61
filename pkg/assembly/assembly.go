// Package assembly drives the step-by-step installation view: parts whose
// step has been reached render solid, the rest render as ghosts.
package assembly

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
)

// Stepped is the slice of a part instance the filter consumes.
type Stepped interface {
	ID() string
	Step() int
	SetGhost(on bool) error
}

// Apply shows parts installed at or before current as solid and ghosts the
// rest. It returns the number of solid parts. Errors from individual parts
// are collected and do not stop the pass.
func Apply(current int, parts []Stepped) (int, error) {
	solid := 0
	var errs []error
	for _, p := range parts {
		on := p.Step() > current
		if !on {
			solid++
		}
		if err := p.SetGhost(on); err != nil {
			errs = append(errs, fmt.Errorf("assembly: %s: %w", p.ID(), err))
		}
	}
	if len(errs) > 0 {
		return solid, errs[0]
	}
	return solid, nil
}

// Timeline walks the distinct installation steps of a model.
type Timeline struct {
	steps   []int
	ids     map[int][]string
	total   int
	current int
}

// Entry is the id/step pair a timeline is built from.
type Entry struct {
	ID   string
	Step int
}

// NewTimeline indexes entries by step. The timeline starts at step 0.
func NewTimeline(entries []Entry) *Timeline {
	steps := lo.Uniq(lo.Map(entries, func(e Entry, _ int) int { return e.Step }))
	sort.Ints(steps)
	ids := lo.GroupBy(entries, func(e Entry) int { return e.Step })
	t := &Timeline{
		steps: steps,
		ids:   make(map[int][]string, len(ids)),
		total: len(entries),
	}
	for step, es := range ids {
		t.ids[step] = lo.Map(es, func(e Entry, _ int) string { return e.ID })
	}
	return t
}

// EntriesOf adapts a slice of Stepped parts.
func EntriesOf(parts []Stepped) []Entry {
	return lo.Map(parts, func(p Stepped, _ int) Entry { return Entry{ID: p.ID(), Step: p.Step()} })
}

func (t *Timeline) Current() int { return t.current }
func (t *Timeline) Steps() []int { return append([]int(nil), t.steps...) }

// Max returns the last installation step, or 0 for an empty timeline.
func (t *Timeline) Max() int {
	if len(t.steps) == 0 {
		return 0
	}
	return t.steps[len(t.steps)-1]
}

// Seek jumps to n, clamped to [0, Max].
func (t *Timeline) Seek(n int) int {
	t.current = lo.Clamp(n, 0, t.Max())
	return t.current
}

// Next advances to the next step that installs something.
func (t *Timeline) Next() int {
	for _, s := range t.steps {
		if s > t.current {
			t.current = s
			return s
		}
	}
	return t.current
}

// Prev goes back to the previous step that installs something, or 0.
func (t *Timeline) Prev() int {
	prev := 0
	for _, s := range t.steps {
		if s >= t.current {
			break
		}
		prev = s
	}
	t.current = prev
	return prev
}

// Label names the current position for display.
func (t *Timeline) Label() string {
	switch {
	case t.current <= 0:
		return "start"
	case t.current >= t.Max():
		return "finished"
	default:
		return fmt.Sprintf("step %d", t.current)
	}
}

// Progress returns the percentage of parts installed at the current step.
func (t *Timeline) Progress() int {
	if t.total == 0 {
		return 0
	}
	done := 0
	for step, ids := range t.ids {
		if step <= t.current {
			done += len(ids)
		}
	}
	return done * 100 / t.total
}

// AtCurrent returns the ids installed exactly at the current step.
func (t *Timeline) AtCurrent() []string {
	return append([]string(nil), t.ids[t.current]...)
}
