package system

import (
	"slices"
	"time"
)

// Runner executes systems grouped by phase. Phases run in ascending order,
// systems within a phase in registration order.
type Runner struct {
	phases  []Phase
	byPhase map[Phase][]System
	ticks   uint64
}

func NewRunner() *Runner {
	return &Runner{
		byPhase: make(map[Phase][]System, int(PhaseCleanup)+1),
	}
}

func (r *Runner) Register(s System) {
	p := s.Phase()
	if _, ok := r.byPhase[p]; !ok {
		i, _ := slices.BinarySearch(r.phases, p)
		r.phases = slices.Insert(r.phases, i, p)
	}
	r.byPhase[p] = append(r.byPhase[p], s)
}

// Tick runs every phase once.
func (r *Runner) Tick(dt time.Duration) {
	r.ticks++
	for _, p := range r.phases {
		r.TickPhase(p, dt)
	}
}

// TickPhase runs only the systems of one phase. It does not count as a tick.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	for _, s := range r.byPhase[phase] {
		s.Update(dt)
	}
}

// Ticks is the number of full ticks run so far.
func (r *Runner) Ticks() uint64 { return r.ticks }

// Phases lists the phases that have at least one system, in run order.
func (r *Runner) Phases() []Phase { return slices.Clone(r.phases) }
