package system

import "time"

// Phase defines execution ordering within a single editor tick.
type Phase int

const (
	PhaseInput    Phase = iota // 0: run queued editor commands
	PhaseDispatch              // 1: deliver queued world notifications
	PhaseSync                  // 2: views apply queued changes
	PhaseSort                  // 3: throttled re-sorts
	PhasePersist               // 4: periodic saves
	PhaseCleanup               // 5: destroy queued entities
)

// System is the interface every tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
