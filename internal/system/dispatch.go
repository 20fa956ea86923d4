package system

import (
	"time"

	"github.com/scenekit/outliner/internal/core/event"
	coresys "github.com/scenekit/outliner/internal/core/system"
	"go.uber.org/zap"
)

// DispatchSystem delivers world notifications queued since the last tick.
// Handlers may emit follow-up notifications; those are delivered in later
// rounds of the same tick, up to maxRounds. Phase 1 (Dispatch).
type DispatchSystem struct {
	bus       *event.Bus
	maxRounds int
	log       *zap.Logger
}

func NewDispatchSystem(bus *event.Bus, maxRounds int, log *zap.Logger) *DispatchSystem {
	if maxRounds <= 0 {
		maxRounds = 4
	}
	return &DispatchSystem{bus: bus, maxRounds: maxRounds, log: log}
}

func (s *DispatchSystem) Phase() coresys.Phase { return coresys.PhaseDispatch }

func (s *DispatchSystem) Update(_ time.Duration) {
	s.bus.Flush(s.maxRounds)
	if n := s.bus.Pending(); n > 0 {
		s.log.Warn("notifications left after dispatch", zap.Int("pending", n), zap.Int("rounds", s.maxRounds))
	}
}
