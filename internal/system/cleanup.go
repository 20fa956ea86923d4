package system

import (
	"time"

	coresys "github.com/scenekit/outliner/internal/core/system"
	"github.com/scenekit/outliner/internal/scene"
)

// CleanupSystem flushes the deferred entity destruction queue at tick end.
// Phase 5 (Cleanup).
type CleanupSystem struct {
	world *scene.World
}

func NewCleanupSystem(world *scene.World) *CleanupSystem {
	return &CleanupSystem{world: world}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	s.world.FlushDestroyed()
}
