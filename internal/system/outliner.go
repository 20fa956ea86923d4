package system

import (
	"time"

	coresys "github.com/scenekit/outliner/internal/core/system"
	"github.com/scenekit/outliner/internal/outliner"
)

// OutlinerSystem applies the outliner's queued world changes once per tick.
// Phase 2 (Sync).
type OutlinerSystem struct {
	views []*outliner.Outliner
}

func NewOutlinerSystem(views ...*outliner.Outliner) *OutlinerSystem {
	return &OutlinerSystem{views: views}
}

func (s *OutlinerSystem) Phase() coresys.Phase { return coresys.PhaseSync }

func (s *OutlinerSystem) Update(_ time.Duration) {
	for _, o := range s.views {
		o.Refresh()
	}
}

// SortSystem advances the throttled re-sort timer of each outliner.
// Phase 3 (Sort).
type SortSystem struct {
	views []*outliner.Outliner
}

func NewSortSystem(views ...*outliner.Outliner) *SortSystem {
	return &SortSystem{views: views}
}

func (s *SortSystem) Phase() coresys.Phase { return coresys.PhaseSort }

func (s *SortSystem) Update(dt time.Duration) {
	for _, o := range s.views {
		o.TickSort(dt)
	}
}
