package system

import (
	"context"
	"time"

	coresys "github.com/scenekit/outliner/internal/core/system"
	"go.uber.org/zap"
)

// FolderSource is the folder registry being saved.
type FolderSource interface {
	Paths() []string
	Revision() uint64
}

// FolderStore persists one world's folder set.
type FolderStore interface {
	Save(ctx context.Context, world string, paths []string) error
}

// PersistenceSystem periodically saves the world's folder registry when it
// changed since the last successful save. Phase 4 (Persist).
type PersistenceSystem struct {
	world     string
	folders   FolderSource
	store     FolderStore
	log       *zap.Logger
	tickCount int
	interval  int // save every N ticks
	saved     uint64
	hasSaved  bool
}

func NewPersistenceSystem(world string, folders FolderSource, store FolderStore, log *zap.Logger, intervalTicks int) *PersistenceSystem {
	if intervalTicks <= 0 {
		intervalTicks = 1
	}
	return &PersistenceSystem{
		world:    world,
		folders:  folders,
		store:    store,
		log:      log,
		interval: intervalTicks,
	}
}

// MarkSaved records the current registry state as already stored, e.g. right
// after restoring it from the store.
func (s *PersistenceSystem) MarkSaved() {
	s.saved = s.folders.Revision()
	s.hasSaved = true
}

// Dirty reports whether the registry changed since the last save.
func (s *PersistenceSystem) Dirty() bool {
	return !s.hasSaved || s.folders.Revision() != s.saved
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	s.save(true)
}

// SaveNow persists the folder set immediately, ignoring the dirty check.
// Called on shutdown.
func (s *PersistenceSystem) SaveNow() error {
	return s.save(false)
}

func (s *PersistenceSystem) save(dirtyOnly bool) error {
	if dirtyOnly && !s.Dirty() {
		return nil // nothing changed since the last save
	}
	rev := s.folders.Revision()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	paths := s.folders.Paths()
	if err := s.store.Save(ctx, s.world, paths); err != nil {
		s.log.Error("save folders failed", zap.String("world", s.world), zap.Error(err))
		return err
	}
	s.saved, s.hasSaved = rev, true
	s.log.Debug("folders saved", zap.String("world", s.world), zap.Int("paths", len(paths)))
	return nil
}
