package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/scenekit/outliner/internal/config"
	"github.com/scenekit/outliner/internal/core/event"
	coresys "github.com/scenekit/outliner/internal/core/system"
	"github.com/scenekit/outliner/internal/data"
	"github.com/scenekit/outliner/internal/outliner"
	"github.com/scenekit/outliner/internal/persist"
	"github.com/scenekit/outliner/internal/scene"
	"github.com/scenekit/outliner/internal/scripting"
	"github.com/scenekit/outliner/internal/system"
	"go.uber.org/zap"
)

// editor is one loaded world with its outliner and tick systems.
type editor struct {
	cfg     *config.Config
	log     *zap.Logger
	bus     *event.Bus
	world   *scene.World
	view    *outliner.Outliner
	scripts *scripting.Engine
	runner  *coresys.Runner
	queue   *system.CommandQueue

	db      *persist.DB
	journal *persist.JournalRepo
	saver   *system.PersistenceSystem
}

func (app *App) loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if app.ConfigPath != "" {
		var err error
		if cfg, err = config.Load(app.ConfigPath); err != nil {
			return nil, err
		}
	}
	if app.Scene != "" {
		cfg.Editor.Scene = app.Scene
	}
	if app.Filter != "" {
		cfg.Outliner.FilterText = app.Filter
	}
	if app.Flat {
		cfg.Outliner.ShowHierarchy = false
	}
	if app.Sort != "" {
		col, dir, _ := strings.Cut(app.Sort, ":")
		cfg.Outliner.SortColumn = col
		if dir != "" {
			cfg.Outliner.SortDirection = dir
		}
	}
	return cfg, nil
}

// openEditor builds the world, restores persisted folders, loads the scene
// and scripts, and settles the outliner.
func openEditor(ctx context.Context, app *App) (*editor, error) {
	cfg, err := app.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	e := &editor{cfg: cfg, log: log, bus: event.NewBus()}
	if err := e.open(ctx); err != nil {
		e.close()
		return nil, err
	}
	return e, nil
}

func (e *editor) open(ctx context.Context) error {
	cfg := e.cfg
	e.world = scene.NewWorld(cfg.Editor.World, e.bus, e.log)

	if cfg.Database.DSN != "" {
		if err := e.openDB(ctx); err != nil {
			return err
		}
	}

	if cfg.Editor.Scene != "" {
		sf, err := data.LoadScene(cfg.Editor.Scene)
		if err != nil {
			return err
		}
		if err := e.world.Load(sf); err != nil {
			return fmt.Errorf("load scene %s: %w", cfg.Editor.Scene, err)
		}
	}

	scripts, err := scripting.NewEngine(cfg.Editor.ScriptsDir, e.log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	e.scripts = scripts

	view, err := e.newView()
	if err != nil {
		return err
	}
	e.view = view

	e.queue = system.NewCommandQueue(64)
	e.runner = coresys.NewRunner()
	e.runner.Register(system.NewInputSystem(e.queue, 16, e.log))
	e.runner.Register(system.NewDispatchSystem(e.bus, 8, e.log))
	e.runner.Register(system.NewOutlinerSystem(e.view))
	e.runner.Register(system.NewSortSystem(e.view))
	if e.saver != nil {
		e.runner.Register(e.saver)
	}
	e.runner.Register(system.NewCleanupSystem(e.world))

	e.settle()
	return nil
}

func (e *editor) openDB(ctx context.Context) error {
	dbCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(dbCtx, e.cfg.Database, e.log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	e.db = db
	version, err := persist.RunMigrations(dbCtx, db.Pool)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	e.log.Debug("schema ready", zap.Int64("version", version))

	repo := persist.NewFolderRepo(db)
	paths, err := repo.Load(dbCtx, e.world.Name())
	if err != nil {
		return err
	}
	n := e.world.Folders().Restore(paths)
	e.log.Info("folders restored", zap.String("world", e.world.Name()), zap.Int("folders", n))

	e.journal = persist.NewJournalRepo(db)
	e.saver = system.NewPersistenceSystem(e.world.Name(), e.world.Folders(), repo, e.log, e.cfg.Editor.SaveEvery)
	e.saver.MarkSaved()
	return nil
}

func (e *editor) newView() (*outliner.Outliner, error) {
	oc := e.cfg.Outliner
	opts := outliner.Options{
		ShowHierarchy:  oc.ShowHierarchy,
		ResortInterval: oc.ResortInterval,
	}
	switch oc.Mode {
	case "", "browse":
		opts.Mode = outliner.ModeBrowse
	case "picker":
		opts.Mode = outliner.ModePicker
	default:
		return nil, fmt.Errorf("unknown outliner mode %q", oc.Mode)
	}
	dir, ok := outliner.ParseDirection(oc.SortDirection)
	if !ok {
		return nil, fmt.Errorf("unknown sort direction %q", oc.SortDirection)
	}

	view := outliner.New(e.world, e.world.Folders(), e.world.Selection(), e.bus, e.log, opts)
	for _, c := range e.scripts.Columns() {
		view.RegisterColumn(c)
	}
	if err := view.SetSort(oc.SortColumn, dir); err != nil {
		return nil, err
	}
	if oc.HideEphemeral {
		view.AddFilter(outliner.HideEphemeral())
	}
	if oc.OnlySelected {
		view.AddFilter(outliner.OnlySelected(e.world.Selection()))
	}
	for _, name := range oc.Filters {
		f := e.scripts.Filter(name)
		if f == nil {
			return nil, fmt.Errorf("no lua filter named %q", name)
		}
		view.AddFilter(f)
	}
	view.SetFilterText(oc.FilterText)
	view.SetSimulating(e.cfg.Editor.Simulating)
	return view, nil
}

// settle runs ticks until no notifications or refreshes are pending.
func (e *editor) settle() {
	for i := 0; i < 8; i++ {
		e.runner.Tick(0)
		if e.bus.Pending() == 0 && e.view.State() == outliner.Idle {
			return
		}
	}
	e.log.Warn("outliner did not settle",
		zap.Stringer("state", e.view.State()),
		zap.Uint64("ticks", e.runner.Ticks()),
	)
}

// record appends one journal entry when a database is configured.
func (e *editor) record(ctx context.Context, entry persist.JournalEntry) {
	if e.journal == nil {
		return
	}
	if err := e.journal.Append(ctx, e.world.Name(), []persist.JournalEntry{entry}); err != nil {
		e.log.Warn("journal append failed", zap.Error(err))
	}
}

func (e *editor) close() {
	if e.saver != nil && e.saver.Dirty() {
		if err := e.saver.SaveNow(); err != nil {
			e.log.Error("final folder save failed", zap.Error(err))
		}
	}
	if e.scripts != nil {
		e.scripts.Close()
	}
	if e.db != nil {
		e.db.Close()
	}
	_ = e.log.Sync()
}
