package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/scenekit/outliner/internal/outliner"
	"github.com/scenekit/outliner/internal/system"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errQuit = errors.New("quit")

func newRunCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Keep the editor loop running and read commands from stdin",
		Long: strings.TrimSpace(`
Commands, one per line:
  show                      print the tree
  filter TEXT               set the text filter
  select ITEM...            select items (empty clears)
  move ITEM... -> TARGET    drop items onto TARGET
  rename OLD NEW            rename a folder
  sort COLUMN[:DIR]         change the sort column
  simulate on|off           throttle root re-sorts
  quit
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEditor(cmd.Context(), app)
			if err != nil {
				return err
			}
			defer e.close()
			return e.loop(cmd.Context(), cmd.InOrStdin(), newPrinter(cmd.OutOrStdout()))
		},
	}
}

// loop ticks the runner at the configured rate. Lines from in become
// commands run on this goroutine during the input phase.
func (e *editor) loop(ctx context.Context, in io.Reader, p *printer) error {
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(shutdownCh)

	done := make(chan struct{})
	defer close(done)
	lines := readLines(in, done)

	ticker := time.NewTicker(e.cfg.Editor.TickRate)
	defer ticker.Stop()

	prompt := false
	if f, ok := in.(*os.File); ok {
		prompt = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	draw := func() {
		e.print(p, true)
		if prompt {
			fmt.Fprint(p.out, "> ")
		}
	}

	draw()
	redraw, quit := false, false
	for {
		select {
		case <-ticker.C:
			e.runner.Tick(e.cfg.Editor.TickRate)
			if redraw {
				redraw = false
				draw()
			}
			if quit {
				return nil
			}
		case line, ok := <-lines:
			if !ok {
				lines = nil
				quit = true
				continue
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if !e.queue.Submit(system.Command{Name: line, Run: func() error {
				err := e.exec(ctx, line, p)
				switch {
				case errors.Is(err, errQuit):
					quit = true
					return nil
				case err != nil:
					fmt.Fprintln(p.out, "error:", err)
					return err
				}
				redraw = true
				return nil
			}}) {
				e.log.Warn("command queue full", zap.String("command", line))
			}
		case sig := <-shutdownCh:
			e.log.Info("shutdown signal", zap.String("signal", sig.String()), zap.Uint64("ticks", e.runner.Ticks()))
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// readLines scans in on its own goroutine. The reader stops once done is
// closed, even with unread input left.
func readLines(in io.Reader, done <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
	}()
	return lines
}

// exec runs one command line on the editor goroutine.
func (e *editor) exec(ctx context.Context, line string, p *printer) error {
	verb, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	switch verb {
	case "show":
		return nil
	case "quit", "exit":
		return errQuit
	case "filter":
		e.view.SetFilterText(rest)
		return nil
	case "select":
		keys, err := parseKeys(e.world, strings.Fields(rest))
		if err != nil {
			return err
		}
		e.view.SetTreeSelection(keys)
		return nil
	case "move":
		items, target, ok := strings.Cut(rest, "->")
		if !ok {
			return errors.New("usage: move ITEM... -> TARGET")
		}
		msg, err := e.move(ctx, strings.Fields(items), strings.TrimSpace(target), false)
		if msg != "" {
			fmt.Fprintln(p.out, msg)
		}
		return err
	case "rename":
		args := strings.Fields(rest)
		if len(args) != 2 {
			return errors.New("usage: rename OLD NEW")
		}
		return e.renameFolder(ctx, args[0], args[1])
	case "sort":
		col, dirText, _ := strings.Cut(rest, ":")
		dir, ok := outliner.ParseDirection(dirText)
		if !ok {
			return fmt.Errorf("unknown sort direction %q", dirText)
		}
		return e.view.SetSort(col, dir)
	case "simulate":
		e.view.SetSimulating(rest == "on")
		return nil
	}
	return fmt.Errorf("unknown command %q", verb)
}
