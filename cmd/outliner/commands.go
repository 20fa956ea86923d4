package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/scenekit/outliner/internal/outliner"
	"github.com/scenekit/outliner/internal/persist"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newShowCmd(app *App) *cobra.Command {
	var collapsed bool
	var selectRefs []string
	var selectMatches bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the outliner tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEditor(cmd.Context(), app)
			if err != nil {
				return err
			}
			defer e.close()

			if len(selectRefs) > 0 {
				keys, err := parseKeys(e.world, selectRefs)
				if err != nil {
					return err
				}
				e.view.SetTreeSelection(keys)
				e.settle()
			}
			if selectMatches {
				n := e.view.SelectFilterMatches()
				e.settle()
				e.log.Debug("selected filter matches", zap.Int("entities", n))
			}

			p := newPrinter(cmd.OutOrStdout())
			e.print(p, !collapsed)
			return nil
		},
	}
	cmd.Flags().BoolVar(&collapsed, "collapsed", false, "Only descend into expanded items")
	cmd.Flags().StringSliceVar(&selectRefs, "select", nil, "Items to select before printing")
	cmd.Flags().BoolVar(&selectMatches, "select-matches", false, "Select every entity matching the filter")
	return cmd
}

func newMoveCmd(app *App) *cobra.Command {
	var to string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "move ITEM... --to TARGET",
		Short: "Drop items onto an entity, a folder (trailing /) or the root (/)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEditor(cmd.Context(), app)
			if err != nil {
				return err
			}
			defer e.close()

			msg, err := e.move(cmd.Context(), args, to, dryRun)
			if msg != "" {
				fmt.Fprintln(cmd.OutOrStdout(), msg)
			}
			if err != nil || dryRun {
				return err
			}
			e.settle()
			e.print(newPrinter(cmd.OutOrStdout()), true)
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "/", "Drop target")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only report what the drop would do")
	return cmd
}

func newRenameFolderCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rename-folder OLD NEW",
		Short: "Rename a folder and everything filed under it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEditor(cmd.Context(), app)
			if err != nil {
				return err
			}
			defer e.close()

			if err := e.renameFolder(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			e.settle()
			newPrinter(cmd.OutOrStdout()).folders(e.world.Folders().Paths())
			return nil
		},
	}
}

func newFoldersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folders",
		Short: "List, create or delete folders",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEditor(cmd.Context(), app)
			if err != nil {
				return err
			}
			defer e.close()
			newPrinter(cmd.OutOrStdout()).folders(e.world.Folders().Paths())
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create PATH",
		Short: "Create a folder and its missing ancestors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEditor(cmd.Context(), app)
			if err != nil {
				return err
			}
			defer e.close()
			for _, p := range e.world.Folders().Create(args[0]) {
				fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", p)
			}
			e.settle()
			return nil
		},
	})

	var cascade bool
	del := &cobra.Command{
		Use:   "delete PATH",
		Short: "Delete a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEditor(cmd.Context(), app)
			if err != nil {
				return err
			}
			defer e.close()
			if err := e.world.Folders().Delete(args[0], cascade); err != nil {
				return err
			}
			e.settle()
			newPrinter(cmd.OutOrStdout()).folders(e.world.Folders().Paths())
			return nil
		},
	}
	del.Flags().BoolVar(&cascade, "cascade", false, "Also delete sub-folders, moving their entities up")
	cmd.AddCommand(del)
	return cmd
}

func newHistoryCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent edits recorded in the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEditor(cmd.Context(), app)
			if err != nil {
				return err
			}
			defer e.close()
			if e.journal == nil {
				return errors.New("history needs [database] dsn")
			}
			rows, err := e.journal.Recent(cmd.Context(), e.world.Name(), limit)
			if err != nil {
				return err
			}
			tbl := uitable.New()
			tbl.Separator = "  "
			tbl.MaxColWidth = 60
			tbl.AddRow("WHEN", "ACTION", "TARGET", "ITEMS", "MESSAGE")
			for _, r := range rows {
				tbl.AddRow(r.CreatedAt.Format("2006-01-02 15:04:05"), r.Action, r.Target, r.Items, r.Message)
			}
			tbl.RightAlign(3)
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), tbl)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of entries")
	return cmd
}

// print writes the tree and the filter status line.
func (e *editor) print(p *printer, expandAll bool) {
	if expandAll {
		e.view.ExpandAll()
		p.tree(e.view.VisibleTree())
	} else {
		e.view.Visit(func(r outliner.Row) {
			fmt.Fprintln(p.out, p.line(r))
		})
	}
	p.statusLine(e.view.FilterStatus())
}

// move validates and, unless dryRun, applies a drop. The returned message
// is the validation text shown to the user. The caller settles the view.
func (e *editor) move(ctx context.Context, refs []string, to string, dryRun bool) (string, error) {
	keys, err := parseKeys(e.world, refs)
	if err != nil {
		return "", err
	}
	target, err := parseKey(e.world, to)
	if err != nil {
		return "", err
	}
	v := e.view.ValidateMove(keys, target)
	if !v.Accepted() {
		return v.Message, v.Err()
	}
	if dryRun {
		return v.Message, nil
	}
	if err := e.view.RequestMove(keys, target); err != nil {
		return v.Message, err
	}
	e.record(ctx, persist.JournalEntry{
		Action:  v.Kind.String(),
		Target:  target.String(),
		Items:   len(v.Entities) + len(v.Folders),
		Message: v.Message,
	})
	return v.Message, nil
}

func (e *editor) renameFolder(ctx context.Context, oldPath, newPath string) error {
	oldPath, newPath = strings.TrimSuffix(oldPath, "/"), strings.TrimSuffix(newPath, "/")
	if err := e.world.Folders().Rename(oldPath, newPath); err != nil {
		return err
	}
	e.record(ctx, persist.JournalEntry{
		Action:  "rename-folder",
		Target:  newPath,
		Items:   1,
		Message: fmt.Sprintf("Rename %s to %s", oldPath, newPath),
	})
	return nil
}
