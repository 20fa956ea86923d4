package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// App holds the global flags shared by every command.
type App struct {
	ConfigPath string
	Scene      string
	Filter     string
	Flat       bool
	Sort       string
}

func newRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "outliner",
		Short:        "Browse and rearrange the entities of a scene",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Print the outliner for a scene
  outliner show --scene scenes/harbor.yaml

  # Only rows matching "lamp", folders kept as context
  outliner show --filter lamp

  # Attach Cup to Table
  outliner move Cup --to Table

  # Move a folder under another one
  outliner move Lights/ --to Environment/
`),
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", envOr("OUTLINER_CONFIG", ""), "Path to the TOML config file")
	cmd.PersistentFlags().StringVar(&app.Scene, "scene", "", "Scene YAML file (overrides [editor] scene)")
	cmd.PersistentFlags().StringVar(&app.Filter, "filter", "", "Text filter (overrides [outliner] filter_text)")
	cmd.PersistentFlags().BoolVar(&app.Flat, "flat", false, "Group by folder only, ignoring attachments")
	cmd.PersistentFlags().StringVar(&app.Sort, "sort", "", "Sort column and direction, e.g. class:desc")

	cmd.AddCommand(newShowCmd(app))
	cmd.AddCommand(newMoveCmd(app))
	cmd.AddCommand(newRenameFolderCmd(app))
	cmd.AddCommand(newFoldersCmd(app))
	cmd.AddCommand(newHistoryCmd(app))
	cmd.AddCommand(newRunCmd(app))

	return cmd
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
