package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/scenekit/outliner/internal/folder"
	"github.com/scenekit/outliner/internal/outliner"
)

// printer writes outliner rows as an indented tree.
type printer struct {
	out      io.Writer
	folder   lipgloss.Style
	entity   lipgloss.Style
	class    lipgloss.Style
	dimmed   lipgloss.Style
	selected lipgloss.Style
	status   lipgloss.Style
}

func newPrinter(out io.Writer) *printer {
	r := lipgloss.NewRenderer(out)
	return &printer{
		out:      out,
		folder:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		entity:   r.NewStyle(),
		class:    r.NewStyle().Foreground(lipgloss.Color("8")),
		dimmed:   r.NewStyle().Faint(true),
		selected: r.NewStyle().Reverse(true),
		status:   r.NewStyle().Italic(true).Foreground(lipgloss.Color("8")),
	}
}

func (p *printer) tree(rows []outliner.Row) {
	for _, r := range rows {
		fmt.Fprintln(p.out, p.line(r))
		p.tree(r.Children)
	}
}

func (p *printer) line(r outliner.Row) string {
	indent := strings.Repeat("  ", r.Depth)
	var text string
	if r.Kind == outliner.KindFolder {
		text = p.folder.Render(r.Label + "/")
	} else {
		text = p.entity.Render(r.Label)
		if r.Class != "" {
			text += " " + p.class.Render("("+r.Class+")")
		}
	}
	switch {
	case r.FilteredOut:
		text = p.dimmed.Render(text)
	case r.Selected:
		text = p.selected.Render(text)
	}
	return indent + text
}

func (p *printer) statusLine(s string) {
	fmt.Fprintln(p.out, p.status.Render("-- "+s))
}

func (p *printer) folders(paths []string) {
	for _, path := range paths {
		indent := strings.Repeat("  ", folder.Depth(path)-1)
		fmt.Fprintln(p.out, indent+p.folder.Render(folder.Leaf(path)+"/"))
	}
}
