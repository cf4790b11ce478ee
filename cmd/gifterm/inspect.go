package main

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/gifterm/internal/player"
	"github.com/san-kum/gifterm/internal/viz"
)

var sgr = regexp.MustCompile("\x1b\\[[0-9;]*m")

// frameStats describes the visible text of a frame.
type frameStats struct {
	Rows, Cols int
	// Ink is the fraction of visible cells that are not blank.
	Ink float64
}

func measure(frame string) frameStats {
	plain := sgr.ReplaceAllString(frame, "")
	lines := strings.Split(strings.TrimRight(plain, "\n"), "\n")

	var st frameStats
	var cells, ink int
	for _, line := range lines {
		n := 0
		for _, r := range line {
			n++
			if !unicode.IsSpace(r) {
				ink++
			}
		}
		cells += n
		st.Cols = max(st.Cols, n)
	}
	if plain != "" {
		st.Rows = len(lines)
	}
	if cells > 0 {
		st.Ink = float64(ink) / float64(cells)
	}
	return st
}

func inspectNamespace(cmd *cobra.Command, args []string) error {
	frames, err := player.LoadDir(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	density := make([]float64, len(frames))
	var rows, cols int
	for i, f := range frames {
		st := measure(f)
		density[i] = st.Ink
		rows = max(rows, st.Rows)
		cols = max(cols, st.Cols)
	}

	fmt.Fprintln(out, viz.HeaderStyle.Render(args[0]))
	fmt.Fprintln(out, viz.Label("frames", fmt.Sprint(len(frames))))
	fmt.Fprintln(out, viz.Label("size", fmt.Sprintf("%dx%d", cols, rows)))
	fmt.Fprintln(out, viz.Label("density", viz.Sparkline(density)))
	fmt.Fprintln(out)

	data := density
	if len(data) == 1 {
		data = []float64{data[0], data[0]}
	}
	graph := asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("ink density per frame"),
	)
	fmt.Fprintln(out, graph)
	return nil
}
