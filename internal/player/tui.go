package player

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/gifterm/internal/reel"
	"github.com/san-kum/gifterm/internal/viz"
)

// PlayTUI plays frames in a full-screen terminal UI. It visits frames in
// the same order and at the same interval as Play, and returns when the
// user quits or ctx is done.
func PlayTUI(ctx context.Context, frames []string, interval time.Duration, title string) error {
	if len(frames) == 0 {
		return &reel.FrameError{Stage: reel.StagePlayback, Index: -1, Err: reel.ErrEmptySequence}
	}
	if interval <= 0 {
		interval = reel.DefaultInterval
	}
	m := viz.NewModel(frames, interval, title)
	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
