// Package player replays text-art frames in a terminal as an endless loop.
package player

import (
	"context"
	"io"
	"iter"
	"log/slog"
	"time"

	"github.com/san-kum/gifterm/internal/reel"
	"github.com/san-kum/gifterm/internal/storage"
)

const (
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// Cycle returns an endless sequence of (cursor, frame) pairs visiting
// frames in order and wrapping to the start. It yields nothing when
// frames is empty.
func Cycle(frames []string) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		if len(frames) == 0 {
			return
		}
		for cursor := 0; ; cursor = (cursor + 1) % len(frames) {
			if !yield(cursor, frames[cursor]) {
				return
			}
		}
	}
}

// Player writes frames to Out at a fixed interval.
type Player struct {
	Out      io.Writer
	Interval time.Duration
	Logger   *slog.Logger
}

// New returns a Player writing to out with the default interval.
func New(out io.Writer) *Player {
	return &Player{Out: out, Interval: reel.DefaultInterval}
}

func (p *Player) log() *slog.Logger {
	if p.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.Logger
}

// Play clears the terminal, prints the frame under the cursor, sleeps
// for the interval and advances, forever. The context is checked once
// per frame before clearing; Play returns its error when it is done.
// An empty sequence fails with ErrEmptySequence before anything is
// written.
func (p *Player) Play(ctx context.Context, frames []string) error {
	if len(frames) == 0 {
		return &reel.FrameError{Stage: reel.StagePlayback, Index: -1, Err: reel.ErrEmptySequence}
	}
	interval := p.Interval
	if interval <= 0 {
		interval = reel.DefaultInterval
	}
	p.log().Debug("start playback", slog.Int("frames", len(frames)), slog.Duration("interval", interval))

	io.WriteString(p.Out, hideCursor)
	defer io.WriteString(p.Out, showCursor)

	timer := time.NewTimer(interval)
	timer.Stop()
	defer timer.Stop()
	for _, frame := range Cycle(frames) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := io.WriteString(p.Out, clearScreen+frame+"\n"); err != nil {
			return &reel.FrameError{Stage: reel.StagePlayback, Index: -1, Err: err}
		}
		timer.Reset(interval)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}

// View loads the frames persisted in dir and plays them.
func (p *Player) View(ctx context.Context, dir string) error {
	frames, err := LoadDir(dir)
	if err != nil {
		return err
	}
	p.log().Info("loaded frames", slog.String("dir", dir), slog.Int("frames", len(frames)))
	return p.Play(ctx, frames)
}

// LoadDir reads the frame sequence persisted in dir, stopping at the
// first missing index. It fails with ErrMissingFrame when frame 0 is
// absent.
func LoadDir(dir string) ([]string, error) {
	return storage.LoadFrames(dir)
}
