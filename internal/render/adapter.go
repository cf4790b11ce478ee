package render

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/san-kum/gifterm/internal/reel"
	"github.com/san-kum/gifterm/internal/storage"
)

// Adapter renders rasters with a TextArtRenderer in a fixed mode.
type Adapter struct {
	Renderer TextArtRenderer
	Mode     reel.Mode
	// Workers bounds the number of concurrent renders. Values below
	// two render sequentially.
	Workers int
	Logger  *slog.Logger
	// Progress, when set, is called by RenderAll after each frame is
	// rendered with the number of frames done so far. Calls are
	// serialized.
	Progress func(done, total int)
}

func (a *Adapter) log() *slog.Logger {
	if a.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.Logger
}

// Render renders a single raster. In persisted mode the text is written
// to dir; dir is ignored in captured mode. The raster is removed once
// its text frame exists.
func (a *Adapter) Render(ctx context.Context, f reel.RasterFrame, scale float64, dir string) (reel.TextFrame, error) {
	if !(scale > 0) {
		return reel.TextFrame{}, reel.Errorf(reel.StageRendering, f.Index, f.Path, reel.ErrInvalidArgument, "scale must be positive, got %v", scale)
	}
	start := time.Now()
	var (
		tf  reel.TextFrame
		err error
	)
	switch a.Mode {
	case reel.Persisted:
		tf, err = a.persist(ctx, f, scale, dir)
	case reel.Captured:
		tf, err = a.capture(ctx, f, scale)
	default:
		return reel.TextFrame{}, reel.Errorf(reel.StageRendering, f.Index, f.Path, reel.ErrInvalidArgument, "unknown mode %v", a.Mode)
	}
	if err != nil {
		return reel.TextFrame{}, err
	}
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		a.log().Warn("remove raster", slog.Int("index", f.Index), slog.String("path", f.Path), slog.Any("error", err))
	}
	a.log().Debug("rendered frame", slog.Int("index", f.Index), slog.String("mode", a.Mode.String()), slog.Duration("elapsed", time.Since(start)))
	return tf, nil
}

func (a *Adapter) persist(ctx context.Context, f reel.RasterFrame, scale float64, dir string) (reel.TextFrame, error) {
	out := storage.FramePath(dir, f.Index)
	// A stale file must not pass for the renderer's output.
	if err := os.Remove(out); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return reel.TextFrame{}, reel.Errorf(reel.StageRendering, f.Index, out, reel.ErrRender, "remove stale output: %w", err)
	}
	err := a.Renderer.RenderToFile(ctx, f.Path, out, scale)
	if err != nil {
		return reel.TextFrame{}, wrap(f.Index, out, err)
	}
	fi, err := os.Stat(out)
	if err != nil || fi.IsDir() {
		return reel.TextFrame{}, reel.Errorf(reel.StageRendering, f.Index, out, reel.ErrRender, "renderer exited without writing output")
	}
	return reel.TextFrame{Index: f.Index, Path: out}, nil
}

func (a *Adapter) capture(ctx context.Context, f reel.RasterFrame, scale float64) (reel.TextFrame, error) {
	b, err := a.Renderer.RenderToStream(ctx, f.Path, scale)
	if err != nil {
		return reel.TextFrame{}, wrap(f.Index, f.Path, err)
	}
	return reel.TextFrame{Index: f.Index, Content: string(b), ColorEncoded: true}, nil
}

func wrap(index int, path string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if !errors.Is(err, reel.ErrRender) {
		err = fmt.Errorf("%w: %w", reel.ErrRender, err)
	}
	return &reel.FrameError{Stage: reel.StageRendering, Index: index, Path: path, Err: err}
}

// RenderAll renders frames, which must be indexed 0..len(frames)-1 in
// order, and returns the text frames in the same order. Rendering stops
// at the first failure. Rasters of frames that were not rendered are
// removed, and in persisted mode so are text frames from the failing
// index on, leaving only the complete prefix on disk.
func (a *Adapter) RenderAll(ctx context.Context, frames []reel.RasterFrame, scale float64, dir string) ([]reel.TextFrame, error) {
	for i, f := range frames {
		if f.Index != i {
			return nil, reel.Errorf(reel.StageRendering, f.Index, f.Path, reel.ErrInvalidArgument, "raster at position %d has index %d", i, f.Index)
		}
	}
	done := make([]bool, len(frames))
	var (
		mu    sync.Mutex
		count int
	)
	out, failed, err := reel.ForEachOrdered(ctx, len(frames), a.Workers, func(ctx context.Context, i int) (reel.TextFrame, error) {
		tf, err := a.Render(ctx, frames[i], scale, dir)
		if err != nil {
			return tf, err
		}
		done[i] = true
		if a.Progress != nil {
			mu.Lock()
			count++
			a.Progress(count, len(frames))
			mu.Unlock()
		}
		return tf, nil
	})
	if err == nil {
		return out, nil
	}

	for i, f := range frames {
		if !done[i] {
			os.Remove(f.Path)
		}
	}
	if a.Mode == reel.Persisted && failed >= 0 {
		if rerr := storage.RemoveFrom(dir, failed, len(frames)); rerr != nil {
			a.log().Warn("remove frames after failure", slog.Int("index", failed), slog.Any("error", rerr))
		}
	}
	a.log().Error("render failed", slog.Int("index", failed), slog.Any("error", err))
	return nil, err
}
