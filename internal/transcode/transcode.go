// Package transcode runs the sampling and rendering stages for a source
// animation in either persisted or captured mode.
package transcode

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/san-kum/gifterm/internal/reel"
	"github.com/san-kum/gifterm/internal/render"
	"github.com/san-kum/gifterm/internal/sampler"
	"github.com/san-kum/gifterm/internal/storage"
)

// Transcoder turns source animations into text frames.
type Transcoder struct {
	Store    *storage.Store
	Renderer render.TextArtRenderer
	Workers  int
	Logger   *slog.Logger
	// Now stamps manifests; time.Now when nil.
	Now func() time.Time
	// Progress is handed to the render adapter.
	Progress func(done, total int)
}

// Result describes a finished transcode.
type Result struct {
	Namespace string
	// Dir is the namespace directory; empty for captured runs.
	Dir    string
	Frames []reel.TextFrame
}

// Contents returns the text of captured frames in index order.
func (r *Result) Contents() []string {
	return reel.Contents(r.Frames)
}

func (t *Transcoder) log() *slog.Logger {
	if t.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return t.Logger
}

func (t *Transcoder) now() time.Time {
	if t.Now == nil {
		return time.Now()
	}
	return t.Now()
}

// Spec returns the sample spec for source, deriving its namespace.
func Spec(source string, scale float64, keyFrames int) reel.SampleSpec {
	return reel.SampleSpec{KeyFrames: keyFrames, Scale: scale, Namespace: storage.DeriveNamespace(source)}
}

// Run transcodes source in the given mode.
func (t *Transcoder) Run(ctx context.Context, source string, spec reel.SampleSpec, mode reel.Mode) (*Result, error) {
	switch mode {
	case reel.Persisted:
		return t.Persist(ctx, source, spec)
	case reel.Captured:
		return t.Capture(ctx, source, spec)
	}
	return nil, reel.Errorf(reel.StageSampling, -1, source, reel.ErrInvalidArgument, "unknown mode %v", mode)
}

// Persist samples source into its namespace directory, renders every key
// frame to {i}.txt next to it and records a manifest. Frames and the
// manifest left by an earlier run are removed first. Rasters are removed
// as their text frames are written.
func (t *Transcoder) Persist(ctx context.Context, source string, spec reel.SampleSpec) (*Result, error) {
	if err := spec.Validate(); err != nil {
		return nil, &reel.FrameError{Stage: reel.StageSampling, Index: -1, Path: source, Err: err}
	}
	dir, err := t.Store.Create(spec.Namespace)
	if err != nil {
		return nil, err
	}
	log := t.log().With(slog.String("namespace", spec.Namespace), slog.String("mode", reel.Persisted.String()))

	// Frames of an earlier run would extend the sequence past K.
	if err := t.Store.Clear(spec.Namespace); err != nil {
		return nil, err
	}

	rasters, err := sampler.SampleFile(ctx, source, spec.KeyFrames, dir)
	if err != nil {
		log.Error("sampling failed", slog.Any("error", err))
		return nil, err
	}
	log.Debug("sampled", slog.Int("frames", len(rasters)), slog.String("dir", dir))

	a := &render.Adapter{Renderer: t.Renderer, Mode: reel.Persisted, Workers: t.Workers, Logger: log, Progress: t.Progress}
	frames, err := a.RenderAll(ctx, rasters, spec.Scale, dir)
	if err != nil {
		return nil, err
	}
	if err := reel.CheckCoverage(frames, spec.KeyFrames); err != nil {
		return nil, err
	}

	m := storage.Manifest{
		Namespace: spec.Namespace,
		Source:    source,
		Scale:     spec.Scale,
		KeyFrames: spec.KeyFrames,
		Created:   t.now().UTC(),
	}
	if err := t.Store.SaveManifest(m); err != nil {
		return nil, err
	}
	log.Info("transcoded", slog.String("dir", dir), slog.Int("frames", len(frames)))
	return &Result{Namespace: spec.Namespace, Dir: dir, Frames: frames}, nil
}

// Capture samples source into a private temporary directory and renders
// every key frame in memory. The directory is removed before returning.
func (t *Transcoder) Capture(ctx context.Context, source string, spec reel.SampleSpec) (*Result, error) {
	if err := spec.Validate(); err != nil {
		return nil, &reel.FrameError{Stage: reel.StageSampling, Index: -1, Path: source, Err: err}
	}
	tmp, err := os.MkdirTemp("", "gifterm-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmp)
	log := t.log().With(slog.String("namespace", spec.Namespace), slog.String("mode", reel.Captured.String()))

	rasters, err := sampler.SampleFile(ctx, source, spec.KeyFrames, tmp)
	if err != nil {
		log.Error("sampling failed", slog.Any("error", err))
		return nil, err
	}
	log.Debug("sampled", slog.Int("frames", len(rasters)), slog.String("dir", tmp))

	a := &render.Adapter{Renderer: t.Renderer, Mode: reel.Captured, Workers: t.Workers, Logger: log, Progress: t.Progress}
	frames, err := a.RenderAll(ctx, rasters, spec.Scale, "")
	if err != nil {
		return nil, err
	}
	if err := reel.CheckCoverage(frames, spec.KeyFrames); err != nil {
		return nil, err
	}
	log.Info("captured", slog.Int("frames", len(frames)))
	return &Result{Namespace: spec.Namespace, Frames: frames}, nil
}
