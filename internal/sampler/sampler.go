package sampler

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/san-kum/gifterm/internal/reel"
)

// Indices returns the animation frame indices sampled for k key frames
// from an animation of total frames.
func Indices(total, k int) ([]int, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: key frame count must be positive, got %d", reel.ErrInvalidArgument, k)
	}
	if total <= 0 {
		return nil, fmt.Errorf("%w: frame count must be positive, got %d", reel.ErrInvalidArgument, total)
	}
	stride := total / k
	idx := make([]int, k)
	for i := range idx {
		idx[i] = stride * i
	}
	return idx, nil
}

// RasterName returns the file name of the raster for key frame i.
func RasterName(i int) string {
	return fmt.Sprintf("%d-temp.png", i)
}

// Sample extracts k key frames from src into dir, creating dir if needed,
// and returns the rasters in key frame order. On error, rasters already
// written are removed.
func Sample(ctx context.Context, src reel.AnimationSource, k int, dir string) ([]reel.RasterFrame, error) {
	idx, err := Indices(src.FrameCount(), k)
	if err != nil {
		return nil, &reel.FrameError{Stage: reel.StageSampling, Index: -1, Path: src.Path(), Err: err}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &reel.FrameError{Stage: reel.StageSampling, Index: -1, Path: dir, Err: err}
	}

	frames := make([]reel.RasterFrame, 0, k)
	for i, f := range idx {
		if err := ctx.Err(); err != nil {
			Cleanup(frames)
			return nil, err
		}
		img, err := src.Frame(f)
		if err != nil {
			Cleanup(frames)
			return nil, &reel.FrameError{Stage: reel.StageSampling, Index: i, Path: src.Path(), Err: err}
		}
		path := filepath.Join(dir, RasterName(i))
		if err := writePNG(path, img); err != nil {
			Cleanup(frames)
			return nil, &reel.FrameError{Stage: reel.StageSampling, Index: i, Path: path, Err: err}
		}
		frames = append(frames, reel.RasterFrame{Index: i, Path: path})
	}
	return frames, nil
}

// SampleFile opens the animation at path, samples it into dir and closes
// it again.
func SampleFile(ctx context.Context, path string, k int, dir string) ([]reel.RasterFrame, error) {
	src, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return Sample(ctx, src, k, dir)
}

// Cleanup removes the raster files of frames, ignoring errors.
func Cleanup(frames []reel.RasterFrame) {
	for _, f := range frames {
		os.Remove(f.Path)
	}
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	err = png.Encode(f, img)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
	}
	return err
}
