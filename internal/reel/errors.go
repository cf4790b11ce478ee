package reel

import (
	"errors"
	"fmt"
)

// Domain errors for reel operations.
var (
	// ErrInvalidArgument indicates a bad key frame count, scale or frame count.
	ErrInvalidArgument = errors.New("reel: invalid argument")

	// ErrDecode indicates the animation could not be opened or seeked.
	ErrDecode = errors.New("reel: cannot decode animation")

	// ErrRender indicates the renderer failed or did not produce its output.
	ErrRender = errors.New("reel: render failed")

	// ErrEmptySequence indicates an attempt to play zero frames.
	ErrEmptySequence = errors.New("reel: empty frame sequence")

	// ErrMissingFrame indicates the first frame of a namespace is absent.
	ErrMissingFrame = errors.New("reel: missing frame")
)

// Stage names the pipeline stage that produced an error.
type Stage string

const (
	StageSampling  Stage = "sampling"
	StageRendering Stage = "rendering"
	StagePlayback  Stage = "playback"
)

// FrameError wraps an error with the stage, frame index and path
// involved. Index is -1 when the failure is not tied to a frame.
type FrameError struct {
	Stage Stage
	Index int
	Path  string
	Err   error
}

func (e *FrameError) Error() string {
	switch {
	case e.Index < 0 && e.Path == "":
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	case e.Index < 0:
		return fmt.Sprintf("%s %s: %v", e.Stage, e.Path, e.Err)
	case e.Path == "":
		return fmt.Sprintf("%s frame %d: %v", e.Stage, e.Index, e.Err)
	}
	return fmt.Sprintf("%s frame %d (%s): %v", e.Stage, e.Index, e.Path, e.Err)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// Errorf returns a FrameError whose cause wraps kind. The format and
// args describe the underlying cause and may themselves wrap an error
// with %w.
func Errorf(stage Stage, index int, path string, kind error, format string, args ...any) error {
	cause := fmt.Errorf(format, args...)
	return &FrameError{
		Stage: stage,
		Index: index,
		Path:  path,
		Err:   fmt.Errorf("%w: %w", kind, cause),
	}
}

// FailedIndex returns the frame index carried by err, if any.
func FailedIndex(err error) (int, bool) {
	var fe *FrameError
	if errors.As(err, &fe) && fe.Index >= 0 {
		return fe.Index, true
	}
	return -1, false
}
