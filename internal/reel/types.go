package reel

import (
	"fmt"
	"image"
	"strings"
	"time"
)

const (
	// DefaultKeyFrames is the number of key frames sampled when none is given.
	DefaultKeyFrames = 10

	// DefaultInterval is the fixed delay between played frames.
	DefaultInterval = 250 * time.Millisecond
)

// AnimationSource is an open animated image. Frame may be called with
// non-decreasing indices; implementations may be more expensive when
// asked to seek backwards.
type AnimationSource interface {
	FrameCount() int
	Frame(i int) (image.Image, error)
	Path() string
	Close() error
}

// SampleSpec describes how a source is reduced to key frames.
type SampleSpec struct {
	KeyFrames int
	Scale     float64
	Namespace string
}

// Validate reports whether the spec can be sampled and rendered.
func (s SampleSpec) Validate() error {
	if s.KeyFrames <= 0 {
		return fmt.Errorf("%w: key frame count must be positive, got %d", ErrInvalidArgument, s.KeyFrames)
	}
	if !(s.Scale > 0) {
		return fmt.Errorf("%w: scale must be positive, got %v", ErrInvalidArgument, s.Scale)
	}
	if s.Namespace == "" {
		return fmt.Errorf("%w: empty namespace", ErrInvalidArgument)
	}
	return nil
}

// RasterFrame is an extracted still image waiting to be rendered.
type RasterFrame struct {
	Index int
	Path  string
}

// TextFrame is the rendered text art for one key frame. Persisted frames
// carry the Path of their text file, captured frames carry Content.
type TextFrame struct {
	Index        int
	Content      string
	Path         string
	ColorEncoded bool
}

// Mode selects where rendered text is kept.
type Mode int

const (
	// Persisted writes each frame to {namespace}/{index}.txt.
	Persisted Mode = iota
	// Captured holds each frame in memory.
	Captured
)

func (m Mode) String() string {
	switch m {
	case Persisted:
		return "persisted"
	case Captured:
		return "captured"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode returns the Mode named by s.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "persisted", "disk":
		return Persisted, nil
	case "captured", "memory":
		return Captured, nil
	}
	return 0, fmt.Errorf("%w: unknown mode %q", ErrInvalidArgument, s)
}

// Contents returns the content of frames in slice order.
func Contents(frames []TextFrame) []string {
	s := make([]string, len(frames))
	for i, f := range frames {
		s[i] = f.Content
	}
	return s
}

// CheckCoverage reports whether frames cover exactly 0..n-1 in order.
func CheckCoverage(frames []TextFrame, n int) error {
	if len(frames) != n {
		return fmt.Errorf("%w: have %d frames, want %d", ErrInvalidArgument, len(frames), n)
	}
	for i, f := range frames {
		if f.Index != i {
			return fmt.Errorf("%w: frame at position %d has index %d", ErrInvalidArgument, i, f.Index)
		}
	}
	return nil
}
