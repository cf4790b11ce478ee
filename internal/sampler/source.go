package sampler

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"golang.org/x/image/draw"

	"github.com/san-kum/gifterm/internal/reel"
)

// Open opens the image at path as an animation source. GIF data is
// decoded as an animation; any other registered image format is treated
// as a single-frame animation.
func Open(path string) (reel.AnimationSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, reel.Errorf(reel.StageSampling, -1, path, reel.ErrDecode, "%w", err)
	}
	defer f.Close()

	r := asReadPeeker(f)
	if isGIF(r) {
		g, err := gif.DecodeAll(r)
		if err != nil {
			return nil, reel.Errorf(reel.StageSampling, -1, path, reel.ErrDecode, "%w", err)
		}
		return NewGIF(path, g)
	}
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, reel.Errorf(reel.StageSampling, -1, path, reel.ErrDecode, "%w", err)
	}
	return &Still{path: path, img: img}, nil
}

// readPeeker is an io.Reader that can also peek n bytes ahead.
type readPeeker interface {
	io.Reader
	Peek(n int) ([]byte, error)
}

func asReadPeeker(r io.Reader) readPeeker {
	if r, ok := r.(readPeeker); ok {
		return r
	}
	return bufio.NewReader(r)
}

// isGIF returns whether the data held by r is a GIF image.
func isGIF(r readPeeker) bool {
	const magic = "GIF8?a"
	b, err := r.Peek(len(magic))
	if err != nil || len(b) != len(magic) {
		return false
	}
	for i, c := range b {
		if magic[i] != c && magic[i] != '?' {
			return false
		}
	}
	return true
}

// Still is a single image presented as a one-frame animation.
type Still struct {
	path string
	img  image.Image
}

func (s *Still) FrameCount() int { return 1 }
func (s *Still) Path() string    { return s.path }
func (s *Still) Close() error    { return nil }

func (s *Still) Frame(i int) (image.Image, error) {
	if i != 0 {
		return nil, fmt.Errorf("%w: cannot seek still image to frame %d", reel.ErrDecode, i)
	}
	return s.img, nil
}

// GIF is an animated GIF source. Frames are composited onto a canvas
// following each frame's disposal method, so every returned image is a
// complete picture rather than a partial update.
//
// GIF values are not safe for concurrent use.
type GIF struct {
	path string
	g    *gif.GIF

	canvas     *image.RGBA
	background image.Image
	// next is the index of the next frame to be drawn onto canvas.
	next int
	// pending holds the disposal to apply before drawing frame next.
	pending func()
}

const (
	restoreBackground = 2
	restorePrevious   = 3
)

// NewGIF returns a source over a decoded GIF. The delay and disposal
// slices and the global background index are checked for validity.
func NewGIF(path string, g *gif.GIF) (*GIF, error) {
	if len(g.Image) == 0 {
		return nil, reel.Errorf(reel.StageSampling, -1, path, reel.ErrDecode, "no frames")
	}
	if len(g.Image) != len(g.Delay) && g.Delay != nil {
		return nil, reel.Errorf(reel.StageSampling, -1, path, reel.ErrDecode, "mismatched image count and delay count: %d != %d", len(g.Image), len(g.Delay))
	}
	if len(g.Image) != len(g.Disposal) && g.Disposal != nil {
		return nil, reel.Errorf(reel.StageSampling, -1, path, reel.ErrDecode, "mismatched image count and disposal count: %d != %d", len(g.Image), len(g.Disposal))
	}
	pal, ok := g.Config.ColorModel.(color.Palette)
	// A GIF without a global colour table decodes to an empty palette.
	if idx := int(g.BackgroundIndex); ok && len(pal) > 0 && idx >= len(pal) {
		return nil, reel.Errorf(reel.StageSampling, -1, path, reel.ErrDecode, "global background colour index not in palette: %d", idx)
	}

	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		bounds = g.Image[0].Bounds()
		for _, frame := range g.Image[1:] {
			bounds = bounds.Union(frame.Bounds())
		}
	}
	return &GIF{
		path:       path,
		g:          g,
		canvas:     image.NewRGBA(bounds),
		background: image.Transparent,
	}, nil
}

func (img *GIF) FrameCount() int { return len(img.g.Image) }
func (img *GIF) Path() string    { return img.path }
func (img *GIF) Close() error    { return nil }

// Frame returns a copy of the composited canvas after frame i has been
// drawn. Seeking backwards restarts composition from the first frame.
func (img *GIF) Frame(i int) (image.Image, error) {
	if i < 0 || i >= len(img.g.Image) {
		return nil, fmt.Errorf("%w: cannot seek to frame %d of %d", reel.ErrDecode, i, len(img.g.Image))
	}
	if i < img.next-1 {
		img.reset()
	}
	for img.next <= i {
		img.draw(img.next)
		img.next++
	}

	out := image.NewRGBA(img.canvas.Bounds())
	draw.Copy(out, out.Bounds().Min, img.canvas, img.canvas.Bounds(), draw.Src, nil)
	return out, nil
}

func (img *GIF) reset() {
	draw.Copy(img.canvas, img.canvas.Bounds().Min, image.Transparent, img.canvas.Bounds(), draw.Src, nil)
	img.next = 0
	img.pending = nil
}

func (img *GIF) draw(f int) {
	if img.pending != nil {
		img.pending()
		img.pending = nil
	}

	frame := img.g.Image[f]
	var restore *image.RGBA
	if img.g.Disposal != nil && img.g.Disposal[f] == restorePrevious {
		restore = image.NewRGBA(frame.Bounds())
		draw.Copy(restore, restore.Bounds().Min, img.canvas, frame.Bounds(), draw.Src, nil)
	}
	draw.Copy(img.canvas, frame.Bounds().Min, frame, frame.Bounds(), draw.Over, nil)

	if img.g.Disposal == nil {
		return
	}
	// Disposal takes effect before the following frame is drawn.
	switch img.g.Disposal[f] {
	case restoreBackground:
		b := frame.Bounds()
		img.pending = func() {
			draw.Copy(img.canvas, b.Min, img.background, b, draw.Src, nil)
		}
	case restorePrevious:
		img.pending = func() {
			draw.Copy(img.canvas, restore.Bounds().Min, restore, restore.Bounds(), draw.Src, nil)
		}
	}
}

var _ reel.AnimationSource = (*GIF)(nil)
var _ reel.AnimationSource = (*Still)(nil)

func (img *GIF) String() string {
	return fmt.Sprintf("%s (%d frames, %v)", img.path, len(img.g.Image), img.canvas.Bounds().Size())
}
