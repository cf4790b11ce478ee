// Package ascii renders raster images as text art using a luminance ramp,
// optionally annotated with ANSI colour escapes.
package ascii

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strings"

	"golang.org/x/image/draw"
)

// ramp orders characters from densest to sparsest.
const ramp = "$@B%8&WM#*oahkbdpqwmZO0QLCJUYXzcvunxrjft/\\|()1{}[]?-_+~<>i!lI;:,\"^`'. "

const reset = "\x1b[0m"

// ColorMode selects how characters are coloured.
type ColorMode int

const (
	// NoColor emits plain characters.
	NoColor ColorMode = iota
	// ClosestColor emits the nearest of the 16 standard ANSI colours.
	ClosestColor
	// TrueColor emits 24-bit colour escapes.
	TrueColor
)

func (m ColorMode) String() string {
	switch m {
	case NoColor:
		return "none"
	case ClosestColor:
		return "closest"
	case TrueColor:
		return "true"
	default:
		return fmt.Sprintf("colormode(%d)", int(m))
	}
}

// ParseColorMode returns the ColorMode named by s.
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return NoColor, nil
	case "closest", "ansi":
		return ClosestColor, nil
	case "true", "truecolor":
		return TrueColor, nil
	}
	return 0, fmt.Errorf("unknown colour mode %q", s)
}

// Options controls rendering.
type Options struct {
	// Scale multiplies the image height in rows. Columns are doubled
	// to compensate for the aspect ratio of terminal cells.
	Scale float64
	// Stretch further multiplies the number of columns.
	Stretch int
	Color   ColorMode
}

// DefaultOptions returns the renderer defaults.
func DefaultOptions() Options {
	return Options{Scale: 0.5, Stretch: 1}
}

var (
	ErrBadScale   = errors.New("ascii: scale and stretch must be above 0")
	ErrEmptyImage = errors.New("ascii: scaled image is empty")
)

// Size returns the number of columns and rows img is rendered into.
func (o Options) Size(img image.Image) (cols, rows int, err error) {
	if !(o.Scale > 0) || o.Stretch <= 0 {
		return 0, 0, ErrBadScale
	}
	b := img.Bounds()
	rows = int(math.Floor(float64(b.Dy()) * o.Scale))
	cols = int(math.Floor(float64(b.Dx()) * o.Scale * 2 * float64(o.Stretch)))
	if rows <= 0 || cols <= 0 {
		return cols, rows, ErrEmptyImage
	}
	return cols, rows, nil
}

// Render returns the text art for img. Each row is terminated by a
// newline.
func Render(img image.Image, o Options) (string, error) {
	cols, rows, err := o.Size(img)
	if err != nil {
		return "", err
	}
	dst := image.NewRGBA(image.Rect(0, 0, cols, rows))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	var b strings.Builder
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			i := dst.PixOffset(x, y)
			p := dst.Pix[i : i+4 : i+4]
			c := rgba{r: p[0], g: p[1], b: p[2], a: p[3]}
			ch := ramp[char(c)]
			switch o.Color {
			case TrueColor:
				fmt.Fprintf(&b, "\x1b[38;2;%d;%d;%dm%c%s", c.r, c.g, c.b, ch, reset)
			case ClosestColor:
				b.WriteString(closest(c))
				b.WriteByte(ch)
				b.WriteString(reset)
			default:
				b.WriteByte(ch)
			}
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}

type rgba struct {
	r, g, b, a uint8
}

// luminance returns the perceived brightness of c. Fully transparent
// pixels are black.
func luminance(c rgba) uint8 {
	if c.a == 0 {
		return 0
	}
	return uint8((299*int(c.r) + 587*int(c.g) + 114*int(c.b)) / 1000)
}

// char returns the ramp position for c; bright pixels map to dense
// characters.
func char(c rgba) int {
	const levels = 70
	bright := int(math.Floor(float64(luminance(c)) / 255 * levels))
	pos := len(ramp) - bright
	if pos >= len(ramp) {
		pos = len(ramp) - 1
	}
	return pos
}
