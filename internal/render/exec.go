package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/san-kum/gifterm/internal/reel"
)

// TextArtRenderer turns a raster image into text art.
type TextArtRenderer interface {
	// RenderToFile renders the image at in into the file out.
	RenderToFile(ctx context.Context, in, out string, scale float64) error
	// RenderToStream renders the image at in with colour annotations
	// and returns the text.
	RenderToStream(ctx context.Context, in string, scale float64) ([]byte, error)
}

// DefaultBinary is the base name of the renderer program.
const DefaultBinary = "ascii"

// ExecutableName returns name with the executable suffix of goos.
func ExecutableName(name, goos string) string {
	if goos == "windows" && !strings.EqualFold(filepath.Ext(name), ".exe") {
		return name + ".exe"
	}
	return name
}

// ResolveBinary returns the path of the renderer program called name.
// A name containing a path separator is used as given, with the host
// executable suffix added. Otherwise a program in the working directory
// is preferred, then one found on PATH.
func ResolveBinary(name string) (string, error) {
	if name == "" {
		name = DefaultBinary
	}
	exe := ExecutableName(name, runtime.GOOS)
	if strings.ContainsAny(name, `/\`) {
		return exe, nil
	}
	local := "." + string(filepath.Separator) + exe
	if fi, err := os.Stat(local); err == nil && !fi.IsDir() {
		return local, nil
	}
	path, err := exec.LookPath(exe)
	if err != nil {
		return "", fmt.Errorf("%w: renderer %q not found: %w", reel.ErrRender, exe, err)
	}
	return path, nil
}

// Exec is a TextArtRenderer that runs an external program.
type Exec struct {
	// Path is the renderer program.
	Path string
	// Args are passed before the per-frame arguments.
	Args []string
	// StreamFlags follow the per-frame arguments of stream renders only,
	// so colour options never reach persisted text.
	StreamFlags []string
	// Env, when non-nil, is the environment of the program.
	Env []string
}

// NewExec returns an Exec for the renderer program called name.
func NewExec(name string) (*Exec, error) {
	path, err := ResolveBinary(name)
	if err != nil {
		return nil, err
	}
	return &Exec{Path: path}, nil
}

// FileArgs returns the per-frame arguments of a file render.
func FileArgs(in, out string, scale float64) []string {
	return []string{"--in", in, "--scale", formatScale(scale), "--out", out}
}

// StreamArgs returns the per-frame arguments of a stream render.
func StreamArgs(in string, scale float64) []string {
	return []string{"--in", in, "--scale", formatScale(scale), "--print", "--colour"}
}

func formatScale(scale float64) string {
	return strconv.FormatFloat(scale, 'f', -1, 64)
}

func (e *Exec) RenderToFile(ctx context.Context, in, out string, scale float64) error {
	_, err := e.run(ctx, FileArgs(in, out, scale))
	return err
}

func (e *Exec) RenderToStream(ctx context.Context, in string, scale float64) ([]byte, error) {
	return e.run(ctx, append(StreamArgs(in, scale), e.StreamFlags...))
}

func (e *Exec) run(ctx context.Context, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, e.Path, append(e.Args[:len(e.Args):len(e.Args)], args...)...)
	if e.Env != nil {
		cmd.Env = e.Env
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		msg := lastLine(stderr.String())
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && msg != "" {
			return nil, fmt.Errorf("%w: %v: %s", reel.ErrRender, err, msg)
		}
		return nil, fmt.Errorf("%w: %w", reel.ErrRender, err)
	}
	return stdout.Bytes(), nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return s
}
