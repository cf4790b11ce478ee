package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/san-kum/gifterm/internal/reel"
	"github.com/san-kum/gifterm/internal/storage"
)

// fakeRenderer renders "text N" for raster N-temp.png.
type fakeRenderer struct {
	mu      sync.Mutex
	calls   []int
	failAt  int
	noWrite bool
	// before is called with the frame index before rendering.
	before func(i int)
}

func rasterIndex(path string) int {
	i, err := strconv.Atoi(strings.TrimSuffix(filepath.Base(path), "-temp.png"))
	if err != nil {
		panic(err)
	}
	return i
}

func (r *fakeRenderer) render(in string) (int, error) {
	i := rasterIndex(in)
	r.mu.Lock()
	r.calls = append(r.calls, i)
	r.mu.Unlock()
	if r.before != nil {
		r.before(i)
	}
	if i == r.failAt {
		return i, errors.New("exit status 1")
	}
	return i, nil
}

func (r *fakeRenderer) RenderToFile(_ context.Context, in, out string, scale float64) error {
	i, err := r.render(in)
	if err != nil {
		return err
	}
	if r.noWrite {
		return nil
	}
	return os.WriteFile(out, []byte(fmt.Sprintf("text %d @%v", i, scale)), 0644)
}

func (r *fakeRenderer) RenderToStream(_ context.Context, in string, scale float64) ([]byte, error) {
	i, err := r.render(in)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("\x1b[31mtext %d @%v\x1b[0m", i, scale)), nil
}

func makeRasters(t *testing.T, dir string, n int) []reel.RasterFrame {
	t.Helper()
	frames := make([]reel.RasterFrame, n)
	for i := range frames {
		path := filepath.Join(dir, fmt.Sprintf("%d-temp.png", i))
		if err := os.WriteFile(path, []byte("png"), 0644); err != nil {
			t.Fatal(err)
		}
		frames[i] = reel.RasterFrame{Index: i, Path: path}
	}
	return frames
}

func assertNoRasters(t *testing.T, frames []reel.RasterFrame) {
	t.Helper()
	for _, f := range frames {
		if _, err := os.Stat(f.Path); !os.IsNotExist(err) {
			t.Errorf("raster %d still exists: %v", f.Index, err)
		}
	}
}

func TestRenderAllPersisted(t *testing.T) {
	dir := t.TempDir()
	rasters := makeRasters(t, dir, 10)
	r := &fakeRenderer{failAt: -1}
	a := &Adapter{Renderer: r, Mode: reel.Persisted}

	frames, err := a.RenderAll(context.Background(), rasters, 0.25, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := reel.CheckCoverage(frames, 10); err != nil {
		t.Errorf("unexpected coverage: %v", err)
	}
	for i, f := range frames {
		if f.Path != storage.FramePath(dir, i) {
			t.Errorf("frame %d path = %q", i, f.Path)
		}
		if f.ColorEncoded {
			t.Errorf("frame %d unexpectedly colour encoded", i)
		}
	}
	assertNoRasters(t, rasters)

	got, err := storage.LoadFrames(dir)
	if err != nil {
		t.Fatalf("unexpected error loading frames: %v", err)
	}
	if len(got) != 10 || got[7] != "text 7 @0.25" {
		t.Errorf("unexpected persisted frames: %q", got)
	}
}

func TestRenderAllPersistedFailure(t *testing.T) {
	dir := t.TempDir()
	rasters := makeRasters(t, dir, 10)
	r := &fakeRenderer{failAt: 3}
	a := &Adapter{Renderer: r, Mode: reel.Persisted}

	_, err := a.RenderAll(context.Background(), rasters, 0.25, dir)
	if !errors.Is(err, reel.ErrRender) {
		t.Fatalf("expected ErrRender, got %v", err)
	}
	if idx, ok := reel.FailedIndex(err); !ok || idx != 3 {
		t.Errorf("expected failure at index 3, got %d", idx)
	}
	if !strings.Contains(err.Error(), "rendering frame 3") {
		t.Errorf("expected stage and index in message, got %q", err)
	}

	// Frames after the failure are never attempted.
	if diff := cmp.Diff([]int{0, 1, 2, 3}, r.calls); diff != "" {
		t.Errorf("unexpected render calls (-want +got):\n%s", diff)
	}
	for i := 0; i < 10; i++ {
		_, err := os.Stat(storage.FramePath(dir, i))
		if exists := err == nil; exists != (i < 3) {
			t.Errorf("frame %d: exists = %t", i, exists)
		}
	}
	assertNoRasters(t, rasters)
}

func TestRenderAllPersistedParallelFailure(t *testing.T) {
	dir := t.TempDir()
	rasters := makeRasters(t, dir, 10)

	var prefix sync.WaitGroup
	prefix.Add(3)
	r := &fakeRenderer{failAt: 3}
	r.before = func(i int) {
		switch {
		case i < 3:
			defer prefix.Done()
		case i == 3:
			prefix.Wait()
		}
	}
	a := &Adapter{Renderer: r, Mode: reel.Persisted, Workers: 4}

	_, err := a.RenderAll(context.Background(), rasters, 0.25, dir)
	if !errors.Is(err, reel.ErrRender) {
		t.Fatalf("expected ErrRender, got %v", err)
	}
	if idx, _ := reel.FailedIndex(err); idx != 3 {
		t.Errorf("expected failure at index 3, got %d", idx)
	}
	got, err := storage.LoadFrames(dir)
	if err != nil {
		t.Fatalf("unexpected error loading frames: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("expected 3 surviving frames, got %d", len(got))
	}
	for i := 3; i < 10; i++ {
		if _, err := os.Stat(storage.FramePath(dir, i)); err == nil {
			t.Errorf("frame %d should have been discarded", i)
		}
	}
	assertNoRasters(t, rasters)
}

func TestRenderPersistedMissingOutput(t *testing.T) {
	dir := t.TempDir()
	rasters := makeRasters(t, dir, 1)
	a := &Adapter{Renderer: &fakeRenderer{failAt: -1, noWrite: true}, Mode: reel.Persisted}

	_, err := a.Render(context.Background(), rasters[0], 0.25, dir)
	if !errors.Is(err, reel.ErrRender) {
		t.Fatalf("expected ErrRender, got %v", err)
	}
	// The raster is kept when its text frame does not exist.
	if _, err := os.Stat(rasters[0].Path); err != nil {
		t.Errorf("expected raster to remain: %v", err)
	}
}

func TestRenderPersistedStaleOutput(t *testing.T) {
	dir := t.TempDir()
	rasters := makeRasters(t, dir, 1)
	out := storage.FramePath(dir, 0)
	if err := os.WriteFile(out, []byte("from an earlier run"), 0644); err != nil {
		t.Fatal(err)
	}
	a := &Adapter{Renderer: &fakeRenderer{failAt: -1, noWrite: true}, Mode: reel.Persisted}

	_, err := a.Render(context.Background(), rasters[0], 0.25, dir)
	if !errors.Is(err, reel.ErrRender) {
		t.Fatalf("expected ErrRender, got %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("stale output survived: %v", err)
	}
}

func TestRenderPersistedOverwrites(t *testing.T) {
	dir := t.TempDir()
	rasters := makeRasters(t, dir, 1)
	out := storage.FramePath(dir, 0)
	if err := os.WriteFile(out, []byte("from an earlier run"), 0644); err != nil {
		t.Fatal(err)
	}
	a := &Adapter{Renderer: &fakeRenderer{failAt: -1}, Mode: reel.Persisted}

	if _, err := a.Render(context.Background(), rasters[0], 0.5, dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(data); got != "text 0 @0.5" {
		t.Errorf("frame content = %q", got)
	}
}

func TestRenderAllProgress(t *testing.T) {
	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			dir := t.TempDir()
			rasters := makeRasters(t, dir, 8)
			var got []int
			a := &Adapter{
				Renderer: &fakeRenderer{failAt: -1},
				Mode:     reel.Captured,
				Workers:  workers,
				Progress: func(done, total int) {
					if total != 8 {
						t.Errorf("total = %d, want 8", total)
					}
					got = append(got, done)
				},
			}
			if _, err := a.RenderAll(context.Background(), rasters, 1, ""); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			want := []int{1, 2, 3, 4, 5, 6, 7, 8}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("progress calls (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRenderAllCaptured(t *testing.T) {
	dir := t.TempDir()
	rasters := makeRasters(t, dir, 6)
	a := &Adapter{Renderer: &fakeRenderer{failAt: -1}, Mode: reel.Captured}

	frames, err := a.RenderAll(context.Background(), rasters, 0.5, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := make([]string, 6)
	for i := range want {
		want[i] = fmt.Sprintf("\x1b[31mtext %d @0.5\x1b[0m", i)
	}
	if diff := cmp.Diff(want, reel.Contents(frames)); diff != "" {
		t.Errorf("unexpected content (-want +got):\n%s", diff)
	}
	for _, f := range frames {
		if !f.ColorEncoded {
			t.Errorf("frame %d not marked colour encoded", f.Index)
		}
		if f.Path != "" {
			t.Errorf("captured frame %d has path %q", f.Index, f.Path)
		}
	}
	assertNoRasters(t, rasters)
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("captured mode left %d files behind", len(entries))
	}
}

func TestRenderAllCapturedParallelOrder(t *testing.T) {
	dir := t.TempDir()
	rasters := makeRasters(t, dir, 12)
	r := &fakeRenderer{failAt: -1}
	// Later frames finish first.
	r.before = func(i int) { time.Sleep(time.Duration(12-i) * time.Millisecond) }
	a := &Adapter{Renderer: r, Mode: reel.Captured, Workers: 6}

	frames, err := a.RenderAll(context.Background(), rasters, 1, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := reel.CheckCoverage(frames, 12); err != nil {
		t.Errorf("unexpected coverage: %v", err)
	}
	for i, f := range frames {
		if want := fmt.Sprintf("\x1b[31mtext %d @1\x1b[0m", i); f.Content != want {
			t.Errorf("frame %d content = %q, want %q", i, f.Content, want)
		}
	}
}

func TestRenderAllCapturedFailure(t *testing.T) {
	dir := t.TempDir()
	rasters := makeRasters(t, dir, 5)
	a := &Adapter{Renderer: &fakeRenderer{failAt: 0}, Mode: reel.Captured}

	frames, err := a.RenderAll(context.Background(), rasters, 1, "")
	if !errors.Is(err, reel.ErrRender) {
		t.Fatalf("expected ErrRender, got %v", err)
	}
	if frames != nil {
		t.Errorf("expected no frames on failure, got %d", len(frames))
	}
	assertNoRasters(t, rasters)
}

func TestRenderInvalid(t *testing.T) {
	dir := t.TempDir()
	rasters := makeRasters(t, dir, 3)
	a := &Adapter{Renderer: &fakeRenderer{failAt: -1}, Mode: reel.Persisted}

	if _, err := a.Render(context.Background(), rasters[0], 0, dir); !errors.Is(err, reel.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for zero scale, got %v", err)
	}

	rasters[1].Index = 2
	if _, err := a.RenderAll(context.Background(), rasters, 1, dir); !errors.Is(err, reel.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for misindexed rasters, got %v", err)
	}
}

func TestRenderAllExecPersisted(t *testing.T) {
	dir := t.TempDir()
	rasters := makeRasters(t, dir, 4)
	a := &Adapter{Renderer: helperExec(), Mode: reel.Persisted}

	if _, err := a.RenderAll(context.Background(), rasters, 0.25, dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first, err := storage.LoadFrames(dir)
	if err != nil {
		t.Fatalf("unexpected error loading frames: %v", err)
	}

	// An independent second run yields identical text.
	again := t.TempDir()
	rasters = makeRasters(t, again, 4)
	if _, err := a.RenderAll(context.Background(), rasters, 0.25, again); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := storage.LoadFrames(again)
	if err != nil {
		t.Fatalf("unexpected error loading frames: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("runs differ (-first +second):\n%s", diff)
	}
}

func TestRenderAllExecFailure(t *testing.T) {
	dir := t.TempDir()
	rasters := makeRasters(t, dir, 10)
	a := &Adapter{Renderer: helperExec("HELPER_FAIL=,3-temp.png,"), Mode: reel.Persisted}

	_, err := a.RenderAll(context.Background(), rasters, 0.25, dir)
	if !errors.Is(err, reel.ErrRender) {
		t.Fatalf("expected ErrRender, got %v", err)
	}
	if idx, _ := reel.FailedIndex(err); idx != 3 {
		t.Errorf("expected failure at index 3, got %d", idx)
	}
	got, err := storage.LoadFrames(dir)
	if err != nil {
		t.Fatalf("unexpected error loading frames: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("expected frames 0-2 to remain, got %d", len(got))
	}
}
