package player_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/gifterm/internal/player"
	"github.com/san-kum/gifterm/internal/reel"
)

const clearCode = "\033[2J\033[H"

// frameWriter records every frame written and cancels once limit frames
// have been seen.
type frameWriter struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	frames []string
	limit  int
	cancel context.CancelFunc
}

func (w *frameWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf.Write(p)
	if s, ok := strings.CutPrefix(string(p), clearCode); ok {
		w.frames = append(w.frames, strings.TrimSuffix(s, "\n"))
		if w.limit > 0 && len(w.frames) >= w.limit {
			w.cancel()
		}
	}
	return len(p), nil
}

func (w *frameWriter) Frames() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.frames...)
}

var _ = Describe("Cycle", func() {
	It("visits frames in order and wraps", func() {
		var cursors []int
		var frames []string
		for i, f := range player.Cycle([]string{"a", "b", "c"}) {
			cursors = append(cursors, i)
			frames = append(frames, f)
			if len(cursors) == 7 {
				break
			}
		}
		Expect(cursors).To(Equal([]int{0, 1, 2, 0, 1, 2, 0}))
		Expect(frames).To(Equal([]string{"a", "b", "c", "a", "b", "c", "a"}))
	})

	It("yields nothing for an empty sequence", func() {
		n := 0
		for range player.Cycle(nil) {
			n++
		}
		Expect(n).To(BeZero())
	})
})

var _ = Describe("Player", func() {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)

	BeforeEach(func() {
		ctx, cancel = context.WithCancel(context.Background())
		DeferCleanup(func() { cancel() })
	})

	It("prints frames cyclically, clearing before each one", func() {
		frames := []string{"F0", "F1", "F2"}
		w := &frameWriter{limit: 2 * len(frames), cancel: cancel}
		p := &player.Player{Out: w, Interval: time.Millisecond}

		err := p.Play(ctx, frames)
		Expect(err).To(MatchError(context.Canceled))
		Expect(w.Frames()).To(Equal([]string{"F0", "F1", "F2", "F0", "F1", "F2"}))
	})

	It("plays a single frame repeatedly", func() {
		w := &frameWriter{limit: 3, cancel: cancel}
		p := &player.Player{Out: w, Interval: time.Millisecond}

		Expect(p.Play(ctx, []string{"only"})).To(MatchError(context.Canceled))
		Expect(w.Frames()).To(Equal([]string{"only", "only", "only"}))
	})

	It("fails on an empty sequence without writing anything", func() {
		var buf bytes.Buffer
		p := &player.Player{Out: &buf, Interval: time.Millisecond}

		err := p.Play(ctx, nil)
		Expect(errors.Is(err, reel.ErrEmptySequence)).To(BeTrue())
		Expect(buf.Len()).To(BeZero())
	})

	It("stops immediately when the context is already done", func() {
		cancel()
		w := &frameWriter{cancel: cancel}
		p := &player.Player{Out: w, Interval: time.Hour}

		Expect(p.Play(ctx, []string{"x"})).To(MatchError(context.Canceled))
		Expect(w.Frames()).To(BeEmpty())
	})

	It("interrupts a sleep when cancelled", func() {
		w := &frameWriter{limit: 1, cancel: cancel}
		p := &player.Player{Out: w, Interval: time.Hour}

		done := make(chan error, 1)
		go func() { done <- p.Play(ctx, []string{"x", "y"}) }()
		Eventually(done).WithTimeout(time.Second).Should(Receive(MatchError(context.Canceled)))
		Expect(w.Frames()).To(Equal([]string{"x"}))
	})

	Context("viewing a directory", func() {
		var dir string

		BeforeEach(func() {
			dir = GinkgoT().TempDir()
		})

		write := func(name, content string) {
			Expect(os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644)).To(Succeed())
		}

		It("plays 0.txt..N-1.txt in order", func() {
			write("0.txt", "A")
			write("1.txt", "B")
			write("2.txt", "C")

			w := &frameWriter{limit: 6, cancel: cancel}
			p := &player.Player{Out: w, Interval: time.Millisecond}

			Expect(p.View(ctx, dir)).To(MatchError(context.Canceled))
			Expect(w.Frames()).To(Equal([]string{"A", "B", "C", "A", "B", "C"}))
		})

		It("stops loading at the first gap", func() {
			write("0.txt", "A")
			write("1.txt", "B")
			write("3.txt", "D")

			frames, err := player.LoadDir(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(frames).To(Equal([]string{"A", "B"}))
		})

		It("reports a missing first frame", func() {
			var buf bytes.Buffer
			p := &player.Player{Out: &buf, Interval: time.Millisecond}

			err := p.View(ctx, dir)
			Expect(errors.Is(err, reel.ErrMissingFrame)).To(BeTrue())
			Expect(buf.Len()).To(BeZero())
		})
	})
})
