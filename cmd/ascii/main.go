package main

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/gifterm/internal/ascii"
	"github.com/san-kum/gifterm/internal/viz"
)

// prettyDelay is the pause between rows printed with --pretty.
const prettyDelay = 75 * time.Millisecond

type options struct {
	in, out     string
	scale       float64
	stretch     int
	print       bool
	pretty      bool
	closeColour bool
	trueColour  bool
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, viz.Failure.Render(err.Error()))
		os.Exit(1)
	}
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	var o options
	def := ascii.DefaultOptions()

	cmd := &cobra.Command{
		Use:           "ascii --in <image> [--out <file>] [--print]",
		Short:         "render an image as text art",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(o, stdout)
		},
	}
	cmd.SetOut(stdout)

	flags := cmd.Flags()
	flags.StringVar(&o.in, "in", "", "input .png/.jpg/.gif file")
	flags.StringVar(&o.out, "out", "", "output .txt file")
	flags.Float64Var(&o.scale, "scale", def.Scale, "scale factor")
	flags.IntVar(&o.stretch, "stretch", def.Stretch, "horizontal stretch factor")
	flags.BoolVar(&o.print, "print", false, "print the result")
	flags.BoolVar(&o.pretty, "pretty", false, "with --print, print the result row by row")
	flags.BoolVar(&o.closeColour, "close-colour", false, "colour the output with the closest ANSI colours")
	flags.BoolVar(&o.closeColour, "colour", false, "alias for --close-colour")
	flags.BoolVar(&o.trueColour, "true-colour", false, "colour the output with exact RGB codes")
	return cmd
}

func (o options) render() ascii.Options {
	r := ascii.Options{Scale: o.scale, Stretch: o.stretch}
	switch {
	case o.trueColour:
		r.Color = ascii.TrueColor
	case o.closeColour:
		r.Color = ascii.ClosestColor
	}
	return r
}

func decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("input path '%s' does not exist", path)
		}
		return nil, fmt.Errorf("failed to read from input image: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image data - is the image a valid format? %w", err)
	}
	return img, nil
}

func run(o options, stdout io.Writer) error {
	if o.in == "" {
		return errors.New("no input path provided")
	}
	ro := o.render()
	if !(ro.Scale > 0) || ro.Stretch <= 0 {
		return ascii.ErrBadScale
	}
	img, err := decode(o.in)
	if err != nil {
		return err
	}
	text, err := ascii.Render(img, ro)
	if err != nil {
		return err
	}

	if o.out != "" {
		if err := os.WriteFile(o.out, []byte(text), 0644); err != nil {
			return fmt.Errorf("error writing to outfile: %w", err)
		}
		if !o.print {
			fmt.Fprintln(stdout, viz.Success.Render(fmt.Sprintf("success! written to '%s'.", o.out)))
		}
	}
	if !o.print {
		return nil
	}
	if !o.pretty {
		_, err := io.WriteString(stdout, text)
		return err
	}
	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		if _, err := io.WriteString(stdout, line); err != nil {
			return err
		}
		time.Sleep(prettyDelay)
	}
	return nil
}
