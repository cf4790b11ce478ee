package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/gifterm/internal/config"
	"github.com/san-kum/gifterm/internal/player"
	"github.com/san-kum/gifterm/internal/reel"
	"github.com/san-kum/gifterm/internal/render"
	"github.com/san-kum/gifterm/internal/storage"
	"github.com/san-kum/gifterm/internal/transcode"
	"github.com/san-kum/gifterm/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	workers    int
	renderer   string
	interval   time.Duration
	verbose    bool
	useTUI     bool
)

// main registers the gifterm commands and runs the root command with a
// context cancelled by SIGINT or SIGTERM. It exits with status 1 when the
// command fails.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, viz.Failure.Render("error: "+err.Error()))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gifterm",
		Short:         "play animated images as text art in the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "directory holding namespace directories")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", config.DefaultWorkers, "concurrent renderer processes")
	rootCmd.PersistentFlags().StringVar(&renderer, "renderer", render.DefaultBinary, "renderer program")
	rootCmd.PersistentFlags().DurationVar(&interval, "interval", reel.DefaultInterval, "time each frame is shown")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output")

	transcodeCmd := &cobra.Command{
		Use:   "transcode <source> [scale] [keyframes]",
		Short: "render key frames into a namespace directory",
		Args:  cobra.RangeArgs(1, 3),
		RunE:  runTranscode,
	}

	playCmd := &cobra.Command{
		Use:   "play <source> [scale] [keyframes]",
		Short: "render key frames in memory and loop them",
		Args:  cobra.RangeArgs(1, 3),
		RunE:  runPlay,
	}
	playCmd.Flags().BoolVar(&useTUI, "tui", false, "play in a full-screen terminal UI")

	viewCmd := &cobra.Command{
		Use:   "view <namespace-directory>",
		Short: "loop frames persisted by transcode",
		Args:  cobra.ExactArgs(1),
		RunE:  runView,
	}
	viewCmd.Flags().BoolVar(&useTUI, "tui", false, "play in a full-screen terminal UI")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list transcoded namespaces",
		RunE:  listNamespaces,
	}

	inspectCmd := &cobra.Command{
		Use:   "inspect <namespace-directory>",
		Short: "plot the ink density of persisted frames",
		Args:  cobra.ExactArgs(1),
		RunE:  inspectNamespace,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PRESET\tSCALE\tKEYFRAMES\tINTERVAL")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%g\t%d\t%v\n", name, p.Scale, p.KeyFrames, p.Interval)
			}
			return w.Flush()
		},
	}

	configCmd := &cobra.Command{
		Use:   "config [path]",
		Short: "write the resolved configuration to a yaml file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  writeConfig,
	}

	rootCmd.AddCommand(transcodeCmd, playCmd, viewCmd, listCmd, inspectCmd, presetsCmd, configCmd)
	return rootCmd
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig layers the preset, the config file and explicitly set flags,
// in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		var err error
		cfg, err = config.Load(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("renderer") {
		cfg.Renderer = renderer
	}
	if flags.Changed("interval") {
		cfg.Interval = interval
	}
	return cfg, cfg.Validate()
}

// parseArgs reads "<source> [scale] [keyframes]", taking missing values
// from cfg.
func parseArgs(args []string, cfg *config.Config) (string, reel.SampleSpec, error) {
	source := args[0]
	scale, keyFrames := cfg.Scale, cfg.KeyFrames
	if len(args) > 1 {
		s, err := strconv.ParseFloat(args[1], 64)
		if err != nil || !(s > 0) {
			return "", reel.SampleSpec{}, fmt.Errorf("%w: scale must be a positive number, got %q", reel.ErrInvalidArgument, args[1])
		}
		scale = s
	}
	if len(args) > 2 {
		k, err := strconv.Atoi(args[2])
		if err != nil || k <= 0 {
			return "", reel.SampleSpec{}, fmt.Errorf("%w: keyframes must be a positive integer, got %q", reel.ErrInvalidArgument, args[2])
		}
		keyFrames = k
	}
	return source, transcode.Spec(source, scale, keyFrames), nil
}

func newTranscoder(cfg *config.Config, log *slog.Logger) (*transcode.Transcoder, error) {
	r, err := render.NewExec(cfg.Renderer)
	if err != nil {
		return nil, err
	}
	r.Args = cfg.RendererArgs()
	r.StreamFlags = cfg.StreamFlags()
	log.Debug("using renderer", slog.String("path", r.Path), slog.Any("args", r.Args), slog.Any("stream_flags", r.StreamFlags))
	return &transcode.Transcoder{
		Store:    storage.New(cfg.DataDir),
		Renderer: r,
		Workers:  cfg.Workers,
		Logger:   log,
	}, nil
}

func runTranscode(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	source, spec, err := parseArgs(args, cfg)
	if err != nil {
		return err
	}
	log := newLogger(verbose)
	tr, err := newTranscoder(cfg, log)
	if err != nil {
		return err
	}
	if err := tr.Store.Init(); err != nil {
		return err
	}
	tr.Progress = progressLine(cmd.ErrOrStderr())

	start := time.Now()
	res, err := tr.Persist(cmd.Context(), source, spec)
	if err != nil {
		return err
	}
	log.Info("transcode finished", slog.Duration("elapsed", time.Since(start)))
	fmt.Fprintln(cmd.OutOrStdout(), viz.Success.Render(fmt.Sprintf("done, check directory %q.", res.Namespace)))
	return nil
}

// progressLine returns a render progress callback that redraws a bar on
// one line of w.
func progressLine(w io.Writer) func(done, total int) {
	return func(done, total int) {
		fmt.Fprintf(w, "\r%s %s %d/%d", viz.MetricLabel.Render("rendering"), viz.ProgressBar(float64(done)/float64(total), 30), done, total)
		if done == total {
			fmt.Fprintln(w)
		}
	}
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	source, spec, err := parseArgs(args, cfg)
	if err != nil {
		return err
	}
	log := newLogger(verbose)
	tr, err := newTranscoder(cfg, log)
	if err != nil {
		return err
	}

	tr.Progress = progressLine(cmd.ErrOrStderr())
	res, err := tr.Capture(cmd.Context(), source, spec)
	if err != nil {
		return err
	}
	return play(cmd, res.Contents(), cfg.Interval, res.Namespace, log)
}

func runView(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	frames, err := player.LoadDir(args[0])
	if err != nil {
		return err
	}
	return play(cmd, frames, cfg.Interval, args[0], newLogger(verbose))
}

// play loops frames until the command context is cancelled, which is a
// normal exit.
func play(cmd *cobra.Command, frames []string, interval time.Duration, title string, log *slog.Logger) error {
	ctx := cmd.Context()
	var err error
	if useTUI {
		err = player.PlayTUI(ctx, frames, interval, title)
	} else {
		p := &player.Player{Out: cmd.OutOrStdout(), Interval: interval, Logger: log}
		err = p.Play(ctx, frames)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func listNamespaces(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st := storage.New(cfg.DataDir)
	list, err := st.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, "no namespaces found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAMESPACE\tSOURCE\tSCALE\tKEYFRAMES\tCREATED")
	for _, m := range list {
		fmt.Fprintf(w, "%s\t%s\t%g\t%d\t%s\n",
			m.Namespace,
			m.Source,
			m.Scale,
			m.KeyFrames,
			m.Created.Local().Format("2006-01-02 15:04:05"),
		)
	}
	return w.Flush()
}

func writeConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	path := "gifterm.yaml"
	if len(args) > 0 {
		path = args[0]
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), viz.Success.Render(fmt.Sprintf("config written to %q.", path)))
	return nil
}
