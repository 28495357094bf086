package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/Iron-Ham/conductor/internal/capture"
	"github.com/Iron-Ham/conductor/internal/classify"
	"github.com/Iron-Ham/conductor/internal/conductor"
	"github.com/Iron-Ham/conductor/internal/config"
	"github.com/Iron-Ham/conductor/internal/logging"
	"github.com/Iron-Ham/conductor/internal/metrics"
	"github.com/Iron-Ham/conductor/internal/render"
)

// runtime holds what every capturing command needs.
type runtime struct {
	cfg        *config.Config
	logger     *logging.Logger
	classifier *classify.TableClassifier
	recorder   *metrics.Recorder
}

// newRuntime loads configuration, opens the log and the phrase table.
func newRuntime() (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.NewLoggerWithRotation(cfg.Logging.Dir, cfg.Logging.Level, logging.RotationConfig{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
	if err != nil {
		return nil, err
	}

	table, err := loadPhrases(cfg)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}

	rt := &runtime{
		cfg:        cfg,
		logger:     logger,
		classifier: classify.NewClassifier(table),
	}
	if cfg.Metrics.Enabled {
		rt.recorder = metrics.NewRecorder()
		rt.recorder.SetPhrases(table.Len())
	}
	return rt, nil
}

func loadPhrases(cfg *config.Config) (*classify.Table, error) {
	if cfg.Phrases.File == "" {
		return classify.DefaultTable(), nil
	}
	return classify.LoadTable(cfg.Phrases.File)
}

func (rt *runtime) close() {
	_ = rt.logger.Close()
}

// startBackground launches the phrase watcher and metrics server on g. Both
// stop when ctx is done.
func (rt *runtime) startBackground(ctx context.Context, g *errgroup.Group) error {
	if rt.cfg.Phrases.File != "" && rt.cfg.Phrases.Watch {
		w, err := classify.NewWatcher(rt.cfg.Phrases.File, rt.classifier, rt.logger)
		if err != nil {
			return err
		}
		if rt.recorder != nil {
			w.SetReloadCallback(rt.recorder.ObserveReload)
		}
		w.Start()
		g.Go(func() error {
			<-ctx.Done()
			w.Stop()
			return nil
		})
	}

	if rt.recorder != nil {
		g.Go(func() error {
			return rt.recorder.Serve(ctx, metrics.ServerConfig{
				Addr: rt.cfg.Metrics.Addr,
				Path: rt.cfg.Metrics.Path,
			}, rt.logger)
		})
	}
	return nil
}

// checkerOptions maps configuration onto checker options.
func (rt *runtime) checkerOptions() conductor.Options {
	m := rt.cfg.Monitor
	opts := conductor.Options{
		AutoPoll:           m.AutoPoll,
		Redirect:           m.Redirect,
		NotifyUnrecognized: m.NotifyUnrecognized,
		PollInterval:       m.PollInterval(),
		ShutdownTimeout:    m.ShutdownTimeout(),
		Newline:            m.Newline,
		Classifier:         rt.classifier,
		Logger:             rt.logger,
	}
	if rt.recorder != nil {
		opts.Observer = rt.recorder
	}
	return opts
}

// newPrinter builds the event printer writing to w. Color is only detected
// when w is a terminal file.
func (rt *runtime) newPrinter(w io.Writer) (*render.Printer, error) {
	filter, err := render.NewFilter(rt.cfg.Output.Filter)
	if err != nil {
		return nil, err
	}
	return render.NewPrinter(w, render.PrinterOptions{
		Format:   rt.cfg.Output.Format,
		Color:    colorFor(rt.cfg.Output.Color, w),
		Filter:   filter,
		MaxWidth: rt.cfg.Output.MaxWidth,
	}), nil
}

func colorFor(mode string, w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return render.ColorEnabled(mode, f)
	}
	return mode == render.ColorAlways
}

// capture installs a checker on console and subscribes a printer writing
// events to events.
func (rt *runtime) capture(console *capture.Console, events io.Writer, opts conductor.Options) (*conductor.Checker, error) {
	printer, err := rt.newPrinter(events)
	if err != nil {
		return nil, err
	}
	checker, err := conductor.New(console, opts)
	if err != nil {
		return nil, err
	}
	checker.Subscribe(printer.Handle)
	return checker, nil
}

// finish flushes output written after the last cycle, closes the checker and
// reports a subscriber fault if one ended the loop.
func finish(checker *conductor.Checker) error {
	flushErr := checker.Poll()
	_ = checker.Close()
	if err := checker.Err(); err != nil {
		return err
	}
	return flushErr
}
