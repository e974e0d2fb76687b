package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/zeusync/slicer/internal/core/canvas"
	"github.com/zeusync/slicer/internal/core/level"
	"github.com/zeusync/slicer/internal/core/observability/log"
	"github.com/zeusync/slicer/internal/injector"
	"github.com/zeusync/slicer/internal/render"
	"github.com/zeusync/slicer/internal/server"
)

type options struct {
	config    string
	listen    string
	token     string
	tui       bool
	logLevel  string
	logOutput string
	hue       float64
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.config, "config", "", "level file (.yaml, .yml or .json)")
	flag.StringVar(&o.listen, "listen", "", "serve the debug stream on this address, e.g. 127.0.0.1:8080")
	flag.StringVar(&o.token, "token", "", "token required from debug stream clients")
	flag.BoolVar(&o.tui, "tui", false, "play in the terminal")
	flag.StringVar(&o.logLevel, "log-level", "", "override the level file log level")
	flag.StringVar(&o.logOutput, "log-output", "", "log destination (defaults to stderr, or slicer.log with -tui)")
	flag.Float64Var(&o.hue, "hue", 200, "base hue of the terminal palette")
	flag.Parse()
	return o
}

func main() {
	if err := run(parseFlags()); err != nil {
		fmt.Fprintln(os.Stderr, "slicer:", err)
		os.Exit(1)
	}
}

func run(o options) error {
	cfg := level.DefaultConfig()
	if o.config != "" {
		loaded, err := level.LoadFile(o.config)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if o.logLevel != "" {
		lvl, err := log.ParseLevel(o.logLevel)
		if err != nil {
			return err
		}
		cfg.LogLevel = lvl
	}

	output := o.logOutput
	if output == "" {
		output = "stderr"
		if o.tui {
			output = "slicer.log"
		}
	}
	logger := log.New(cfg.LogLevel, log.WithOutput(output))
	defer func() { _ = logger.Sync() }()

	l, err := injector.InitializeLevel(cfg)
	if err != nil {
		return errors.Wrap(err, "load level")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	var srv *server.Server
	if o.listen != "" {
		scfg := server.DefaultConfig()
		scfg.ListenAddr = o.listen
		scfg.Token = o.token
		if srv, err = injector.InitializeServer(scfg); err != nil {
			return errors.Wrap(err, "configure server")
		}
		if _, err := srv.Attach(l.Bus()); err != nil {
			return errors.Wrap(err, "attach server")
		}
		g.Go(func() error { return srv.ListenAndServe(ctx) })
	}

	inputs := make(chan level.Command, 16)
	var view *render.View
	if o.tui {
		screen, err := tcell.NewScreen()
		if err != nil {
			return errors.Wrap(err, "open terminal")
		}
		if err := screen.Init(); err != nil {
			return errors.Wrap(err, "init terminal")
		}
		defer screen.Fini()
		screen.EnableMouse()
		view = render.NewView(screen, render.DefaultPalette(o.hue))

		g.Go(func() error {
			<-ctx.Done()
			_ = screen.PostEvent(tcell.NewEventInterrupt(nil))
			return nil
		})
		g.Go(func() error {
			return pollInput(ctx, screen, view, inputs, cancel)
		})
	}

	var remote <-chan level.Command
	if srv != nil {
		remote = srv.Commands()
	}

	clock := level.NewClock(cfg.TickRate)
	g.Go(func() error {
		err := clock.Run(ctx, func(dt float64) {
			drain(l, inputs, logger)
			drain(l, remote, logger)
			l.Update(dt)
			snap := l.Snapshot()
			if srv != nil {
				if _, err := srv.Broadcast(snap); err != nil {
					logger.Warn("Broadcast failed", log.Error(err))
				}
			}
			if view != nil {
				if err := view.Draw(snap); err != nil {
					logger.Warn("Draw failed", log.Error(err))
				}
			}
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	logger.Info("Slicer running",
		log.String("listen", o.listen),
		log.Bool("tui", o.tui),
		log.Float64("tick_rate", cfg.TickRate))

	err = g.Wait()
	m := l.Metrics()
	logger.Info("Slicer stopped",
		log.Uint64("ticks", m.ExecutionCount),
		log.Duration("avg_tick", m.AverageExecutionTime),
		log.Float64("clear_rate", l.ClearRate()),
		log.Bool("cleared", l.Cleared()))
	return err
}

// pollInput turns terminal events into level commands until the user quits
// or ctx is done.
func pollInput(ctx context.Context, screen tcell.Screen, view *render.View, out chan<- level.Command, quit func()) error {
	for {
		ev := screen.PollEvent()
		if ev == nil || ctx.Err() != nil {
			return nil
		}
		cmd, sig := view.Handle(ev)
		switch sig {
		case render.SignalQuit:
			quit()
			return nil
		case render.SignalCommand:
			select {
			case out <- cmd:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// drain applies every queued command without blocking.
func drain(l *level.Level, in <-chan level.Command, logger log.Log) {
	for {
		select {
		case cmd := <-in:
			res, err := l.Apply(cmd)
			if err != nil {
				logger.Warn("Command rejected", log.String("command", string(cmd.Type)), log.Error(err))
				continue
			}
			if cmd.Type == level.CommandSlice && res.Outcome != canvas.OutcomeApplied {
				logger.Debug("Slice not applied", log.Stringer("outcome", res.Outcome))
			}
		default:
			return
		}
	}
}
