package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/urfave/cli"

	"mountq/internal/frame"
	"mountq/internal/job"
	"mountq/internal/sched"
)

var (
	configPath string
	items      int
	costMS     int
	stepMS     int
	prepend    bool

	flags = []cli.Flag{
		cli.StringFlag{
			Name:        "config, c",
			Usage:       "path to the YAML config file",
			Value:       "config.yml",
			Destination: &configPath,
		},
		cli.IntFlag{
			Name:        "items, n",
			Usage:       "number of simulated items to mount",
			Value:       20,
			Destination: &items,
		},
		cli.IntFlag{
			Name:        "cost",
			Usage:       "simulated mount cost of the first item in milliseconds",
			Value:       4,
			Destination: &costMS,
		},
		cli.IntFlag{
			Name:        "step",
			Usage:       "extra milliseconds added to each following item",
			Destination: &stepMS,
		},
		cli.BoolFlag{
			Name:        "prepend",
			Usage:       "register items at the head of the queue",
			Destination: &prepend,
		},
	}
)

func main() {
	app := cli.NewApp()
	app.Name = "mountq"
	app.Usage = "spread deferred mounts across animation frames"
	app.Flags = flags
	app.Action = run
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(_ *cli.Context) error {
	// Read the configuration
	cfg := sched.Load(configPath)
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))
	log.Info("loaded config", slog.Any("settings", cfg))

	loop := frame.NewFrameLoop(frame.WithLogger(log))
	loop.Start(cfg.FrameInterval())
	defer loop.Stop()

	opts := []sched.Option{sched.WithLogger(log)}
	if cfg.CSVPath != "" {
		f, err := os.Create(cfg.CSVPath)
		if err != nil {
			return fmt.Errorf("mountq: create csv trace: %w", err)
		}
		defer f.Close()
		opts = append(opts, sched.WithRecorder(sched.NewCSVRecorder(f)))
	}

	s, err := sched.New(loop, cfg.Scheduler, opts...)
	if err != nil {
		return err
	}
	sched.SetDefault(s)
	defer s.Close()

	started := time.Now()
	idle := make(chan struct{}, 1)
	if _, err := s.AddEventListener(sched.EventStart, func() {
		log.Info("mounting started", slog.Int("queued", s.Len()))
	}); err != nil {
		return err
	}
	if _, err := s.AddEventListener(sched.EventEnd, func() {
		log.Info("mounting finished",
			slog.Duration("elapsed", time.Since(started)),
			slog.Int64("frames", loop.Count()))
		idle <- struct{}{}
	}); err != nil {
		return err
	}

	mode := sched.Append
	if prepend {
		mode = sched.Prepend
	}
	works := job.StaggeredWork(items, time.Duration(costMS)*time.Millisecond, time.Duration(stepMS)*time.Millisecond)
	for _, w := range works {
		if _, err := job.Defer(sched.Default(), mode, w); err != nil {
			return err
		}
	}
	if len(works) == 0 {
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	select {
	case <-idle:
		return nil
	case err := <-loop.Errors():
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
