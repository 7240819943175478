// cmd/scopesim/main.go
// Copyright(c) 2025 scopesim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// scopesim runs the track simulation, either headless for a fixed number
// of steps or in real time with a websocket feed for a renderer.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/mmp/scopesim/airspace"
	"github.com/mmp/scopesim/config"
	"github.com/mmp/scopesim/feed"
	"github.com/mmp/scopesim/log"
	"github.com/mmp/scopesim/nav"
	"github.com/mmp/scopesim/sim"
	"github.com/mmp/scopesim/wx"
)

var (
	configFile       = flag.String("config", "", "configuration file (default: scopesim.yaml in the user config directory)")
	scenarioFilename = flag.String("scenario", "", "JSON scenario or exported .msgpack.zst state to load (default: the demo)")
	manifestFilename = flag.String("manifest", "", "GeoJSON dataset manifest used for the map and projection")
	logLevel         = flag.String("loglevel", "", "logging level: debug, info, warn, error")
	logDir           = flag.String("logdir", "", "log file directory")
	steps            = flag.Int("steps", 0, "number of steps to run headless before printing the tracks")
	realtime         = flag.Bool("realtime", false, "run in real time until interrupted")
	listen           = flag.String("listen", "", "address to serve the websocket feed on, e.g. :8080")
	commands         = flag.String("cmd", "", `control commands to run before starting, e.g. "BAW77 H090 C200; LOT612 SN25"`)
	dumpCallsign     = flag.String("dump", "", "print the full state of the given track when done")
	exportFilename   = flag.String("export", "", "write the final state to the given .msgpack.zst file")
	navLog           = flag.Bool("navlog", false, "enable navigation logging (requires the navlog build tag)")
	navLogCategories = flag.String("navlog-categories", "all", "comma-separated navigation log categories")
	navLogCallsign   = flag.String("navlog-callsign", "", "restrict navigation logging to a single callsign")
)

func main() {
	flag.Parse()

	cfg, cfgErr := loadConfig()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *logDir != "" {
		cfg.Log.Dir = *logDir
	}
	if *scenarioFilename != "" {
		cfg.Sim.Scenario = *scenarioFilename
	}
	if *manifestFilename != "" {
		cfg.Airspace.Manifest = *manifestFilename
	}
	if *listen != "" {
		cfg.Feed.Listen = *listen
	}

	lg := log.New(cfg.Log.Level, cfg.Log.Dir)
	defer lg.CatchAndReportCrash()

	if cfgErr != nil {
		fmt.Fprintf(os.Stderr, "%v\n", cfgErr)
		lg.Errorf("config: %v", cfgErr)
		os.Exit(1)
	}

	nav.InitNavLog(*navLog, *navLogCategories, *navLogCallsign)

	if err := run(cfg, lg); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		lg.Errorf("%v", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	path := *configFile
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return config.DefaultConfig(), nil
		}
		path = filepath.Join(dir, "Scopesim", "scopesim.yaml")
	}
	return config.Load(path)
}

func run(cfg *config.Config, lg *log.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var projection *airspace.Equirectangular
	var outlines []airspace.Outline
	if cfg.Airspace.Manifest != "" {
		m, err := airspace.LoadManifest(cfg.Airspace.Manifest)
		if err != nil {
			return err
		}
		datasets, err := airspace.Load(ctx, m, lg)
		if err != nil {
			return err
		}
		if projection, err = datasets.Projection(); err != nil {
			lg.Warnf("%s: %v", cfg.Airspace.Manifest, err)
		} else {
			outlines = datasets.Outlines(projection)
			lg.Info("projection", slog.Any("projection", projection))
		}
	}

	s, err := makeSim(cfg, lg)
	if err != nil {
		return err
	}
	if projection != nil {
		s.SetProjector(projection)
	}

	es := sim.NewEventStream(lg)
	defer es.Destroy()
	events := es.Subscribe()
	s.SetEventStream(es)

	if err := runCommands(s, *commands); err != nil {
		return err
	}

	if *realtime {
		if err := runRealtime(ctx, s, cfg, outlines, events, lg); err != nil {
			return err
		}
	} else {
		s.RunFor(*steps, cfg.Sim.TickRate)
		for _, e := range events.Get() {
			fmt.Println(e.String())
		}
		fmt.Println()
		printTracks(s)
	}

	if *dumpCallsign != "" {
		ds, err := s.GetTrackDisplayState(*dumpCallsign)
		if err != nil {
			return err
		}
		fmt.Println(ds.FlightState)
		fmt.Println(ds.Spew)
	}

	if *exportFilename != "" {
		if err := s.ExportFile(*exportFilename); err != nil {
			return err
		}
		lg.Info("exported state", slog.String("path", *exportFilename))
	}
	return nil
}

func makeSim(cfg *config.Config, lg *log.Logger) (*sim.Sim, error) {
	if sim.IsStateFile(cfg.Sim.Scenario) {
		st, err := sim.LoadStateFile(cfg.Sim.Scenario)
		if err != nil {
			return nil, err
		}
		return sim.NewSimFromState(st, nil, lg)
	}

	simConfig := sim.NewSimConfiguration{Limits: cfg.Sim.Limits}
	if len(cfg.Sim.Winds) > 0 {
		lw, err := wx.MakeLayeredWind(cfg.Sim.Winds)
		if err != nil {
			return nil, fmt.Errorf("config winds: %w", err)
		}
		simConfig.Wind = lw
	}
	s := sim.NewSim(simConfig, lg)

	sc := sim.DemoScenario()
	if cfg.Sim.Scenario != "" {
		var err error
		if sc, err = sim.LoadScenarioFile(cfg.Sim.Scenario); err != nil {
			return nil, err
		}
	}
	if err := s.LoadScenario(sc); err != nil {
		return nil, err
	}
	return s, nil
}

// runCommands runs semicolon-separated groups of commands, each starting
// with the callsign they apply to.
func runCommands(s *sim.Sim, all string) error {
	var errs []error
	for _, group := range strings.Split(all, ";") {
		callsign, cmds, ok := strings.Cut(strings.TrimSpace(group), " ")
		if callsign == "" {
			continue
		}
		if !ok {
			errs = append(errs, fmt.Errorf("%s: no commands given", callsign))
			continue
		}
		if err := s.RunCommands(callsign, cmds); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", callsign, err))
		}
	}
	return errors.Join(errs...)
}

func runRealtime(ctx context.Context, s *sim.Sim, cfg *config.Config, outlines []airspace.Outline,
	events *sim.EventsSubscription, lg *log.Logger) error {
	frame := func(*sim.Sim) {
		for _, e := range events.Get() {
			lg.Info("event", slog.Any("event", e))
		}
	}
	if cfg.Feed.Listen != "" {
		hub := feed.NewHub(lg)
		defer hub.Close()

		srv := &http.Server{Addr: cfg.Feed.Listen, Handler: feed.NewHandler(hub, outlines)}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				lg.Errorf("feed server: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		lg.Info("serving feed", slog.String("listen", cfg.Feed.Listen))

		var last time.Time
		frame = func(s *sim.Sim) {
			if now := time.Now(); now.Sub(last) >= cfg.Feed.Interval {
				last = now
				f := feed.MakeFrame(s)
				f.Events = events.Get()
				if err := hub.Broadcast(f); err != nil {
					lg.Warnf("broadcast: %v", err)
				}
			}
		}
	}

	return s.Run(ctx, cfg.Sim.TickRate, frame)
}

func printTracks(s *sim.Sim) {
	fmt.Printf("%s\n\n", s.SimTime.Format(time.RFC3339))
	for _, t := range s.Tracks() {
		fmt.Println(t.DataBlock())
		fmt.Printf("  %s  x=%.1f y=%.1f\n\n", t.Nav.FlightState.Summary(), t.X, t.Y)
	}
}
