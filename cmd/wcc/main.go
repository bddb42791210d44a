// Command wcc compiles a directory of event documents into the weekly
// calendar artifact, and can optionally serve it over HTTP with periodic
// recompiles.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/nil-vr/WeeklyCalendar/internal/compile"
	"github.com/nil-vr/WeeklyCalendar/internal/config"
	"github.com/nil-vr/WeeklyCalendar/internal/emit"
	"github.com/nil-vr/WeeklyCalendar/internal/expand"
	applog "github.com/nil-vr/WeeklyCalendar/internal/log"
	"github.com/nil-vr/WeeklyCalendar/internal/model"
	"github.com/nil-vr/WeeklyCalendar/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	output     string
	once       bool
	verbose    bool
}

func main() {
	flags := parseFlags()
	if flags.verbose {
		applog.SetLevel(applog.LevelDebug)
	}
	applog.Info("wcc starting", "config", flags.configPath)

	// .env is optional; it only feeds the WCC_* overrides below.
	_ = godotenv.Load()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		applog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	applyOverrides(conf, flags)

	opts := compile.Options{
		EventsDir: conf.EventsDir,
		MetaPath:  conf.MetaPath,
		Horizon:   horizon(conf.HorizonDays),
	}

	res, err := runCompile(opts, conf.Output)
	if err != nil {
		applog.Error("compile failed", err)
		os.Exit(1)
	}

	if flags.once {
		if !res.Ok() {
			os.Exit(1)
		}
		return
	}

	serve(conf, opts, res)
}

func parseFlags() flagConfig {
	var cfg flagConfig
	flag.StringVar(&cfg.configPath, "config", "wcc.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.output, "out", "", "Artifact output path (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Compile once and exit; do not serve")
	flag.BoolVar(&cfg.verbose, "v", false, "Enable debug logging")
	flag.Parse()
	return cfg
}

// applyOverrides layers env and CLI settings over the config file, CLI
// winning.
func applyOverrides(conf *config.Config, flags flagConfig) {
	if v := os.Getenv("WCC_EVENTS_DIR"); v != "" {
		conf.EventsDir = v
	}
	if v := os.Getenv("WCC_META_PATH"); v != "" {
		conf.MetaPath = v
	}
	if v := os.Getenv("WCC_OUTPUT"); v != "" {
		conf.Output = v
	}
	if v := os.Getenv("WCC_LISTEN"); v != "" {
		conf.Listen = v
	}
	if flags.output != "" {
		conf.Output = flags.output
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
}

// horizon clips expansion to today plus the configured number of days.
func horizon(days int) expand.Config {
	start := model.DateOf(time.Now().UTC())
	return expand.Config{
		RangeStart: start,
		RangeEnd:   start.AddDays(days - 1),
	}
}

func runCompile(opts compile.Options, output string) (*compile.Result, error) {
	res, err := compile.Run(opts)
	if err != nil {
		return nil, err
	}
	for _, d := range res.Diagnostics {
		applog.Error("diagnostic", d.Err, "doc", d.Doc)
	}

	rendered, err := emit.Render(res.Artifact)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(output, rendered, 0o644); err != nil {
		return nil, err
	}
	applog.Info("artifact written", "path", output, "bytes", len(rendered))
	return res, nil
}

func serve(conf *config.Config, opts compile.Options, first *compile.Result) {
	srv := web.NewServer(conf)
	if err := srv.SetResult(first); err != nil {
		applog.Error("failed to cache artifact", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		applog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	sched := cron.New()
	_, err := sched.AddFunc(conf.RefreshCron, func() {
		opts.Horizon = horizon(conf.HorizonDays)
		res, err := runCompile(opts, conf.Output)
		if err != nil {
			applog.Error("scheduled recompile failed", err)
			return
		}
		if err := srv.SetResult(res); err != nil {
			applog.Error("failed to cache artifact", err)
		}
	})
	if err != nil {
		applog.Error("bad refresh schedule", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()

	httpSrv := &http.Server{Addr: conf.Listen, Handler: srv.Handler()}
	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		httpSrv.Shutdown(shutdownCtx)
	}()

	applog.Info("starting HTTP server", "listen", "http://"+conf.Listen, "refresh", conf.RefreshCron)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		applog.Error("HTTP server failed", err)
		os.Exit(1)
	}
	applog.Info("wcc exiting")
}
