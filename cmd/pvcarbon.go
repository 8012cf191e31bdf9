package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/julienschmidt/httprouter"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	pvcarbon "github.com/superdango/pv-carbon"
	"github.com/superdango/pv-carbon/internal/api"
	"github.com/superdango/pv-carbon/internal/cache"
	"github.com/superdango/pv-carbon/internal/config"
	"github.com/superdango/pv-carbon/internal/demo"
	"github.com/superdango/pv-carbon/internal/fetch"
	"github.com/superdango/pv-carbon/internal/owid"
	"github.com/superdango/pv-carbon/internal/postcodes"
	"github.com/superdango/pv-carbon/internal/pvgis"
	"github.com/superdango/pv-carbon/model"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])

		flag.PrintDefaults()

		fmt.Fprint(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprint(os.Stderr, config.Usage())
	}

	flagConfig := ""
	flagListen := ""
	flagFactors := ""
	flagDemoEnabled := ""
	flagLogLevel := ""
	flagLogFormat := ""
	flagInput := ""
	flagOutput := ""

	flag.StringVar(&flagConfig, "config", "", "yaml configuration file")
	flag.StringVar(&flagListen, "listen", "", "addr to listen to (default from configuration)")
	flag.StringVar(&flagFactors, "factors", "", "yaml emission factor overlay")
	flag.StringVar(&flagDemoEnabled, "demo.enabled", "", "use embedded demo data instead of external services (true, false)")
	flag.StringVar(&flagLogLevel, "log.level", "", "log severity (debug, info, warn, error)")
	flag.StringVar(&flagLogFormat, "log.format", "", "log format (text, json)")
	flag.StringVar(&flagInput, "input", "", "compute a single request from a json file (- for stdin) and exit")
	flag.StringVar(&flagOutput, "output", "summary", "output of -input (summary, json, openmetrics)")

	flag.Parse()

	cfg, err := config.Load(flagConfig)
	if err != nil {
		initLogging("info", "text")
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}

	overrideConfig(cfg, map[string]string{
		"listen":       flagListen,
		"factors":      flagFactors,
		"demo.enabled": flagDemoEnabled,
		"log.level":    flagLogLevel,
		"log.format":   flagLogFormat,
	})

	initLogging(cfg.Log.Level, cfg.Log.Format)

	engine, err := setupEngine(cfg)
	if err != nil {
		slog.Error("failed to setup calculation engine", "err", err)
		os.Exit(1)
	}

	if flagInput != "" {
		if err := runOnce(ctx, engine, flagInput, flagOutput, os.Stdout); err != nil {
			slog.Error("calculation failed", "input", flagInput, "err", err)
			os.Exit(1)
		}
		return
	}

	router := httprouter.New()
	api.NewHandler(engine).Register(router)

	server := &http.Server{
		Addr:              cfg.Listen,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("server shutdown failed", "err", err)
		}
	}()

	slog.Info("starting pv carbon server", "listen", cfg.Listen, "demo", cfg.Demo.Enabled)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("failed to start pv carbon server", "err", err)
		os.Exit(1)
	}
	slog.Info("pv carbon server stopped")
}

func overrideConfig(cfg *config.Config, params map[string]string) {
	if params["listen"] != "" {
		cfg.Listen = params["listen"]
	}
	if params["factors"] != "" {
		cfg.FactorsFile = params["factors"]
	}
	if params["demo.enabled"] != "" {
		cfg.Demo.Enabled = params["demo.enabled"] == "true"
	}
	if params["log.level"] != "" {
		cfg.Log.Level = params["log.level"]
	}
	if params["log.format"] != "" {
		cfg.Log.Format = params["log.format"]
	}
}

func initLogging(logLevel string, logFormat string) {
	switch logFormat {
	case "json":
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: slogLevel(logLevel),
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				switch a.Key {
				case slog.LevelKey:
					a.Key = "severity"
					return a
				case slog.MessageKey:
					a.Key = "message"
					return a
				default:
					return a
				}
			},
		})))
	default:
		slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
			Level:   slogLevel(logLevel),
			NoColor: !isatty.IsTerminal(os.Stderr.Fd()),
		})))
	}
}

func setupEngine(cfg *config.Config) (*api.Engine, error) {
	opts := []api.EngineOption{api.WithDefaultCountry(cfg.DefaultCountry)}

	if cfg.Demo.Enabled {
		slog.Warn("demo mode enabled, results are based on synthetic data")
		opts = append(opts,
			api.WithIrradianceProvider(demo.NewIrradianceProvider()),
			api.WithGridIntensity(demo.NewGridIntensity()),
			api.WithCoordinateResolver(demo.NewCoordinateResolver()),
		)
	} else {
		fetcher := fetch.NewClient(
			fetch.WithTimeout(cfg.HTTP.Timeout),
			fetch.WithRetry(cfg.HTTP.Attempts, cfg.HTTP.Backoff, cfg.HTTP.MaxBackoff),
		)
		opts = append(opts,
			api.WithIrradianceProvider(pvgis.NewClient(
				pvgis.WithURL(cfg.Sources.PVGISURL),
				pvgis.WithDatabase(cfg.Sources.PVGISDatabase),
				pvgis.WithFetcher(fetcher),
				pvgis.WithCacheTTL(cfg.Sources.PVGISCacheTTL),
			)),
			api.WithGridIntensity(owid.NewClient(
				owid.WithURL(cfg.Sources.OWIDURL),
				owid.WithFetcher(fetcher),
				owid.WithCache(cache.NewMemory(cache.NoExpiration)),
			)),
			api.WithCoordinateResolver(postcodes.NewClient(
				postcodes.WithURL(cfg.Sources.PostcodesURL),
				postcodes.WithFetcher(fetcher),
			)),
		)
	}

	if cfg.FactorsFile != "" {
		factors, err := config.LoadFactors(cfg.FactorsFile)
		if err != nil {
			return nil, err
		}
		table, ok, err := factors.MaterialDatabase()
		if err != nil {
			return nil, err
		}
		if ok {
			opts = append(opts, api.WithMaterialDatabase(table, true))
			slog.Info("material database loaded", "name", table.Name, "file", cfg.FactorsFile)
		}
		opts = append(opts, api.WithTransportModes(factors.TransportModes()))
	}

	return api.NewEngine(opts...), nil
}

func runOnce(ctx context.Context, engine *api.Engine, input, output string, w io.Writer) error {
	var r io.Reader = os.Stdin
	if input != "-" {
		f, err := os.Open(input)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	req := api.Request{}
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return fmt.Errorf("%w: malformed request: %s", pvcarbon.ErrInvalidInput, err)
	}

	report, err := engine.Calculate(ctx, req)
	if err != nil {
		return err
	}

	switch output {
	case "json":
		body, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(body))
		return err
	case "openmetrics":
		return pvcarbon.WriteOpenMetrics(w, report.Metrics())
	default:
		return model.WriteSummary(w, report)
	}
}

func slogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	return slog.LevelInfo
}
