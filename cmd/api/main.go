package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/omarthenmalai/SubwayScheduler/internal/app"
	"github.com/omarthenmalai/SubwayScheduler/internal/ingest"
	"github.com/omarthenmalai/SubwayScheduler/internal/logging"
	"github.com/omarthenmalai/SubwayScheduler/internal/restapi"
	"github.com/omarthenmalai/SubwayScheduler/subwaydb"
)

func main() {
	var (
		configPath  string
		port        int
		env         string
		dbPath      string
		apiKeysFlag string
		gtfsSource  string
		verbose     bool
	)
	flag.StringVar(&configPath, "config", "", "Path to YAML config file")
	flag.IntVar(&port, "port", 0, "API server port (overrides config)")
	flag.StringVar(&env, "env", "", "Environment (development|test|staging|production)")
	flag.StringVar(&dbPath, "db", "", "Path to SQLite database file (overrides config)")
	flag.StringVar(&apiKeysFlag, "api-keys", "", "Comma separated API keys (overrides config)")
	flag.StringVar(&gtfsSource, "gtfs-source", "", "GTFS static zip path or URL to import at startup")
	flag.BoolVar(&verbose, "verbose", false, "Verbose logging")
	flag.Parse()

	logger := logging.NewStructuredLogger(os.Stdout, slog.LevelInfo)

	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		logging.LogError(logger, "failed to load config", err)
		os.Exit(1)
	}
	if port != 0 {
		cfg.Port = port
	}
	if env != "" {
		cfg.Env = env
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if keys := app.SplitAPIKeys(apiKeysFlag); keys != nil {
		cfg.APIKeys = keys
	}
	if gtfsSource != "" {
		cfg.GTFSSource = gtfsSource
	}
	cfg.Verbose = cfg.Verbose || verbose

	client, err := subwaydb.NewClient(subwaydb.NewConfig(cfg.DBPath, cfg.Environment(), cfg.Verbose), logger)
	if err != nil {
		logging.LogError(logger, "failed to open store", err)
		os.Exit(1)
	}
	defer logging.SafeCloseWithLogging(client, logger, "store client")

	if cfg.GTFSSource != "" {
		importer := ingest.NewImporter(client, logger)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		if strings.HasPrefix(cfg.GTFSSource, "http://") || strings.HasPrefix(cfg.GTFSSource, "https://") {
			err = importer.DownloadAndStore(ctx, cfg.GTFSSource)
		} else {
			err = importer.ImportFromFile(ctx, cfg.GTFSSource)
		}
		cancel()
		if err != nil {
			logging.LogError(logger, "gtfs import failed", err)
			os.Exit(1)
		}
	}

	application := app.NewApplication(cfg, logger, client)
	api := restapi.NewRestAPI(application)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      api.Router(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	logger.Info("starting server", "addr", srv.Addr, "env", cfg.Environment().String())
	err = srv.ListenAndServe()
	logging.LogError(logger, "server stopped", err)
	os.Exit(1)
}
