package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/gridcast/internal/adapter/gfs"
	"github.com/couchcryptid/gridcast/internal/adapter/httpserv"
	"github.com/couchcryptid/gridcast/internal/adapter/kafkasink"
	"github.com/couchcryptid/gridcast/internal/adapter/netcdfsrc"
	"github.com/couchcryptid/gridcast/internal/adapter/parquetsink"
	"github.com/couchcryptid/gridcast/internal/config"
	"github.com/couchcryptid/gridcast/internal/domain"
	"github.com/couchcryptid/gridcast/internal/observability"
	"github.com/couchcryptid/gridcast/internal/pipeline"
	"github.com/couchcryptid/gridcast/internal/spatial"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		// Usage has already been printed by the flag set.
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		slog.Error("failed to load config", "error", err)
		os.Exit(2)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	var fetcher pipeline.Fetcher
	switch {
	case cfg.NetCDFFile != "":
		fetcher = netcdfsrc.NewReader(cfg.NetCDFFile, logger, metrics)
		logger.Info("reading local netcdf file", "path", cfg.NetCDFFile)
	case cfg.GRIBFile != "":
		fetcher = gfs.NewFileSource(cfg.GRIBFile, logger, metrics)
		logger.Info("reading local grib file", "path", cfg.GRIBFile)
	case cfg.GFSMode == "filter":
		fetcher = gfs.NewFilterClient(cfg.GFSFilterURL, cfg.FetchTimeout, cfg.FetchRPS, logger, metrics)
	default:
		fetcher = gfs.NewClient(cfg.GFSBaseURL, cfg.FetchTimeout, cfg.FetchRPS, logger, metrics)
	}

	sinks := []pipeline.Sink{parquetsink.NewWriter(cfg.OutputPath, logger)}
	var kafkaWriter *kafkasink.Writer
	if len(cfg.KafkaBrokers) > 0 {
		kafkaWriter = kafkasink.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		sinks = append(sinks, kafkaWriter)
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic)
	}

	p := pipeline.New(fetcher, spatial.H3Indexer{}, sinks, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *httpserv.Server
	if cfg.MetricsAddr != "" {
		srv = httpserv.NewServer(cfg.MetricsAddr, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics listener error", "error", err)
			}
		}()
	}

	runErr := p.Run(ctx, cfg.Request())

	if kafkaWriter != nil {
		if err := kafkaWriter.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics listener shutdown error", "error", err)
		}
	}

	if runErr != nil {
		if errors.Is(runErr, domain.ErrDataUnavailable) {
			logger.Error("requested run is not available upstream", "error", runErr)
		} else {
			logger.Error("conversion failed", "error", runErr)
		}
		os.Exit(1)
	}
}
