// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

//go:build linux

// Package main implements the rainparade service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/wneessen/rainparade/internal/config"
	"github.com/wneessen/rainparade/internal/export"
	"github.com/wneessen/rainparade/internal/i18n"
	"github.com/wneessen/rainparade/internal/logger"
	"github.com/wneessen/rainparade/internal/observability"
	"github.com/wneessen/rainparade/internal/selection"
	"github.com/wneessen/rainparade/internal/server"
	"github.com/wneessen/rainparade/internal/service"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// selectionFlags maps command line flags to navigation parameters.
var selectionFlags = map[string]string{
	"location": selection.ParamLocation,
	"date":     selection.ParamDate,
	"activity": selection.ParamActivity,
	"lat":      selection.ParamLat,
	"lon":      selection.ParamLon,
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGABRT, os.Interrupt)
	defer cancel()

	// Initialize Logger
	log := logger.New(slog.LevelError)

	// Environment overrides from a local .env file
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Error("failed to load .env file", logger.Err(err))
		os.Exit(1)
	}

	confPath := flag.String("config", "", "path to the config file")
	_ = flag.String("location", "", "location label, may contain coordinates like \"Paris (48.8566, 2.3522)\"")
	_ = flag.String("date", "", "date of the activity")
	_ = flag.String("activity", "", "planned activity")
	_ = flag.String("lat", "", "latitude, requires -lon")
	_ = flag.String("lon", "", "longitude, requires -lat")
	once := flag.Bool("once", false, "analyze the selection once, print a single output line and exit")
	exportFormat := flag.String("export", "", "with -once, export the prediction document as json or csv")
	flag.Parse()

	conf, err := loadConfig(*confPath)
	if err != nil {
		log.Error("failed to load config", logger.Err(err))
		os.Exit(1)
	}

	log = logger.New(conf.LogLevel)
	t, err := i18n.New(conf.Locale)
	if err != nil {
		log.Error("failed to initialize localizer", logger.Err(err))
		os.Exit(1)
	}

	// Initialize the service
	serv, err := service.New(conf, log, t, observability.NewMetrics())
	if err != nil {
		log.Error("failed to initialize rainparade service", logger.Err(err))
		os.Exit(1)
	}
	if err = applySelectionFlags(serv); err != nil {
		log.Error("invalid selection", logger.Err(err))
		os.Exit(1)
	}

	if *once {
		if err = runOnce(ctx, serv, conf, *exportFormat, log); err != nil {
			log.Error("failed to export prediction", logger.Err(err))
			os.Exit(1)
		}
		return
	}

	// Start the service loop and, if configured, the HTTP server
	log.Info(t.Get("starting rainparade service"), slog.String("version", version),
		slog.String("commit", commit), slog.String("date", date))
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return serv.Run(groupCtx)
	})
	if conf.Server.Listen != "" {
		srv, err := server.New(conf.Server.Listen, serv, log, conf.Export.Compress)
		if err != nil {
			log.Error("failed to initialize http server", logger.Err(err))
			os.Exit(1)
		}
		group.Go(func() error {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server failed: %w", err)
			}
			return nil
		})
		group.Go(func() error {
			<-groupCtx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
			defer shutdownCancel()
			return srv.Shutdown(shutdownCtx)
		})
	}
	if err = group.Wait(); err != nil {
		log.Error(t.Get("failed to start rainparade service"), logger.Err(err))
	}
	log.Info(t.Get("shutting down rainparade service"))
}

// loadConfig reads the config file given on the command line, the one found in the default
// location or, if there is none, the built-in defaults.
func loadConfig(confPath string) (*config.Config, error) {
	if confPath != "" {
		return config.NewFromFile(filepath.Dir(confPath), filepath.Base(confPath))
	}
	if path, file := config.FindFile(); path != "" && file != "" {
		return config.NewFromFile(path, file)
	}
	return config.New()
}

// applySelectionFlags applies the selection flags that were set on the command line the same way
// navigation parameters are applied.
func applySelectionFlags(serv *service.Service) error {
	values := url.Values{}
	flag.Visit(func(f *flag.Flag) {
		if param, ok := selectionFlags[f.Name]; ok {
			values.Set(param, f.Value.String())
		}
	})
	if len(values) == 0 {
		return nil
	}
	_, err := serv.Store().UpdateFromQuery(values, serv.Resolver())
	return err
}

func runOnce(ctx context.Context, serv *service.Service, conf *config.Config, exportFormat string,
	log *logger.Logger,
) error {
	result := serv.RunOnce(ctx)
	if exportFormat == "" {
		return nil
	}
	format, err := export.ParseFormat(exportFormat)
	if err != nil {
		return err
	}
	path, err := export.WriteFile(conf.Export.Dir, result.Selection.LocationLabel, result.Selection.Date, format,
		result.Raw, conf.Export.Compress)
	if err != nil {
		return err
	}
	log.Info("prediction exported", slog.String("path", path), slog.String("request_id", result.RequestID))
	return nil
}
