// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/vorlif/spreak"

	"github.com/wneessen/rainparade/internal/analysis"
	"github.com/wneessen/rainparade/internal/config"
	"github.com/wneessen/rainparade/internal/logger"
	"github.com/wneessen/rainparade/internal/observability"
	"github.com/wneessen/rainparade/internal/prediction"
	"github.com/wneessen/rainparade/internal/presenter"
	"github.com/wneessen/rainparade/internal/resolve"
	"github.com/wneessen/rainparade/internal/risk"
	"github.com/wneessen/rainparade/internal/selection"
)

const (
	DesktopID = "rainparade"

	selectionBufferSize = 32
	resultBufferSize    = 8
)

type Service struct {
	SignalSrc signalSource

	config     *config.Config
	logger     *logger.Logger
	t          *spreak.Localizer
	metrics    *observability.Metrics
	scheduler  gocron.Scheduler
	presenter  *presenter.Presenter
	resolver   *resolve.Resolver
	store      *selection.Store
	dispatcher *analysis.Dispatcher
	surface    *selection.FileSurface
	connectBus busConnector

	outputLock sync.Mutex
	output     io.Writer

	runs sync.WaitGroup
}

// New creates the service with the prediction source selected by the configuration.
func New(conf *config.Config, log *logger.Logger, t *spreak.Localizer, metrics *observability.Metrics) (*Service, error) {
	if conf == nil {
		return nil, errors.New("config is required")
	}
	if log == nil {
		return nil, errors.New("logger is required")
	}
	source, err := selectPredictionSource(conf, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create prediction source: %w", err)
	}
	return newService(conf, log, t, metrics, source)
}

func newService(conf *config.Config, log *logger.Logger, t *spreak.Localizer, metrics *observability.Metrics,
	source prediction.Source,
) (*Service, error) {
	if metrics == nil {
		metrics = observability.NewMetricsForTesting()
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	pres, err := presenter.New(conf, t)
	if err != nil {
		return nil, fmt.Errorf("failed to create presenter: %w", err)
	}

	store, err := selection.New(conf.DefaultSelection(), log)
	if err != nil {
		return nil, fmt.Errorf("failed to create selection store: %w", err)
	}

	dispatcher, err := analysis.New(source, risk.New(conf.RiskPolicy()), log, metrics,
		analysis.WithTimeout(conf.Prediction.Timeout))
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis dispatcher: %w", err)
	}

	resolver := resolve.New(conf.FallbackCoordinate())
	service := &Service{
		SignalSrc:  stdLibSignalSource{},
		config:     conf,
		logger:     log,
		t:          t,
		metrics:    metrics,
		scheduler:  scheduler,
		presenter:  pres,
		resolver:   resolver,
		store:      store,
		dispatcher: dispatcher,
		output:     os.Stdout,
	}

	if !conf.Selection.DisableFile {
		service.surface, err = selection.NewFileSurface(conf.Selection.File, conf.Intervals.SelectionFile, store,
			resolver, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create selection file surface: %w", err)
		}
	}
	return service, nil
}

// Store returns the selection store all input surfaces write to.
func (s *Service) Store() *selection.Store {
	return s.store
}

// Dispatcher returns the analysis dispatcher.
func (s *Service) Dispatcher() *analysis.Dispatcher {
	return s.dispatcher
}

// Resolver returns the resolver used for location labels.
func (s *Service) Resolver() *resolve.Resolver {
	return s.resolver
}

// SetOutput sets the writer the rendered output lines are written to.
func (s *Service) SetOutput(w io.Writer) {
	s.outputLock.Lock()
	defer s.outputLock.Unlock()
	s.output = w
}

func (s *Service) Run(ctx context.Context) error {
	// Start scheduled jobs
	if err := s.createScheduledJob(ctx, s.config.Intervals.Output, s.printOutput, "output_job"); err != nil {
		return err
	}
	if s.config.Intervals.Refresh > 0 {
		if err := s.createScheduledJob(ctx, s.config.Intervals.Refresh, s.refresh, "refresh_job"); err != nil {
			return err
		}
	}
	s.scheduler.Start()

	// Subscribe to selection triggers and installed results
	events, unsubEvents := s.store.Subscribe(DesktopID, selectionBufferSize)
	results, unsubResults := s.dispatcher.Subscribe(resultBufferSize)
	processed := make(chan struct{})
	go func() {
		defer close(processed)
		s.processSelectionEvents(ctx, events)
	}()
	go s.processResults(ctx, results)

	if s.surface != nil {
		go s.surface.Run(ctx)
	}

	sigChan := make(chan os.Signal, 1)
	s.SignalSrc.Notify(sigChan, syscall.SIGUSR1, syscall.SIGUSR2)
	go func() {
		defer s.SignalSrc.Stop(sigChan)
		s.HandleSignals(ctx, sigChan)
	}()
	go s.monitorSleepResume(ctx)

	// Analyze the initial selection
	s.store.Trigger()

	// Wait for the context to cancel
	<-ctx.Done()
	unsubEvents()
	unsubResults()
	<-processed
	s.runs.Wait()
	return s.scheduler.Shutdown()
}

// RunOnce analyzes the current selection, writes a single output line and returns the result.
func (s *Service) RunOnce(ctx context.Context) analysis.Result {
	result := s.dispatcher.Run(ctx, s.store.Current())
	s.printOutput(ctx)
	return result
}

func (s *Service) createScheduledJob(ctx context.Context, interval time.Duration, task func(context.Context),
	jobName string,
) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
		gocron.WithContext(ctx),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName(jobName),
	)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", jobName, err)
	}
	return nil
}

// refresh re-analyzes the current selection.
func (s *Service) refresh(context.Context) {
	s.store.Trigger()
}

// printOutput renders the installed analysis result and writes it as a JSON line.
func (s *Service) printOutput(context.Context) {
	result, ok := s.dispatcher.Result()
	if !ok {
		return
	}

	out, err := s.presenter.Render(s.presenter.BuildContext(result, s.dispatcher.Busy()))
	if err != nil {
		s.logger.Error("failed to render output", logger.Err(err))
		return
	}

	s.outputLock.Lock()
	defer s.outputLock.Unlock()
	if err = json.NewEncoder(s.output).Encode(out); err != nil {
		s.logger.Error("failed to encode output", logger.Err(err))
		return
	}
	s.metrics.OutputsRendered.Inc()
}

// processSelectionEvents starts an analysis for every selection trigger. The token is drawn in
// event order before the request runs in its own goroutine, so a newer trigger always supersedes
// one that is still in flight.
func (s *Service) processSelectionEvents(ctx context.Context, events <-chan selection.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.metrics.SelectionEvents.WithLabelValues(ev.Reason.String()).Inc()
			s.logger.Debug("received selection trigger", slog.String("reason", ev.Reason.String()),
				slog.Uint64("seq", ev.Seq), slog.String("location", ev.Selection.LocationLabel),
				slog.String("date", ev.Selection.Date))
			pending := s.dispatcher.Begin(ctx, ev.Selection)
			s.runs.Go(func() {
				pending.Wait()
			})
		}
	}
}

// processResults writes an output line as soon as a result is installed.
func (s *Service) processResults(ctx context.Context, results <-chan analysis.Result) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-results:
			if !ok {
				return
			}
			s.printOutput(ctx)
		}
	}
}
