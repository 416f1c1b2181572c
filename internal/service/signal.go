// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

type signalSource interface {
	Notify(c chan<- os.Signal, sig ...os.Signal)
	Stop(c chan<- os.Signal)
}

// stdLibSignalSource is the production implementation.
type stdLibSignalSource struct{}

func (stdLibSignalSource) Notify(c chan<- os.Signal, sig ...os.Signal) {
	signal.Notify(c, sig...)
}

func (stdLibSignalSource) Stop(c chan<- os.Signal) {
	signal.Stop(c)
}

// HandleSignals re-analyzes the current selection on SIGUSR1 and logs the current selection and
// analysis state on SIGUSR2.
func (s *Service) HandleSignals(ctx context.Context, sigChan chan os.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigChan:
			switch sig {
			case syscall.SIGUSR1:
				s.logger.Debug("received SIGUSR1, analyzing current selection")
				s.store.Trigger()
			case syscall.SIGUSR2:
				sel := s.store.Current()
				s.logger.Info("current selection", slog.String("location", sel.LocationLabel),
					slog.Float64("latitude", sel.Lat), slog.Float64("longitude", sel.Lon),
					slog.String("date", sel.Date), slog.String("activity", sel.Activity),
					slog.String("state", s.dispatcher.State().String()), slog.Bool("busy", s.dispatcher.Busy()))
			}
		}
	}
}
