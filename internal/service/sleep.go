// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/wneessen/rainparade/internal/logger"
)

const (
	dbusInterface   = "org.freedesktop.login1.Manager"
	dbusWatchMember = "PrepareForSleep"

	debounceWindow   = time.Second * 2
	signalBufferSize = 8

	busReconnectDelay   = 5 * time.Second
	networkWakeupDelay  = 10 * time.Second
	reconnectDelay      = 2 * time.Second
	subscribeRetryDelay = 10 * time.Second
)

// sleepBus is the part of a dbus connection the resume monitor uses.
type sleepBus interface {
	AddMatchSignal(options ...dbus.MatchOption) error
	Signal(ch chan<- *dbus.Signal)
	RemoveSignal(ch chan<- *dbus.Signal)
	Close() error
}

// busConnector opens a system bus connection. Tests replace it with a fake bus.
type busConnector func() (sleepBus, error)

func connectSystemBus() (sleepBus, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// monitorSleepResume watches logind's PrepareForSleep signal on the system bus and re-analyzes
// the selection after a resume, so the output does not show data from before the suspend. Lost
// connections are re-established until ctx is cancelled.
func (s *Service) monitorSleepResume(ctx context.Context) {
	connect := s.connectBus
	if connect == nil {
		connect = connectSystemBus
	}

	var lastResume time.Time
	for {
		conn := s.waitForBus(ctx, connect)
		if conn == nil {
			return
		}

		if err := conn.AddMatchSignal(dbus.WithMatchInterface(dbusInterface),
			dbus.WithMatchMember(dbusWatchMember)); err != nil {
			s.logger.Error("failed to subscribe to dbus signal", slog.String("interface", dbusInterface),
				slog.String("member", dbusWatchMember), logger.Err(err))
			s.closeBus(conn)
			if !sleepCtx(ctx, subscribeRetryDelay) {
				return
			}
			continue
		}

		sigCh := make(chan *dbus.Signal, signalBufferSize)
		conn.Signal(sigCh)
		s.logger.Debug("subscribed to dbus signal", slog.String("interface", dbusInterface),
			slog.String("member", dbusWatchMember))

		s.handleSleepSignals(ctx, sigCh, &lastResume)
		conn.RemoveSignal(sigCh)
		s.closeBus(conn)

		if !sleepCtx(ctx, reconnectDelay) {
			return
		}
	}
}

// waitForBus retries connect until it succeeds. It returns nil if ctx is cancelled first.
func (s *Service) waitForBus(ctx context.Context, connect busConnector) sleepBus {
	for {
		conn, err := connect()
		if err == nil {
			return conn
		}
		s.logger.Debug("system bus not available", logger.Err(err))
		if !sleepCtx(ctx, busReconnectDelay) {
			return nil
		}
	}
}

func (s *Service) closeBus(conn sleepBus) {
	if err := conn.Close(); err != nil {
		s.logger.Error("failed to close system bus connection", logger.Err(err))
	}
}

// handleSleepSignals processes signals until ctx is cancelled or the channel is closed.
func (s *Service) handleSleepSignals(ctx context.Context, sigCh chan *dbus.Signal, lastResume *time.Time) {
	for {
		select {
		case <-ctx.Done():
			return
		case sgn, ok := <-sigCh:
			if !ok {
				return
			}
			if isResumeSignal(sgn) {
				s.handleResumeEvent(ctx, lastResume)
			}
		}
	}
}

// isResumeSignal reports whether sgn is PrepareForSleep(false), which logind sends after a resume.
func isResumeSignal(sgn *dbus.Signal) bool {
	if sgn == nil || len(sgn.Body) != 1 {
		return false
	}
	sleeping, ok := sgn.Body[0].(bool)
	return ok && !sleeping
}

// handleResumeEvent re-analyzes the current selection after a system wake-up. Resume events within
// the debounce window are handled once, and the network gets some time to come back before the
// analysis is triggered.
func (s *Service) handleResumeEvent(ctx context.Context, lastResume *time.Time) {
	now := time.Now()
	if now.Sub(*lastResume) < debounceWindow {
		return
	}
	*lastResume = now

	if !sleepCtx(ctx, networkWakeupDelay) {
		return
	}
	s.logger.Debug("resuming from sleep, analyzing current selection")
	s.store.Trigger()
}

// sleepCtx waits for d and returns false if ctx was cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
