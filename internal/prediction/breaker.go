// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package prediction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/wneessen/rainparade/internal/logger"
)

// Breaker wraps a Source with a circuit breaker. Once the configured number of consecutive
// failures is reached, requests fail fast until the breaker timeout has passed.
type Breaker struct {
	source  Source
	breaker *gobreaker.CircuitBreaker[*Response]
}

// NewBreaker returns a Breaker around source. A failures value of 0 disables tripping.
func NewBreaker(source Source, failures uint32, timeout time.Duration, log *logger.Logger) *Breaker {
	settings := gobreaker.Settings{
		Name:        source.Name(),
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return failures > 0 && counts.ConsecutiveFailures >= failures
		},
		// A superseded request is cancelled on purpose and says nothing about the service.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if log == nil {
				return
			}
			log.Warn("prediction circuit breaker changed state", slog.String("source", name),
				slog.String("from", from.String()), slog.String("to", to.String()))
		},
	}
	return &Breaker{
		source:  source,
		breaker: gobreaker.NewCircuitBreaker[*Response](settings),
	}
}

func (b *Breaker) Name() string {
	return b.source.Name()
}

// State returns the current breaker state (closed, half-open or open).
func (b *Breaker) State() string {
	return b.breaker.State().String()
}

func (b *Breaker) Predict(ctx context.Context, req Request) (*Response, error) {
	res, err := b.breaker.Execute(func() (*Response, error) {
		return b.source.Predict(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	return res, err
}
