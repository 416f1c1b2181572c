// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package prediction

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/wneessen/rainparade/internal/logger"
)

func TestRateLimited_Predict(t *testing.T) {
	t.Run("requests within the burst pass", func(t *testing.T) {
		src := &stubSource{res: &Response{}}
		limited := NewRateLimited(src, 1, 2)
		for i := 0; i < 2; i++ {
			if _, err := limited.Predict(t.Context(), Request{}); err != nil {
				t.Fatalf("expected request %d to pass, got %s", i, err)
			}
		}
		if src.calls != 2 {
			t.Errorf("expected 2 forwarded calls, got %d", src.calls)
		}
		if limited.Name() != "stub" {
			t.Errorf("expected name of the wrapped source, got %q", limited.Name())
		}
	})
	t.Run("cancelled wait is a failed request", func(t *testing.T) {
		src := &stubSource{res: &Response{}}
		limited := NewRateLimited(src, 0.001, 1)
		if _, err := limited.Predict(t.Context(), Request{}); err != nil {
			t.Fatalf("expected first request to pass, got %s", err)
		}

		ctx, cancel := context.WithTimeout(t.Context(), time.Millisecond*10)
		defer cancel()
		_, err := limited.Predict(ctx, Request{})
		if !errors.Is(err, ErrRequestFailed) {
			t.Errorf("expected error to be %s, got %v", ErrRequestFailed, err)
		}
		if src.calls != 1 {
			t.Errorf("expected only 1 forwarded call, got %d", src.calls)
		}
	})
}

func TestBreaker_Predict(t *testing.T) {
	log := logger.NewLogger(slog.LevelDebug, io.Discard)

	t.Run("breaker opens after consecutive failures", func(t *testing.T) {
		src := &stubSource{err: ErrRequestFailed}
		breaker := NewBreaker(src, 2, time.Minute, log)
		for i := 0; i < 2; i++ {
			if _, err := breaker.Predict(t.Context(), Request{}); !errors.Is(err, ErrRequestFailed) {
				t.Fatalf("expected request %d to fail, got %v", i, err)
			}
		}
		if breaker.State() != "open" {
			t.Fatalf("expected breaker to be open, got %s", breaker.State())
		}

		_, err := breaker.Predict(t.Context(), Request{})
		if !errors.Is(err, ErrRequestFailed) {
			t.Errorf("expected open breaker error to be %s, got %v", ErrRequestFailed, err)
		}
		if src.calls != 2 {
			t.Errorf("expected the open breaker to not forward, got %d calls", src.calls)
		}
	})
	t.Run("cancelled requests do not trip the breaker", func(t *testing.T) {
		src := &stubSource{res: &Response{}}
		breaker := NewBreaker(src, 1, time.Minute, log)
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		if _, err := breaker.Predict(ctx, Request{}); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected request to be cancelled, got %v", err)
		}
		if breaker.State() != "closed" {
			t.Errorf("expected breaker to stay closed, got %s", breaker.State())
		}
	})
	t.Run("zero failures never trips", func(t *testing.T) {
		src := &stubSource{err: ErrMalformedResponse}
		breaker := NewBreaker(src, 0, time.Minute, log)
		for i := 0; i < 10; i++ {
			_, _ = breaker.Predict(t.Context(), Request{})
		}
		if breaker.State() != "closed" {
			t.Errorf("expected breaker to stay closed, got %s", breaker.State())
		}
	})
}
