// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package job

import (
	"context"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"
)

func TestNew(t *testing.T) {
	poll := New(time.Second*5, func(context.Context) {})
	if poll == nil {
		t.Fatal("expected job to be non-nil")
	}
	if poll.immediate {
		t.Error("expected job to wait for the first tick by default")
	}
	if !New(time.Second, nil, RunImmediately()).immediate {
		t.Error("expected RunImmediately option to be applied")
	}
}

func TestJob_Start(t *testing.T) {
	t.Run("start blocks until the context is cancelled", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			ctx, cancel := context.WithCancel(t.Context())
			var returned atomic.Bool

			go func() {
				New(time.Second, func(context.Context) {}).Start(ctx)
				returned.Store(true)
			}()

			time.Sleep(time.Minute)
			synctest.Wait()
			if returned.Load() {
				t.Fatal("expected Start to block while the context is alive")
			}

			cancel()
			synctest.Wait()
			if !returned.Load() {
				t.Fatal("expected Start to return after the context was cancelled")
			}
		})
	})
	t.Run("task runs once per tick", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(t.Context(), time.Second*25)
			defer cancel()
			var polls atomic.Int32

			New(time.Second*5, func(context.Context) { polls.Add(1) }).Start(ctx)
			synctest.Wait()

			// Ticks at 5s, 10s, 15s and 20s; the tick at 25s races the deadline.
			if got := polls.Load(); got < 4 || got > 5 {
				t.Errorf("expected 4 or 5 polls, got %d", got)
			}
		})
	})
	t.Run("immediate job runs before the first tick", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			ctx, cancel := context.WithCancel(t.Context())
			var polls atomic.Int32

			go New(time.Hour, func(context.Context) { polls.Add(1) }, RunImmediately()).Start(ctx)

			synctest.Wait()
			if polls.Load() != 1 {
				t.Errorf("expected job to run once before the first tick, got %d", polls.Load())
			}
			cancel()
			synctest.Wait()
		})
	})
	t.Run("overlapping ticks are skipped", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(t.Context(), time.Millisecond*55)
			defer cancel()
			var runs atomic.Int32

			slow := func(ctx context.Context) {
				runs.Add(1)
				select {
				case <-ctx.Done():
				case <-time.After(time.Millisecond * 25):
				}
			}
			New(time.Millisecond*10, slow).Start(ctx)
			synctest.Wait()

			// Ticks at 10, 20, ..., 50ms; runs start at 10 and 40 only, the others overlap.
			if got := runs.Load(); got != 2 {
				t.Errorf("expected 2 runs, got %d", got)
			}
		})
	})
	t.Run("task context is cancelled with the job", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			ctx, cancel := context.WithCancel(t.Context())
			var cancelled atomic.Bool

			go New(time.Hour, func(taskCtx context.Context) {
				<-taskCtx.Done()
				cancelled.Store(true)
			}, RunImmediately()).Start(ctx)

			synctest.Wait()
			cancel()
			synctest.Wait()
			if !cancelled.Load() {
				t.Error("expected task context to be cancelled")
			}
		})
	})
	t.Run("invalid jobs return immediately", func(t *testing.T) {
		New(time.Second, nil).Start(t.Context())
		New(0, func(context.Context) {}).Start(t.Context())
		New(-time.Second, func(context.Context) {}).Start(t.Context())
	})
}
