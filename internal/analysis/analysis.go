// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package analysis turns a selection into an analysis result. The Dispatcher requests a
// prediction, normalizes it into risk conditions and installs the result. Failed requests
// install a degraded fallback result instead of returning an error.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/wneessen/rainparade/internal/logger"
	"github.com/wneessen/rainparade/internal/observability"
	"github.com/wneessen/rainparade/internal/prediction"
	"github.com/wneessen/rainparade/internal/risk"
	"github.com/wneessen/rainparade/internal/selection"
)

// DefaultTimeout is the per-request timeout if none is configured.
const DefaultTimeout = time.Second * 10

// State is the lifecycle state of the dispatcher.
type State int

const (
	StateIdle State = iota
	StatePending
	StateSuccess
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Result is the outcome of a single Run.
type Result struct {
	Selection   selection.Selection  `json:"selection"`
	SummaryText string               `json:"summary"`
	Conditions  [3]risk.Condition    `json:"conditions"`
	Raw         *prediction.Response `json:"raw,omitempty"`
	RequestID   string               `json:"request_id"`
	Token       uint64               `json:"token"`
	GeneratedAt time.Time            `json:"generated_at"`

	// Fallback is set if the prediction failed and Conditions hold previous or baseline data.
	Fallback bool `json:"fallback"`

	// Superseded is set if a newer Run was started before this one finished. Superseded
	// results are never installed.
	Superseded bool `json:"-"`
}

// Dispatcher runs analyses against a prediction source. Only the result of the most recently
// started Run is ever installed.
type Dispatcher struct {
	source     prediction.Source
	normalizer *risk.Normalizer
	logger     *logger.Logger
	metrics    *observability.Metrics
	timeout    time.Duration
	clock      clockwork.Clock

	mu          sync.RWMutex
	token       uint64
	cancel      context.CancelFunc
	inFlight    int
	state       State
	result      *Result
	subscribers map[chan Result]struct{}
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTimeout sets the per-request timeout. Non-positive values are ignored.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// WithClock swaps the time source, tests use a fake clock for deterministic timestamps.
func WithClock(clock clockwork.Clock) Option {
	return func(d *Dispatcher) {
		if clock != nil {
			d.clock = clock
		}
	}
}

// New returns an idle Dispatcher.
func New(source prediction.Source, normalizer *risk.Normalizer, log *logger.Logger,
	metrics *observability.Metrics, opts ...Option,
) (*Dispatcher, error) {
	if source == nil {
		return nil, errors.New("prediction source is required")
	}
	if normalizer == nil {
		return nil, errors.New("risk normalizer is required")
	}
	if log == nil {
		return nil, errors.New("logger is required")
	}
	if metrics == nil {
		return nil, errors.New("metrics are required")
	}
	d := &Dispatcher{
		source:      source,
		normalizer:  normalizer,
		logger:      log,
		metrics:     metrics,
		timeout:     DefaultTimeout,
		clock:       clockwork.NewRealClock(),
		subscribers: make(map[chan Result]struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Run analyzes sel and returns the result. Starting a Run cancels the request of any Run still
// in flight; the superseded Run returns with Superseded set and its result is discarded.
func (d *Dispatcher) Run(ctx context.Context, sel selection.Selection) Result {
	return d.Begin(ctx, sel).Wait()
}

// Pending is an analysis that has drawn its token but not yet requested a prediction.
type Pending struct {
	dispatcher *Dispatcher
	ctx        context.Context
	cancel     context.CancelFunc
	sel        selection.Selection
	token      uint64
	requestID  string
	once       sync.Once
	result     Result
}

// Begin draws the token for sel and cancels the request of any analysis still in flight. The
// order of Begin calls decides which analysis wins, independent of the order Wait is called in.
// Every Pending must be waited on to release its request.
func (d *Dispatcher) Begin(ctx context.Context, sel selection.Selection) *Pending {
	d.mu.Lock()
	d.token++
	token := d.token
	if d.cancel != nil {
		d.cancel()
	}
	reqCtx, cancel := context.WithTimeout(ctx, d.timeout)
	d.cancel = cancel
	d.inFlight++
	d.state = StatePending
	d.mu.Unlock()
	d.metrics.InFlight.Inc()

	requestID := uuid.NewString()
	return &Pending{
		dispatcher: d,
		ctx:        prediction.WithRequestID(reqCtx, requestID),
		cancel:     cancel,
		sel:        sel,
		token:      token,
		requestID:  requestID,
	}
}

// Token returns the token drawn by Begin.
func (p *Pending) Token() uint64 {
	return p.token
}

// Wait requests the prediction and installs the result unless a later Begin superseded it.
// Repeated calls return the first result.
func (p *Pending) Wait() Result {
	p.once.Do(func() {
		p.result = p.dispatcher.complete(p)
	})
	return p.result
}

func (d *Dispatcher) complete(p *Pending) Result {
	defer p.cancel()
	defer d.metrics.InFlight.Dec()

	sel := p.sel
	request := prediction.Request{Date: sel.Date, Lat: sel.Lat, Lon: sel.Lon, Activity: sel.Activity}
	start := d.clock.Now()
	res, err := d.source.Predict(p.ctx, request)
	d.metrics.PredictionDuration.WithLabelValues(d.source.Name()).Observe(d.clock.Since(start).Seconds())

	result := Result{
		Selection:   sel,
		RequestID:   p.requestID,
		Token:       p.token,
		GeneratedAt: d.clock.Now(),
	}
	if err == nil {
		result.Conditions = d.normalizer.Normalize(res.Prediction)
		result.SummaryText = d.normalizer.Summary(sel.LocationLabel, sel.Date, res,
			result.Conditions[risk.Rain].RiskScore)
		result.Raw = res
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.inFlight--

	if p.token != d.token {
		result.Superseded = true
		d.metrics.StaleResponses.Inc()
		d.logger.Debug("discarding response of superseded analysis", slog.String("request_id", p.requestID),
			slog.Uint64("token", p.token), slog.Uint64("latest_token", d.token))
		return result
	}
	d.cancel = nil

	if err != nil {
		result = d.fallback(result)
		d.state = StateFailed
		d.metrics.AnalysesTotal.WithLabelValues(observability.OutcomeFallback).Inc()
		d.logger.Warn("prediction failed, installing fallback data", slog.String("request_id", p.requestID),
			slog.String("source", d.source.Name()), slog.String("location", sel.LocationLabel),
			slog.String("date", sel.Date), logger.Err(err))
	} else {
		d.state = StateSuccess
		d.metrics.AnalysesTotal.WithLabelValues(observability.OutcomeSuccess).Inc()
		d.logger.Debug("analysis installed", slog.String("request_id", p.requestID),
			slog.String("tier", risk.Highest(result.Conditions).String()))
	}
	d.install(result)
	return result
}

// fallback must be called with the lock held.
func (d *Dispatcher) fallback(result Result) Result {
	result.Fallback = true
	result.Raw = nil
	result.Conditions = risk.Baseline()
	if d.result != nil {
		result.Conditions = d.result.Conditions
	}
	result.SummaryText = FallbackSummary(result.Selection)
	return result
}

// install must be called with the lock held.
func (d *Dispatcher) install(result Result) {
	d.result = &result
	for ch := range d.subscribers {
		select {
		case ch <- result:
		default:
			d.logger.Warn("analysis subscriber is full, dropping result", slog.Uint64("token", result.Token))
		}
	}
}

// FallbackSummary is the summary of a degraded result.
func FallbackSummary(sel selection.Selection) string {
	return fmt.Sprintf("Analysis unavailable for %s on %s, showing demo data.", sel.LocationLabel, sel.Date)
}

// Busy reports whether any request is in flight.
func (d *Dispatcher) Busy() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.inFlight > 0
}

// State returns the state of the most recent Run.
func (d *Dispatcher) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// Result returns the installed result. The second value is false until a result was installed.
func (d *Dispatcher) Result() (Result, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.result == nil {
		return Result{}, false
	}
	return *d.result, true
}

// Subscribe returns a channel receiving every installed result and an unsubscribe function.
// Results that do not fit into the buffer are dropped.
func (d *Dispatcher) Subscribe(size int) (<-chan Result, func()) {
	ch := make(chan Result, size)
	d.mu.Lock()
	d.subscribers[ch] = struct{}{}
	d.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			d.mu.Lock()
			delete(d.subscribers, ch)
			d.mu.Unlock()
			close(ch)
		})
	}
}
