// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package activityapi implements the prediction source for the activity prediction service
// (POST /api/v1/activity).
package activityapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/wneessen/rainparade/internal/http"
	"github.com/wneessen/rainparade/internal/logger"
	"github.com/wneessen/rainparade/internal/prediction"
)

const (
	name = "activity-api"

	DefaultBaseURL = "http://127.0.0.1:8000"
	DefaultPath    = "/api/v1/activity"
	DefaultTimeout = time.Second * 10
)

type ActivityAPI struct {
	endpoint string
	timeout  time.Duration
	http     *http.Client
	log      *logger.Logger
}

func New(http *http.Client, log *logger.Logger, baseURL, path string, timeout time.Duration) (*ActivityAPI, error) {
	if http == nil {
		return nil, fmt.Errorf("http client is required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if path == "" {
		path = DefaultPath
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prediction base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("unsupported prediction base URL scheme: %q", base.Scheme)
	}

	return &ActivityAPI{
		endpoint: base.JoinPath(path).String(),
		timeout:  timeout,
		http:     http,
		log:      log,
	}, nil
}

func (a *ActivityAPI) Name() string {
	return name
}

// Endpoint returns the URL the requests are posted to.
func (a *ActivityAPI) Endpoint() string {
	return a.endpoint
}

func (a *ActivityAPI) Predict(ctx context.Context, req prediction.Request) (*prediction.Response, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", prediction.ErrRequestFailed, err)
	}

	headers := make(map[string]string)
	if id := prediction.RequestIDFromContext(ctx); id != "" {
		headers[prediction.RequestIDHeader] = id
	}

	var body json.RawMessage
	code, err := a.http.PostJSON(ctx, a.endpoint, req, &body, headers, a.timeout)
	if err != nil {
		if errors.Is(err, http.ErrInvalidJSON) {
			return nil, fmt.Errorf("%w: %w", prediction.ErrMalformedResponse, err)
		}
		return nil, fmt.Errorf("%w: %w", prediction.ErrRequestFailed, err)
	}
	a.log.Debug("prediction service answered", slog.Int("status", code), slog.String("endpoint", a.endpoint),
		slog.Int("bytes", len(body)))

	return prediction.DecodeResponse(body, a.log)
}
