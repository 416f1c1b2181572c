// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"runtime"
	"time"

	"github.com/wneessen/rainparade/internal/logger"
)

const (
	// DefaultTimeout applies when PostJSON is called without a timeout.
	DefaultTimeout = time.Second * 10

	// errorBodyLimit caps how much of a non-2xx response body is kept for the error message.
	errorBodyLimit = 512
	// responseLimit caps the size of a decoded response body.
	responseLimit = 1 << 20
)

var (
	// version is set at build time
	version = "dev"
	// UserAgent is sent with every request to the prediction service
	UserAgent = fmt.Sprintf("rainparade/%s (%s; %s; +https://github.com/wneessen/rainparade/)",
		version, runtime.GOOS, runtime.GOARCH)

	ErrNonPointerTarget = errors.New("target must be a non-nil pointer")
	ErrUnexpectedStatus = errors.New("unexpected HTTP status code")
	ErrInvalidJSON      = errors.New("failed to decode JSON")
)

// StatusError is returned for responses outside the 2xx range. It matches ErrUnexpectedStatus.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected HTTP status code: %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected HTTP status code: %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrUnexpectedStatus
}

// Client is a JSON client for the prediction service.
type Client struct {
	*http.Client
	logger *logger.Logger
}

func New(log *logger.Logger) *Client {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
		Proxy:           http.ProxyFromEnvironment,
	}
	return &Client{
		Client: &http.Client{Timeout: DefaultTimeout, Transport: transport},
		logger: log,
	}
}

// PostJSON sends payload as JSON request body to endpoint and decodes the JSON answer into
// target. It returns the HTTP status code of the answer. Answers outside the 2xx range fail
// with a *StatusError. A timeout of zero uses DefaultTimeout.
func (h *Client) PostJSON(ctx context.Context, endpoint string, payload, target any, headers map[string]string,
	timeout time.Duration,
) (int, error) {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return 0, ErrNonPointerTarget
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to encode JSON request body: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	header := http.Header{
		"User-Agent":   {UserAgent},
		"Accept":       {"application/json"},
		"Content-Type": {"application/json"},
	}
	for key, value := range headers {
		header.Set(key, value)
	}
	request.Header = header

	response, err := h.Do(request)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to perform HTTP request: %w", err)
	}
	defer func() {
		if err := response.Body.Close(); err != nil {
			h.logger.Error("failed to close HTTP response body", logger.Err(err))
		}
	}()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(response.Body, errorBodyLimit))
		return response.StatusCode, &StatusError{
			StatusCode: response.StatusCode,
			Body:       string(bytes.TrimSpace(snippet)),
		}
	}

	if err = json.NewDecoder(io.LimitReader(response.Body, responseLimit)).Decode(target); err != nil {
		return response.StatusCode, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	return response.StatusCode, nil
}
