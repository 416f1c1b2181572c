// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package selection

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/wneessen/rainparade/internal/job"
	"github.com/wneessen/rainparade/internal/logger"
	"github.com/wneessen/rainparade/internal/resolve"
)

const DefaultFilePollInterval = time.Second * 5

var fileKeys = map[string]struct{}{
	ParamLocation: {}, ParamDate: {}, ParamActivity: {}, ParamLat: {}, ParamLon: {},
}

// FileSurface applies a small key/value selection file to the store whenever its content
// changes. Example:
//
//	# picnic plans
//	location = Cairo, Egypt (30.0444, 31.2357)
//	date = July 15, 2026
//	activity = picnic
type FileSurface struct {
	path     string
	interval time.Duration
	store    *Store
	resolver *resolve.Resolver
	logger   *logger.Logger

	mu   sync.Mutex
	last string
}

func NewFileSurface(path string, interval time.Duration, store *Store, resolver *resolve.Resolver,
	log *logger.Logger,
) (*FileSurface, error) {
	if path == "" {
		return nil, errors.New("selection file path is required")
	}
	if store == nil {
		return nil, errors.New("selection store is required")
	}
	if log == nil {
		return nil, errors.New("logger is required")
	}
	if interval <= 0 {
		interval = DefaultFilePollInterval
	}
	return &FileSurface{
		path:     path,
		interval: interval,
		store:    store,
		resolver: resolver,
		logger:   log,
	}, nil
}

// Run polls the file until ctx is cancelled. The first poll happens right away.
func (f *FileSurface) Run(ctx context.Context) {
	job.New(f.interval, f.poll, job.RunImmediately()).Start(ctx)
}

func (f *FileSurface) poll(ctx context.Context) {
	changed, err := f.Poll(ctx)
	switch {
	case err != nil:
		f.logger.Warn("failed to apply selection file", slog.String("path", f.path), logger.Err(err))
	case changed:
		f.logger.Debug("selection file applied", slog.String("path", f.path))
	}
}

// Poll reads the file once and applies it if its content differs from the last applied content.
// Content that fails to parse or apply is retried on every poll, so the error is reported until
// the file is fixed. A missing file is not an error.
func (f *FileSurface) Poll(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read selection file: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	content := string(data)
	if content == f.last {
		return false, nil
	}

	values, err := ParseFile(strings.NewReader(content))
	if err != nil {
		return false, err
	}
	if _, err = f.store.UpdateFromQuery(values, f.resolver); err != nil {
		return false, err
	}
	f.last = content
	return true, nil
}

// ParseFile reads "key = value" lines. Blank lines and lines starting with # are skipped.
func ParseFile(r io.Reader) (url.Values, error) {
	values := make(url.Values)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("selection file line %d: missing '='", lineNo)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if _, known := fileKeys[key]; !known {
			return nil, fmt.Errorf("selection file line %d: unknown key %q", lineNo, key)
		}
		values.Set(key, strings.TrimSpace(value))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan selection file: %w", err)
	}
	return values, nil
}
