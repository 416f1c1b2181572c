// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package prediction

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimited wraps a Source with a token bucket limiter.
type RateLimited struct {
	source  Source
	limiter *rate.Limiter
}

// NewRateLimited returns a Source that allows rps requests per second with the given burst.
// rps may be fractional.
func NewRateLimited(source Source, rps float64, burst int) *RateLimited {
	return &RateLimited{
		source:  source,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (r *RateLimited) Name() string {
	return r.source.Name()
}

// Predict waits for the limiter before it forwards the request. A cancelled wait is reported
// as a failed request.
func (r *RateLimited) Predict(ctx context.Context, req Request) (*Response, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limit wait canceled: %w", ErrRequestFailed, err)
	}
	return r.source.Predict(ctx, req)
}
