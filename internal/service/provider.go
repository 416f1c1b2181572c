// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"fmt"
	"strings"

	"github.com/wneessen/rainparade/internal/config"
	"github.com/wneessen/rainparade/internal/http"
	"github.com/wneessen/rainparade/internal/logger"
	"github.com/wneessen/rainparade/internal/prediction"
	"github.com/wneessen/rainparade/internal/prediction/provider/activityapi"
	openmeteo "github.com/wneessen/rainparade/internal/prediction/provider/open-meteo"
)

// selectPredictionSource creates the configured provider and wraps it into the circuit breaker
// and the rate limiter. The limiter is the outer decorator, so waiting for a token never counts
// as a breaker failure.
func selectPredictionSource(conf *config.Config, log *logger.Logger) (prediction.Source, error) {
	var source prediction.Source
	switch strings.ToLower(conf.Prediction.Provider) {
	case config.ProviderActivityAPI:
		api, err := activityapi.New(http.New(log), log, conf.Prediction.BaseURL, conf.Prediction.Path,
			conf.Prediction.Timeout)
		if err != nil {
			return nil, fmt.Errorf("failed to create activity API provider: %w", err)
		}
		source = api
	case config.ProviderOpenMeteo:
		om, err := openmeteo.New(log)
		if err != nil {
			return nil, fmt.Errorf("failed to create Open-Meteo provider: %w", err)
		}
		source = om
	default:
		return nil, fmt.Errorf("unsupported prediction provider: %s", conf.Prediction.Provider)
	}

	if conf.Prediction.BreakerFailures > 0 {
		source = prediction.NewBreaker(source, conf.Prediction.BreakerFailures, conf.Prediction.BreakerTimeout, log)
	}
	if conf.Prediction.RateLimit > 0 {
		source = prediction.NewRateLimited(source, conf.Prediction.RateLimit, conf.Prediction.Burst)
	}
	return source, nil
}
