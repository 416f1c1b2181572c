// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package open_meteo

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/hectormalot/omgo"

	"github.com/wneessen/rainparade/internal/logger"
	"github.com/wneessen/rainparade/internal/prediction"
)

type fakeForecaster struct {
	forecast *omgo.Forecast
	err      error
	opts     *omgo.Options
}

func (f *fakeForecaster) Forecast(_ context.Context, _ omgo.Location, opts *omgo.Options) (*omgo.Forecast, error) {
	f.opts = opts
	return f.forecast, f.err
}

func testForecast() *omgo.Forecast {
	start := time.Date(2026, 7, 14, 22, 0, 0, 0, time.UTC)
	times := make([]time.Time, 4)
	for i := range times {
		times[i] = start.Add(time.Duration(i) * time.Hour)
	}
	// 22:00 and 23:00 belong to the previous day and must be ignored.
	return &omgo.Forecast{
		Latitude:    30.0,
		Longitude:   31.25,
		HourlyTimes: times,
		HourlyMetrics: map[string][]float64{
			"temperature_2m":            {50, 50, 30, 36},
			"relative_humidity_2m":      {99, 99, 40, 60},
			"wind_speed_10m":            {90, 90, 4, 6},
			"precipitation":             {9, 9, 0.5, 1.0},
			"precipitation_probability": {100, 100, 20, 45},
		},
	}
}

func TestNew(t *testing.T) {
	provider, err := New(logger.NewLogger(slog.LevelDebug, io.Discard))
	if err != nil {
		t.Fatalf("failed to create provider: %s", err)
	}
	if provider.Name() != "open-meteo" {
		t.Errorf("expected name to be 'open-meteo', got %q", provider.Name())
	}
	if _, err = New(nil); err == nil {
		t.Error("expected missing logger to fail")
	}
}

func TestOpenMeteo_Predict(t *testing.T) {
	req := prediction.Request{Date: "2026-07-15", Lat: 30.0444, Lon: 31.2357, Activity: "cycling"}

	t.Run("hourly values of the day are aggregated", func(t *testing.T) {
		fake := &fakeForecaster{forecast: testForecast()}
		provider := &OpenMeteo{client: fake, log: logger.NewLogger(slog.LevelDebug, io.Discard)}

		res, err := provider.Predict(t.Context(), req)
		if err != nil {
			t.Fatalf("prediction failed: %s", err)
		}
		rec := res.Prediction
		if rec.Temperature != 36 {
			t.Errorf("expected max temperature 36, got %f", rec.Temperature)
		}
		if rec.Humidity != 50 {
			t.Errorf("expected mean humidity 50, got %f", rec.Humidity)
		}
		if rec.WindSpeed != 6 {
			t.Errorf("expected max wind speed 6, got %f", rec.WindSpeed)
		}
		if math.Abs(rec.RainConfidence-0.45) > 1e-9 {
			t.Errorf("expected rain confidence 0.45, got %f", rec.RainConfidence)
		}
		if rec.RainCategory != RainCategoryLight {
			t.Errorf("expected rain category %q, got %q", RainCategoryLight, rec.RainCategory)
		}
		if rec.InputYear.Value() != 2026 || rec.InputMonth.Value() != 7 {
			t.Errorf("expected input year/month 2026/7, got %s/%s", rec.InputYear, rec.InputMonth)
		}
		if rec.InputLat.Value() != 30.0 {
			t.Errorf("expected input lat to be the grid latitude, got %s", rec.InputLat)
		}
		if len(res.Body) == 0 {
			t.Error("expected response document to be set")
		}
		if fake.opts == nil || fake.opts.WindspeedUnit != "ms" {
			t.Error("expected wind speed to be requested in m/s")
		}
	})
	t.Run("date outside of the forecast fails", func(t *testing.T) {
		provider := &OpenMeteo{client: &fakeForecaster{forecast: testForecast()},
			log: logger.NewLogger(slog.LevelDebug, io.Discard)}
		_, err := provider.Predict(t.Context(), prediction.Request{Date: "2027-01-01", Lat: 1, Lon: 1})
		if !errors.Is(err, prediction.ErrRequestFailed) {
			t.Errorf("expected error to be %s, got %v", prediction.ErrRequestFailed, err)
		}
	})
	t.Run("client error fails", func(t *testing.T) {
		provider := &OpenMeteo{client: &fakeForecaster{err: errors.New("unavailable")},
			log: logger.NewLogger(slog.LevelDebug, io.Discard)}
		_, err := provider.Predict(t.Context(), req)
		if !errors.Is(err, prediction.ErrRequestFailed) {
			t.Errorf("expected error to be %s, got %v", prediction.ErrRequestFailed, err)
		}
	})
}

func TestRainCategory(t *testing.T) {
	tests := []struct {
		mm   float64
		want string
	}{
		{0, RainCategoryNone},
		{0.1, RainCategoryLight},
		{2.49, RainCategoryLight},
		{2.5, RainCategoryHeavy},
		{40, RainCategoryHeavy},
	}
	for _, tc := range tests {
		if got := rainCategory(tc.mm); got != tc.want {
			t.Errorf("rainCategory(%f): expected %q, got %q", tc.mm, tc.want, got)
		}
	}
}
