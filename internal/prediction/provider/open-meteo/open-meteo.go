// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package open_meteo

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/hectormalot/omgo"

	"github.com/wneessen/rainparade/internal/logger"
	"github.com/wneessen/rainparade/internal/prediction"
	"github.com/wneessen/rainparade/internal/vartype"
)

const (
	name = "open-meteo"

	isoDate = "2006-01-02"

	// Daily precipitation sums (mm) that separate the rain categories.
	lightRainLimit = 2.5
)

const (
	RainCategoryNone  = "No Rain"
	RainCategoryLight = "Light Rain"
	RainCategoryHeavy = "Heavy Rain"
)

var hourlyMetrics = []string{
	"temperature_2m", "relative_humidity_2m", "wind_speed_10m", "precipitation",
	"precipitation_probability",
}

type forecaster interface {
	Forecast(ctx context.Context, loc omgo.Location, opts *omgo.Options) (*omgo.Forecast, error)
}

// OpenMeteo builds a prediction from the Open-Meteo hourly forecast of the selected day. It only
// covers the forecast horizon of the API, dates outside of it fail.
type OpenMeteo struct {
	client forecaster
	log    *logger.Logger
}

func New(log *logger.Logger) (*OpenMeteo, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	client, err := omgo.NewClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create Open-Meteo client: %w", err)
	}
	return &OpenMeteo{client: &client, log: log}, nil
}

func (o *OpenMeteo) Name() string {
	return name
}

func (o *OpenMeteo) Predict(ctx context.Context, req prediction.Request) (*prediction.Response, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", prediction.ErrRequestFailed, err)
	}
	day, err := time.Parse(isoDate, req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", prediction.ErrRequestFailed, err)
	}
	location, err := omgo.NewLocation(req.Lat, req.Lon)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Open-Meteo location: %w", prediction.ErrRequestFailed, err)
	}

	opts := &omgo.Options{
		TemperatureUnit:   "celsius",
		WindspeedUnit:     "ms",
		PrecipitationUnit: "mm",
		Timezone:          "auto",
		HourlyMetrics:     hourlyMetrics,
	}
	forecast, err := o.client.Forecast(ctx, location, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get forecast data: %w", prediction.ErrRequestFailed, err)
	}

	record, err := aggregateDay(forecast, req.Date)
	if err != nil {
		return nil, err
	}
	record.InputYear = vartype.Of(day.Year())
	record.InputMonth = vartype.Of(int(day.Month()))
	record.InputLat = vartype.Of(forecast.Latitude)
	record.InputLon = vartype.Of(forecast.Longitude)

	res := &prediction.Response{Inputs: req, Prediction: record}
	body, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", prediction.ErrMalformedResponse, err)
	}
	res.Body = body
	return res, nil
}

// aggregateDay reduces the hourly values of the given date to a single record: mean humidity,
// maximum temperature and wind speed, precipitation sum and the highest precipitation
// probability.
func aggregateDay(forecast *omgo.Forecast, date string) (prediction.Record, error) {
	var (
		hours                       int
		humidity, precipitation     float64
		maxTemp, maxWind, maxChance = math.Inf(-1), math.Inf(-1), 0.0
	)
	for i, t := range forecast.HourlyTimes {
		if t.Format(isoDate) != date {
			continue
		}
		hours++
		humidity += metricAt(forecast, "relative_humidity_2m", i)
		precipitation += metricAt(forecast, "precipitation", i)
		maxTemp = math.Max(maxTemp, metricAt(forecast, "temperature_2m", i))
		maxWind = math.Max(maxWind, metricAt(forecast, "wind_speed_10m", i))
		maxChance = math.Max(maxChance, metricAt(forecast, "precipitation_probability", i))
	}
	if hours == 0 {
		return prediction.Record{}, fmt.Errorf("%w: date %s is outside of the Open-Meteo forecast range",
			prediction.ErrRequestFailed, date)
	}

	return prediction.Record{
		Humidity:       humidity / float64(hours),
		Temperature:    maxTemp,
		RainCategory:   rainCategory(precipitation),
		WindSpeed:      maxWind,
		RainConfidence: maxChance / 100,
	}, nil
}

func metricAt(forecast *omgo.Forecast, metric string, idx int) float64 {
	values, ok := forecast.HourlyMetrics[metric]
	if !ok || idx >= len(values) {
		return 0
	}
	return values[idx]
}

func rainCategory(precipitation float64) string {
	switch {
	case precipitation <= 0:
		return RainCategoryNone
	case precipitation < lightRainLimit:
		return RainCategoryLight
	default:
		return RainCategoryHeavy
	}
}
