// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package prediction defines the contract with the remote prediction service: the request sent
// for a selection, the response it answers with, and the Source interface implemented by every
// provider and decorator.
package prediction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/wneessen/rainparade/internal/logger"
	"github.com/wneessen/rainparade/internal/vartype"
)

var (
	// ErrRequestFailed covers transport errors, non-2xx answers, an open circuit breaker and
	// timeouts.
	ErrRequestFailed = errors.New("prediction request failed")

	// ErrMalformedResponse is returned when the response body cannot be decoded or misses
	// required fields.
	ErrMalformedResponse = errors.New("malformed prediction response")

	validate = validator.New(validator.WithRequiredStructEnabled())
)

// Source is implemented by every prediction backend.
type Source interface {
	Name() string
	Predict(ctx context.Context, req Request) (*Response, error)
}

// Request is the body sent to the prediction endpoint.
type Request struct {
	Date     string  `json:"date" validate:"required,datetime=2006-01-02"`
	Lat      float64 `json:"lat" validate:"latitude"`
	Lon      float64 `json:"lon" validate:"longitude"`
	Activity string  `json:"activity"`
}

// Validate checks the request before it leaves the process.
func (r Request) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid prediction request: %w", err)
	}
	return nil
}

// Record is the prediction for a single location and date.
type Record struct {
	Humidity       float64 `json:"humidity"`
	Temperature    float64 `json:"temperature"`
	RainCategory   string  `json:"rain"`
	WindSpeed      float64 `json:"wind_speed"`
	RainConfidence float64 `json:"rain_confidence"`

	// Echo of the model input, only present if the service reports it.
	InputYear  vartype.Int   `json:"input_year"`
	InputMonth vartype.Int   `json:"input_month"`
	InputLat   vartype.Float `json:"input_lat"`
	InputLon   vartype.Float `json:"input_lon"`
}

// OutOfRange returns the names of the fields holding values outside their declared ranges:
// humidity in 0-100, rain_confidence in 0-1 and a non-negative wind_speed.
func (r Record) OutOfRange() []string {
	var fields []string
	if r.Humidity < 0 || r.Humidity > 100 {
		fields = append(fields, "humidity")
	}
	if r.WindSpeed < 0 {
		fields = append(fields, "wind_speed")
	}
	if r.RainConfidence < 0 || r.RainConfidence > 1 {
		fields = append(fields, "rain_confidence")
	}
	return fields
}

// Response is the full answer of the prediction service. Body holds the document as received
// and is used for exports.
type Response struct {
	Inputs          Request         `json:"inputs"`
	Prediction      Record          `json:"prediction"`
	AnalysisSummary string          `json:"analysis_summary,omitempty"`
	Body            json.RawMessage `json:"-"`
}

// wireRecord mirrors Record with pointers so that missing fields can be told apart from zero
// values.
type wireRecord struct {
	Humidity       *float64      `json:"humidity" validate:"required"`
	Temperature    *float64      `json:"temperature" validate:"required"`
	Rain           *string       `json:"rain" validate:"required"`
	WindSpeed      *float64      `json:"wind_speed" validate:"required"`
	RainConfidence *float64      `json:"rain_confidence" validate:"required"`
	InputYear      vartype.Int   `json:"input_year"`
	InputMonth     vartype.Int   `json:"input_month"`
	InputLat       vartype.Float `json:"input_lat"`
	InputLon       vartype.Float `json:"input_lon"`
}

type wireResponse struct {
	Inputs          Request     `json:"inputs" validate:"-"`
	Prediction      *wireRecord `json:"prediction" validate:"required"`
	AnalysisSummary *string     `json:"analysis_summary"`
}

// DecodeResponse parses and validates a raw prediction document. Errors match
// ErrMalformedResponse. Values outside their declared ranges are kept as received and logged
// as a warning if log is not nil.
func DecodeResponse(body []byte, log *logger.Logger) (*Response, error) {
	wire := new(wireResponse)
	if err := json.Unmarshal(body, wire); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if err := validate.Struct(wire); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	res := &Response{
		Inputs: wire.Inputs,
		Prediction: Record{
			Humidity:       *wire.Prediction.Humidity,
			Temperature:    *wire.Prediction.Temperature,
			RainCategory:   *wire.Prediction.Rain,
			WindSpeed:      *wire.Prediction.WindSpeed,
			RainConfidence: *wire.Prediction.RainConfidence,
			InputYear:      wire.Prediction.InputYear,
			InputMonth:     wire.Prediction.InputMonth,
			InputLat:       wire.Prediction.InputLat,
			InputLon:       wire.Prediction.InputLon,
		},
		Body: append(json.RawMessage(nil), body...),
	}
	if wire.AnalysisSummary != nil {
		res.AnalysisSummary = *wire.AnalysisSummary
	}
	if fields := res.Prediction.OutOfRange(); len(fields) > 0 && log != nil {
		log.Warn("prediction holds values outside their declared ranges",
			slog.String("fields", strings.Join(fields, ",")), slog.Float64("humidity", res.Prediction.Humidity),
			slog.Float64("wind_speed", res.Prediction.WindSpeed),
			slog.Float64("rain_confidence", res.Prediction.RainConfidence))
	}
	return res, nil
}

// Document returns the response as a JSON document, preferring the body as received.
func (r *Response) Document() ([]byte, error) {
	if r == nil {
		return nil, errors.New("no prediction response")
	}
	if len(r.Body) > 0 {
		return r.Body, nil
	}
	return json.Marshal(r)
}
