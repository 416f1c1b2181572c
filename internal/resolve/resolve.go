// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package resolve turns the raw input of the selection surfaces (a location label that may or
// may not embed coordinates, and a date in one of several display formats) into a canonical
// coordinate and ISO calendar date.
package resolve

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/wneessen/rainparade/internal/geo"
)

// ISODate is the layout of the calendar date sent to the prediction endpoint.
const ISODate = "2006-01-02"

// DefaultCoordinate is used when a location label carries no coordinates (Cairo, Egypt).
var DefaultCoordinate = geo.Coordinate{Lat: 30.0444, Lon: 31.2357}

var (
	// ErrMalformedDate is matched by every MalformedDateError.
	ErrMalformedDate = errors.New("malformed date")

	// ErrCoordinateUnresolved reports that a label carried no usable coordinates. It is never
	// returned by Resolve, the default coordinate is substituted instead.
	ErrCoordinateUnresolved = errors.New("coordinate could not be resolved from location label")
)

// dateLayouts lists the accepted date display formats, tried in order.
var dateLayouts = []string{
	ISODate,
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"02.01.2006",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

var (
	parenLatLon  = regexp.MustCompile(`\((-?\d+(?:\.\d+)?)[,\s]+(-?\d+(?:\.\d+)?)\)`)
	floatPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
)

// MalformedDateError is returned when a raw date cannot be parsed into a calendar date.
type MalformedDateError struct {
	Input string
}

func (e *MalformedDateError) Error() string {
	return fmt.Sprintf("malformed date %q: expected a calendar date such as 2006-01-02", e.Input)
}

// Is allows errors.Is(err, ErrMalformedDate).
func (e *MalformedDateError) Is(target error) bool {
	return target == ErrMalformedDate
}

// Resolution is the canonical outcome of a Resolve call.
type Resolution struct {
	Coordinate geo.Coordinate
	Date       string

	// Defaulted is true if no coordinates could be resolved and Fallback was substituted.
	Defaulted bool
}

// Resolver resolves labels and raw dates. The zero value uses DefaultCoordinate.
type Resolver struct {
	Fallback geo.Coordinate
}

// New returns a Resolver that substitutes fallback for unresolvable labels.
func New(fallback geo.Coordinate) *Resolver {
	return &Resolver{Fallback: fallback}
}

// Resolve returns the coordinate and ISO date for the given input. Explicit coordinates are
// authoritative and bypass label parsing. A label without usable coordinates resolves to the
// fallback coordinate. A date that cannot be parsed fails with a *MalformedDateError.
func (r *Resolver) Resolve(label, rawDate string, explicit *geo.Coordinate) (Resolution, error) {
	date, err := ParseDate(rawDate)
	if err != nil {
		return Resolution{}, err
	}

	coord, defaulted := r.Coordinate(label, explicit)
	return Resolution{Coordinate: coord, Date: date, Defaulted: defaulted}, nil
}

// Coordinate resolves only the coordinate part. The returned flag is true if the fallback
// coordinate was substituted.
func (r *Resolver) Coordinate(label string, explicit *geo.Coordinate) (geo.Coordinate, bool) {
	if explicit != nil {
		return *explicit, false
	}
	coord, err := CoordinateFromLabel(label)
	if err != nil {
		return r.fallback(), true
	}
	return coord, false
}

func (r *Resolver) fallback() geo.Coordinate {
	if r == nil || (r.Fallback == geo.Coordinate{}) {
		return DefaultCoordinate
	}
	return r.Fallback
}

// CoordinateFromLabel extracts a coordinate from a location label. The "(lat, lon)" form wins;
// otherwise the first two numbers in the label are used in order. Pairs that are out of range
// are rejected.
func CoordinateFromLabel(label string) (geo.Coordinate, error) {
	if m := parenLatLon.FindStringSubmatch(label); m != nil {
		if coord, ok := parsePair(m[1], m[2]); ok {
			return coord, nil
		}
	}

	nums := floatPattern.FindAllString(label, 2)
	if len(nums) == 2 {
		if coord, ok := parsePair(nums[0], nums[1]); ok {
			return coord, nil
		}
	}
	return geo.Coordinate{}, ErrCoordinateUnresolved
}

func parsePair(rawLat, rawLon string) (geo.Coordinate, bool) {
	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil {
		return geo.Coordinate{}, false
	}
	lon, err := strconv.ParseFloat(rawLon, 64)
	if err != nil {
		return geo.Coordinate{}, false
	}
	coord := geo.Coordinate{Lat: lat, Lon: lon}
	if math.IsNaN(lat) || math.IsNaN(lon) || !coord.Valid() {
		return geo.Coordinate{}, false
	}
	return coord, true
}

// ParseDate converts a raw date in any of the accepted display formats into ISO form.
func ParseDate(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", &MalformedDateError{Input: raw}
	}
	for _, layout := range dateLayouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			return parsed.Format(ISODate), nil
		}
	}
	return "", &MalformedDateError{Input: raw}
}
