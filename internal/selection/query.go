// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package selection

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/wneessen/rainparade/internal/geo"
	"github.com/wneessen/rainparade/internal/resolve"
)

// Navigation parameter names understood by ParseQuery.
const (
	ParamLocation = "location"
	ParamDate     = "date"
	ParamActivity = "activity"
	ParamLat      = "lat"
	ParamLon      = "lon"
)

var ErrIncompleteCoordinate = errors.New("lat and lon must be given together")

// ParseQuery turns navigation parameters (?location=&date=&lat=&lon=&activity=) into a Partial.
// Explicit lat/lon win over coordinates embedded in the location label; explicit coordinates
// without a label get a map pin label. A malformed date fails with a *resolve.MalformedDateError.
func ParseQuery(values url.Values, resolver *resolve.Resolver) (Partial, error) {
	var partial Partial
	if resolver == nil {
		resolver = resolve.New(resolve.DefaultCoordinate)
	}

	if values.Has(ParamDate) {
		date, err := resolve.ParseDate(values.Get(ParamDate))
		if err != nil {
			return Partial{}, err
		}
		partial.Date = &date
	}

	if values.Has(ParamActivity) {
		activity := strings.TrimSpace(values.Get(ParamActivity))
		partial.Activity = &activity
	}

	explicit, err := explicitCoordinate(values)
	if err != nil {
		return Partial{}, err
	}

	label := strings.TrimSpace(values.Get(ParamLocation))
	switch {
	case explicit != nil:
		if label == "" {
			label = explicit.PinLabel()
		}
		partial.LocationLabel = &label
		partial.Lat, partial.Lon = &explicit.Lat, &explicit.Lon
	case label != "":
		coord, defaulted := resolver.Coordinate(label, nil)
		partial.LocationLabel = &label
		partial.Lat, partial.Lon = &coord.Lat, &coord.Lon
		partial.Defaulted = defaulted
	}

	return partial, nil
}

func explicitCoordinate(values url.Values) (*geo.Coordinate, error) {
	rawLat, rawLon := strings.TrimSpace(values.Get(ParamLat)), strings.TrimSpace(values.Get(ParamLon))
	if rawLat == "" && rawLon == "" {
		return nil, nil
	}
	if rawLat == "" || rawLon == "" {
		return nil, ErrIncompleteCoordinate
	}
	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse latitude: %w", ErrInvalidSelection, err)
	}
	lon, err := strconv.ParseFloat(rawLon, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse longitude: %w", ErrInvalidSelection, err)
	}
	coord := geo.Coordinate{Lat: lat, Lon: lon}
	if !coord.Valid() {
		return nil, fmt.Errorf("%w: coordinate %s out of range", ErrInvalidSelection, coord)
	}
	return &coord, nil
}

// UpdateFromQuery parses the navigation parameters and applies them to the store.
func (s *Store) UpdateFromQuery(values url.Values, resolver *resolve.Resolver) (Selection, error) {
	partial, err := ParseQuery(values, resolver)
	if err != nil {
		return s.Current(), err
	}
	if partial.Defaulted && s.logger != nil {
		s.logger.Debug("location label carries no coordinates, using the default coordinate",
			slog.String("location", *partial.LocationLabel), slog.Float64("lat", *partial.Lat),
			slog.Float64("lon", *partial.Lon))
	}
	return s.Update(partial)
}
