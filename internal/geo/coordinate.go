// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package geo provides the coordinate type shared by the resolver, the selection store and
// the prediction providers.
package geo

import (
	"fmt"
	"math"
)

const (
	MinLat = -90.0
	MaxLat = 90.0
	MinLon = -180.0
	MaxLon = 180.0

	// LabelPrecision is the number of decimal places used when a coordinate is rendered into
	// a location label.
	LabelPrecision = 4
)

// Coordinate represents a geographic coordinate in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lon float64 `json:"lon" validate:"longitude"`
}

// Valid checks if the coordinate is finite and within the EPSG:4326 bounds.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lon, 0) {
		return false
	}
	return c.Lat >= MinLat && c.Lat <= MaxLat && c.Lon >= MinLon && c.Lon <= MaxLon
}

// Equal reports whether both coordinates point to the same position.
func (c Coordinate) Equal(other Coordinate) bool {
	return c.Lat == other.Lat && c.Lon == other.Lon
}

// PinLabel returns the label a map click produces when no place name is known.
func (c Coordinate) PinLabel() string {
	return fmt.Sprintf("Map Pin: %.*f, %.*f", LabelPrecision, c.Lat, LabelPrecision, c.Lon)
}

// String returns the coordinate in the "(lat, lon)" form the resolver understands.
func (c Coordinate) String() string {
	return fmt.Sprintf("(%.*f, %.*f)", LabelPrecision, c.Lat, LabelPrecision, c.Lon)
}

// Truncate cuts x to the given number of decimal places.
func Truncate(x float64, precision int) float64 {
	p := math.Pow(10, float64(precision))
	return math.Trunc(x*p) / p
}
