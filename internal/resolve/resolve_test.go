// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package resolve

import (
	"errors"
	"testing"

	"github.com/wneessen/rainparade/internal/geo"
)

func TestResolver_Resolve(t *testing.T) {
	resolver := New(DefaultCoordinate)

	t.Run("coordinates embedded in the label are used", func(t *testing.T) {
		res, err := resolver.Resolve("X (12.3456, -65.4321)", "2026-07-15", nil)
		if err != nil {
			t.Fatalf("failed to resolve: %s", err)
		}
		if res.Coordinate.Lat != 12.3456 {
			t.Errorf("expected lat to be %f, got %f", 12.3456, res.Coordinate.Lat)
		}
		if res.Coordinate.Lon != -65.4321 {
			t.Errorf("expected lon to be %f, got %f", -65.4321, res.Coordinate.Lon)
		}
		if res.Defaulted {
			t.Error("expected resolution to not be defaulted")
		}
	})
	t.Run("unknown place resolves to the default coordinate", func(t *testing.T) {
		res, err := resolver.Resolve("Unknown Place", "2026-07-15", nil)
		if err != nil {
			t.Fatalf("failed to resolve: %s", err)
		}
		if !res.Coordinate.Equal(DefaultCoordinate) {
			t.Errorf("expected default coordinate %s, got %s", DefaultCoordinate, res.Coordinate)
		}
		if !res.Defaulted {
			t.Error("expected resolution to be defaulted")
		}
	})
	t.Run("explicit coordinates bypass the label", func(t *testing.T) {
		explicit := &geo.Coordinate{Lat: -33.8688, Lon: 151.2093}
		res, err := resolver.Resolve("Cairo, Egypt (30.0444, 31.2357)", "2026-07-15", explicit)
		if err != nil {
			t.Fatalf("failed to resolve: %s", err)
		}
		if !res.Coordinate.Equal(*explicit) {
			t.Errorf("expected explicit coordinate %s, got %s", explicit, res.Coordinate)
		}
	})
	t.Run("map pin labels are resolved", func(t *testing.T) {
		res, err := resolver.Resolve("Map Pin: 48.8566, 2.3522", "2026-07-15", nil)
		if err != nil {
			t.Fatalf("failed to resolve: %s", err)
		}
		want := geo.Coordinate{Lat: 48.8566, Lon: 2.3522}
		if !res.Coordinate.Equal(want) {
			t.Errorf("expected coordinate %s, got %s", want, res.Coordinate)
		}
	})
	t.Run("out of range coordinates fall back to the default", func(t *testing.T) {
		res, err := resolver.Resolve("Nowhere (123.0, 45.0)", "2026-07-15", nil)
		if err != nil {
			t.Fatalf("failed to resolve: %s", err)
		}
		if !res.Defaulted {
			t.Error("expected resolution to be defaulted")
		}
	})
	t.Run("malformed date fails loudly", func(t *testing.T) {
		_, err := resolver.Resolve("Unknown Place", "not-a-date", nil)
		if err == nil {
			t.Fatal("expected resolve to fail")
		}
		if !errors.Is(err, ErrMalformedDate) {
			t.Errorf("expected error to be %s, got %s", ErrMalformedDate, err)
		}
		var dateErr *MalformedDateError
		if !errors.As(err, &dateErr) {
			t.Fatalf("expected error to be a MalformedDateError, got %T", err)
		}
		if dateErr.Input != "not-a-date" {
			t.Errorf("expected input to be %q, got %q", "not-a-date", dateErr.Input)
		}
	})
	t.Run("zero value resolver uses the package default", func(t *testing.T) {
		var zero Resolver
		res, err := zero.Resolve("Unknown Place", "2026-07-15", nil)
		if err != nil {
			t.Fatalf("failed to resolve: %s", err)
		}
		if !res.Coordinate.Equal(DefaultCoordinate) {
			t.Errorf("expected default coordinate %s, got %s", DefaultCoordinate, res.Coordinate)
		}
	})
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"iso", "2026-07-15", "2026-07-15", false},
		{"long month", "July 15, 2026", "2026-07-15", false},
		{"short month", "Jul 15, 2026", "2026-07-15", false},
		{"day first", "15 July 2026", "2026-07-15", false},
		{"dotted", "15.07.2026", "2026-07-15", false},
		{"rfc3339", "2026-07-15T10:30:00Z", "2026-07-15", false},
		{"padded", "  2026-07-15 ", "2026-07-15", false},
		{"empty", "", "", true},
		{"garbage", "not-a-date", "", true},
		{"invalid day", "2026-02-30", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseDate(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected parsing %q to fail", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("failed to parse date: %s", err)
			}
			if got != tc.want {
				t.Errorf("expected date to be %q, got %q", tc.want, got)
			}
		})
	}
}

func TestCoordinateFromLabel(t *testing.T) {
	t.Run("parenthesised pair wins over other numbers", func(t *testing.T) {
		coord, err := CoordinateFromLabel("Route 66 (35.1983, -111.6513)")
		if err != nil {
			t.Fatalf("failed to parse label: %s", err)
		}
		want := geo.Coordinate{Lat: 35.1983, Lon: -111.6513}
		if !coord.Equal(want) {
			t.Errorf("expected coordinate %s, got %s", want, coord)
		}
	})
	t.Run("single number is not a coordinate", func(t *testing.T) {
		_, err := CoordinateFromLabel("District 9")
		if !errors.Is(err, ErrCoordinateUnresolved) {
			t.Errorf("expected error to be %s, got %v", ErrCoordinateUnresolved, err)
		}
	})
}
