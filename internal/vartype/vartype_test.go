// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package vartype

import (
	"encoding/json"
	"testing"
)

type echo struct {
	Year Int   `json:"input_year"`
	Lat  Float `json:"input_lat"`
}

func TestOptional(t *testing.T) {
	t.Run("reported value", func(t *testing.T) {
		o := Of(12.5)
		if !o.IsSet() {
			t.Fatal("expected optional to be set")
		}
		if o.Value() != 12.5 || o.Or(1) != 12.5 {
			t.Errorf("expected value to be 12.5, got %f", o.Value())
		}
		if o.String() != "12.5" {
			t.Errorf("expected string 12.5, got %q", o.String())
		}
	})
	t.Run("zero optional is unset", func(t *testing.T) {
		var o Int
		if o.IsSet() {
			t.Error("expected optional to be unset")
		}
		if o.Or(2026) != 2026 {
			t.Errorf("expected fallback value, got %d", o.Or(2026))
		}
		if o.String() != "not reported" {
			t.Errorf("expected placeholder string, got %q", o.String())
		}
	})
}

func TestOptional_JSON(t *testing.T) {
	tests := []struct {
		name     string
		start    echo
		input    string
		wantYear Int
		wantLat  Float
	}{
		{"both reported", echo{}, `{"input_year":2026,"input_lat":30.0444}`, Of(2026), Of(30.0444)},
		{"absent field", echo{}, `{"input_lat":-33.8688}`, Int{}, Of(-33.8688)},
		{"explicit null clears", echo{Year: Of(1), Lat: Of(1.0)}, `{"input_year":null,"input_lat":null}`, Int{}, Float{}},
		{"zero is reported", echo{}, `{"input_year":0}`, Of(0), Float{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := tc.start
			if err := json.Unmarshal([]byte(tc.input), &e); err != nil {
				t.Fatalf("failed to unmarshal: %s", err)
			}
			if e.Year != tc.wantYear {
				t.Errorf("expected year %s, got %s", tc.wantYear, e.Year)
			}
			if e.Lat != tc.wantLat {
				t.Errorf("expected lat %s, got %s", tc.wantLat, e.Lat)
			}
		})
	}
	t.Run("unset values encode as null", func(t *testing.T) {
		data, err := json.Marshal(echo{Year: Of(7)})
		if err != nil {
			t.Fatalf("failed to marshal: %s", err)
		}
		want := `{"input_year":7,"input_lat":null}`
		if string(data) != want {
			t.Errorf("expected %s, got %s", want, data)
		}
	})
	t.Run("wrong type fails", func(t *testing.T) {
		var e echo
		if err := json.Unmarshal([]byte(`{"input_year":"soon"}`), &e); err == nil {
			t.Error("expected unmarshal to fail")
		}
	})
}
