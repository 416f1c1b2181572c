// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package gauge

import (
	"math"
	"testing"

	"github.com/wneessen/rainparade/internal/risk"
)

const epsilon = 1e-9

func TestGeometry(t *testing.T) {
	tests := []struct {
		name     string
		score    int
		tier     risk.Tier
		fraction float64
	}{
		{"empty", 0, risk.Low, 0},
		{"moderate", 30, risk.Moderate, 0.3},
		{"full", 100, risk.High, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ring := Geometry(risk.Condition{RiskScore: tc.score, Tier: tc.tier}, DefaultRadius)
			circumference := 2 * math.Pi * DefaultRadius
			if math.Abs(ring.StrokeFraction-tc.fraction) > epsilon {
				t.Errorf("expected stroke fraction %f, got %f", tc.fraction, ring.StrokeFraction)
			}
			if math.Abs(ring.Circumference-circumference) > epsilon {
				t.Errorf("expected circumference %f, got %f", circumference, ring.Circumference)
			}
			wantOffset := circumference - tc.fraction*circumference
			if math.Abs(ring.DashOffset-wantOffset) > epsilon {
				t.Errorf("expected dash offset %f, got %f", wantOffset, ring.DashOffset)
			}
			if ring.Tier != tc.tier {
				t.Errorf("expected tier %s, got %s", tc.tier, ring.Tier)
			}
		})
	}
	t.Run("scores are not clamped", func(t *testing.T) {
		ring := Geometry(risk.Condition{RiskScore: 150}, 10)
		if ring.StrokeFraction != 1.5 {
			t.Errorf("expected stroke fraction 1.5, got %f", ring.StrokeFraction)
		}
	})
}

func TestRing_Bar(t *testing.T) {
	tests := []struct {
		fraction float64
		width    int
		want     string
	}{
		{0, 4, "░░░░"},
		{0.5, 4, "██░░"},
		{1, 4, "████"},
		{1.5, 4, "████"},
		{0.5, 0, ""},
	}
	for _, tc := range tests {
		if got := (Ring{StrokeFraction: tc.fraction}).Bar(tc.width); got != tc.want {
			t.Errorf("fraction %f width %d: expected %q, got %q", tc.fraction, tc.width, tc.want, got)
		}
	}
}
