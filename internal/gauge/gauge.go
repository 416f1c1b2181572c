// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package gauge computes the ring geometry of a risk gauge.
package gauge

import (
	"math"

	"github.com/wneessen/rainparade/internal/risk"
)

// DefaultRadius is the ring radius used when none is configured.
const DefaultRadius = 45.0

// Ring describes a stroked circle whose visible arc represents a risk score.
type Ring struct {
	Radius         float64   `json:"radius"`
	StrokeFraction float64   `json:"stroke_fraction"`
	Circumference  float64   `json:"circumference"`
	DashOffset     float64   `json:"dash_offset"`
	Tier           risk.Tier `json:"tier"`
}

// Geometry returns the ring for a condition. Scores are expected to be clamped already and are
// used as they are.
func Geometry(c risk.Condition, radius float64) Ring {
	fraction := float64(c.RiskScore) / 100
	circumference := 2 * math.Pi * radius
	return Ring{
		Radius:         radius,
		StrokeFraction: fraction,
		Circumference:  circumference,
		DashOffset:     circumference - fraction*circumference,
		Tier:           c.Tier,
	}
}

// Bar renders the stroke fraction as a text bar of the given width, for surfaces that cannot
// draw a ring.
func (r Ring) Bar(width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(math.Round(r.StrokeFraction * float64(width)))
	filled = min(max(filled, 0), width)
	bar := make([]rune, width)
	for i := range bar {
		if i < filled {
			bar[i] = '█'
		} else {
			bar[i] = '░'
		}
	}
	return string(bar)
}
