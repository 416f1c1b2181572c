// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package risk normalizes a prediction record into the three bounded risk conditions (rain,
// heat and wind) that drive the gauges and the severity classes.
package risk

import (
	"fmt"
	"math"
	"strings"

	"github.com/wneessen/rainparade/internal/prediction"
)

const (
	MinScore = 0
	MaxScore = 100
)

// Kind identifies a risk condition. The order of the constants is the rendering order.
type Kind int

const (
	Rain Kind = iota
	Heat
	Wind
)

func (k Kind) String() string {
	switch k {
	case Rain:
		return "Rain"
	case Heat:
		return "Heat"
	case Wind:
		return "Wind"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Tier is the severity bucket of a risk score.
type Tier int

const (
	Low Tier = iota
	Moderate
	High
)

func (t Tier) String() string {
	switch t {
	case Low:
		return "Low"
	case Moderate:
		return "Moderate"
	case High:
		return "High"
	default:
		return fmt.Sprintf("Tier(%d)", int(t))
	}
}

// MarshalText renders the tier by name.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// MarshalText renders the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Condition is one normalized risk entry.
type Condition struct {
	Kind      Kind    `json:"kind"`
	Label     string  `json:"label"`
	RawValue  float64 `json:"raw_value"`
	RiskScore int     `json:"risk_score"`
	Tier      Tier    `json:"tier"`
}

// Policy holds the thresholds and scores of the heuristics. The heat and wind rules are step
// functions.
type Policy struct {
	// Tier bounds: a score above RainHigh is High, a score of at least RainModerate is Moderate.
	RainHigh     int
	RainModerate int

	HeatThreshold float64
	HeatHighScore int
	HeatLowScore  int

	WindThreshold float64
	WindHighScore int
	WindLowScore  int
}

// DefaultPolicy returns the stock heuristics.
func DefaultPolicy() Policy {
	return Policy{
		RainHigh:      60,
		RainModerate:  30,
		HeatThreshold: 35,
		HeatHighScore: 70,
		HeatLowScore:  15,
		WindThreshold: 20,
		WindHighScore: 85,
		WindLowScore:  5,
	}
}

// Normalizer converts prediction records into conditions.
type Normalizer struct {
	policy Policy
}

func New(policy Policy) *Normalizer {
	return &Normalizer{policy: policy}
}

// Policy returns the policy the normalizer was created with.
func (n *Normalizer) Policy() Policy {
	return n.policy
}

// Normalize returns the rain, heat and wind conditions in that order. Scores are always within
// [MinScore, MaxScore].
func (n *Normalizer) Normalize(rec prediction.Record) [3]Condition {
	rainScore := clampScore(int(math.Round(clampFloat(rec.RainConfidence, 0, 1) * 100)))

	heatScore := n.policy.HeatLowScore
	if rec.Temperature > n.policy.HeatThreshold {
		heatScore = n.policy.HeatHighScore
	}
	heatScore = clampScore(heatScore)

	windScore := n.policy.WindLowScore
	if rec.WindSpeed > n.policy.WindThreshold {
		windScore = n.policy.WindHighScore
	}
	windScore = clampScore(windScore)

	rainLabel := strings.TrimSpace(rec.RainCategory)
	if rainLabel == "" {
		rainLabel = Rain.String()
	}

	return [3]Condition{
		{Kind: Rain, Label: rainLabel, RawValue: rec.RainConfidence, RiskScore: rainScore, Tier: n.TierFor(rainScore)},
		{Kind: Heat, Label: Heat.String(), RawValue: rec.Temperature, RiskScore: heatScore, Tier: n.TierFor(heatScore)},
		{Kind: Wind, Label: Wind.String(), RawValue: rec.WindSpeed, RiskScore: windScore, Tier: n.TierFor(windScore)},
	}
}

// TierFor buckets a score with the policy tier bounds.
func (n *Normalizer) TierFor(score int) Tier {
	switch {
	case score > n.policy.RainHigh:
		return High
	case score >= n.policy.RainModerate:
		return Moderate
	default:
		return Low
	}
}

// Summary returns the remote analysis summary of res if there is one, otherwise it is
// synthesized from the record.
func (n *Normalizer) Summary(location, date string, res *prediction.Response, rainScore int) string {
	if res == nil {
		return ""
	}
	if remote := strings.TrimSpace(res.AnalysisSummary); remote != "" {
		return remote
	}
	rec := res.Prediction
	category := strings.TrimSpace(rec.RainCategory)
	if category == "" {
		category = "rain"
	}
	return fmt.Sprintf("On %s in %s, expect %s with %d%% confidence, temperature around %.1f°C, and wind speed %.1f.",
		date, location, category, rainScore, rec.Temperature, rec.WindSpeed)
}

// Highest returns the most severe tier of the given conditions.
func Highest(conditions [3]Condition) Tier {
	tier := Low
	for _, c := range conditions {
		if c.Tier > tier {
			tier = c.Tier
		}
	}
	return tier
}

func clampScore(score int) int {
	return min(max(score, MinScore), MaxScore)
}

func clampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Min(math.Max(v, lo), hi)
}
