// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package risk

import (
	"math"
	"strings"
	"testing"

	"github.com/wneessen/rainparade/internal/prediction"
)

func TestNormalizer_Normalize(t *testing.T) {
	normalizer := New(DefaultPolicy())

	t.Run("rain score follows the confidence", func(t *testing.T) {
		for i := 0; i <= 100; i++ {
			conf := float64(i) / 100
			got := normalizer.Normalize(prediction.Record{RainConfidence: conf})[0]
			want := int(math.Round(conf * 100))
			if got.RiskScore != want {
				t.Errorf("confidence %f: expected score %d, got %d", conf, want, got.RiskScore)
			}
			if got.RiskScore < MinScore || got.RiskScore > MaxScore {
				t.Errorf("confidence %f: score %d out of range", conf, got.RiskScore)
			}
		}
	})
	t.Run("out of range confidence is clamped", func(t *testing.T) {
		tests := []struct {
			conf float64
			want int
		}{
			{1.02, 100},
			{-0.4, 0},
			{math.NaN(), 0},
			{math.Inf(1), 100},
		}
		for _, tc := range tests {
			got := normalizer.Normalize(prediction.Record{RainConfidence: tc.conf})[0]
			if got.RiskScore != tc.want {
				t.Errorf("confidence %f: expected score %d, got %d", tc.conf, tc.want, got.RiskScore)
			}
		}
	})
	t.Run("heat is a step function", func(t *testing.T) {
		tests := []struct {
			temp float64
			want int
		}{
			{-20, 15}, {0, 15}, {35, 15}, {35.01, 70}, {48, 70},
		}
		for _, tc := range tests {
			got := normalizer.Normalize(prediction.Record{Temperature: tc.temp})[1]
			if got.RiskScore != tc.want {
				t.Errorf("temperature %f: expected score %d, got %d", tc.temp, tc.want, got.RiskScore)
			}
			if got.RawValue != tc.temp {
				t.Errorf("expected raw value %f, got %f", tc.temp, got.RawValue)
			}
		}
	})
	t.Run("wind is a step function", func(t *testing.T) {
		tests := []struct {
			speed float64
			want  int
		}{
			{0, 5}, {20, 5}, {20.5, 85}, {80, 85},
		}
		for _, tc := range tests {
			got := normalizer.Normalize(prediction.Record{WindSpeed: tc.speed})[2]
			if got.RiskScore != tc.want {
				t.Errorf("wind speed %f: expected score %d, got %d", tc.speed, tc.want, got.RiskScore)
			}
		}
	})
	t.Run("conditions are ordered rain, heat, wind", func(t *testing.T) {
		conditions := normalizer.Normalize(prediction.Record{})
		for i, want := range []Kind{Rain, Heat, Wind} {
			if conditions[i].Kind != want {
				t.Errorf("position %d: expected %s, got %s", i, want, conditions[i].Kind)
			}
		}
	})
	t.Run("policy scores are clamped", func(t *testing.T) {
		policy := DefaultPolicy()
		policy.HeatHighScore = 250
		policy.WindLowScore = -10
		conditions := New(policy).Normalize(prediction.Record{Temperature: 40, WindSpeed: 1})
		if conditions[1].RiskScore != MaxScore {
			t.Errorf("expected heat score to be clamped to %d, got %d", MaxScore, conditions[1].RiskScore)
		}
		if conditions[2].RiskScore != MinScore {
			t.Errorf("expected wind score to be clamped to %d, got %d", MinScore, conditions[2].RiskScore)
		}
	})
	t.Run("custom thresholds are honored", func(t *testing.T) {
		policy := DefaultPolicy()
		policy.HeatThreshold = 25
		conditions := New(policy).Normalize(prediction.Record{Temperature: 30})
		if conditions[1].RiskScore != 70 {
			t.Errorf("expected heat score 70 with threshold 25, got %d", conditions[1].RiskScore)
		}
	})
}

func TestNormalizer_TierFor(t *testing.T) {
	normalizer := New(DefaultPolicy())
	tests := []struct {
		score int
		want  Tier
	}{
		{0, Low}, {29, Low}, {30, Moderate}, {60, Moderate}, {61, High}, {100, High},
	}
	for _, tc := range tests {
		if got := normalizer.TierFor(tc.score); got != tc.want {
			t.Errorf("score %d: expected tier %s, got %s", tc.score, tc.want, got)
		}
	}
}

func TestNormalizer_EndToEnd(t *testing.T) {
	normalizer := New(DefaultPolicy())
	res := &prediction.Response{
		Inputs: prediction.Request{Date: "2026-07-15", Lat: 30.0444, Lon: 31.2357, Activity: "picnic"},
		Prediction: prediction.Record{
			Humidity: 40, Temperature: 25.0, RainCategory: "Heavy Rain", WindSpeed: 15.0, RainConfidence: 0.30,
		},
	}
	conditions := normalizer.Normalize(res.Prediction)
	want := [3]struct {
		kind  Kind
		score int
		tier  Tier
	}{
		{Rain, 30, Moderate},
		{Heat, 15, Low},
		{Wind, 5, Low},
	}
	for i, w := range want {
		if conditions[i].Kind != w.kind || conditions[i].RiskScore != w.score || conditions[i].Tier != w.tier {
			t.Errorf("condition %d: expected %s/%d/%s, got %s/%d/%s", i, w.kind, w.score, w.tier,
				conditions[i].Kind, conditions[i].RiskScore, conditions[i].Tier)
		}
	}

	summary := normalizer.Summary("Cairo, Egypt (30.0444, 31.2357)", "2026-07-15", res, conditions[0].RiskScore)
	for _, part := range []string{"30%", "25.0", "15.0", "Heavy Rain", "2026-07-15", "Cairo, Egypt"} {
		if !strings.Contains(summary, part) {
			t.Errorf("expected summary to contain %q, got %q", part, summary)
		}
	}
}

func TestNormalizer_Summary(t *testing.T) {
	normalizer := New(DefaultPolicy())
	t.Run("remote summary wins", func(t *testing.T) {
		res := &prediction.Response{AnalysisSummary: "  Sunny all day.  "}
		if got := normalizer.Summary("Cairo", "2026-07-15", res, 10); got != "Sunny all day." {
			t.Errorf("expected remote summary, got %q", got)
		}
	})
	t.Run("synthesized template", func(t *testing.T) {
		res := &prediction.Response{Prediction: prediction.Record{
			Temperature: 21.26, WindSpeed: 3, RainCategory: "No Rain",
		}}
		want := "On 2026-07-15 in Berlin, expect No Rain with 12% confidence, temperature around 21.3°C, " +
			"and wind speed 3.0."
		if got := normalizer.Summary("Berlin", "2026-07-15", res, 12); got != want {
			t.Errorf("expected summary %q, got %q", want, got)
		}
	})
}

func TestHighest(t *testing.T) {
	if got := Highest(Baseline()); got != Moderate {
		t.Errorf("expected highest baseline tier to be Moderate, got %s", got)
	}
	conditions := New(DefaultPolicy()).Normalize(prediction.Record{WindSpeed: 30})
	if got := Highest(conditions); got != High {
		t.Errorf("expected highest tier to be High, got %s", got)
	}
}

func TestBaseline(t *testing.T) {
	baseline := Baseline()
	want := []struct {
		kind  Kind
		score int
		tier  Tier
	}{
		{Rain, 30, Moderate},
		{Heat, 15, Low},
		{Wind, 5, Low},
	}
	for i, w := range want {
		if baseline[i].Kind != w.kind || baseline[i].RiskScore != w.score || baseline[i].Tier != w.tier {
			t.Errorf("baseline %d: expected %s/%d/%s, got %+v", i, w.kind, w.score, w.tier, baseline[i])
		}
	}
}

func TestSuitabilityFor(t *testing.T) {
	tests := []struct {
		conf   float64
		status string
		tier   Tier
	}{
		{0, "Low Risk", Low},
		{0.25, "Low Risk", Low},
		{0.45, "Moderate Risk", Moderate},
		{0.61, "High Risk", High},
		{1.5, "High Risk", High},
	}
	for _, tc := range tests {
		got := SuitabilityFor(tc.conf)
		if got.Status != tc.status || got.Tier != tc.tier {
			t.Errorf("confidence %f: expected %s/%s, got %s/%s", tc.conf, tc.status, tc.tier, got.Status, got.Tier)
		}
		if got.Advice == "" {
			t.Errorf("confidence %f: expected advice to be set", tc.conf)
		}
	}
}

func TestStringers(t *testing.T) {
	if Kind(7).String() != "Kind(7)" {
		t.Errorf("unexpected unknown kind string: %s", Kind(7))
	}
	if Tier(9).String() != "Tier(9)" {
		t.Errorf("unexpected unknown tier string: %s", Tier(9))
	}
	text, err := High.MarshalText()
	if err != nil || string(text) != "High" {
		t.Errorf("expected tier to marshal as 'High', got %q (%v)", text, err)
	}
}
