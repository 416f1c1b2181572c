// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package presenter

import (
	"github.com/vorlif/spreak/localize"

	"github.com/wneessen/rainparade/internal/risk"
)

// MoonPhaseIcon maps moon phase names to their emoji.
var MoonPhaseIcon = map[string]string{
	"New Moon":        "🌑",
	"Waxing Crescent": "🌒",
	"First Quarter":   "🌓",
	"Waxing Gibbous":  "🌔",
	"Full Moon":       "🌕",
	"Waning Gibbous":  "🌖",
	"Third Quarter":   "🌗",
	"Waning Crescent": "🌘",
}

// ConditionIcon maps a condition kind and tier to an emoji.
var ConditionIcon = map[risk.Kind]map[risk.Tier]string{
	risk.Rain: {
		risk.Low:      "🌤",
		risk.Moderate: "🌦",
		risk.High:     "🌧",
	},
	risk.Heat: {
		risk.Low:      "🌡",
		risk.Moderate: "🌡",
		risk.High:     "🔥",
	},
	risk.Wind: {
		risk.Low:      "🍃",
		risk.Moderate: "💨",
		risk.High:     "🌪",
	},
}

// TierClass maps a tier to the CSS class of the output.
var TierClass = map[risk.Tier]string{
	risk.Low:      "risk-low",
	risk.Moderate: "risk-moderate",
	risk.High:     "risk-high",
}

// i18nVars maps the lower-case template keys to their message ids.
var i18nVars = map[string]localize.MsgID{
	"rain":            "Rain",
	"heat":            "Heat",
	"wind":            "Wind",
	"low":             "Low",
	"moderate":        "Moderate",
	"high":            "High",
	"temp":            "Temperature",
	"humidity":        "Humidity",
	"windspeed":       "Wind speed",
	"sunrise":         "Sunrise",
	"sunset":          "Sunset",
	"moonphase":       "Moon phase",
	"updated":         "Updated",
	"fallback":        "Showing demo data",
	"busy":            "Analyzing",
	"new moon":        "New moon",
	"waxing crescent": "Waxing crescent",
	"first quarter":   "First quarter",
	"waxing gibbous":  "Waxing gibbous",
	"full moon":       "Full moon",
	"waning gibbous":  "Waning gibbous",
	"third quarter":   "Third quarter",
	"waning crescent": "Waning crescent",
}
