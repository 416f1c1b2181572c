// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package risk

import "github.com/vorlif/spreak/localize"

// Suitability is the overall recommendation for the selected activity.
type Suitability struct {
	Tier   Tier
	Status localize.MsgID
	Advice localize.MsgID
}

// SuitabilityFor rates the activity by the rain confidence alone. Both bounds are exclusive.
func SuitabilityFor(rainConfidence float64) Suitability {
	chance := clampFloat(rainConfidence, 0, 1) * 100
	switch {
	case chance > 60:
		return Suitability{
			Tier:   High,
			Status: "High Risk",
			Advice: "High chance of adverse conditions. Consider an indoor alternative.",
		}
	case chance > 30:
		return Suitability{
			Tier:   Moderate,
			Status: "Moderate Risk",
			Advice: "Proceed with caution. Be prepared for changes (e.g., umbrella, early start).",
		}
	default:
		return Suitability{
			Tier:   Low,
			Status: "Low Risk",
			Advice: "Conditions look favorable. Enjoy your activity!",
		}
	}
}
