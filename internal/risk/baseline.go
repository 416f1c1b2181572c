// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package risk

// Baseline returns the static demo conditions shown when no analysis succeeded yet.
func Baseline() [3]Condition {
	return [3]Condition{
		{Kind: Rain, Label: Rain.String(), RawValue: 0.3, RiskScore: 30, Tier: Moderate},
		{Kind: Heat, Label: Heat.String(), RiskScore: 15, Tier: Low},
		{Kind: Wind, Label: Wind.String(), RiskScore: 5, Tier: Low},
	}
}
