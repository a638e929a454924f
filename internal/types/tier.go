// Package types provides the shared request, response and domain types used across profile-sourcer.
package types

import (
	"math"
	"strings"
)

// Tier is an account's subscription level.
type Tier string

const (
	TierBasic        Tier = "basic"
	TierProfessional Tier = "professional"
	TierEnterprise   Tier = "enterprise"
)

// BaseContactCap is the result cap for the basic tier.
const BaseContactCap = 20

// ParseTier maps stored tier names to a Tier; unknown names are basic.
func ParseTier(s string) Tier {
	switch Tier(strings.ToLower(strings.TrimSpace(s))) {
	case TierProfessional, "pro":
		return TierProfessional
	case TierEnterprise, "top":
		return TierEnterprise
	default:
		return TierBasic
	}
}

// Multiplier scales page budgets and the contact cap.
func (t Tier) Multiplier() float64 {
	switch t {
	case TierProfessional:
		return 1.5
	case TierEnterprise:
		return 3
	default:
		return 1
	}
}

// ContactCap is the maximum number of candidates returned per search.
func (t Tier) ContactCap() int {
	return int(math.Ceil(BaseContactCap * t.Multiplier()))
}

// PageBudget scales a destination's base page budget, rounding up, and caps
// it at the provider's pagination ceiling.
func (t Tier) PageBudget(base, ceiling int) int {
	pages := int(math.Ceil(float64(base) * t.Multiplier()))
	if ceiling > 0 && pages > ceiling {
		return ceiling
	}
	return pages
}
