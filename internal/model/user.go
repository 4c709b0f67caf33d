package model

import (
	"strings"
)

type SubscriptionTier string

const (
	TierFree           SubscriptionTier = "free"
	TierPremium        SubscriptionTier = "premium"
	TierPremiumPending SubscriptionTier = "premium_pending"
)

// UserPreferences is supplied by the user profile store.
type UserPreferences struct {
	Email                string           `json:"email" mapstructure:"email"`
	TargetCities         []string         `json:"target_cities" mapstructure:"target-cities"`
	CareerPath           []string         `json:"career_path" mapstructure:"career-path"`
	EntryLevelPreference string           `json:"entry_level_preference" mapstructure:"entry-level-preference"`
	CareerKeywords       string           `json:"career_keywords" mapstructure:"career-keywords"`
	SubscriptionTier     SubscriptionTier `json:"subscription_tier" mapstructure:"subscription-tier"`
}

// IsPremium reports whether premium-only features apply. A pending upgrade
// is still served as free.
func (u *UserPreferences) IsPremium() bool {
	return u != nil && u.SubscriptionTier == TierPremium
}

// Keywords splits the comma separated keyword list, dropping blanks.
func (u *UserPreferences) Keywords() []string {
	if u == nil {
		return nil
	}
	var out []string
	for _, kw := range strings.Split(u.CareerKeywords, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// Cities returns non-empty target cities in the user's order.
func (u *UserPreferences) Cities() []string {
	if u == nil {
		return nil
	}
	return nonEmpty(u.TargetCities)
}

// Paths returns non-empty career paths in the user's order.
func (u *UserPreferences) Paths() []string {
	if u == nil {
		return nil
	}
	return nonEmpty(u.CareerPath)
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
