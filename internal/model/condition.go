package model

import "strings"

// Condition is a physical-wear grade on a fixed five-step scale, best to worst.
type Condition string

const (
	ConditionNearMint         Condition = "near-mint"
	ConditionLightlyPlayed    Condition = "lightly-played"
	ConditionModeratelyPlayed Condition = "moderately-played"
	ConditionHeavilyPlayed    Condition = "heavily-played"
	ConditionDamaged          Condition = "damaged"
)

// Conditions lists every condition in order, best first.
var Conditions = []Condition{
	ConditionNearMint,
	ConditionLightlyPlayed,
	ConditionModeratelyPlayed,
	ConditionHeavilyPlayed,
	ConditionDamaged,
}

// DefaultCondition is used wherever a condition is absent or unreadable.
const DefaultCondition = ConditionNearMint

// Rank returns the ordinal position of c (0 = best). Unknown values rank -1.
func (c Condition) Rank() int {
	for i, v := range Conditions {
		if v == c {
			return i
		}
	}
	return -1
}

// Valid reports whether c is one of the five known conditions.
func (c Condition) Valid() bool {
	return c.Rank() >= 0
}

// ParseCondition accepts the canonical values plus common spellings
// ("Near Mint", "NM", "lightly_played") and reports whether it recognised s.
func ParseCondition(s string) (Condition, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "-", "_", "-").Replace(key)
	switch key {
	case "near-mint", "nm", "mint":
		return ConditionNearMint, true
	case "lightly-played", "lp", "excellent":
		return ConditionLightlyPlayed, true
	case "moderately-played", "mp", "played":
		return ConditionModeratelyPlayed, true
	case "heavily-played", "hp", "poor":
		return ConditionHeavilyPlayed, true
	case "damaged", "dmg":
		return ConditionDamaged, true
	}
	return DefaultCondition, false
}

// WorstOf returns the worst of the given conditions. Invalid values are ignored;
// with no valid input it returns DefaultCondition.
func WorstOf(conds ...Condition) Condition {
	worst := Condition("")
	for _, c := range conds {
		if !c.Valid() {
			continue
		}
		if worst == "" || c.Rank() > worst.Rank() {
			worst = c
		}
	}
	if worst == "" {
		return DefaultCondition
	}
	return worst
}

// Strictness selects how harshly the grading rubric is applied.
type Strictness string

const (
	StrictnessRelaxed  Strictness = "relaxed"
	StrictnessStandard Strictness = "standard"
	StrictnessStrict   Strictness = "strict"
)

// Valid reports whether s is a known strictness level.
func (s Strictness) Valid() bool {
	switch s {
	case StrictnessRelaxed, StrictnessStandard, StrictnessStrict:
		return true
	}
	return false
}

// ParseStrictness maps s to a Strictness, falling back to standard.
func ParseStrictness(s string) Strictness {
	v := Strictness(strings.ToLower(strings.TrimSpace(s)))
	if v.Valid() {
		return v
	}
	return StrictnessStandard
}

// Status is the lifecycle state of a card. Transitions are unrestricted.
type Status string

const (
	StatusInventory Status = "inventory"
	StatusListing   Status = "listing"
	StatusSold      Status = "sold"
)

// Valid reports whether s is a known lifecycle status.
func (s Status) Valid() bool {
	switch s {
	case StatusInventory, StatusListing, StatusSold:
		return true
	}
	return false
}

// ListingStatus tracks a listing sub-record independently of the card status.
type ListingStatus string

const (
	ListingDraft  ListingStatus = "draft"
	ListingActive ListingStatus = "active"
	ListingEnded  ListingStatus = "ended"
)
