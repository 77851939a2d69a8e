// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"fmt"
	"math"
)

// Element is the primary elemental affinity of a disciple.
type Element string

const (
	ElementMetal Element = "Kim"
	ElementWood  Element = "Mộc"
	ElementWater Element = "Thủy"
	ElementFire  Element = "Hỏa"
	ElementEarth Element = "Thổ"
	// ElementMixed marks a disciple without a single dominant element.
	ElementMixed Element = "Tạp"
)

// Elements lists every element in display order.
var Elements = []Element{ElementMetal, ElementWood, ElementWater, ElementFire, ElementEarth, ElementMixed}

// Valid reports whether e is a known element.
func (e Element) Valid() bool {
	switch e {
	case ElementMetal, ElementWood, ElementWater, ElementFire, ElementEarth, ElementMixed:
		return true
	}
	return false
}

// Verdict is the recruitment recommendation returned by the model.
type Verdict string

const (
	VerdictRecruit        Verdict = "RECRUIT"
	VerdictKeepWorker     Verdict = "KEEP_WORKER"
	VerdictExpelCandidate Verdict = "EXPEL_CANDIDATE"
	VerdictReject         Verdict = "REJECT"
)

// Verdicts lists every verdict from best to worst.
var Verdicts = []Verdict{VerdictRecruit, VerdictKeepWorker, VerdictExpelCandidate, VerdictReject}

// Valid reports whether v is a known verdict.
func (v Verdict) Valid() bool {
	switch v {
	case VerdictRecruit, VerdictKeepWorker, VerdictExpelCandidate, VerdictReject:
		return true
	}
	return false
}

// Role is the functional role the model assigns to a disciple.
type Role string

const (
	RoleCombatMain      Role = "COMBAT_MAIN"
	RoleDPS             Role = "DPS"
	RoleTank            Role = "TANK"
	RoleHealer          Role = "HEALER"
	RoleCrowdControl    Role = "CROWD_CONTROL"
	RoleExplorerCaptain Role = "EXPLORER_CAPTAIN"
	RoleMasterCraftsman Role = "MASTER_CRAFTSMAN"
	RoleFodder          Role = "FODDER"
	RoleSpecialCase     Role = "SPECIAL_CASE"
)

// Roles lists every role.
var Roles = []Role{
	RoleCombatMain, RoleDPS, RoleTank, RoleHealer, RoleCrowdControl,
	RoleExplorerCaptain, RoleMasterCraftsman, RoleFodder, RoleSpecialCase,
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleCombatMain, RoleDPS, RoleTank, RoleHealer, RoleCrowdControl,
		RoleExplorerCaptain, RoleMasterCraftsman, RoleFodder, RoleSpecialCase:
		return true
	}
	return false
}

// Tier grades a trait.
type Tier string

const (
	TierS Tier = "S"
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
	TierF Tier = "F"
)

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	switch t {
	case TierS, TierA, TierB, TierC, TierF:
		return true
	}
	return false
}

// Stats are the six card attributes, nominally 0-100. Values are stored as returned.
type Stats struct {
	Potential    float64 `json:"potential"`
	Aptitude     float64 `json:"aptitude"`
	Bone         float64 `json:"bone"`
	Intelligence float64 `json:"intelligence"`
	Charm        float64 `json:"charm"`
	Luck         float64 `json:"luck"`
}

// Trait is a talent or flaw printed on the card.
type Trait struct {
	Name        string `json:"name"`
	IsPositive  bool   `json:"isPositive"`
	Description string `json:"description,omitempty"`
	Tier        Tier   `json:"tier"`
}

// Skill is a craft skill with its level.
type Skill struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

// UnmarshalJSON accepts fractional levels and truncates them.
func (s *Skill) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name  string  `json:"name"`
		Level float64 `json:"level"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("skill: %w", err)
	}
	s.Name = raw.Name
	s.Level = int(math.Trunc(raw.Level))
	return nil
}

// Disciple is one analyzed card in a roster.
type Disciple struct {
	ID             string  `json:"id"`
	ImageHash      string  `json:"imageHash,omitempty"`
	Name           string  `json:"name"`
	OriginClass    string  `json:"originClass"`
	Stats          Stats   `json:"stats"`
	Traits         []Trait `json:"traits"`
	Skills         []Skill `json:"skills,omitempty"`
	PrimaryElement Element `json:"primaryElement"`
	Verdict        Verdict `json:"verdict"`
	Role           Role    `json:"role"`
	Analysis       string  `json:"analysis"`
	Score          float64 `json:"score"`
}

// Clone returns a deep copy of d.
func (d Disciple) Clone() Disciple {
	c := d
	if d.Traits != nil {
		c.Traits = append([]Trait(nil), d.Traits...)
	}
	if d.Skills != nil {
		c.Skills = append([]Skill(nil), d.Skills...)
	}
	return c
}

// HighestSkill returns the skill with the largest level; ok is false when there are none.
// Ties keep the first listed skill.
func (d Disciple) HighestSkill() (Skill, bool) {
	if len(d.Skills) == 0 {
		return Skill{}, false
	}
	best := d.Skills[0]
	for _, s := range d.Skills[1:] {
		if s.Level > best.Level {
			best = s
		}
	}
	return best, true
}

// CloneAll deep-copies a slice of disciples.
func CloneAll(in []Disciple) []Disciple {
	if in == nil {
		return nil
	}
	out := make([]Disciple, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}
