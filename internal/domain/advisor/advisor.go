// Package advisor proposes a five-member combat team, flags missing roles and
// lists expulsion candidates when the roster is over its limit.
package advisor

import (
	"fmt"
	"sort"

	"github.com/okian/sect/internal/domain/model"
)

// TeamSize is the number of slots in the suggested team.
const TeamSize = 5

// Origin classes the game ties to support roles.
const (
	OriginHealer = "Y Sư"
)

// Minimum stat values a role holder should reach.
const (
	MinTankBone       = 80.0
	MinDPSAptitude    = 80.0
	MinHealerAptitude = 70.0
	MinExplorerLuck   = 80.0
	// MinTeamPotential is the lowest average potential of a healthy team.
	MinTeamPotential = 70.0
)

// WarningKind names the shortage.
type WarningKind string

const (
	WarnTank       WarningKind = "TANK"
	WarnDPS        WarningKind = "DPS"
	WarnHealer     WarningKind = "HEALER"
	WarnExplorer   WarningKind = "EXPLORER"
	WarnLowAverage WarningKind = "LOW_AVERAGE"
)

// Severity of a warning.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
)

// Holder is the roster's best record for a stat.
type Holder struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Warning reports a role the roster cannot fill to standard.
type Warning struct {
	Kind      WarningKind `json:"kind"`
	Severity  Severity    `json:"severity"`
	Threshold float64     `json:"threshold"`
	// Best is nil when nobody in the roster qualifies for the search.
	Best *Holder `json:"best,omitempty"`
	// Gap is how far Best falls short of Threshold.
	Gap     float64 `json:"gap"`
	Message string  `json:"message"`
}

// Member is a team or logistics slot.
type Member struct {
	Disciple     model.Disciple `json:"disciple"`
	RoleLabel    string         `json:"roleLabel"`
	HighestSkill string         `json:"highestSkill"`
}

// Suggestion is the advisor's full answer.
type Suggestion struct {
	Team         []Member         `json:"team"`
	Warnings     []Warning        `json:"warnings"`
	Balanced     bool             `json:"balanced"`
	AvgPotential float64          `json:"avgPotential"`
	AvgAptitude  float64          `json:"avgAptitude"`
	Logistics    []Member         `json:"logistics"`
	Limit        int              `json:"limit"`
	Excess       int              `json:"excess"`
	Expulsions   []model.Disciple `json:"expulsions"`
}

// Suggest evaluates a roster against the fixed role minimums and its limit.
// It does not modify its input.
func Suggest(roster []model.Disciple, limit int) Suggestion {
	team := Team(roster)
	s := Suggestion{
		Team:       make([]Member, 0, len(team)),
		Warnings:   []Warning{},
		Logistics:  []Member{},
		Limit:      limit,
		Expulsions: Expulsions(roster, limit),
	}
	if len(roster) > limit {
		s.Excess = len(roster) - limit
	}

	for _, d := range team {
		s.Team = append(s.Team, member(d))
		s.AvgPotential += d.Stats.Potential
		s.AvgAptitude += d.Stats.Aptitude
	}
	if n := float64(len(team)); n > 0 {
		s.AvgPotential /= n
		s.AvgAptitude /= n
	}

	for _, d := range byScore(filter(roster, model.RoleMasterCraftsman, model.RoleSpecialCase)) {
		s.Logistics = append(s.Logistics, member(d))
	}

	if len(team) > 0 {
		s.Warnings = warnings(roster, s.AvgPotential, s.AvgAptitude)
		s.Balanced = len(s.Warnings) == 0
	}
	return s
}

// Team picks up to five combatants: the best tank, healer and explorer, then
// the highest scoring DPS and crowd-control records. The result is ordered by
// score, descending.
func Team(roster []model.Disciple) []model.Disciple {
	tanks := sortedBy(filter(roster, model.RoleTank), func(d model.Disciple) float64 { return d.Stats.Bone })
	healers := sortedBy(filter(roster, model.RoleHealer), func(d model.Disciple) float64 { return d.Stats.Aptitude })
	explorers := sortedBy(filter(roster, model.RoleExplorerCaptain), func(d model.Disciple) float64 { return d.Stats.Luck })
	dps := sortedBy(filter(roster, model.RoleDPS), func(d model.Disciple) float64 { return d.Stats.Aptitude })
	cc := sortedBy(filter(roster, model.RoleCrowdControl), func(d model.Disciple) float64 { return d.Stats.Intelligence })

	team := make([]model.Disciple, 0, TeamSize)
	picked := map[string]bool{}
	add := func(d model.Disciple) {
		team = append(team, d)
		picked[d.ID] = true
	}

	if len(tanks) > 0 {
		add(tanks[0])
	}
	if len(healers) > 0 && !picked[healers[0].ID] {
		add(healers[0])
	}
	if len(explorers) > 0 && !picked[explorers[0].ID] {
		add(explorers[0])
	}

	rest := make([]model.Disciple, 0, len(dps)+len(cc))
	for _, d := range append(dps, cc...) {
		if !picked[d.ID] {
			rest = append(rest, d)
		}
	}
	for _, d := range byScore(rest) {
		if len(team) >= TeamSize {
			break
		}
		add(d)
	}
	return byScore(team)
}

// Expulsions lists the records to remove when the roster exceeds limit:
// rejects and non-recruit fodder, lowest score first, at most len-limit of them.
func Expulsions(roster []model.Disciple, limit int) []model.Disciple {
	out := []model.Disciple{}
	excess := len(roster) - limit
	if excess <= 0 {
		return out
	}
	for _, d := range roster {
		if d.Verdict == model.VerdictReject || (d.Role == model.RoleFodder && d.Verdict != model.VerdictRecruit) {
			out = append(out, d.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score < out[j].Score })
	if len(out) > excess {
		out = out[:excess]
	}
	return out
}

func warnings(roster []model.Disciple, avgPotential, avgAptitude float64) []Warning {
	out := []Warning{}
	check := func(kind WarningKind, sev Severity, threshold float64, best *Holder, msg func(*Holder) string) {
		if best != nil && best.Value >= threshold {
			return
		}
		w := Warning{Kind: kind, Severity: sev, Threshold: threshold, Best: best, Gap: threshold, Message: msg(best)}
		if best != nil {
			w.Gap = threshold - best.Value
		}
		out = append(out, w)
	}

	check(WarnTank, SeverityHigh, MinTankBone,
		bestOf(roster, nil, func(d model.Disciple) float64 { return d.Stats.Bone }),
		func(h *Holder) string {
			if h == nil {
				return "Không có Tanker đủ tiêu chuẩn."
			}
			return fmt.Sprintf("Tanker yếu (Căn Cốt cao nhất là %g của %s). Cần tìm Tanker Căn Cốt > %g.", h.Value, h.Name, MinTankBone)
		})
	check(WarnDPS, SeverityHigh, MinDPSAptitude,
		bestOf(roster, nil, func(d model.Disciple) float64 { return d.Stats.Aptitude }),
		func(h *Holder) string {
			if h == nil {
				return "Không có DPS đủ tiêu chuẩn."
			}
			return fmt.Sprintf("DPS chính yếu (Tư Chất cao nhất là %g của %s). Cần tìm DPS Tư Chất > %g.", h.Value, h.Name, MinDPSAptitude)
		})
	check(WarnHealer, SeverityMedium, MinHealerAptitude,
		bestOf(roster, isHealer, func(d model.Disciple) float64 { return d.Stats.Aptitude }),
		func(h *Holder) string {
			if h == nil {
				return "Không có Healer đủ tiêu chuẩn."
			}
			return fmt.Sprintf("Healer yếu (Tư Chất cao nhất là %g của %s). Cần tìm Healer Tư Chất > %g.", h.Value, h.Name, MinHealerAptitude)
		})
	check(WarnExplorer, SeverityMedium, MinExplorerLuck,
		bestOf(roster, nil, func(d model.Disciple) float64 { return d.Stats.Luck }),
		func(h *Holder) string {
			if h == nil {
				return "Không có ai Cơ Duyên cao đủ làm đội trưởng thám hiểm."
			}
			return fmt.Sprintf("Đội trưởng thám hiểm Cơ Duyên thấp (Cao nhất là %g của %s). Cần Cơ Duyên > %g.", h.Value, h.Name, MinExplorerLuck)
		})

	if avgPotential < MinTeamPotential || avgAptitude < MinDPSAptitude*0.8 {
		out = append(out, Warning{
			Kind:      WarnLowAverage,
			Severity:  SeverityHigh,
			Threshold: MinTeamPotential,
			Gap:       MinTeamPotential - avgPotential,
			Message: fmt.Sprintf("Đội hình có tiềm lực/sát thương trung bình thấp (TL: %.1f, TC: %.1f). Cần kiếm đệ tử mới có chỉ số cao hơn.",
				avgPotential, avgAptitude),
		})
	}
	return out
}

func isHealer(d model.Disciple) bool {
	return d.Role == model.RoleHealer || d.OriginClass == OriginHealer
}

// bestOf returns the first record with the strictly highest positive stat among
// those accepted by keep (nil keeps all).
func bestOf(roster []model.Disciple, keep func(model.Disciple) bool, stat func(model.Disciple) float64) *Holder {
	var best *Holder
	for _, d := range roster {
		if keep != nil && !keep(d) {
			continue
		}
		v := stat(d)
		if (best == nil && v > 0) || (best != nil && v > best.Value) {
			best = &Holder{ID: d.ID, Name: d.Name, Value: v}
		}
	}
	return best
}

func member(d model.Disciple) Member {
	return Member{Disciple: d.Clone(), RoleLabel: RoleLabel(d.Role), HighestSkill: HighestSkillLabel(d)}
}

// RoleLabel is the short display name of a combat role.
func RoleLabel(r model.Role) string {
	switch r {
	case model.RoleTank:
		return "Tanker"
	case model.RoleDPS:
		return "Sát Thương"
	case model.RoleHealer:
		return "Hồi Máu"
	case model.RoleCrowdControl:
		return "Khống Chế"
	case model.RoleExplorerCaptain:
		return "Thám Hiểm"
	case model.RoleMasterCraftsman:
		return "Thợ Chuyên Nghiệp"
	case model.RoleSpecialCase:
		return "Đặc Biệt"
	case model.RoleCombatMain, model.RoleFodder:
		return "Dự Bị"
	}
	return "Dự Bị"
}

// HighestSkillLabel renders "name level" for the best skill, or "Tạp dịch" without skills.
func HighestSkillLabel(d model.Disciple) string {
	s, ok := d.HighestSkill()
	if !ok {
		return "Tạp dịch"
	}
	return fmt.Sprintf("%s %d", s.Name, s.Level)
}

func filter(roster []model.Disciple, roles ...model.Role) []model.Disciple {
	out := []model.Disciple{}
	for _, d := range roster {
		for _, r := range roles {
			if d.Role == r {
				out = append(out, d)
				break
			}
		}
	}
	return out
}

func sortedBy(in []model.Disciple, key func(model.Disciple) float64) []model.Disciple {
	sort.SliceStable(in, func(i, j int) bool { return key(in[i]) > key(in[j]) })
	return in
}

func byScore(in []model.Disciple) []model.Disciple {
	return sortedBy(in, func(d model.Disciple) float64 { return d.Score })
}
