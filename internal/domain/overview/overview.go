// Package overview aggregates roster-wide statistics.
package overview

import (
	"sort"

	"github.com/okian/sect/internal/domain/model"
)

// KeyTraits are the positive traits worth counting across the roster.
var KeyTraits = []string{
	"Thiên Quyến Chi Nhân",
	"Khí Vận Chi Tử",
	"Tiên Thiên Linh Mạch",
	"Thiên Mệnh Chi Nhân",
	"Kiếm Tâm",
	"Vũ Khí Thiên Tài",
	"Đan Đạo Thiên Tài",
}

// Count is a labelled tally.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Summary is the roster overview.
type Summary struct {
	Total     int                   `json:"total"`
	Verdicts  map[model.Verdict]int `json:"verdicts"`
	Averages  model.Stats           `json:"averages"`
	Elements  map[model.Element]int `json:"elements"`
	Roles     map[model.Role]int    `json:"roles"`
	Origins   []Count               `json:"origins"`
	KeyTraits []Count               `json:"keyTraits"`
}

// Summarize computes the overview. An empty roster yields zero counts and averages.
func Summarize(roster []model.Disciple) Summary {
	s := Summary{
		Total:     len(roster),
		Verdicts:  make(map[model.Verdict]int, len(model.Verdicts)),
		Elements:  make(map[model.Element]int, len(model.Elements)),
		Roles:     make(map[model.Role]int, len(model.Roles)),
		Origins:   []Count{},
		KeyTraits: make([]Count, len(KeyTraits)),
	}
	for _, v := range model.Verdicts {
		s.Verdicts[v] = 0
	}
	for _, e := range model.Elements {
		s.Elements[e] = 0
	}
	for _, r := range model.Roles {
		s.Roles[r] = 0
	}
	traitIdx := make(map[string]int, len(KeyTraits))
	for i, name := range KeyTraits {
		s.KeyTraits[i] = Count{Label: name}
		traitIdx[name] = i
	}

	origins := map[string]int{}
	for _, d := range roster {
		s.Verdicts[d.Verdict]++
		s.Elements[d.PrimaryElement]++
		s.Roles[d.Role]++
		origins[d.OriginClass]++

		s.Averages.Potential += d.Stats.Potential
		s.Averages.Aptitude += d.Stats.Aptitude
		s.Averages.Bone += d.Stats.Bone
		s.Averages.Intelligence += d.Stats.Intelligence
		s.Averages.Charm += d.Stats.Charm
		s.Averages.Luck += d.Stats.Luck

		for _, t := range d.Traits {
			if i, ok := traitIdx[t.Name]; ok && t.IsPositive {
				s.KeyTraits[i].Count++
			}
		}
	}

	if n := float64(len(roster)); n > 0 {
		s.Averages.Potential /= n
		s.Averages.Aptitude /= n
		s.Averages.Bone /= n
		s.Averages.Intelligence /= n
		s.Averages.Charm /= n
		s.Averages.Luck /= n
	}

	for label, n := range origins {
		s.Origins = append(s.Origins, Count{Label: label, Count: n})
	}
	sort.Slice(s.Origins, func(i, j int) bool {
		if s.Origins[i].Count != s.Origins[j].Count {
			return s.Origins[i].Count > s.Origins[j].Count
		}
		return s.Origins[i].Label < s.Origins[j].Label
	})
	return s
}
