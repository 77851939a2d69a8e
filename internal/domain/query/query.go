// Package query filters and sorts a roster for display. It is pure: the input
// slice is never modified.
package query

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/okian/sect/internal/domain/model"
)

// All disables the verdict or element filter.
const All = "ALL"

// Element filter values besides All and the concrete elements.
const (
	ElementSingle = "SINGLE"
	ElementMixed  = "MIXED"
)

// Sort keys.
const (
	SortScoreDesc     = "SCORE_DESC"
	SortPotentialDesc = "POTENTIAL_DESC"
	SortNameAsc       = "NAME_ASC"
)

// Criteria selects and orders records.
type Criteria struct {
	Verdict string `json:"verdict"`
	Query   string `json:"query"`
	Element string `json:"element"`
	Sort    string `json:"sort"`
}

// DefaultCriteria shows everything, best score first.
func DefaultCriteria() Criteria {
	return Criteria{Verdict: All, Query: "", Element: All, Sort: SortScoreDesc}
}

// Normalize fills blank fields with defaults.
func (c Criteria) Normalize() Criteria {
	d := DefaultCriteria()
	if strings.TrimSpace(c.Verdict) == "" {
		c.Verdict = d.Verdict
	}
	if strings.TrimSpace(c.Element) == "" {
		c.Element = d.Element
	}
	if strings.TrimSpace(c.Sort) == "" {
		c.Sort = d.Sort
	}
	return c
}

// Project returns the records matching c in the order c asks for.
// An unknown sort key keeps roster order.
func Project(roster []model.Disciple, c Criteria) []model.Disciple {
	c = c.Normalize()
	needle := strings.ToLower(c.Query)

	out := make([]model.Disciple, 0, len(roster))
	for _, d := range roster {
		if !matchVerdict(d, c.Verdict) || !matchElement(d, c.Element) || !matchText(d, needle) {
			continue
		}
		out = append(out, d.Clone())
	}

	switch c.Sort {
	case SortScoreDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	case SortPotentialDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Stats.Potential > out[j].Stats.Potential })
	case SortNameAsc:
		col := collate.New(language.Vietnamese, collate.IgnoreCase)
		sort.SliceStable(out, func(i, j int) bool { return col.CompareString(out[i].Name, out[j].Name) < 0 })
	}
	return out
}

func matchVerdict(d model.Disciple, v string) bool {
	return v == All || string(d.Verdict) == v
}

func matchElement(d model.Disciple, e string) bool {
	switch e {
	case All:
		return true
	case ElementSingle:
		return d.PrimaryElement != model.ElementMixed
	case ElementMixed:
		return d.PrimaryElement == model.ElementMixed
	default:
		return string(d.PrimaryElement) == e
	}
}

// matchText matches needle as typed; surrounding spaces are significant
// unless the query is blank.
func matchText(d model.Disciple, needle string) bool {
	if strings.TrimSpace(needle) == "" {
		return true
	}
	has := func(s string) bool { return strings.Contains(strings.ToLower(s), needle) }
	if has(d.Name) || has(d.OriginClass) || has(d.Analysis) {
		return true
	}
	for _, t := range d.Traits {
		if has(t.Name) {
			return true
		}
	}
	for _, s := range d.Skills {
		if has(s.Name) {
			return true
		}
	}
	return false
}
