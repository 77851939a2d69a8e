package advisor_test

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/sect/internal/domain/advisor"
	"github.com/okian/sect/internal/domain/model"
)

func rec(id string, role model.Role, score float64, st model.Stats) model.Disciple {
	return model.Disciple{ID: id, Name: "Đệ tử " + id, Role: role, Verdict: model.VerdictRecruit, Score: score, Stats: st}
}

func teamIDs(s advisor.Suggestion) []string {
	out := make([]string, len(s.Team))
	for i, m := range s.Team {
		out[i] = m.Disciple.ID
	}
	return out
}

func kinds(ws []advisor.Warning) []advisor.WarningKind {
	out := make([]advisor.WarningKind, len(ws))
	for i, w := range ws {
		out[i] = w.Kind
	}
	return out
}

func TestSuggestLoneTank(t *testing.T) {
	Convey("Given a roster with a single strong tank", t, func() {
		r := []model.Disciple{rec("t", model.RoleTank, 60, model.Stats{Bone: 95, Aptitude: 50, Luck: 10})}

		Convey("When a team is suggested", func() {
			s := advisor.Suggest(r, 50)

			Convey("Then the tank is the only member", func() {
				So(teamIDs(s), ShouldResemble, []string{"t"})
				So(s.Team[0].RoleLabel, ShouldEqual, "Tanker")
				So(s.Team[0].HighestSkill, ShouldEqual, "Tạp dịch")
			})

			Convey("Then every other role is reported short", func() {
				So(kinds(s.Warnings), ShouldResemble, []advisor.WarningKind{
					advisor.WarnDPS, advisor.WarnHealer, advisor.WarnExplorer, advisor.WarnLowAverage,
				})
				So(s.Balanced, ShouldBeFalse)
			})

			Convey("Then warnings name the best holder and the gap", func() {
				dps := s.Warnings[0]
				So(dps.Severity, ShouldEqual, advisor.SeverityHigh)
				So(dps.Best, ShouldNotBeNil)
				So(dps.Best.ID, ShouldEqual, "t")
				So(dps.Gap, ShouldEqual, 30)

				healer := s.Warnings[1]
				So(healer.Severity, ShouldEqual, advisor.SeverityMedium)
				So(healer.Best, ShouldBeNil)
				So(healer.Message, ShouldEqual, "Không có Healer đủ tiêu chuẩn.")

				explorer := s.Warnings[2]
				So(explorer.Best.Value, ShouldEqual, 10)
				So(explorer.Gap, ShouldEqual, 70)
			})

			Convey("Then thresholds are the fixed role minimums", func() {
				So(s.Warnings[0].Threshold, ShouldEqual, advisor.MinDPSAptitude)
				So(s.Warnings[1].Threshold, ShouldEqual, advisor.MinHealerAptitude)
				So(s.Warnings[2].Threshold, ShouldEqual, advisor.MinExplorerLuck)
				So(s.Warnings[3].Threshold, ShouldEqual, advisor.MinTeamPotential)
				So(s.Warnings[0].Message, ShouldContainSubstring, "Tư Chất > 80.")
			})

			Convey("Then there is nothing to expel", func() {
				So(s.Expulsions, ShouldBeEmpty)
				So(s.Excess, ShouldEqual, 0)
			})
		})
	})
}

func TestSuggestFullTeam(t *testing.T) {
	Convey("Given a roster covering every combat role", t, func() {
		r := []model.Disciple{
			rec("d3", model.RoleDPS, 10, model.Stats{Potential: 80, Aptitude: 60}),
			rec("tank", model.RoleTank, 70, model.Stats{Potential: 80, Bone: 90, Aptitude: 60}),
			rec("heal", model.RoleHealer, 60, model.Stats{Potential: 80, Aptitude: 75}),
			rec("exp", model.RoleExplorerCaptain, 50, model.Stats{Potential: 80, Luck: 85, Aptitude: 60}),
			rec("d1", model.RoleDPS, 90, model.Stats{Potential: 80, Aptitude: 90}),
			rec("d2", model.RoleDPS, 85, model.Stats{Potential: 80, Aptitude: 65}),
			rec("cc", model.RoleCrowdControl, 88, model.Stats{Potential: 80, Aptitude: 70, Intelligence: 90}),
			rec("smith", model.RoleMasterCraftsman, 40, model.Stats{}),
		}
		r[7].Skills = []model.Skill{{Name: "Luyện Khí", Level: 3}, {Name: "Luyện Đan", Level: 7}}
		before := model.CloneAll(r)

		Convey("When a team is suggested", func() {
			s := advisor.Suggest(r, 50)

			Convey("Then support roles are seated first and the rest filled by score", func() {
				So(cmp.Diff([]string{"d1", "cc", "tank", "heal", "exp"}, teamIDs(s)), ShouldBeEmpty)
			})

			Convey("Then no warnings are raised and the team is balanced", func() {
				So(s.Warnings, ShouldBeEmpty)
				So(s.Balanced, ShouldBeTrue)
				So(s.AvgPotential, ShouldEqual, 80)
				So(s.AvgAptitude, ShouldEqual, 71)
			})

			Convey("Then craftsmen are listed for logistics with their best skill", func() {
				So(len(s.Logistics), ShouldEqual, 1)
				So(s.Logistics[0].HighestSkill, ShouldEqual, "Luyện Đan 7")
			})

			Convey("Then the input roster is untouched", func() {
				So(cmp.Diff(before, r), ShouldBeEmpty)
			})
		})
	})

	Convey("Given a tank that is also the best healer candidate", t, func() {
		r := []model.Disciple{rec("x", model.RoleTank, 50, model.Stats{Bone: 90})}

		Convey("Then the same record is never seated twice", func() {
			So(teamIDs(advisor.Suggest(r, 10)), ShouldResemble, []string{"x"})
		})
	})
}

func TestHealerSearch(t *testing.T) {
	Convey("Given a physician whose role is not HEALER", t, func() {
		r := []model.Disciple{
			rec("doc", model.RoleDPS, 70, model.Stats{Aptitude: 65}),
			rec("brute", model.RoleDPS, 70, model.Stats{Aptitude: 95}),
		}
		r[0].OriginClass = advisor.OriginHealer

		Convey("Then the physician is still named as the best healer", func() {
			s := advisor.Suggest(r, 10)
			var healer *advisor.Warning
			for i := range s.Warnings {
				if s.Warnings[i].Kind == advisor.WarnHealer {
					healer = &s.Warnings[i]
				}
			}
			So(healer, ShouldNotBeNil)
			So(healer.Best.ID, ShouldEqual, "doc")
			So(healer.Gap, ShouldEqual, 5)
		})
	})
}

func TestExpulsions(t *testing.T) {
	Convey("Given twelve records and a limit of ten", t, func() {
		r := make([]model.Disciple, 0, 12)
		for i := 0; i < 8; i++ {
			r = append(r, rec(fmt.Sprintf("ok%d", i), model.RoleDPS, 90, model.Stats{}))
		}
		rej1 := rec("rej30", model.RoleDPS, 30, model.Stats{})
		rej1.Verdict = model.VerdictReject
		rej2 := rec("rej10", model.RoleTank, 10, model.Stats{})
		rej2.Verdict = model.VerdictReject
		fod := rec("fod20", model.RoleFodder, 20, model.Stats{})
		fod.Verdict = model.VerdictKeepWorker
		kept := rec("fod5", model.RoleFodder, 5, model.Stats{})
		r = append(r, rej1, rej2, fod, kept)

		Convey("When expulsions are computed", func() {
			s := advisor.Suggest(r, 10)

			Convey("Then exactly the two lowest scoring candidates are listed", func() {
				So(s.Excess, ShouldEqual, 2)
				got := make([]string, len(s.Expulsions))
				for i, d := range s.Expulsions {
					got[i] = d.ID
				}
				So(got, ShouldResemble, []string{"rej10", "fod20"})
			})
		})

		Convey("When the limit covers the roster", func() {
			So(advisor.Expulsions(r, 12), ShouldBeEmpty)
		})

		Convey("When there are fewer candidates than the excess", func() {
			So(len(advisor.Expulsions(r, 1)), ShouldEqual, 3)
		})
	})
}

func TestLabels(t *testing.T) {
	Convey("Role labels fall back to reserve", t, func() {
		So(advisor.RoleLabel(model.RoleCrowdControl), ShouldEqual, "Khống Chế")
		So(advisor.RoleLabel(model.RoleFodder), ShouldEqual, "Dự Bị")
		So(advisor.RoleLabel(model.Role("UNKNOWN")), ShouldEqual, "Dự Bị")
	})
}
