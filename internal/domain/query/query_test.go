package query_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/sect/internal/domain/model"
	"github.com/okian/sect/internal/domain/query"
)

func roster() []model.Disciple {
	return []model.Disciple{
		{ID: "1", Name: "Đỗ Bình", OriginClass: "Kiếm Khách", PrimaryElement: model.ElementMetal,
			Verdict: model.VerdictRecruit, Score: 80, Stats: model.Stats{Potential: 70},
			Traits: []model.Trait{{Name: "Kiếm Tâm", IsPositive: true, Tier: model.TierS}}},
		{ID: "2", Name: "an Khang", OriginClass: "Y Sư", PrimaryElement: model.ElementWood,
			Verdict: model.VerdictKeepWorker, Score: 80, Stats: model.Stats{Potential: 90},
			Skills: []model.Skill{{Name: "Luyện Đan", Level: 9}}},
		{ID: "3", Name: "Ánh Tuyết", OriginClass: "Vũ Cơ", PrimaryElement: model.ElementMixed,
			Verdict: model.VerdictReject, Score: 40, Stats: model.Stats{Potential: 50},
			Analysis: "Tạp linh căn, phế vật."},
		{ID: "4", Name: "Dương Liễu", OriginClass: "Hoạ Sư", PrimaryElement: model.ElementWater,
			Verdict: model.VerdictRecruit, Score: 95, Stats: model.Stats{Potential: 90}},
	}
}

func ids(ds []model.Disciple) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.ID
	}
	return out
}

func TestProject(t *testing.T) {
	Convey("Given a roster", t, func() {
		r := roster()

		Convey("When using the default criteria", func() {
			got := query.Project(r, query.DefaultCriteria())

			Convey("Then everything is shown by descending score, ties in roster order", func() {
				So(cmp.Diff([]string{"4", "1", "2", "3"}, ids(got)), ShouldBeEmpty)
			})
		})

		Convey("When the verdict filter is set", func() {
			got := query.Project(r, query.Criteria{Verdict: string(model.VerdictRecruit)})
			So(cmp.Diff([]string{"4", "1"}, ids(got)), ShouldBeEmpty)
		})

		Convey("When filtering by element", func() {
			So(ids(query.Project(r, query.Criteria{Element: query.ElementMixed})), ShouldResemble, []string{"3"})
			So(ids(query.Project(r, query.Criteria{Element: query.ElementSingle})), ShouldResemble, []string{"4", "1", "2"})
			So(ids(query.Project(r, query.Criteria{Element: string(model.ElementWood)})), ShouldResemble, []string{"2"})
		})

		Convey("When searching text", func() {
			Convey("Then trait names match case-insensitively", func() {
				So(ids(query.Project(r, query.Criteria{Query: "kiếm tâm"})), ShouldResemble, []string{"1"})
			})
			Convey("Then skill names match", func() {
				So(ids(query.Project(r, query.Criteria{Query: "đan"})), ShouldResemble, []string{"2"})
			})
			Convey("Then origin class and analysis match", func() {
				So(ids(query.Project(r, query.Criteria{Query: "y sư"})), ShouldResemble, []string{"2"})
				So(ids(query.Project(r, query.Criteria{Query: "PHẾ VẬT"})), ShouldResemble, []string{"3"})
			})
			Convey("Then blank queries match everything", func() {
				So(len(query.Project(r, query.Criteria{Query: "   "})), ShouldEqual, 4)
			})
			Convey("Then spaces around a query are part of it", func() {
				So(ids(query.Project(r, query.Criteria{Query: " bình"})), ShouldResemble, []string{"1"})
				So(query.Project(r, query.Criteria{Query: "bình "}), ShouldBeEmpty)
			})
		})

		Convey("When sorting by potential", func() {
			got := query.Project(r, query.Criteria{Sort: query.SortPotentialDesc})
			So(cmp.Diff([]string{"2", "4", "1", "3"}, ids(got)), ShouldBeEmpty)
		})

		Convey("When sorting by name", func() {
			got := query.Project(r, query.Criteria{Sort: query.SortNameAsc})

			Convey("Then Vietnamese collation orders A before Á before D before Đ", func() {
				So(cmp.Diff([]string{"2", "3", "4", "1"}, ids(got)), ShouldBeEmpty)
			})
		})

		Convey("When a verdict filter and a text query are combined", func() {
			rr := append(roster(),
				model.Disciple{ID: "5", Name: "Hà Phong", Verdict: model.VerdictReject, Score: 30},
				model.Disciple{ID: "6", Name: "Lục Trúc", Verdict: model.VerdictKeepWorker, Score: 60, Analysis: "Nửa phế nhân."},
			)
			byVerdict := query.Criteria{Verdict: string(model.VerdictReject)}
			byText := query.Criteria{Query: "phế"}
			both := query.Project(rr, query.Criteria{Verdict: string(model.VerdictReject), Query: "phế"})

			Convey("Then only records passing both filters remain", func() {
				textIDs := map[string]bool{}
				for _, d := range query.Project(rr, byText) {
					textIDs[d.ID] = true
				}
				var intersection []string
				for _, d := range query.Project(rr, byVerdict) {
					if textIDs[d.ID] {
						intersection = append(intersection, d.ID)
					}
				}
				So(cmp.Diff(intersection, ids(both)), ShouldBeEmpty)
				So(ids(both), ShouldResemble, []string{"3"})
			})

			Convey("Then the order the filters are applied in does not matter", func() {
				verdictFirst := query.Project(query.Project(rr, byVerdict), byText)
				textFirst := query.Project(query.Project(rr, byText), byVerdict)
				So(cmp.Diff(ids(both), ids(verdictFirst)), ShouldBeEmpty)
				So(cmp.Diff(ids(both), ids(textFirst)), ShouldBeEmpty)
			})
		})

		Convey("When the sort key is unknown", func() {
			got := query.Project(r, query.Criteria{Sort: "AGE_DESC"})
			So(ids(got), ShouldResemble, []string{"1", "2", "3", "4"})
		})

		Convey("When the result is modified", func() {
			got := query.Project(r, query.DefaultCriteria())
			got[0].Name = "changed"
			So(r[3].Name, ShouldEqual, "Dương Liễu")
		})

		Convey("When the roster is empty", func() {
			So(query.Project(nil, query.DefaultCriteria()), ShouldBeEmpty)
		})
	})

	Convey("Given the names Bình and An", t, func() {
		r := []model.Disciple{{ID: "b", Name: "Bình"}, {ID: "a", Name: "An"}}

		Convey("When sorted by name", func() {
			got := query.Project(r, query.Criteria{Sort: query.SortNameAsc})

			Convey("Then An comes first", func() {
				So(cmp.Diff([]string{"An", "Bình"}, []string{got[0].Name, got[1].Name}), ShouldBeEmpty)
			})
		})
	})

	Convey("Given partial criteria", t, func() {
		c := query.Criteria{Query: "x"}.Normalize()
		So(c, ShouldResemble, query.Criteria{Verdict: query.All, Query: "x", Element: query.All, Sort: query.SortScoreDesc})
	})
}
