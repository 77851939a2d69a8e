package sectclient_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/sect/internal/adapters/http/api"
	"github.com/okian/sect/internal/adapters/repository"
	"github.com/okian/sect/internal/adapters/spool"
	service "github.com/okian/sect/internal/app"
	"github.com/okian/sect/internal/domain/analysis"
	"github.com/okian/sect/internal/domain/ingest"
	"github.com/okian/sect/internal/domain/model"
	"github.com/okian/sect/internal/domain/query"
	"github.com/okian/sect/internal/domain/types"
	"github.com/okian/sect/internal/sectclient"
	"github.com/okian/sect/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func noWait(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func writeFile(t *testing.T, dir, name string, data []byte) string {
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, data, 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func png(tag string) []byte {
	return append(append([]byte(nil), pngMagic...), tag...)
}

func startServer(t *testing.T) (*httptest.Server, *service.Service) {
	var calls atomic.Int32
	analyzer := analysis.Func(func(context.Context, []byte, string) (model.Disciple, error) {
		n := calls.Add(1)
		return model.Disciple{
			ID:      fmt.Sprintf("d%d", n),
			Name:    fmt.Sprintf("Đệ tử %d", n),
			Verdict: model.VerdictRecruit,
			Role:    model.RoleTank,
			Score:   float64(70 + n),
			Stats:   model.Stats{Bone: float64(80 + n)},
		}, nil
	})
	svc := service.New(
		service.WithStore(repository.NewMemoryStore()),
		service.WithAnalyzer(analyzer),
		service.WithPipelineOptions(ingest.WithSleeper(ingest.SleeperFunc(noWait))),
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	dir, err := spool.New(t.TempDir(), 0)
	if err != nil {
		t.Fatal(err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc, svc, dir, ingest.MaxBatchSize).Register(context.Background(), mux)
	return httptest.NewServer(mux), svc
}

func TestClient(t *testing.T) {
	Convey("Given a client talking to a running service", t, func() {
		srv, svc := startServer(t)
		defer svc.Stop()
		defer srv.Close()
		ctx := context.Background()
		c := sectclient.New(srv.URL, 5*time.Second)

		Convey("When no profile is open", func() {
			_, err := c.Active(ctx)

			Convey("Then the service error code is surfaced", func() {
				So(err, ShouldNotBeNil)
				So(sectclient.IsCode(err, "no_active_profile"), ShouldBeTrue)
			})
		})

		Convey("When a profile is opened and images are uploaded", func() {
			v, err := c.Open(ctx, "main", "")
			So(err, ShouldBeNil)
			So(v.Name, ShouldEqual, "main")

			dir := t.TempDir()
			paths := []string{writeFile(t, dir, "a.png", png("a")), writeFile(t, dir, "b.png", png("b"))}
			job, err := c.Upload(ctx, paths)
			So(err, ShouldBeNil)

			var polls int
			done, err := c.WaitJob(ctx, job.ID, 5*time.Millisecond, func(types.Job) { polls++ })

			Convey("Then the batch completes and the roster is readable", func() {
				So(err, ShouldBeNil)
				So(done.State, ShouldEqual, types.JobDone)
				So(done.Progress.Success, ShouldEqual, 2)
				So(polls, ShouldBeGreaterThan, 0)

				list, err := c.Disciples(ctx, query.Criteria{Sort: query.SortNameAsc})
				So(err, ShouldBeNil)
				So(len(list), ShouldEqual, 2)
				So(list[0].ID, ShouldEqual, "d1")

				team, err := c.Team(ctx)
				So(err, ShouldBeNil)
				So(len(team.Team), ShouldEqual, 1)
				So(team.Team[0].Disciple.ID, ShouldEqual, "d2")

				ov, err := c.Overview(ctx)
				So(err, ShouldBeNil)
				So(ov.Total, ShouldEqual, 2)
			})

			Convey("Then the profile can be exported and imported", func() {
				name, data, err := c.Export(ctx)
				So(err, ShouldBeNil)
				So(name, ShouldEqual, "main.json")

				v, err := c.Import(ctx, "copy.json", data)
				So(err, ShouldBeNil)
				So(v.Name, ShouldEqual, "copy")
				So(v.Size, ShouldEqual, 2)

				infos, err := c.Profiles(ctx)
				So(err, ShouldBeNil)
				So(len(infos), ShouldEqual, 2)

				So(sectclient.IsCode(c.DeleteProfile(ctx, "copy"), "profile_active"), ShouldBeTrue)
				So(c.DeleteProfile(ctx, "main"), ShouldBeNil)
				infos, err = c.Profiles(ctx)
				So(err, ShouldBeNil)
				So(len(infos), ShouldEqual, 1)
			})

			Convey("Then records can be deleted and cleared", func() {
				So(c.Delete(ctx, "d1"), ShouldBeNil)
				So(sectclient.IsCode(c.Delete(ctx, "d1"), "not_found"), ShouldBeTrue)
				So(c.Clear(ctx), ShouldBeNil)
				v, err := c.Active(ctx)
				So(err, ShouldBeNil)
				So(v.Size, ShouldEqual, 0)
			})

			Convey("Then settings round trip", func() {
				limit, err := c.SetLimit(ctx, 7)
				So(err, ShouldBeNil)
				So(limit, ShouldEqual, 7)

				v, err := c.SetInstruction(ctx, "chỉ nhận kiếm tu")
				So(err, ShouldBeNil)
				So(v.CustomInstruction, ShouldBeTrue)
				v, err = c.ResetInstruction(ctx)
				So(err, ShouldBeNil)
				So(v.CustomInstruction, ShouldBeFalse)

				So(c.Close(ctx), ShouldBeNil)
			})
		})

		Convey("When uploading nothing", func() {
			_, err := c.Upload(ctx, nil)
			So(err, ShouldEqual, sectclient.ErrNoImages)
		})
	})
}

func TestScan(t *testing.T) {
	Convey("Given a folder with images and other files", t, func() {
		dir := t.TempDir()
		writeFile(t, dir, "b.png", png("b"))
		writeFile(t, dir, "a.png", png("a"))
		writeFile(t, dir, "sub/c.png", png("c"))
		writeFile(t, dir, "notes.txt", []byte("not an image"))

		Convey("When scanning without a cap", func() {
			res, err := sectclient.Scan([]string{dir}, 0)

			Convey("Then images are returned in name order and others skipped", func() {
				So(err, ShouldBeNil)
				So(res.Images, ShouldResemble, []string{
					filepath.Join(dir, "a.png"),
					filepath.Join(dir, "b.png"),
					filepath.Join(dir, "sub", "c.png"),
				})
				So(res.Skipped, ShouldResemble, []string{filepath.Join(dir, "notes.txt")})
			})
		})

		Convey("When scanning with a cap", func() {
			res, err := sectclient.Scan([]string{dir}, 2)
			So(err, ShouldBeNil)
			So(len(res.Images), ShouldEqual, 2)
			So(res.Dropped, ShouldResemble, []string{filepath.Join(dir, "sub", "c.png")})
		})

		Convey("When nothing is an image", func() {
			_, err := sectclient.Scan([]string{filepath.Join(dir, "notes.txt")}, 0)
			So(err, ShouldEqual, sectclient.ErrNoImages)
		})

		Convey("When a path does not exist", func() {
			_, err := sectclient.Scan([]string{filepath.Join(dir, "missing")}, 0)
			So(err, ShouldNotBeNil)
		})
	})
}
