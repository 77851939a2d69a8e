package main

import (
	"bytes"
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
	"github.com/okian/sect/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func run(url string, args ...string) (string, error) {
	var buf bytes.Buffer
	root := newRootCmd()
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(append([]string{"--url", url}, args...))
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestSectctl(t *testing.T) {
	Convey("Given a running service", t, func() {
		var n atomic.Int32
		svc := service.New(
			service.WithStore(repository.NewMemoryStore()),
			service.WithAnalyzer(analysis.Func(func(context.Context, []byte, string) (model.Disciple, error) {
				i := n.Add(1)
				return model.Disciple{ID: fmt.Sprintf("d%d", i), Name: fmt.Sprintf("Đệ tử %d", i), Verdict: model.VerdictRecruit, Score: 70}, nil
			})),
			service.WithPipelineOptions(ingest.WithSleeper(ingest.SleeperFunc(func(ctx context.Context, _ time.Duration) error { return ctx.Err() }))),
		)
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()
		dir, err := spool.New(t.TempDir(), 0)
		So(err, ShouldBeNil)
		mux := http.NewServeMux()
		api.NewServer(svc, svc, dir, ingest.MaxBatchSize).Register(context.Background(), mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		Convey("When opening a profile and uploading a folder", func() {
			outText, err := run(srv.URL, "open", "main")
			So(err, ShouldBeNil)
			So(outText, ShouldContainSubstring, "main: 0/50 disciples")

			imgs := t.TempDir()
			png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 'x'}
			So(os.WriteFile(filepath.Join(imgs, "a.png"), png, 0o600), ShouldBeNil)
			So(os.WriteFile(filepath.Join(imgs, "readme.md"), []byte("# hi"), 0o600), ShouldBeNil)

			outText, err = run(srv.URL, "upload", imgs)

			Convey("Then the image is analysed and listed", func() {
				So(err, ShouldBeNil)
				So(outText, ShouldContainSubstring, "skipped 1 non-image files")
				So(outText, ShouldContainSubstring, "1/1 (ok 1")

				outText, err = run(srv.URL, "list")
				So(err, ShouldBeNil)
				So(outText, ShouldContainSubstring, "Đệ tử 1")

				outText, err = run(srv.URL, "overview")
				So(err, ShouldBeNil)
				So(outText, ShouldContainSubstring, "total 1")
			})

			Convey("Then the profile can be exported to a file", func() {
				outDir := t.TempDir()
				_, err := run(srv.URL, "export", "--dir", outDir)
				So(err, ShouldBeNil)
				_, statErr := os.Stat(filepath.Join(outDir, "main.json"))
				So(statErr, ShouldBeNil)
			})
		})

		Convey("When removing stored profiles", func() {
			_, err := run(srv.URL, "open", "spare")
			So(err, ShouldBeNil)
			_, err = run(srv.URL, "open", "main")
			So(err, ShouldBeNil)

			outText, err := run(srv.URL, "profiles", "rm", "spare")
			So(err, ShouldBeNil)
			So(outText, ShouldContainSubstring, "deleted spare")

			_, err = run(srv.URL, "profiles", "rm", "main")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "profile_active")

			outText, err = run(srv.URL, "profiles")
			So(err, ShouldBeNil)
			So(outText, ShouldNotContainSubstring, "spare")
		})

		Convey("When clearing without confirmation", func() {
			_, err := run(srv.URL, "clear")
			So(err, ShouldNotBeNil)
		})

		Convey("When no profile is open", func() {
			_, err := run(srv.URL, "team")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "no_active_profile")
		})
	})
}
