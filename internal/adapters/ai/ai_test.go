package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/sect/internal/config"
	"github.com/okian/sect/internal/domain/analysis"
	"github.com/okian/sect/internal/domain/model"
	"github.com/okian/sect/pkg/logger"
)

func init() { _ = logger.Init() }

func TestNew(t *testing.T) {
	Convey("Given provider configurations", t, func() {
		ctx := context.Background()

		Convey("When the provider is gemini without a key", func() {
			cfg := config.New()
			a, err := New(ctx, cfg)

			Convey("Then calls report the missing credential", func() {
				So(err, ShouldBeNil)
				_, err := a.Analyze(ctx, []byte("img"), "")
				So(errors.Is(err, analysis.ErrMissingCredential), ShouldBeTrue)
			})
		})

		Convey("When the provider is openai without a key", func() {
			cfg := config.New()
			cfg.AIProvider = config.ProviderOpenAI
			a, err := New(ctx, cfg)

			So(err, ShouldBeNil)
			_, err = a.Analyze(ctx, []byte("img"), "")
			So(errors.Is(err, analysis.ErrMissingCredential), ShouldBeTrue)
		})

		Convey("When the provider is unknown", func() {
			cfg := config.New()
			cfg.AIProvider = "oracle"
			_, err := New(ctx, cfg)

			So(errors.Is(err, ErrUnknownProvider), ShouldBeTrue)
		})
	})
}

func TestInstrument(t *testing.T) {
	Convey("Given an instrumented analyzer", t, func() {
		var calls int
		inner := analysis.Func(func(_ context.Context, _ []byte, _ string) (model.Disciple, error) {
			calls++
			if calls == 1 {
				return model.Disciple{}, fmt.Errorf("%w: 429", analysis.ErrRateLimited)
			}
			return model.Disciple{ID: "x", Name: "ok"}, nil
		})
		a := Instrument(inner, "fake")

		Convey("Then results and errors pass through unchanged", func() {
			_, err := a.Analyze(context.Background(), nil, "")
			So(errors.Is(err, analysis.ErrRateLimited), ShouldBeTrue)

			d, err := a.Analyze(context.Background(), nil, "")
			So(err, ShouldBeNil)
			So(d.Name, ShouldEqual, "ok")
			So(calls, ShouldEqual, 2)
		})

		Convey("Then errors map to metric labels", func() {
			So(resultLabel(nil), ShouldEqual, "ok")
			So(resultLabel(analysis.ErrInvalidResponse), ShouldEqual, "invalid_response")
			So(resultLabel(analysis.ErrMissingCredential), ShouldEqual, "missing_credential")
			So(resultLabel(context.Canceled), ShouldEqual, "canceled")
			So(resultLabel(analysis.ErrRemote), ShouldEqual, "remote")
		})
	})
}
