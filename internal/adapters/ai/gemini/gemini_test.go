package gemini

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"google.golang.org/genai"

	"github.com/okian/sect/internal/domain/analysis"
)

type fakeGenerator struct {
	text     string
	err      error
	model    string
	config   *genai.GenerateContentConfig
	contents []*genai.Content
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model, f.contents, f.config = model, contents, config
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: f.text}}, Role: genai.RoleModel},
		}},
	}, nil
}

const answer = "```json\n" + `{"name":"Mộc Lan","originClass":"Y Sư",
"stats":{"potential":80,"aptitude":78,"bone":40,"intelligence":70,"charm":60,"luck":50},
"traits":[],"primaryElement":"Mộc","verdict":"RECRUIT","role":"HEALER","analysis":"Y sư giỏi.","score":81}` + "\n```"

func TestAnalyzer(t *testing.T) {
	Convey("Given a Gemini analyzer over a fake generator", t, func() {
		ctx := context.Background()
		fake := &fakeGenerator{text: answer}
		a, err := New(ctx, "key", withGenerator(fake), WithModel("gemini-test"))
		So(err, ShouldBeNil)

		Convey("When analyzing with a blank instruction", func() {
			d, err := a.Analyze(ctx, []byte{0x89, 'P', 'N', 'G'}, "  ")

			Convey("Then the default instruction and schema are sent", func() {
				So(err, ShouldBeNil)
				So(d.Name, ShouldEqual, "Mộc Lan")
				So(d.ID, ShouldNotBeEmpty)
				So(fake.model, ShouldEqual, "gemini-test")
				So(fake.config.ResponseMIMEType, ShouldEqual, "application/json")
				So(fake.config.ResponseSchema.Type, ShouldEqual, genai.TypeObject)
				So(fake.config.ResponseSchema.Properties["verdict"].Enum, ShouldContain, "EXPEL_CANDIDATE")
				So(fake.config.SystemInstruction.Parts[0].Text, ShouldEqual, analysis.DefaultInstruction)
				So(len(fake.contents[0].Parts), ShouldEqual, 2)
				So(fake.contents[0].Parts[0].InlineData.MIMEType, ShouldEqual, "image/png")
				So(fake.contents[0].Parts[1].Text, ShouldEqual, analysis.UserPrompt)
			})
		})

		Convey("When the API answers 429", func() {
			fake.err = genai.APIError{Code: 429, Message: "slow down", Status: "RESOURCE_EXHAUSTED"}
			_, err := a.Analyze(ctx, []byte("img"), "custom")

			Convey("Then the error is retryable", func() {
				So(errors.Is(err, analysis.ErrRateLimited), ShouldBeTrue)
				So(fake.config.SystemInstruction.Parts[0].Text, ShouldEqual, "custom")
			})
		})

		Convey("When the API fails otherwise", func() {
			fake.err = genai.APIError{Code: 500, Message: "internal", Status: "INTERNAL"}
			_, err := a.Analyze(ctx, []byte("img"), "")

			Convey("Then it is a remote error", func() {
				So(errors.Is(err, analysis.ErrRemote), ShouldBeTrue)
			})
		})

		Convey("When the answer is not JSON", func() {
			fake.text = "I cannot read this card."
			_, err := a.Analyze(ctx, []byte("img"), "")

			Convey("Then it is an invalid response", func() {
				So(errors.Is(err, analysis.ErrInvalidResponse), ShouldBeTrue)
			})
		})
	})

	Convey("Given an analyzer without an API key", t, func() {
		a, err := New(context.Background(), "")
		So(err, ShouldBeNil)

		Convey("Then every call reports the missing credential", func() {
			for i := 0; i < 2; i++ {
				_, err := a.Analyze(context.Background(), []byte("img"), "")
				So(errors.Is(err, analysis.ErrMissingCredential), ShouldBeTrue)
			}
		})
	})
}
