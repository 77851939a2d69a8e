// Package gemini implements the disciple analyzer on Google's Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/okian/sect/internal/domain/analysis"
	"github.com/okian/sect/internal/domain/model"
)

const defaultModel = "gemini-2.5-flash"

// generator is the subset of genai.Models used here.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Analyzer calls Gemini with the card image and a JSON response schema.
type Analyzer struct {
	apiKey  string
	model   string
	baseURL string
	timeout time.Duration
	gen     generator
	schema  *genai.Schema
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithModel overrides the model name.
func WithModel(name string) Option {
	return func(a *Analyzer) {
		if name != "" {
			a.model = name
		}
	}
}

// WithBaseURL points the client at a different endpoint.
func WithBaseURL(u string) Option {
	return func(a *Analyzer) { a.baseURL = u }
}

// WithTimeout bounds each call.
func WithTimeout(d time.Duration) Option {
	return func(a *Analyzer) {
		if d > 0 {
			a.timeout = d
		}
	}
}

func withGenerator(g generator) Option {
	return func(a *Analyzer) { a.gen = g }
}

// New builds an analyzer. An empty apiKey is accepted; every call then fails
// with analysis.ErrMissingCredential.
func New(ctx context.Context, apiKey string, opts ...Option) (*Analyzer, error) {
	a := &Analyzer{
		apiKey: apiKey,
		model:  defaultModel,
		schema: toGenai(analysis.ResponseSchema()),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.gen != nil || a.apiKey == "" {
		return a, nil
	}

	cfg := &genai.ClientConfig{
		APIKey:  a.apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if a.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: a.baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	a.gen = client.Models
	return a, nil
}

// Analyze implements analysis.Analyzer.
func (a *Analyzer) Analyze(ctx context.Context, image []byte, instruction string) (model.Disciple, error) {
	if a.gen == nil {
		return model.Disciple{}, analysis.ErrMissingCredential
	}
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(image, analysis.DetectMIME(image)),
			genai.NewPartFromText(analysis.UserPrompt),
		}, genai.RoleUser),
	}
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(analysis.ResolveInstruction(instruction), genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    a.schema,
	}

	resp, err := a.gen.GenerateContent(ctx, a.model, contents, cfg)
	if err != nil {
		return model.Disciple{}, classify(err)
	}
	if resp == nil {
		return model.Disciple{}, fmt.Errorf("%w: no response", analysis.ErrInvalidResponse)
	}
	return analysis.ParseResponse(resp.Text())
}

func classify(err error) error {
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		return classifyAPI(apiErr, err)
	case errors.As(err, &apiErrPtr) && apiErrPtr != nil:
		return classifyAPI(*apiErrPtr, err)
	}
	return analysis.Classify(err)
}

func classifyAPI(apiErr genai.APIError, err error) error {
	if apiErr.Code == http.StatusTooManyRequests || strings.EqualFold(apiErr.Status, "RESOURCE_EXHAUSTED") {
		return fmt.Errorf("%w: %w", analysis.ErrRateLimited, err)
	}
	return analysis.Classify(err)
}

var schemaTypes = map[string]genai.Type{
	analysis.TypeObject:  genai.TypeObject,
	analysis.TypeArray:   genai.TypeArray,
	analysis.TypeString:  genai.TypeString,
	analysis.TypeNumber:  genai.TypeNumber,
	analysis.TypeBoolean: genai.TypeBoolean,
}

func toGenai(s *analysis.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:             schemaTypes[s.Type],
		Description:      s.Description,
		Enum:             s.Enum,
		Required:         s.Required,
		PropertyOrdering: s.Order,
		Items:            toGenai(s.Items),
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for k, v := range s.Properties {
			out.Properties[k] = toGenai(v)
		}
	}
	return out
}
