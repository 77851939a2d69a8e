// Package sectclient is a typed HTTP client for the roster service.
package sectclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/sect/internal/adapters/repository"
	"github.com/okian/sect/internal/domain/advisor"
	"github.com/okian/sect/internal/domain/model"
	"github.com/okian/sect/internal/domain/overview"
	"github.com/okian/sect/internal/domain/query"
	"github.com/okian/sect/internal/domain/types"
)

// DefaultBaseURL is where sectd listens by default.
const DefaultBaseURL = "http://localhost:9080"

// Client wraps http.Client with the service base URL.
type Client struct {
	baseURL string
	client  *http.Client
}

// New creates a client with a per-request timeout.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Profiles lists stored profiles.
func (c *Client) Profiles(ctx context.Context) ([]repository.ProfileInfo, error) {
	var out []repository.ProfileInfo
	return out, c.call(ctx, http.MethodGet, "/profiles", nil, &out)
}

// Open opens name in mode "load" or "overwrite".
func (c *Client) Open(ctx context.Context, name, mode string) (types.ProfileView, error) {
	var out types.ProfileView
	body := map[string]string{"name": name, "mode": mode}
	return out, c.call(ctx, http.MethodPost, "/profiles", body, &out)
}

// Close closes the active profile.
func (c *Client) Close(ctx context.Context) error {
	return c.call(ctx, http.MethodDelete, "/profiles/active", nil, nil)
}

// Active describes the active profile.
func (c *Client) Active(ctx context.Context) (types.ProfileView, error) {
	var out types.ProfileView
	return out, c.call(ctx, http.MethodGet, "/profile", nil, &out)
}

// SetLimit changes the roster limit and returns the stored value.
func (c *Client) SetLimit(ctx context.Context, limit int) (int, error) {
	var out struct {
		Limit int `json:"limit"`
	}
	err := c.call(ctx, http.MethodPut, "/profile/limit", map[string]int{"limit": limit}, &out)
	return out.Limit, err
}

// SetInstruction replaces the analysis instruction.
func (c *Client) SetInstruction(ctx context.Context, text string) (types.ProfileView, error) {
	var out types.ProfileView
	body := map[string]string{"instruction": text}
	return out, c.call(ctx, http.MethodPut, "/profile/instruction", body, &out)
}

// ResetInstruction restores the default instruction.
func (c *Client) ResetInstruction(ctx context.Context) (types.ProfileView, error) {
	var out types.ProfileView
	return out, c.call(ctx, http.MethodDelete, "/profile/instruction", nil, &out)
}

// Disciples lists the roster. Empty criteria fields use the stored criteria.
func (c *Client) Disciples(ctx context.Context, crit query.Criteria) ([]model.Disciple, error) {
	q := url.Values{}
	if crit.Verdict != "" {
		q.Set("verdict", crit.Verdict)
	}
	if crit.Query != "" {
		q.Set("q", crit.Query)
	}
	if crit.Element != "" {
		q.Set("element", crit.Element)
	}
	if crit.Sort != "" {
		q.Set("sort", crit.Sort)
	}
	path := "/disciples"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []model.Disciple
	return out, c.call(ctx, http.MethodGet, path, nil, &out)
}

// Delete removes one disciple.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/disciples/"+url.PathEscape(id), nil, nil)
}

// DeleteProfile removes a stored profile other than the active one.
func (c *Client) DeleteProfile(ctx context.Context, name string) error {
	return c.call(ctx, http.MethodDelete, "/profiles/"+url.PathEscape(name), nil, nil)
}

// Clear removes every disciple of the active profile.
func (c *Client) Clear(ctx context.Context) error {
	return c.call(ctx, http.MethodDelete, "/disciples", nil, nil)
}

// Team fetches the party suggestion.
func (c *Client) Team(ctx context.Context) (advisor.Suggestion, error) {
	var out advisor.Suggestion
	return out, c.call(ctx, http.MethodGet, "/team", nil, &out)
}

// Overview fetches roster statistics.
func (c *Client) Overview(ctx context.Context) (overview.Summary, error) {
	var out overview.Summary
	return out, c.call(ctx, http.MethodGet, "/overview", nil, &out)
}

// Export downloads the active profile and the file name suggested by the server.
func (c *Client) Export(ctx context.Context) (string, []byte, error) {
	resp, err := c.do(ctx, http.MethodGet, "/export", nil, "")
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return "", nil, err
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("read export: %w", err)
	}
	name := "profile.json"
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		name = params["filename"]
	}
	return name, data, nil
}

// Import uploads a profile document stored under name and makes it active.
func (c *Client) Import(ctx context.Context, name string, data []byte) (types.ProfileView, error) {
	var out types.ProfileView
	resp, err := c.do(ctx, http.MethodPost, "/import?name="+url.QueryEscape(name), bytes.NewReader(data), "application/json")
	if err != nil {
		return out, err
	}
	return out, decodeResponse(resp, &out)
}

// Upload submits image files as one batch.
func (c *Client) Upload(ctx context.Context, paths []string) (types.Job, error) {
	var job types.Job
	if len(paths) == 0 {
		return job, ErrNoImages
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeParts(mw, paths))
	}()

	resp, err := c.do(ctx, http.MethodPost, "/uploads", pr, mw.FormDataContentType())
	if err != nil {
		_ = pr.CloseWithError(err)
		return job, err
	}
	return job, decodeResponse(resp, &job)
}

func writeParts(mw *multipart.Writer, paths []string) error {
	for _, p := range paths {
		if err := writePart(mw, p); err != nil {
			return err
		}
	}
	return mw.Close()
}

func writePart(mw *multipart.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w, err := mw.CreateFormFile("files", filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}

// Job fetches one batch.
func (c *Client) Job(ctx context.Context, id string) (types.Job, error) {
	var out types.Job
	return out, c.call(ctx, http.MethodGet, "/jobs/"+url.PathEscape(id), nil, &out)
}

// WaitJob polls a batch until it finishes, calling progress after every poll.
func (c *Client) WaitJob(ctx context.Context, id string, every time.Duration, progress func(types.Job)) (types.Job, error) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		job, err := c.Job(ctx, id)
		if err != nil {
			return job, err
		}
		if progress != nil {
			progress(job)
		}
		if job.State == types.JobDone || job.State == types.JobFailed {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-t.C:
		}
	}
}

func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	var (
		rd          io.Reader
		contentType string
	)
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		rd, contentType = bytes.NewReader(data), "application/json"
	}
	resp, err := c.do(ctx, method, path, rd, contentType)
	if err != nil {
		return err
	}
	return decodeResponse(resp, out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

// decodeResponse reads and closes the response body.
func decodeResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode < http.StatusBadRequest {
		return nil
	}
	e := &APIError{Status: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, e); err != nil || e.Message == "" {
		e.Message = strings.TrimSpace(string(data))
	}
	return e
}
