// Package github is a minimal client for the two GitHub Actions REST calls
// this tool needs: triggering a workflow_dispatch event and reading back the
// most recent run of the same workflow.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the public GitHub REST endpoint. Overridable for
	// tests and GitHub Enterprise installs.
	DefaultBaseURL = "https://api.github.com"

	acceptHeader = "application/vnd.github.v3+json"

	requestTimeout = 30 * time.Second
)

// Client issues authenticated requests against a single workflow of a single
// repository.
type Client struct {
	BaseURL      string
	Owner        string
	Repo         string
	WorkflowFile string
	Token        string
	UserAgent    string

	httpClient *http.Client
}

// NewClient builds a client for owner/repo and the given workflow filename.
func NewClient(baseURL, owner, repo, workflowFile, token, userAgent string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:      strings.TrimSuffix(baseURL, "/"),
		Owner:        owner,
		Repo:         repo,
		WorkflowFile: workflowFile,
		Token:        token,
		UserAgent:    userAgent,
		httpClient:   &http.Client{Timeout: requestTimeout},
	}
}

// APIError reports a non-2xx response, preserving the body so callers can
// show the API's own explanation (422 input mismatches, 401s, and so on).
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("github: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("github: unexpected status %d: %s", e.StatusCode, body)
}

// WorkflowRun is the subset of a run object the tool reports.
type WorkflowRun struct {
	ID         int64     `json:"id"`
	Status     string    `json:"status"`
	Conclusion string    `json:"conclusion"`
	CreatedAt  time.Time `json:"created_at"`
	HTMLURL    string    `json:"html_url"`
}

// Completed reports whether the run has reached a terminal status.
func (r WorkflowRun) Completed() bool {
	return r.Status == "completed"
}

type runsResponse struct {
	TotalCount   int           `json:"total_count"`
	WorkflowRuns []WorkflowRun `json:"workflow_runs"`
}

// Dispatch triggers the workflow. GitHub answers 204 with an empty body on
// success; any 2xx counts. The response body (usually empty) is returned for
// display.
func (c *Client) Dispatch(ctx context.Context, req DispatchRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("github: encode dispatch body: %w", err)
	}
	url := fmt.Sprintf("%s/repos/%s/%s/actions/workflows/%s/dispatches",
		c.BaseURL, c.Owner, c.Repo, c.WorkflowFile)
	body, err := c.do(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// LatestRun fetches the most recent run of the workflow (per_page=1). The
// boolean is false when the workflow has no runs yet.
func (c *Client) LatestRun(ctx context.Context) (WorkflowRun, bool, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/actions/workflows/%s/runs?per_page=1",
		c.BaseURL, c.Owner, c.Repo, c.WorkflowFile)
	body, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return WorkflowRun{}, false, err
	}
	var runs runsResponse
	if err := json.Unmarshal(body, &runs); err != nil {
		return WorkflowRun{}, false, fmt.Errorf("github: decode runs response: %w", err)
	}
	if len(runs.WorkflowRuns) == 0 {
		return WorkflowRun{}, false, nil
	}
	return runs.WorkflowRuns[0], true, nil
}

func (c *Client) do(ctx context.Context, method, url string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("github: build request: %w", err)
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Authorization", "token "+c.Token)
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github: %s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("github: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}
