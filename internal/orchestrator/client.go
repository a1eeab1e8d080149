// Package orchestrator is the client for the orchestration API that owns
// compute-server jobs. The reaper only lists, inspects, and deletes jobs;
// jobs are created and otherwise managed entirely by the orchestration layer.
package orchestrator

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/psantana5/compute-reaper/internal/auth"
	"github.com/psantana5/compute-reaper/internal/correlate"
	"github.com/psantana5/compute-reaper/pkg/models"
)

// ErrNotFound marks a job that does not (or no longer) exists. It is distinct
// from transport and auth failures so callers can treat it as a benign outcome.
var ErrNotFound = errors.New("job not found")

// Client talks to the orchestration API.
type Client struct {
	baseURL    string
	tokens     auth.TokenSource
	httpClient *http.Client
}

// NewClient creates an orchestration client. tlsConfig may be nil for plain
// HTTP or default verification.
func NewClient(baseURL string, tokens auth.TokenSource, tlsConfig *tls.Config) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if tlsConfig != nil {
		transport.TLSClientConfig = tlsConfig
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire credential: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

type jobListResponse struct {
	Items []struct {
		Name string `json:"name"`
	} `json:"items"`
}

// ListJobs returns the names of all jobs whose name starts with namePrefix.
// A failure here aborts the cycle: without the full job list nothing else is
// safe to infer.
func (c *Client) ListJobs(ctx context.Context, namePrefix string) ([]string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/jobs?namePrefix="+url.QueryEscape(namePrefix))
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("list jobs failed with status %d: %s", resp.StatusCode, string(body))
	}

	var list jobListResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to decode job list: %w", err)
	}

	names := make([]string, 0, len(list.Items))
	for _, item := range list.Items {
		// The API filters server-side; re-check in case it does not.
		if strings.HasPrefix(item.Name, namePrefix) {
			names = append(names, item.Name)
		}
	}
	return names, nil
}

type jobDetailResponse struct {
	Name          string            `json:"name"`
	LaunchCommand []string          `json:"launchCommand"`
	Labels        map[string]string `json:"labels"`
	StartTime     string            `json:"startTime"`
}

// GetJob fetches one job and derives the typed fields the classifier needs.
// Derivation failures (missing serverID, bad timestamp) are returned as errors
// for this job only; the caller skips the item and continues the cycle.
func (c *Client) GetJob(ctx context.Context, name string) (*models.ComputeJob, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/jobs/"+url.PathEscape(name))
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get job %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("job %s: %w", name, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("get job %s failed with status %d: %s", name, resp.StatusCode, string(body))
	}

	var detail jobDetailResponse
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		return nil, fmt.Errorf("failed to decode job %s: %w", name, err)
	}
	if detail.Name == "" {
		detail.Name = name
	}

	serverID, err := correlate.FlagValue(detail.LaunchCommand, "-serverID")
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", name, err)
	}

	// The context is reporting-only; a job without one is still classifiable.
	contextID, _ := correlate.FlagValue(detail.LaunchCommand, "-context")

	owner := detail.Labels["owner"]
	if owner == "" {
		owner = models.OwnerUnknown
	}

	if detail.StartTime == "" {
		return nil, fmt.Errorf("job %s has no start time", name)
	}
	startTime, err := time.Parse(time.RFC3339, detail.StartTime)
	if err != nil {
		return nil, fmt.Errorf("job %s has invalid start time %q: %w", name, detail.StartTime, err)
	}

	return &models.ComputeJob{
		Name:      detail.Name,
		ServerID:  serverID,
		ContextID: contextID,
		Owner:     owner,
		StartTime: startTime,
	}, nil
}

// DeleteJob removes a job by name. Deleting an already-absent job is a
// success so that a failed cycle can safely re-attempt on the next run.
func (c *Client) DeleteJob(ctx context.Context, name string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/jobs/"+url.PathEscape(name))
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete job %s: %w", name, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusAccepted:
		return nil
	case http.StatusNotFound:
		// Already gone; idempotent delete.
		return nil
	default:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delete job %s failed with status %d: %s", name, resp.StatusCode, string(body))
	}
}
