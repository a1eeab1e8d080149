// Package sessions is the client for the compute-session API. The reaper
// never creates sessions; it only reads session state and, for reporting,
// resolves context names.
package sessions

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/psantana5/compute-reaper/internal/auth"
	"github.com/psantana5/compute-reaper/pkg/models"
)

// Client talks to the compute-session API.
type Client struct {
	baseURL    string
	tokens     auth.TokenSource
	httpClient *http.Client
}

// NewClient creates a session client authenticated through tokens.
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

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire credential: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	return c.httpClient.Do(req)
}

type sessionListResponse struct {
	Items []models.ComputeSession `json:"items"`
}

// ListSessions returns all sessions known to the compute-session service.
// An empty list is a legitimate observation, not an error: correlation treats
// a missing session as the orphan outcome.
func (c *Client) ListSessions(ctx context.Context) ([]models.ComputeSession, error) {
	resp, err := c.get(ctx, "/sessions")
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("list sessions failed with status %d: %s", resp.StatusCode, string(body))
	}

	var list sessionListResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to decode session list: %w", err)
	}
	return list.Items, nil
}

// GetSessionState fetches the current lifecycle state of one session.
func (c *Client) GetSessionState(ctx context.Context, id string) (models.SessionState, error) {
	resp, err := c.get(ctx, "/sessions/"+url.PathEscape(id)+"/state")
	if err != nil {
		return "", fmt.Errorf("failed to get session %s state: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("get session %s state failed with status %d: %s", id, resp.StatusCode, string(body))
	}

	var result struct {
		State models.SessionState `json:"state"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode session %s state: %w", id, err)
	}
	return result.State, nil
}

// GetContextName resolves a context id to its human-readable name. Used for
// reporting only; any failure degrades to the raw id.
func (c *Client) GetContextName(ctx context.Context, contextID string) (string, error) {
	resp, err := c.get(ctx, "/contexts/"+url.PathEscape(contextID))
	if err != nil {
		return "", fmt.Errorf("failed to get context %s: %w", contextID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("get context %s failed with status %d: %s", contextID, resp.StatusCode, string(body))
	}

	var result struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode context %s: %w", contextID, err)
	}
	return result.Name, nil
}
