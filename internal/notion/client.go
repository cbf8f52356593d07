package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.notion.com/v1"
	notionVersion  = "2022-06-28"
)

var (
	ErrDisabled      = errors.New("notion: integration disabled")
	ErrRequestFailed = errors.New("notion: request failed")
)

// Config builds a Client. An empty APIKey produces a disabled client whose
// calls return ErrDisabled instead of reaching the network.
type Config struct {
	APIKey       string
	DeploymentDB string
	BaseURL      string
	Timeout      time.Duration
	Client       *http.Client
}

// Client talks to the Notion REST API for deployment tracking.
type Client struct {
	apiKey       string
	deploymentDB string
	baseURL      string
	client       *http.Client
}

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Client{
		apiKey:       strings.TrimSpace(cfg.APIKey),
		deploymentDB: strings.TrimSpace(cfg.DeploymentDB),
		baseURL:      baseURL,
		client:       client,
	}
}

// Enabled reports whether the client has credentials to talk to Notion.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// TestConnection verifies the API key by fetching the bot user.
func (c *Client) TestConnection(ctx context.Context) error {
	if !c.Enabled() {
		return ErrDisabled
	}
	status, _, err := c.do(ctx, http.MethodGet, "/users/me", nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: users/me returned %d", ErrRequestFailed, status)
	}
	return nil
}

// DeploymentStatus is one deployment-record update. Environment and Status
// are required; the rest map to optional database properties.
type DeploymentStatus struct {
	Environment  string
	Status       string
	Platform     string
	Version      string
	URL          string
	HealthStatus string
	Notes        string
}

// UpdateDeploymentStatus upserts the deployment record for an environment:
// the existing page is patched when the database already has one, otherwise
// a new page is created.
func (c *Client) UpdateDeploymentStatus(ctx context.Context, s DeploymentStatus) error {
	if !c.Enabled() || c.deploymentDB == "" {
		return ErrDisabled
	}
	env := strings.TrimSpace(s.Environment)
	if env == "" {
		return fmt.Errorf("%w: missing environment", ErrRequestFailed)
	}

	pageID, err := c.findDeploymentRecord(ctx, env)
	if err != nil {
		return err
	}

	props := deploymentProperties(s)
	if pageID != "" {
		status, body, err := c.do(ctx, http.MethodPatch, "/pages/"+pageID, map[string]any{
			"properties": props,
		})
		if err != nil {
			return err
		}
		if status != http.StatusOK {
			return fmt.Errorf("%w: update page returned %d: %s", ErrRequestFailed, status, truncate(body))
		}
		return nil
	}

	status, body, err := c.do(ctx, http.MethodPost, "/pages", map[string]any{
		"parent":     map[string]any{"database_id": c.deploymentDB},
		"properties": props,
	})
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return fmt.Errorf("%w: create page returned %d: %s", ErrRequestFailed, status, truncate(body))
	}
	return nil
}

func (c *Client) findDeploymentRecord(ctx context.Context, environment string) (string, error) {
	payload := map[string]any{
		"page_size": 1,
		"filter": map[string]any{
			"property": "Environment",
			"select":   map[string]any{"equals": environment},
		},
	}
	status, body, err := c.do(ctx, http.MethodPost, "/databases/"+c.deploymentDB+"/query", payload)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("%w: database query returned %d: %s", ErrRequestFailed, status, truncate(body))
	}

	var result struct {
		Results []struct {
			ID string `json:"id"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("%w: decode query response: %v", ErrRequestFailed, err)
	}
	if len(result.Results) == 0 {
		return "", nil
	}
	return result.Results[0].ID, nil
}

func (c *Client) do(ctx context.Context, method string, path string, payload any) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Notion-Version", notionVersion)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}

// deploymentProperties maps a status update onto the deployment database
// property schema.
func deploymentProperties(s DeploymentStatus) map[string]any {
	props := map[string]any{
		"Environment": map[string]any{
			"select": map[string]any{"name": s.Environment},
		},
		"Status": map[string]any{
			"select": map[string]any{"name": s.Status},
		},
		"Last Updated": map[string]any{
			"date": map[string]any{"start": time.Now().UTC().Format(time.RFC3339)},
		},
	}
	if s.Platform != "" {
		props["Platform"] = map[string]any{"select": map[string]any{"name": s.Platform}}
	}
	if s.Version != "" {
		props["Version"] = richText(s.Version)
	}
	if s.URL != "" {
		props["URL"] = map[string]any{"url": s.URL}
	}
	if s.HealthStatus != "" {
		props["Health Status"] = map[string]any{"select": map[string]any{"name": s.HealthStatus}}
	}
	if s.Notes != "" {
		props["Notes"] = richText(s.Notes)
	}
	return props
}

func richText(content string) map[string]any {
	return map[string]any{
		"rich_text": []any{
			map[string]any{"text": map[string]any{"content": content}},
		},
	}
}

func truncate(body []byte) string {
	const max = 256
	text := strings.TrimSpace(string(body))
	if len(text) > max {
		return text[:max] + "..."
	}
	return text
}
