package notion

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDisabledClient(t *testing.T) {
	c := NewClient(Config{})
	if c.Enabled() {
		t.Fatalf("client with no key reports enabled")
	}
	if err := c.TestConnection(context.Background()); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
	err := c.UpdateDeploymentStatus(context.Background(), DeploymentStatus{Environment: "staging", Status: "deployed"})
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}

func TestUpdateRequiresDeploymentDB(t *testing.T) {
	c := NewClient(Config{APIKey: "secret"})
	err := c.UpdateDeploymentStatus(context.Background(), DeploymentStatus{Environment: "staging", Status: "deployed"})
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled without database id, got %v", err)
	}
}

func TestTestConnectionSendsHeaders(t *testing.T) {
	var gotAuth, gotVersion string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/users/me" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		gotVersion = r.Header.Get("Notion-Version")
		_, _ = w.Write([]byte(`{"object":"user"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "secret", BaseURL: srv.URL})
	if err := c.TestConnection(context.Background()); err != nil {
		t.Fatalf("test connection: %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("unexpected auth header: %q", gotAuth)
	}
	if gotVersion != "2022-06-28" {
		t.Fatalf("unexpected version header: %q", gotVersion)
	}
}

func TestTestConnectionRejectsBadKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"object":"error"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "bad", BaseURL: srv.URL})
	if err := c.TestConnection(context.Background()); !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v", err)
	}
}

func TestUpdateCreatesPageWhenNoneExists(t *testing.T) {
	var created map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/databases/db123/query":
			_, _ = w.Write([]byte(`{"results":[]}`))
		case r.Method == http.MethodPost && r.URL.Path == "/pages":
			body, _ := io.ReadAll(r.Body)
			if err := json.Unmarshal(body, &created); err != nil {
				t.Errorf("decode create payload: %v", err)
			}
			_, _ = w.Write([]byte(`{"object":"page"}`))
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "secret", DeploymentDB: "db123", BaseURL: srv.URL})
	err := c.UpdateDeploymentStatus(context.Background(), DeploymentStatus{
		Environment:  "staging",
		Status:       "deployed",
		Platform:     "Render",
		Version:      "2.1.0",
		URL:          "https://staging.example.com",
		HealthStatus: "healthy",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	parent, ok := created["parent"].(map[string]any)
	if !ok || parent["database_id"] != "db123" {
		t.Fatalf("unexpected parent: %v", created["parent"])
	}
	props, ok := created["properties"].(map[string]any)
	if !ok {
		t.Fatalf("missing properties: %v", created)
	}
	for _, key := range []string{"Environment", "Status", "Platform", "Version", "URL", "Health Status", "Last Updated"} {
		if _, ok := props[key]; !ok {
			t.Fatalf("missing property %q: %v", key, props)
		}
	}
	if _, ok := props["Notes"]; ok {
		t.Fatalf("empty notes should be omitted")
	}
}

func TestUpdatePatchesExistingPage(t *testing.T) {
	var patchedPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/databases/db123/query":
			body, _ := io.ReadAll(r.Body)
			var query map[string]any
			if err := json.Unmarshal(body, &query); err != nil {
				t.Errorf("decode query payload: %v", err)
			}
			if query["page_size"] != float64(1) {
				t.Errorf("unexpected page_size: %v", query["page_size"])
			}
			_, _ = w.Write([]byte(`{"results":[{"id":"page-42"}]}`))
		case r.Method == http.MethodPatch:
			patchedPath = r.URL.Path
			_, _ = w.Write([]byte(`{"object":"page"}`))
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "secret", DeploymentDB: "db123", BaseURL: srv.URL})
	err := c.UpdateDeploymentStatus(context.Background(), DeploymentStatus{
		Environment: "production",
		Status:      "deployed",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if patchedPath != "/pages/page-42" {
		t.Fatalf("unexpected patch path: %q", patchedPath)
	}
}

func TestUpdateRejectsMissingEnvironment(t *testing.T) {
	c := NewClient(Config{APIKey: "secret", DeploymentDB: "db123"})
	err := c.UpdateDeploymentStatus(context.Background(), DeploymentStatus{Status: "deployed"})
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v", err)
	}
}
