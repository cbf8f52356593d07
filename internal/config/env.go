package config

import (
	"os"
	"strings"
)

// Environment variables consumed by the toolkit. Names are part of the
// operational contract shared with the deployment scripts and hosting
// provider dashboards.
const (
	EnvStagingURL         = "STAGING_URL"
	EnvNotionAPIKey       = "NOTION_API_KEY"
	EnvNotionToken        = "NOTION_TOKEN"
	EnvNotionDeploymentDB = "NOTION_DEPLOYMENT_DB_ID"
	EnvSlackWebhookURL    = "SLACK_WEBHOOK_URL"
	EnvOpenAIAPIKey       = "OPENAI_API_KEY"
	EnvGoogleAIAPIKey     = "GOOGLE_AI_API_KEY"
	EnvPort               = "PORT"
	EnvDatabaseURL        = "DATABASE_URL"
)

// DefaultStagingURL is the staging deployment polled when no --url flag or
// STAGING_URL override is present.
const DefaultStagingURL = "https://magsasa-card-api-staging.onrender.com"

// Credentials carries third-party integration secrets read from the process
// environment. Empty fields disable the corresponding integration.
type Credentials struct {
	NotionAPIKey       string
	NotionDeploymentDB string
	SlackWebhookURL    string
	OpenAIAPIKey       string
	GoogleAIAPIKey     string
}

// CredentialsFromEnv reads integration secrets. NOTION_API_KEY wins over the
// older NOTION_TOKEN spelling when both are set.
func CredentialsFromEnv() Credentials {
	notionKey := strings.TrimSpace(os.Getenv(EnvNotionAPIKey))
	if notionKey == "" {
		notionKey = strings.TrimSpace(os.Getenv(EnvNotionToken))
	}
	return Credentials{
		NotionAPIKey:       notionKey,
		NotionDeploymentDB: strings.TrimSpace(os.Getenv(EnvNotionDeploymentDB)),
		SlackWebhookURL:    strings.TrimSpace(os.Getenv(EnvSlackWebhookURL)),
		OpenAIAPIKey:       strings.TrimSpace(os.Getenv(EnvOpenAIAPIKey)),
		GoogleAIAPIKey:     strings.TrimSpace(os.Getenv(EnvGoogleAIAPIKey)),
	}
}

// ResolveTargetURL picks the probe target: explicit flag value first, then
// STAGING_URL, then the built-in staging deployment.
func ResolveTargetURL(explicit string) string {
	if v := strings.TrimSpace(explicit); v != "" {
		return v
	}
	if v := strings.TrimSpace(os.Getenv(EnvStagingURL)); v != "" {
		return v
	}
	return DefaultStagingURL
}

// ResolveDatabasePath maps DATABASE_URL to a sqlite file path, accepting the
// sqlite:/// URL spelling used by the hosted configuration.
func ResolveDatabasePath(fallback string) string {
	raw := strings.TrimSpace(os.Getenv(EnvDatabaseURL))
	if raw == "" {
		return fallback
	}
	raw = strings.TrimPrefix(raw, "sqlite:///")
	raw = strings.TrimPrefix(raw, "sqlite://")
	if raw == "" {
		return fallback
	}
	return raw
}

// ResolveListenAddr maps PORT to a listen address for the platform daemon.
func ResolveListenAddr(fallbackPort string) string {
	port := strings.TrimSpace(os.Getenv(EnvPort))
	if port == "" {
		port = fallbackPort
	}
	return ":" + port
}
