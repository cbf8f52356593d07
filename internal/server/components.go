package server

import (
	"database/sql"
	"fmt"
	"os"
	"runtime"

	"github.com/gin-gonic/gin"
	_ "modernc.org/sqlite"

	"github.com/magsasa-card/opsctl/internal/config"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// databaseStatus pings the sqlite database file. The returned string lands
// verbatim in the component report.
func (s *Server) databaseStatus() string {
	db, err := openDB("sqlite", s.cfg.DatabasePath)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec("SELECT 1"); err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return "connected"
}

// environmentStatus reports which integration keys are configured without
// echoing their values.
func environmentStatus(environment string) gin.H {
	return gin.H{
		"ENVIRONMENT":       environment,
		"PORT":              os.Getenv(config.EnvPort),
		"OPENAI_API_KEY":    setOrNot(config.EnvOpenAIAPIKey),
		"GOOGLE_AI_API_KEY": setOrNot(config.EnvGoogleAIAPIKey),
		"NOTION_API_KEY":    setOrNot(config.EnvNotionAPIKey),
		"SLACK_WEBHOOK_URL": setOrNot(config.EnvSlackWebhookURL),
	}
}

func systemStatus() gin.H {
	return gin.H{
		"go_version": runtime.Version(),
		"platform":   runtime.GOOS,
		"arch":       runtime.GOARCH,
	}
}

func setOrNot(key string) string {
	if os.Getenv(key) != "" {
		return "set"
	}
	return "not_set"
}
