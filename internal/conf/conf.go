package conf

import (
	"os"
	"path/filepath"
	"strconv"
)

// Config represents application configuration.
type Config struct {
	// Feishu configuration
	Feishu FeishuConfig

	// Operator (teacher) identity
	Operator OperatorConfig

	// Roster persistence
	Roster RosterConfig

	// Ops HTTP API
	API APIConfig

	// Debug mode
	Debug bool
}

// FeishuConfig contains Feishu credentials.
type FeishuConfig struct {
	AppID       string
	AppSecret   string
	DownloadDir string
}

// OperatorConfig identifies the single privileged user.
type OperatorConfig struct {
	OpenID string
}

// RosterConfig contains roster persistence configuration.
type RosterConfig struct {
	DBPath string
}

// APIConfig contains the ops HTTP API configuration.
type APIConfig struct {
	Port int
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() *Config {
	rosterDBPath := os.Getenv("ROSTER_DB_PATH")
	if rosterDBPath == "" {
		homeDir, _ := os.UserHomeDir()
		rosterDBPath = filepath.Join(homeDir, ".class-relay", "roster.db")
	}

	downloadDir := os.Getenv("DOWNLOAD_DIR")
	if downloadDir == "" {
		downloadDir = "/tmp/class-relay-files"
	}

	apiPort := 9876
	if val := os.Getenv("API_PORT"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			apiPort = parsed
		}
	}

	return &Config{
		Feishu: FeishuConfig{
			AppID:       os.Getenv("FEISHU_APP_ID"),
			AppSecret:   os.Getenv("FEISHU_APP_SECRET"),
			DownloadDir: downloadDir,
		},
		Operator: OperatorConfig{
			OpenID: os.Getenv("OPERATOR_OPEN_ID"),
		},
		Roster: RosterConfig{
			DBPath: rosterDBPath,
		},
		API: APIConfig{
			Port: apiPort,
		},
		Debug: os.Getenv("DEBUG") == "true",
	}
}

// Validate validates the configuration. Missing credentials or a missing
// operator identity is a startup failure, not a runtime error.
func (c *Config) Validate() error {
	if c.Feishu.AppID == "" || c.Feishu.AppSecret == "" {
		return &ConfigError{Field: "FEISHU_APP_ID/FEISHU_APP_SECRET", Message: "required"}
	}
	if c.Operator.OpenID == "" {
		return &ConfigError{Field: "OPERATOR_OPEN_ID", Message: "required"}
	}
	return nil
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
