package conf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("FEISHU_APP_ID", "cli_test")
	t.Setenv("FEISHU_APP_SECRET", "secret")
	t.Setenv("OPERATOR_OPEN_ID", "ou_operator")
	t.Setenv("ROSTER_DB_PATH", "")
	t.Setenv("DOWNLOAD_DIR", "")
	t.Setenv("API_PORT", "")
	t.Setenv("DEBUG", "")

	cfg := LoadFromEnv()
	require.NoError(t, cfg.Validate())

	require.Equal(t, "cli_test", cfg.Feishu.AppID)
	require.Equal(t, "ou_operator", cfg.Operator.OpenID)
	require.True(t, strings.HasSuffix(cfg.Roster.DBPath, ".class-relay/roster.db"))
	require.Equal(t, "/tmp/class-relay-files", cfg.Feishu.DownloadDir)
	require.Equal(t, 9876, cfg.API.Port)
	require.False(t, cfg.Debug)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("FEISHU_APP_ID", "cli_test")
	t.Setenv("FEISHU_APP_SECRET", "secret")
	t.Setenv("OPERATOR_OPEN_ID", "ou_operator")
	t.Setenv("ROSTER_DB_PATH", "/data/roster.db")
	t.Setenv("API_PORT", "8123")
	t.Setenv("DEBUG", "true")

	cfg := LoadFromEnv()
	require.Equal(t, "/data/roster.db", cfg.Roster.DBPath)
	require.Equal(t, 8123, cfg.API.Port)
	require.True(t, cfg.Debug)
}

func TestLoadFromEnv_BadPortFallsBack(t *testing.T) {
	t.Setenv("API_PORT", "not-a-port")
	cfg := LoadFromEnv()
	require.Equal(t, 9876, cfg.API.Port)
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "FEISHU_APP_ID")

	cfg.Feishu.AppID = "cli_test"
	cfg.Feishu.AppSecret = "secret"
	err = cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "OPERATOR_OPEN_ID")

	cfg.Operator.OpenID = "ou_operator"
	require.NoError(t, cfg.Validate())
}
