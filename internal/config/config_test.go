package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "Asia/Dhaka", cfg.Import.TimeZone)
	assert.Equal(t, "last_wins", cfg.Import.OnConflict)
	assert.Equal(t, 5*time.Minute, cfg.Redis.DashboardTTL.Duration)
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bms.toml")
	content := `
[server]
port = 9090

[redis]
enabled = true
dashboard_ttl = "30s"

[import]
on_conflict = "skip_row"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("IMPORT_ON_CONFLICT", "abort")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test,http://b.test")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Redis.DashboardTTL.Duration)
	assert.Equal(t, "abort", cfg.Import.OnConflict)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Import.OnConflict = "merge"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Import.TimeZone = "Mars/Olympus"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Minio.Enabled = true
	cfg.Minio.Bucket = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Server.Sunset = "next spring"
	assert.Error(t, cfg.Validate())

	assert.NoError(t, Default().Validate())
}

func TestServerConfig_SunsetDate(t *testing.T) {
	sunset, err := ServerConfig{}.SunsetDate()
	require.NoError(t, err)
	assert.Nil(t, sunset)

	sunset, err = ServerConfig{Sunset: "2027-01-01"}.SunsetDate()
	require.NoError(t, err)
	require.NotNil(t, sunset)
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), *sunset)
}

func TestLocation(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "Asia/Dhaka", cfg.Location().String())
}
