package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, MethodQR, cfg.Link.Method)
	assert.Equal(t, 60*time.Second, cfg.Timeouts.Navigation.Std())
	assert.Equal(t, 30*time.Second, cfg.Timeouts.LoginRedirect.Std())
	assert.Equal(t, 30*time.Second, cfg.Timeouts.Response.Std())
	assert.Equal(t, "error_screenshot.png", cfg.Output.ScreenshotPath)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Link.Method = ""
	assert.NoError(t, cfg.Validate(), "empty method means qr")

	// Subcommands pick their own method, so a pairing default without a
	// number must not block them.
	cfg.Link.Method = MethodPairing
	assert.NoError(t, cfg.Validate())

	cfg.Link.Method = "sms"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Timeouts.Response = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Service.APIURL = ""
	assert.Error(t, cfg.Validate())
}

func TestSaveThenLoadFrom(t *testing.T) {
	t.Setenv("SYNC_CALLBACK_URL", "")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Link.Method = MethodPairing
	cfg.Link.PhoneNumber = "6281234567890"
	cfg.Timeouts.Response = Duration(45 * time.Second)
	cfg.Sync.CallbackURLs = []string{"https://example.com/sync.php"}
	require.NoError(t, cfg.SaveTo(path))

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Link, loaded.Link)
	assert.Equal(t, 45*time.Second, loaded.Timeouts.Response.Std())
	assert.Equal(t, []string{"https://example.com/sync.php"}, loaded.Sync.CallbackURLs)
}

func TestLoadFromKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[timeouts]\nresponse = \"5s\"\n"), 0600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Timeouts.Response.Std())
	assert.Equal(t, 60*time.Second, cfg.Timeouts.Navigation.Std())
	assert.Equal(t, "https://app.terimawa.com/api/bots", cfg.Service.APIURL)
}

func TestLoadFromRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[timeouts]\nresponse = \"soon\"\n"), 0600))

	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv(EnvConfigPath, filepath.Join(t.TempDir(), "absent.toml"))

	_, err := Load()
	assert.True(t, os.IsNotExist(err))
}

func TestSyncEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[sync]\ncallback_urls = [\"https://a.example/cb\"]\n"), 0600))
	t.Setenv("SYNC_CALLBACK_URL", "https://b.example/cb")
	t.Setenv("SYNC_SECRET", "s3cret")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example/cb", "https://b.example/cb"}, cfg.Sync.CallbackURLs)
	assert.Equal(t, "s3cret", cfg.Sync.Secret)
}

func TestSyncSecretAppliedWhenURLAlreadyListed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[sync]\ncallback_urls = [\"https://a.example/cb\"]\n"), 0600))
	t.Setenv("SYNC_CALLBACK_URL", "https://a.example/cb")
	t.Setenv("SYNC_SECRET", "s3cret")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example/cb"}, cfg.Sync.CallbackURLs)
	assert.Equal(t, "s3cret", cfg.Sync.Secret)
}

func TestLoadOrCreate(t *testing.T) {
	t.Setenv("SYNC_CALLBACK_URL", "")
	t.Setenv("SYNC_SECRET", "")
	path := filepath.Join(t.TempDir(), "walink", "config.toml")

	cfg, created, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, Default(), cfg)
	assert.FileExists(t, path)

	_, created, err = LoadOrCreate(path)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestLoadOrCreateKeepsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("not = [valid"), 0600))

	_, _, err := LoadOrCreate(path)
	assert.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "not = [valid", string(data))
}

func TestCredentials(t *testing.T) {
	t.Setenv(EnvUsername, "")
	t.Setenv(EnvPassword, "")
	assert.ErrorIs(t, CredentialsFromEnv().Validate(), ErrMissingCredentials)

	t.Setenv(EnvUsername, "owner")
	assert.ErrorIs(t, CredentialsFromEnv().Validate(), ErrMissingCredentials)

	t.Setenv(EnvPassword, "hunter2")
	creds := CredentialsFromEnv()
	require.NoError(t, creds.Validate())
	assert.Equal(t, "owner:***", creds.String())
	assert.NotContains(t, creds.String(), "hunter2")
}
