package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults() Config {
	var c Config
	c.LoadDefaults()
	return c
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gnotes.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	c := defaults()

	assert.Equal(t, "http://127.0.0.1:8080", c.ServerEndpointAddr)
	assert.Equal(t, 3*time.Second, c.OnlineCheckInterval)
	assert.Equal(t, 3, c.MaxRetries)
	assert.Equal(t, "notes.db", c.DatabasePath)
}

func TestLoadConfig_NoFile(t *testing.T) {
	cfg, err := LoadConfig([]string{"list"})
	require.NoError(t, err)

	if diff := cmp.Diff(defaults(), *cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfig_JSONOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"server_endpoint_addr": "https://notes.example.com",
		"online_check_interval": "10s",
		"retry_base_delay": 500000000,
		"max_retries": 5,
		"owner_id": "alice@example.com",
		"s3_bucket": "notes-backup"
	}`)

	cfg, err := LoadConfig([]string{"sync", "--config", path})
	require.NoError(t, err)

	want := defaults()
	want.ServerEndpointAddr = "https://notes.example.com"
	want.OnlineCheckInterval = 10 * time.Second
	want.RetryBaseDelay = 500 * time.Millisecond
	want.MaxRetries = 5
	want.OwnerID = "alice@example.com"
	want.S3Bucket = "notes-backup"

	if diff := cmp.Diff(want, *cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig([]string{"-c", filepath.Join(t.TempDir(), "missing.json")})
	require.ErrorContains(t, err, "error reading config file")

	bad := writeConfig(t, `{ this is not valid json`)
	_, err = LoadConfig([]string{"-c", bad})
	require.ErrorContains(t, err, "error parsing config file")

	badDuration := writeConfig(t, `{"online_check_interval": "soon"}`)
	_, err = LoadConfig([]string{"-c", badDuration})
	require.Error(t, err)
}

func TestBindFlags_OverrideJSON(t *testing.T) {
	path := writeConfig(t, `{"owner_id": "from-json", "database_path": "/var/lib/json.db"}`)
	args := []string{"-c", path, "-u", "from-flag", "--retry-base-delay", "2s", "-a", "http://10.0.0.1:8080"}

	cfg, err := LoadConfig(args)
	require.NoError(t, err)

	fs := pflag.NewFlagSet("gnotes", pflag.ContinueOnError)
	BindFlags(fs, cfg)
	require.NoError(t, fs.Parse(args))

	want := defaults()
	want.OwnerID = "from-flag"
	want.DatabasePath = "/var/lib/json.db"
	want.RetryBaseDelay = 2 * time.Second
	want.ServerEndpointAddr = "http://10.0.0.1:8080"

	if diff := cmp.Diff(want, *cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}
