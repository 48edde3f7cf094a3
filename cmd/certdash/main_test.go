package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certdash/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "certdash version dev")
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "certdash.yaml")

	out, err := execute(t, "config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Defaults().Web.Port, cfg.Web.Port)

	_, err = execute(t, "config", "init", "--config", path)
	assert.ErrorContains(t, err, "already exists")
}

func TestCheckReachesOverview(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/overview" {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, `{"total": 4, "active": 3, "expired": 1}`)
	}))
	defer api.Close()
	path := filepath.Join(t.TempDir(), "missing.yaml")

	out, err := execute(t, "check", "--config", path, "--api-url", api.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "4 certificates, 3 active, 1 expired")

	_, err = execute(t, "check", "--config", path, "--api-url", "ftp://nowhere")
	assert.ErrorContains(t, err, "invalid config")
}
