package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json5")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json5"))
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.HttpPort)
	require.Equal(t, "browser", cfg.Fetch.Mode)
	require.Equal(t, 2, cfg.Workers)
	require.Equal(t, filepath.Join(cfg.DataDir, "articles.db"), cfg.Database.File)
	require.Equal(t, "3s", cfg.Fetch.settleDelay().String())
}

func TestLoadConfigOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `{
		// comments are allowed
		http_port: 9090,
		data_dir: "`+filepath.ToSlash(dir)+`",
		fetch: { mode: "http" },
		timezone: "UTC",
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.HttpPort)
	require.Equal(t, "http", cfg.Fetch.Mode)
	require.Equal(t, 60, cfg.Fetch.Timeout)
	loc, err := cfg.location()
	require.NoError(t, err)
	require.Equal(t, "UTC", loc.String())
	require.Equal(t, filepath.Join(dir, "articles.db"), cfg.Database.File)
}

func TestLoadConfigRejectsUnknownMode(t *testing.T) {
	path := writeConfig(t, `{ fetch: { mode: "carrier-pigeon" } }`)
	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestLoadConfigRejectsUnknownTimezone(t *testing.T) {
	path := writeConfig(t, `{ timezone: "Mars/Olympus_Mons" }`)
	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestTransformCommand(t *testing.T) {
	dir := t.TempDir()
	configPath := writeConfig(t, `{ data_dir: "`+filepath.ToSlash(dir)+`" }`)

	page := filepath.Join(dir, "page.html")
	require.NoError(t, os.WriteFile(page, []byte(
		`<html><body><main><div class="theme-doc-markdown"><p>Hello docs</p><button>Copy</button></div></main></body></html>`,
	), 0644))

	out := execute(t, "--config", configPath, "transform", page)
	require.Contains(t, out, "Hello docs")
	require.NotContains(t, out, "<button")
}

func TestSettingsCommands(t *testing.T) {
	dir := t.TempDir()
	configPath := writeConfig(t, `{ data_dir: "`+filepath.ToSlash(dir)+`" }`)

	out := execute(
		t, "--config", configPath, "settings", "set",
		"--domain", "acme.zendesk.com",
		"--email", "docs@acme.test",
		"--token", "abcdefgh12",
	)
	require.Contains(t, out, "acme.zendesk.com")
	require.Contains(t, out, "abc****12")
	require.NotContains(t, out, "abcdefgh12")

	out = execute(t, "--config", configPath, "settings", "show")
	require.Contains(t, out, "docs@acme.test")
	require.Contains(t, out, "en-us")
	require.FileExists(t, filepath.Join(dir, "settings.json"))
}
