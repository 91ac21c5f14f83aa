package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeIn(t, t.TempDir(), args...)
}

func executeIn(t *testing.T, home string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", home)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "surge "+Version+"\n", out)
}

func TestClean_RequiresPrefix(t *testing.T) {
	_, err := execute(t, "clean")
	assert.Error(t, err)
}

func TestBoltRunListClean(t *testing.T) {
	db := filepath.Join(t.TempDir(), "objects.db")

	_, err := execute(t, "run", "--backend", "bolt", "--bolt-path", db, "-n", "12", "-s", "1", "-p", "cmdtest", "--log-level", "ERROR")
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "bolt", cfg.Sink.Backend)
	assert.Equal(t, db, cfg.Sink.Bolt.Path)

	_, err = execute(t, "list", "cmdtest/", "--backend", "bolt", "--bolt-path", db)
	require.NoError(t, err)

	_, err = execute(t, "clean", "cmdtest/", "--backend", "bolt", "--bolt-path", db)
	require.NoError(t, err)
}

func TestRun_InvalidRequest(t *testing.T) {
	_, err := execute(t, "run", "-n", "0")
	assert.Error(t, err)
}

func TestRun_RecordsHistory(t *testing.T) {
	home := t.TempDir()

	_, err := executeIn(t, home, "run", "--backend", "sim", "--sim-profile", "fast", "-n", "5", "-s", "1", "-p", "hist", "--log-level", "ERROR")
	require.NoError(t, err)

	out, err := executeIn(t, home, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "hist")
	assert.Contains(t, out, "sim")
}

func TestHistory_Empty(t *testing.T) {
	out, err := execute(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded")
}

func TestHistory_UnknownRun(t *testing.T) {
	_, err := execute(t, "history", "deadbeef")
	assert.Error(t, err)
}
