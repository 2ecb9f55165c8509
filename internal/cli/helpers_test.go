package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/billfold/internal/config"
)

// runBillfold executes the CLI against the given database file in
// local mode: the config flag points at a nonexistent file and the
// credential env vars are cleared so no test touches a network.
func runBillfold(t *testing.T, db string, args ...string) (string, error) {
	t.Helper()
	for _, key := range []string{config.EnvDBPath, config.EnvAPIURL, config.EnvAPIToken, config.EnvTeam} {
		t.Setenv(key, "")
	}

	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append([]string{
		"--db", db,
		"--config", filepath.Join(t.TempDir(), "no-config.yaml"),
	}, args...))

	err := cmd.Execute()
	return buf.String(), err
}

// testDB returns a fresh database path shared across one test's
// command invocations.
func testDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "billfold.db")
}

// decodeResponse parses a JSON-format CLI response and requires an
// "ok" status.
func decodeResponse(t *testing.T, out string) map[string]interface{} {
	t.Helper()
	var resp struct {
		Status string                 `json:"status"`
		Data   map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)
	return resp.Data
}

// decodeListResponse parses a JSON-format CLI response whose data is
// an array.
func decodeListResponse(t *testing.T, out string) []map[string]interface{} {
	t.Helper()
	var resp struct {
		Status string                   `json:"status"`
		Data   []map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)
	return resp.Data
}
