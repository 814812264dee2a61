package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testSyncType = "tasks"

// cliEnv is a shared decsync directory plus per-app local state on disk.
type cliEnv struct {
	dir   string
	local string
	tmp   string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	tmp := t.TempDir()
	return &cliEnv{
		dir:   filepath.Join(tmp, "DecSync"),
		local: filepath.Join(tmp, "local"),
		tmp:   tmp,
	}
}

// args prefixes the settings every invocation as appID needs.
func (e *cliEnv) args(appID string, args ...string) []string {
	base := []string{
		"--dir", e.dir,
		"--local-dir", e.local,
		"--app-id", appID,
		"--sync-type", testSyncType,
		"--log-level", "error",
	}
	return append(base, args...)
}

// run executes the CLI as appID and returns stdout.
func (e *cliEnv) run(appID string, args ...string) (string, error) {
	return e.runContext(context.Background(), appID, args...)
}

func (e *cliEnv) runContext(ctx context.Context, appID string, args ...string) (string, error) {
	return execute(ctx, e.args(appID, args...)...)
}

func (e *cliEnv) mustRun(t *testing.T, appID string, args ...string) string {
	t.Helper()
	out, err := e.run(appID, args...)
	require.NoError(t, err, "output: %s", out)
	return out
}

// runJSON executes with --format json and decodes the envelope.
func (e *cliEnv) runJSON(t *testing.T, appID string, args ...string) (CLIResponse, error) {
	t.Helper()
	out, err := e.run(appID, append([]string{"--format", "json"}, args...)...)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	return resp, err
}

func (e *cliEnv) path(names ...string) string {
	return filepath.Join(append([]string{e.tmp}, names...)...)
}

func execute(ctx context.Context, args ...string) (string, error) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

// dataMap re-decodes an envelope payload as a generic map.
func dataMap(t *testing.T, resp CLIResponse) map[string]any {
	t.Helper()
	m, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data is %T", resp.Data)
	return m
}
