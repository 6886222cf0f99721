package build

import (
	"bytes"
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandString(t *testing.T) {
	assert.Equal(t, "npm", Command{Name: "npm"}.String())
	assert.Equal(t, "npm run build", Command{Name: "npm", Args: []string{"run", "build"}}.String())
}

func TestCommandValidate(t *testing.T) {
	testCases := []struct {
		name    string
		cmd     Command
		wantErr bool
	}{
		{"plain", Command{Name: "npm", Args: []string{"run", "build"}}, false},
		{"path", Command{Name: "./node_modules/.bin/esbuild"}, false},
		{"empty", Command{}, true},
		{"whitespace", Command{Name: "  "}, true},
		{"shell line", Command{Name: "npm run build"}, true},
		{"chained", Command{Name: "npm;rm"}, true},
		{"substitution", Command{Name: "$(npm)"}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cmd.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func requireShell(t *testing.T) string {
	t.Helper()
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	return sh
}

func TestExecRunner_ExitCodes(t *testing.T) {
	sh := requireShell(t)
	runner := NewExecRunner()

	var stdout, stderr bytes.Buffer
	code, err := runner.Run(context.Background(),
		Command{Name: sh, Args: []string{"-c", "echo built; echo oops >&2; exit 3"}},
		&stdout, &stderr)
	require.NoError(t, err)
	assert.Equal(t, 3, code)
	assert.Equal(t, "built\n", stdout.String())
	assert.Equal(t, "oops\n", stderr.String())

	code, err = runner.Run(context.Background(), Command{Name: sh, Args: []string{"-c", "exit 0"}}, &stdout, &stderr)
	require.NoError(t, err)
	assert.Equal(t, 0, code)
}

func TestExecRunner_WorkingDirectory(t *testing.T) {
	sh := requireShell(t)
	dir := t.TempDir()

	var stdout bytes.Buffer
	code, err := NewExecRunner().Run(context.Background(),
		Command{Name: sh, Args: []string{"-c", "pwd"}, Dir: dir}, &stdout, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), dir)
}

func TestExecRunner_SpawnError(t *testing.T) {
	code, err := NewExecRunner().Run(context.Background(),
		Command{Name: "pagewatch-definitely-not-a-real-binary"}, nil, nil)
	require.Error(t, err)
	assert.Equal(t, -1, code)
}

func TestFakeRunner_RecordsCalls(t *testing.T) {
	fake := NewFakeRunner(1)
	var stdout bytes.Buffer
	fake.Stdout = "bundle ok"

	code, err := fake.Run(context.Background(), Command{Name: "npm"}, &stdout, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, code)
	assert.Equal(t, "bundle ok", stdout.String())
	assert.Equal(t, 1, fake.Calls())
	assert.Equal(t, "npm", (<-fake.Started()).Name)
}
