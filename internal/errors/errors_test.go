package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *PipelineError
		expected string
	}{
		{
			name:     "message only",
			err:      &PipelineError{Message: "something broke"},
			expected: "something broke",
		},
		{
			name:     "code and path",
			err:      NewIOError(CodeReadFile, "read failed", nil).WithPath("pages/a.html"),
			expected: "[READ_FILE] pages/a.html read failed",
		},
		{
			name:     "with cause",
			err:      NewBuildError(CodeBuildSpawn, "could not start", fmt.Errorf("exec: not found")),
			expected: "[BUILD_SPAWN] could not start: exec: not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestPipelineError_IsAndUnwrap(t *testing.T) {
	cause := fs.ErrNotExist
	err := NewWatchError(CodeWatchRootMissing, "root missing", cause)

	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.True(t, errors.Is(err, &PipelineError{Type: ErrorTypeWatch, Code: CodeWatchRootMissing}))
	assert.False(t, errors.Is(err, &PipelineError{Type: ErrorTypeBuild, Code: CodeWatchRootMissing}))
	assert.True(t, IsFatal(err))
	assert.True(t, IsWatchError(err))
	assert.False(t, HasErrorType(err, ErrorTypeBuild))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeIO, "X", "y"))

	inner := NewIOError(CodeReadDir, "scan", nil).WithPath("pages").WithContext("entries", 3)
	outer := Wrap(inner, ErrorTypeInternal, "OUTER", "listing failed")

	require.NotNil(t, outer)
	assert.Equal(t, "pages", outer.Path)
	assert.Equal(t, 3, outer.Context["entries"])
	assert.True(t, HasErrorCode(outer, CodeReadDir))
	assert.True(t, HasErrorType(outer, ErrorTypeIO))
	assert.False(t, HasErrorType(outer, ErrorTypeWatch))

	plain := Wrap(errors.New("boom"), ErrorTypeWatch, CodeWatchSubscribe, "subscribe")
	assert.True(t, plain.Fatal)
	assert.False(t, Wrap(errors.New("boom"), ErrorTypeBuild, CodeBuildExit, "x").Fatal)
}

func TestErrnoCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"permission", &fs.PathError{Op: "open", Path: "x", Err: syscall.EACCES}, "EACCES"},
		{"is a directory", &fs.PathError{Op: "read", Path: "x", Err: syscall.EISDIR}, "EISDIR"},
		{"sentinel permission", fmt.Errorf("wrapped: %w", fs.ErrPermission), "EACCES"},
		{"sentinel not exist", os.ErrNotExist, "ENOENT"},
		{"unknown", errors.New("weird"), "EUNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ErrnoCode(tt.err))
		})
	}
}

func TestIsNotFound(t *testing.T) {
	_, err := os.ReadFile("/definitely/not/here.html")
	assert.True(t, IsNotFound(err))
	assert.False(t, IsNotFound(errors.New("other")))
}

func TestWatchRootSuggestions(t *testing.T) {
	err := NewWatchError(CodeWatchRootMissing, "watch root missing", fs.ErrNotExist)
	suggestions := WatchRootError(err, "src")

	require.NotEmpty(t, suggestions)
	assert.Equal(t, "Watch root does not exist", suggestions[0].Title)

	enhanced := NewEnhancedError("Failed to start watcher", err, suggestions)
	assert.Contains(t, enhanced.Error(), "mkdir -p src")
	assert.True(t, errors.Is(enhanced, fs.ErrNotExist))
}

func TestServerStartSuggestions(t *testing.T) {
	suggestions := ServerStartError(errors.New("listen tcp :8080: bind: address already in use"), 8080)
	require.Len(t, suggestions, 2)
	assert.Contains(t, suggestions[1].Command, "--port 9080")

	assert.Empty(t, ServerStartError(errors.New("unrelated"), 8080))
}

func TestEnhancedErrorWithoutSuggestions(t *testing.T) {
	err := NewEnhancedError("Failed", errors.New("root cause"), nil)
	assert.Equal(t, "Failed: root cause", err.Error())
}
