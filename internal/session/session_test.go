package session

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/conneroisu/pagewatch/internal/build"
	"github.com/conneroisu/pagewatch/internal/classify"
	pwerrors "github.com/conneroisu/pagewatch/internal/errors"
)

const testDelay = 150 * time.Millisecond

func newTestSession(t *testing.T, runner *build.FakeRunner, runOnStart bool) *Session {
	t.Helper()

	invoker := build.NewInvoker(runner, build.Command{Name: "npm", Args: []string{"run", "build"}}, nil,
		build.InvokerOptions{Stdout: io.Discard, Stderr: io.Discard})

	s, err := New(invoker, Options{
		Policy:     classify.DefaultPolicy(),
		IgnoreDirs: []string{"node_modules"},
		Debounce:   testDelay,
		RunOnStart: runOnStart,
	})
	require.NoError(t, err)

	return s
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestSession_BurstProducesOneBuild(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	runner := build.NewFakeRunner(0)
	s := newTestSession(t, runner, false)
	require.NoError(t, s.Start(context.Background(), []string{root}))

	for i := 0; i < 5; i++ {
		writeFile(t, filepath.Join(root, "widget"+string(rune('a'+i))+".js"), "export {}")
		time.Sleep(10 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return runner.Calls() == 1 }, 3*time.Second, 10*time.Millisecond)
	time.Sleep(3 * testDelay)
	assert.Equal(t, 1, runner.Calls())

	require.NoError(t, s.Close())
	s.Wait()
}

func TestSession_SeparatedChangesBuildEach(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	runner := build.NewFakeRunner(0)
	s := newTestSession(t, runner, false)
	require.NoError(t, s.Start(context.Background(), []string{root}))

	target := filepath.Join(root, "app.ts")
	for i := 1; i <= 3; i++ {
		writeFile(t, target, "let n = "+string(rune('0'+i)))
		want := i
		require.Eventually(t, func() bool { return runner.Calls() == want }, 3*time.Second, 10*time.Millisecond)
		time.Sleep(testDelay)
	}

	assert.Len(t, s.Jobs(), 3)
	require.NoError(t, s.Close())
	s.Wait()
}

func TestSession_NonQualifyingChangesDoNotBuild(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	runner := build.NewFakeRunner(0)
	s := newTestSession(t, runner, false)
	require.NoError(t, s.Start(context.Background(), []string{root}))

	writeFile(t, filepath.Join(root, ".hidden.js"), "x")
	writeFile(t, filepath.Join(root, "notes.txt"), "x")
	writeFile(t, filepath.Join(root, "style.css"), "x")
	writeFile(t, filepath.Join(root, "app.js~"), "x")
	writeFile(t, filepath.Join(root, "app.js.swp"), "x")
	writeFile(t, filepath.Join(root, "page.html"), "x")

	time.Sleep(4 * testDelay)
	assert.Equal(t, 0, runner.Calls())

	require.NoError(t, s.Close())
}

func TestSession_IgnoredDirectoriesDoNotBuild(t *testing.T) {
	root := t.TempDir()
	vendor := filepath.Join(root, "node_modules", "lib")
	require.NoError(t, os.MkdirAll(vendor, 0o755))

	runner := build.NewFakeRunner(0)
	s := newTestSession(t, runner, false)
	defer s.Close()
	require.NoError(t, s.Start(context.Background(), []string{root}))

	writeFile(t, filepath.Join(vendor, "index.js"), "x")

	time.Sleep(4 * testDelay)
	assert.Equal(t, 0, runner.Calls())
}

func TestSession_CloseStopsFurtherBuilds(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	runner := build.NewFakeRunner(0)
	s := newTestSession(t, runner, false)
	require.NoError(t, s.Start(context.Background(), []string{root}))

	writeFile(t, filepath.Join(root, "app.js"), "x")
	require.Eventually(t, func() bool { return s.debouncer.Pending() }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, s.Close())
	assert.True(t, s.Closed())

	s.Trigger()
	time.Sleep(3 * testDelay)
	assert.Equal(t, 0, runner.Calls())

	// Idempotent.
	assert.NoError(t, s.Close())
}

func TestSession_RunOnStart(t *testing.T) {
	root := t.TempDir()
	runner := build.NewFakeRunner(0)
	s := newTestSession(t, runner, true)
	require.NoError(t, s.Start(context.Background(), []string{root}))
	defer s.Close()

	require.Eventually(t, func() bool { return len(s.Jobs()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, runner.Calls())

	jobs := s.Jobs()
	require.Len(t, jobs, 1)
	jobs[0].Wait()
	assert.True(t, jobs[0].Succeeded())
}

func TestSession_FailedBuildKeepsWatching(t *testing.T) {
	root := t.TempDir()
	runner := build.NewFakeRunner(1)
	s := newTestSession(t, runner, false)
	require.NoError(t, s.Start(context.Background(), []string{root}))
	defer s.Close()

	target := filepath.Join(root, "app.js")
	writeFile(t, target, "broken")
	require.Eventually(t, func() bool { return len(s.Jobs()) == 1 }, 3*time.Second, 10*time.Millisecond)
	s.Wait()
	assert.Equal(t, build.OutcomeFailure, s.Jobs()[0].Outcome())

	time.Sleep(testDelay)
	writeFile(t, target, "fixed")
	require.Eventually(t, func() bool { return runner.Calls() == 2 }, 3*time.Second, 10*time.Millisecond)
}

func TestSession_MissingRootIsFatal(t *testing.T) {
	defer goleak.VerifyNone(t)

	runner := build.NewFakeRunner(0)
	s := newTestSession(t, runner, true)

	err := s.Start(context.Background(), []string{t.TempDir(), filepath.Join(t.TempDir(), "gone")})
	require.Error(t, err)
	assert.True(t, pwerrors.IsFatal(err))
	assert.True(t, pwerrors.HasErrorCode(err, pwerrors.CodeWatchRootMissing))
	assert.True(t, s.Closed())
	assert.Equal(t, 0, runner.Calls())
}

func TestSession_NoRoots(t *testing.T) {
	runner := build.NewFakeRunner(0)
	s := newTestSession(t, runner, false)
	defer s.Close()

	err := s.Start(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, pwerrors.IsWatchError(err))
}

func TestSession_IDsAreUnique(t *testing.T) {
	a := newTestSession(t, build.NewFakeRunner(0), false)
	b := newTestSession(t, build.NewFakeRunner(0), false)
	defer a.Close()
	defer b.Close()

	assert.Len(t, a.ID(), 36)
	assert.NotEqual(t, a.ID(), b.ID())
}
