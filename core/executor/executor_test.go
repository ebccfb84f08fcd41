package executor

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"testing"

	"github.com/josephlewis42/smallsh/core/shell"
	"github.com/josephlewis42/smallsh/core/spawn"
	"github.com/josephlewis42/smallsh/core/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestMain(m *testing.M) {
	// The test binary doubles as the shell executable.
	if spawn.IsChild(os.Args) {
		spawn.Main(os.Args)
	}
	os.Exit(m.Run())
}

type fakeSpawner struct {
	started    [][]string
	background []bool
	startErr   error
	status     state.ExitStatus
}

func (f *fakeSpawner) Start(argv []string, files []*os.File, background bool) (int, error) {
	if f.startErr != nil {
		return 0, f.startErr
	}
	f.started = append(f.started, argv)
	f.background = append(f.background, background)
	return 1234, nil
}

func (f *fakeSpawner) Wait(pid int) (state.ExitStatus, error) {
	return f.status, nil
}

type harness struct {
	exec   *Executor
	dir    string
	out    *bytes.Buffer
	errOut *bytes.Buffer
	stdout *os.File
	stderr *os.File
}

func newHarness(t *testing.T, spawner Spawner) *harness {
	t.Helper()

	dir := t.TempDir()
	stdout, err := os.Create(filepath.Join(dir, "shell.stdout"))
	require.NoError(t, err)
	t.Cleanup(func() { stdout.Close() })
	stderr, err := os.Create(filepath.Join(dir, "shell.stderr"))
	require.NoError(t, err)
	t.Cleanup(func() { stderr.Close() })

	h := &harness{
		dir:    dir,
		out:    &bytes.Buffer{},
		errOut: &bytes.Buffer{},
		stdout: stdout,
		stderr: stderr,
	}
	h.exec = &Executor{
		State:      state.New(),
		Spawner:    spawner,
		Stdin:      os.Stdin,
		Stdout:     stdout,
		Stderr:     stderr,
		Out:        h.out,
		Reporter:   NewReporter(h.errOut, colorNever),
		NullDevice: DefaultNullDevice,
	}
	return h
}

func (h *harness) path(name string) string {
	return filepath.Join(h.dir, name)
}

func realSpawner(t *testing.T) Spawner {
	t.Helper()
	s, err := spawn.NewSpawner()
	require.NoError(t, err)
	return s
}

func TestRun_foregroundExit(t *testing.T) {
	h := newHarness(t, realSpawner(t))

	h.exec.Run(&shell.Command{Argv: []string{"sh", "-c", "exit 7"}}, false)

	assert.Equal(t, state.Exited(7), h.exec.State.LastStatus())
	assert.Equal(t, "exit value 7", h.exec.State.LastStatus().String())
	assert.Empty(t, h.out.String())
}

func TestRun_foregroundSignaled(t *testing.T) {
	h := newHarness(t, realSpawner(t))

	h.exec.Run(&shell.Command{Argv: []string{"sh", "-c", "kill -9 $$"}}, false)

	assert.Equal(t, state.KilledBy(9), h.exec.State.LastStatus())
	assert.Equal(t, "\nLast foreground process status: terminated by signal 9\n", h.out.String())
}

func TestRun_outputRedirect(t *testing.T) {
	h := newHarness(t, realSpawner(t))
	out := h.path("out.txt")
	require.NoError(t, os.WriteFile(out, []byte("previous contents that are longer\n"), 0644))

	h.exec.Run(&shell.Command{Argv: []string{"echo", "hello"}, OutputFile: out}, false)

	contents, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(contents))
	assert.Equal(t, state.Exited(0), h.exec.State.LastStatus())
}

func TestRun_inputRedirect(t *testing.T) {
	h := newHarness(t, realSpawner(t))
	in, out := h.path("in.txt"), h.path("out.txt")
	require.NoError(t, os.WriteFile(in, []byte("b\na\nc\n"), 0644))

	h.exec.Run(&shell.Command{Argv: []string{"sort"}, InputFile: in, OutputFile: out}, false)

	contents, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\nc\n", string(contents))
}

func TestRun_defaultStdout(t *testing.T) {
	h := newHarness(t, realSpawner(t))

	h.exec.Run(&shell.Command{Argv: []string{"echo", "to the terminal"}}, false)

	contents, err := os.ReadFile(h.stdout.Name())
	require.NoError(t, err)
	assert.Equal(t, "to the terminal\n", string(contents))
}

func TestRun_commandNotFound(t *testing.T) {
	h := newHarness(t, realSpawner(t))

	h.exec.Run(&shell.Command{Argv: []string{"smallsh-no-such-command"}}, false)

	assert.Equal(t, state.Exited(1), h.exec.State.LastStatus())
	contents, err := os.ReadFile(h.stderr.Name())
	require.NoError(t, err)
	assert.Contains(t, string(contents), "Error. Command smallsh-no-such-command not found.")
}

func TestRun_missingInputNeverForks(t *testing.T) {
	spawner := &fakeSpawner{}
	h := newHarness(t, spawner)
	h.exec.State.SetLastStatus(state.Exited(0))

	h.exec.Run(&shell.Command{Argv: []string{"cat"}, InputFile: h.path("missing.txt")}, false)

	assert.Empty(t, spawner.started)
	assert.Equal(t, state.Exited(1), h.exec.State.LastStatus())
	assert.Equal(t,
		"Error. Could not open file "+h.path("missing.txt")+" for input: no such file or directory\n",
		h.errOut.String())
}

func TestRun_badOutputNeverForks(t *testing.T) {
	spawner := &fakeSpawner{}
	h := newHarness(t, spawner)

	h.exec.Run(&shell.Command{Argv: []string{"ls"}, OutputFile: h.path("no/such/dir/out")}, false)

	assert.Empty(t, spawner.started)
	assert.Equal(t, state.Exited(1), h.exec.State.LastStatus())
	assert.Contains(t, h.errOut.String(), "for output: no such file or directory")
}

func TestRun_forkFailureKeepsStatus(t *testing.T) {
	spawner := &fakeSpawner{startErr: errors.New("resource temporarily unavailable")}
	h := newHarness(t, spawner)
	h.exec.State.SetLastStatus(state.Exited(3))

	h.exec.Run(&shell.Command{Argv: []string{"ls"}}, false)

	assert.Equal(t, state.Exited(3), h.exec.State.LastStatus())
	assert.Equal(t, "Error. fork failed: resource temporarily unavailable\n", h.errOut.String())
}

func TestRun_background(t *testing.T) {
	h := newHarness(t, realSpawner(t))
	h.exec.State.SetLastStatus(state.Exited(42))

	h.exec.Run(&shell.Command{Argv: []string{"sh", "-c", "exit 3"}, Background: true}, false)

	match := regexp.MustCompile(`^Background PID (\d+)\n$`).FindStringSubmatch(h.out.String())
	require.Len(t, match, 2)
	pid, err := strconv.Atoi(match[1])
	require.NoError(t, err)

	var ws unix.WaitStatus
	_, err = unix.Wait4(pid, &ws, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, ws.ExitStatus())

	// Background completions never touch the shared status.
	assert.Equal(t, state.Exited(42), h.exec.State.LastStatus())
}

func TestRun_backgroundUsesNullDevice(t *testing.T) {
	h := newHarness(t, realSpawner(t))

	h.exec.Run(&shell.Command{Argv: []string{"sh", "-c", "echo discarded; read line; exit $?"}, Background: true}, false)

	match := regexp.MustCompile(`^Background PID (\d+)\n$`).FindStringSubmatch(h.out.String())
	require.Len(t, match, 2)
	pid, err := strconv.Atoi(match[1])
	require.NoError(t, err)

	var ws unix.WaitStatus
	_, err = unix.Wait4(pid, &ws, 0, nil)
	require.NoError(t, err)

	// read fails at end of input from the null device.
	assert.Equal(t, 1, ws.ExitStatus())
	contents, err := os.ReadFile(h.stdout.Name())
	require.NoError(t, err)
	assert.Empty(t, contents)
}

func TestRun_foregroundOnly(t *testing.T) {
	spawner := &fakeSpawner{status: state.Exited(0)}
	h := newHarness(t, spawner)
	cmd := &shell.Command{Argv: []string{"sleep", "1"}, Background: true}

	h.exec.Run(cmd, true)

	require.Len(t, spawner.background, 1)
	assert.False(t, spawner.background[0])
	assert.Empty(t, h.out.String())
	// The parsed command is left alone.
	assert.True(t, cmd.Background)
}

func TestRun_backgroundDispatch(t *testing.T) {
	spawner := &fakeSpawner{status: state.Exited(9)}
	h := newHarness(t, spawner)

	h.exec.Run(&shell.Command{Argv: []string{"sleep", "1"}, Background: true}, false)

	require.Len(t, spawner.background, 1)
	assert.True(t, spawner.background[0])
	assert.Equal(t, "Background PID 1234\n", h.out.String())
	assert.Equal(t, state.Exited(0), h.exec.State.LastStatus())
}

func TestReporter(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewReporter(buf, colorNever)

	r.PathError(errors.New("chdir /nope: no such file or directory"))
	r.OpenError("/tmp/x", false, &os.PathError{Op: "open", Path: "/tmp/x", Err: unix.EACCES})

	assert.Equal(t,
		"Error. Path not found: chdir /nope: no such file or directory\n"+
			"Error. Could not open file /tmp/x for output: permission denied\n",
		buf.String())
}

func TestReporter_colorAlways(t *testing.T) {
	buf := &bytes.Buffer{}
	NewReporter(buf, colorAlways).Errorf("boom")

	assert.Contains(t, buf.String(), "\x1b[")
	assert.Contains(t, buf.String(), "boom")
}
