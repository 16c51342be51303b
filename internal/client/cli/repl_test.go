package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool
	err      error

	calls []string
	args  [][]string
}

func (f *fakeExec) record(name string, args []string) error {
	f.calls = append(f.calls, name)
	f.args = append(f.args, args)
	return f.err
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Register(context.Context) error {
	return f.record("register", nil)
}
func (f *fakeExec) Login(context.Context) error {
	f.loggedIn = true
	return f.record("login", nil)
}
func (f *fakeExec) Logout(context.Context) error {
	f.loggedIn = false
	return f.record("logout", nil)
}
func (f *fakeExec) List(context.Context) error { return f.record("list", nil) }
func (f *fakeExec) Upload(_ context.Context, args []string) error {
	return f.record("upload", args)
}
func (f *fakeExec) Download(_ context.Context, args []string) error {
	return f.record("download", args)
}
func (f *fakeExec) Delete(_ context.Context, args []string) error {
	return f.record("delete", args)
}
func (f *fakeExec) History(_ context.Context, args []string) error {
	return f.record("history", args)
}
func (f *fakeExec) Watch(_ context.Context, args []string) error {
	return f.record("watch", args)
}
func (f *fakeExec) Status(context.Context) error { return f.record("status", nil) }

func run(t *testing.T, exec *fakeExec, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	runREPL(context.Background(), exec, func() string { return "(s)" }, rdr(strings.Join(lines, "\n")), &out)
	return out.String()
}

func TestRunREPL_LoginFlowAndCommands(t *testing.T) {
	exec := &fakeExec{}
	out := run(t, exec,
		"help",
		"list",
		"login",
		"help",
		"upload my file.txt",
		"download abc /tmp",
		"delete abc",
		"history 5",
		"l",
		"watch stop",
		"status",
		"",
		"foobar",
		"logout",
		"exit",
		"list",
	)

	assert.Equal(t, []string{"login", "upload", "download", "delete", "history", "list", "watch", "status", "logout"}, exec.calls)
	assert.Equal(t, []string{"my", "file.txt"}, exec.args[1])
	assert.Equal(t, []string{"abc", "/tmp"}, exec.args[2])
	assert.Equal(t, []string{"stop"}, exec.args[6])

	assert.Contains(t, out, helpLoggedOut)
	assert.Contains(t, out, helpLoggedIn)
	assert.Contains(t, out, "Please log in first.")
	assert.Contains(t, out, "Unknown command: foobar")
	assert.Contains(t, out, "gophdrive (s)> ")
	assert.True(t, strings.HasSuffix(out, "Bye!\n"))
}

func TestRunREPL_PrintsErrorsAndContinues(t *testing.T) {
	exec := &fakeExec{loggedIn: true, err: errors.New("server said no")}
	out := run(t, exec, "delete x", "list")

	assert.Equal(t, []string{"delete", "list"}, exec.calls)
	assert.Equal(t, 2, strings.Count(out, "Error: server said no"))
}

func TestRunREPL_StopsOnEOFAndCancel(t *testing.T) {
	exec := &fakeExec{loggedIn: true}
	run(t, exec, "list")
	assert.Equal(t, []string{"list"}, exec.calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	exec = &fakeExec{loggedIn: true}
	var out bytes.Buffer
	runREPL(ctx, exec, func() string { return "" }, rdr("list\n"), &out)
	assert.Empty(t, exec.calls)
}
