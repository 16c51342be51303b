package cli

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophdrive/internal/client/models"
	"github.com/dmitrijs2005/gophdrive/internal/transfer"
)

func TestRegister(t *testing.T) {
	stubPassword(t, "secret")
	auth := &fakeAuth{}
	app, out := newTestApp(auth, &fakeFiles{}, "alice\n")

	require.NoError(t, app.Register(context.Background()))
	assert.Equal(t, "alice", auth.user)
	assert.Equal(t, "secret", auth.pass)
	assert.Contains(t, out.String(), "Registered.")
	assert.False(t, app.isLoggedIn())
}

func TestLogin_SuccessAndFailure(t *testing.T) {
	stubPassword(t, "secret")

	auth := &fakeAuth{loginErr: errors.New("bad credentials")}
	app, _ := newTestApp(auth, &fakeFiles{}, "alice\n")
	require.EqualError(t, app.Login(context.Background()), "bad credentials")
	assert.False(t, app.isLoggedIn())

	auth = &fakeAuth{}
	app, out := newTestApp(auth, &fakeFiles{}, "alice\n")
	require.NoError(t, app.Login(context.Background()))
	assert.True(t, app.isLoggedIn())
	assert.Equal(t, ModeOnline, app.currentMode())
	assert.Contains(t, out.String(), "Logged in as alice")

	require.NoError(t, app.Logout(context.Background()))
	assert.True(t, auth.loggedOut)
	assert.False(t, app.isLoggedIn())
	assert.Equal(t, "(online)", app.status())
}

func TestList(t *testing.T) {
	ts := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	files := &fakeFiles{list: []models.RemoteFile{
		{UUID: "id-1", FileName: "a.txt", Size: 1536, Type: "text/plain", UpdatedAt: ts},
	}}
	app, out := newTestApp(&fakeAuth{}, files, "")

	require.NoError(t, app.List(context.Background()))
	assert.Contains(t, out.String(), "ID")
	assert.Contains(t, out.String(), "id-1")
	assert.Contains(t, out.String(), "1.5 KB")

	app, out = newTestApp(&fakeAuth{}, &fakeFiles{}, "")
	require.NoError(t, app.List(context.Background()))
	assert.Contains(t, out.String(), "No files.")
}

func TestUpload(t *testing.T) {
	files := &fakeFiles{upload: &transfer.UploadResult{FileID: "f1", TotalChunks: 4}}
	app, out := newTestApp(&fakeAuth{}, files, "")

	require.NoError(t, app.Upload(context.Background(), []string{"my", "file.txt"}))
	assert.Equal(t, []string{"my file.txt"}, files.uploads())
	assert.Contains(t, out.String(), progressLine("my file.txt", 40))
	assert.Contains(t, out.String(), progressLine("my file.txt", 100)+"\n")
	assert.Contains(t, out.String(), "Uploaded my file.txt as f1 (4 chunks)")
}

func TestUpload_PromptsAndReportsPartialFailure(t *testing.T) {
	files := &fakeFiles{
		upload: &transfer.UploadResult{FileID: "f1", TotalChunks: 3, Statuses: []transfer.ProgressStatus{
			{Status: transfer.StatusComplete, Percentage: 100},
			{Status: transfer.StatusError, Percentage: 10},
			{Status: transfer.StatusComplete, Percentage: 100},
		}},
		uploadErr: transfer.ErrUploadFailed,
	}
	app, out := newTestApp(&fakeAuth{}, files, "b.bin\n")

	err := app.Upload(context.Background(), nil)
	require.ErrorIs(t, err, transfer.ErrUploadFailed)
	assert.Equal(t, []string{"b.bin"}, files.uploads())
	assert.Contains(t, out.String(), "1 of 3 chunks failed")
}

func TestUpload_EmptyPrompt(t *testing.T) {
	app, _ := newTestApp(&fakeAuth{}, &fakeFiles{}, "\n")
	assert.ErrorIs(t, app.Upload(context.Background(), nil), errUsage)
}

func TestDownload(t *testing.T) {
	files := &fakeFiles{dlPath: "/tmp/x/a.txt"}
	app, out := newTestApp(&fakeAuth{}, files, "")

	require.NoError(t, app.Download(context.Background(), []string{"id-1", "/tmp/x"}))
	assert.Equal(t, []string{"id-1", "/tmp/x"}, files.dlArgs)
	assert.Contains(t, out.String(), "Saved to /tmp/x/a.txt")

	require.NoError(t, app.Download(context.Background(), []string{"id-2"}))
	assert.Equal(t, []string{"id-2", "."}, files.dlArgs)

	assert.ErrorIs(t, app.Download(context.Background(), []string{"a", "b", "c"}), errUsage)
}

func TestDelete(t *testing.T) {
	files := &fakeFiles{}
	app, out := newTestApp(&fakeAuth{}, files, "")

	require.NoError(t, app.Delete(context.Background(), []string{"id-9"}))
	assert.Equal(t, "id-9", files.deleted)
	assert.Contains(t, out.String(), "Deleted id-9")

	files.err = errors.New("not found")
	assert.EqualError(t, app.Delete(context.Background(), []string{"id-9"}), "not found")
}

func TestHistory(t *testing.T) {
	files := &fakeFiles{history: []*models.Transfer{
		{ID: "f1", Direction: models.DirectionUpload, FileName: "a.txt", Size: 2048, Status: models.TransferCompleted},
		{ID: "f2", Direction: models.DirectionDownload, Status: models.TransferFailed, Error: "truncated"},
	}}
	app, out := newTestApp(&fakeAuth{}, files, "")

	require.NoError(t, app.History(context.Background(), nil))
	assert.Equal(t, defaultHistoryLimit, files.histLimit)
	assert.Contains(t, out.String(), "2 KB")
	assert.Contains(t, out.String(), "failed: truncated")

	require.NoError(t, app.History(context.Background(), []string{"5"}))
	assert.Equal(t, 5, files.histLimit)

	assert.ErrorIs(t, app.History(context.Background(), []string{"zero"}), errUsage)
	assert.ErrorIs(t, app.History(context.Background(), []string{"1", "2"}), errUsage)
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	app, out := newTestApp(&fakeAuth{}, &fakeFiles{}, "")
	ctx := context.Background()

	require.NoError(t, app.Watch(ctx, nil))
	assert.Contains(t, out.String(), "Drop folder is off.")

	require.NoError(t, app.Watch(ctx, []string{dir}))
	assert.Equal(t, dir, app.dropDir())

	require.NoError(t, app.Status(ctx))
	assert.Contains(t, out.String(), "Drop folder: "+dir)

	require.NoError(t, app.Watch(ctx, []string{"stop"}))
	assert.Equal(t, "", app.dropDir())

	assert.Error(t, app.Watch(ctx, []string{dir + "/missing"}))
	assert.ErrorIs(t, app.Watch(ctx, []string{"a", "b"}), errUsage)
}
