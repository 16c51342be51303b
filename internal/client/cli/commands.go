package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/transfer"
)

const defaultHistoryLimit = 20

var errUsage = errors.New("wrong arguments, see 'help'")

// Register prompts for a user name and password and creates an account.
// The password byte slice is wiped before returning.
func (a *App) Register(ctx context.Context) error {
	userName, password, err := a.askCredentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.auth.Register(ctx, userName, string(password)); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Registered. You can log in now.")
	return nil
}

// Login prompts for credentials, authenticates and negotiates a session key.
func (a *App) Login(ctx context.Context) error {
	userName, password, err := a.askCredentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.auth.Login(ctx, userName, string(password)); err != nil {
		return err
	}
	a.loginDone(ctx, userName)
	fmt.Fprintln(a.out, "Logged in as", userName)
	return nil
}

// Logout stops the drop folder and forgets the saved login.
func (a *App) Logout(ctx context.Context) error {
	a.stopDrop()
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	a.mu.Lock()
	a.loggedIn = false
	a.userName = ""
	a.mu.Unlock()
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func (a *App) askCredentials() (string, []byte, error) {
	userName, err := getSimpleText(a.reader, "Enter user name", a.out)
	if err != nil {
		return "", nil, err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return "", nil, err
	}
	return userName, password, nil
}

func (a *App) List(ctx context.Context) error {
	files, err := a.files.List(ctx)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(a.out, "No files.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSIZE\tTYPE\tUPDATED")
	for _, f := range files {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			f.UUID, f.FileName, formatBytes(f.Size), f.Type, f.UpdatedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

// Upload sends one local file: upload <path>. The path may contain spaces.
func (a *App) Upload(ctx context.Context, args []string) error {
	if len(args) > 1 {
		args = []string{strings.Join(args, " ")}
	}
	path, err := a.argOrPrompt(args, "Enter file path")
	if err != nil {
		return err
	}

	fn, done := a.progress(filepath.Base(path))
	res, err := a.files.Upload(ctx, path, fn)
	done()
	if err != nil {
		if res != nil {
			fmt.Fprintf(a.out, "%d of %d chunks failed\n", failedChunks(res.Statuses), res.TotalChunks)
		}
		return err
	}
	fmt.Fprintf(a.out, "Uploaded %s as %s (%d chunks)\n", filepath.Base(path), res.FileID, res.TotalChunks)
	return nil
}

// Download fetches a remote file: download <id> [dir].
func (a *App) Download(ctx context.Context, args []string) error {
	if len(args) > 2 {
		return errUsage
	}
	id, err := a.argOrPrompt(args, "Enter file id")
	if err != nil {
		return err
	}
	dir := "."
	if len(args) == 2 {
		dir = args[1]
	}

	path, err := a.files.Download(ctx, id, dir)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Saved to", path)
	return nil
}

// Delete removes a remote file: delete <id>.
func (a *App) Delete(ctx context.Context, args []string) error {
	id, err := a.argOrPrompt(args, "Enter file id to delete")
	if err != nil {
		return err
	}
	if err := a.files.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Deleted", id)
	return nil
}

// History prints the local transfer journal: history [n].
func (a *App) History(ctx context.Context, args []string) error {
	limit := defaultHistoryLimit
	switch len(args) {
	case 0:
	case 1:
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return errUsage
		}
		limit = n
	default:
		return errUsage
	}

	items, err := a.files.History(ctx, limit)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(a.out, "No transfers yet.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tDIRECTION\tSTATUS\tNAME\tSIZE\tID")
	for _, t := range items {
		status := string(t.Status)
		if t.Error != "" {
			status += ": " + t.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.UpdatedAt.Local().Format(time.DateTime), t.Direction, status, t.FileName, formatBytes(t.Size), t.ID)
	}
	return tw.Flush()
}

// Watch controls the drop folder: watch [dir|stop].
func (a *App) Watch(ctx context.Context, args []string) error {
	switch {
	case len(args) == 0:
		if dir := a.dropDir(); dir != "" {
			fmt.Fprintln(a.out, "Watching", dir)
		} else {
			fmt.Fprintln(a.out, "Drop folder is off.")
		}
		return nil
	case len(args) == 1 && args[0] == "stop":
		a.stopDrop()
		fmt.Fprintln(a.out, "Drop folder stopped.")
		return nil
	case len(args) == 1:
		return a.startDrop(ctx, args[0])
	default:
		return errUsage
	}
}

func (a *App) Status(context.Context) error {
	a.mu.Lock()
	user, loggedIn, mode := a.userName, a.loggedIn, a.mode
	a.mu.Unlock()

	if mode == "" {
		mode = "unknown"
	}
	if loggedIn {
		fmt.Fprintf(a.out, "User: %s\n", user)
	} else {
		fmt.Fprintln(a.out, "User: not logged in")
	}
	fmt.Fprintf(a.out, "Server: %s (%s)\n", a.config.ServerURL, mode)
	if dir := a.dropDir(); dir != "" {
		fmt.Fprintln(a.out, "Drop folder:", dir)
	}
	return nil
}

func (a *App) argOrPrompt(args []string, prompt string) (string, error) {
	switch len(args) {
	case 0:
		v, err := getSimpleText(a.reader, prompt, a.out)
		if err != nil {
			return "", err
		}
		if v == "" {
			return "", errUsage
		}
		return v, nil
	default:
		return args[0], nil
	}
}

// progress returns a ProgressFunc drawing a bar for the whole file and a
// func that ends the bar line.
func (a *App) progress(label string) (transfer.ProgressFunc, func()) {
	last := -1
	fn := func(ev transfer.ChunkEvent) {
		if ev.FilePercentage == last {
			return
		}
		last = ev.FilePercentage
		fmt.Fprint(a.out, progressLine(label, ev.FilePercentage))
	}
	return fn, func() {
		if last >= 0 {
			fmt.Fprintln(a.out)
		}
	}
}

func failedChunks(statuses []transfer.ProgressStatus) int {
	n := 0
	for _, s := range statuses {
		if s.Status == transfer.StatusError {
			n++
		}
	}
	return n
}
