package util

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/sidkik/sitesync/pkg/config"
	"github.com/sidkik/sitesync/pkg/errors"
	"github.com/sidkik/sitesync/pkg/site"
	"github.com/sidkik/sitesync/pkg/store/file"
	siteSync "github.com/sidkik/sitesync/pkg/sync"
)

// TestHelper contains methods commonly used during integration tests. Every
// helper gets its own config and file backed remote store, so tests don't
// interfere with each other or with the user's real config.
type TestHelper struct {
	Dir        string
	ConfigPath string
	RemotePath string
}

// NewTestHelper creates a new TestHelper rooted at `dir`.
func NewTestHelper(dir string) (*TestHelper, error) {
	helper := &TestHelper{
		Dir:        dir,
		ConfigPath: filepath.Join(dir, "sitesync.yaml"),
		RemotePath: filepath.Join(dir, "remote.json"),
	}

	cfg := config.User{
		Version:  config.SupportedUserConfigVersion,
		Remote:   config.Remote{Backend: config.BackendFile, Path: helper.RemotePath},
		Restrict: config.RestrictPatch,
	}
	if err := config.WriteUserAt(helper.ConfigPath, cfg); err != nil {
		return nil, errors.WithContext(err, "write config")
	}
	return helper, nil
}

func (helper *TestHelper) command(ctx context.Context, args ...string) *exec.Cmd {
	args = append(args, "--config", helper.ConfigPath)
	return exec.CommandContext(ctx, "sitesync", args...)
}

// Run runs the given sitesync command, and returns its stdout.
func (helper *TestHelper) Run(ctx context.Context, args ...string) (string, error) {
	cmd := helper.command(ctx, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return string(out), fmt.Errorf("sitesync %s (%s): stderr: %s",
			strings.Join(args, " "), err, stderr.String())
	}
	return string(out), nil
}

// Start starts the given sitesync command. It returns a thread-safe buffer
// of the command's stdout, and a channel for obtaining any errors after
// starting the command. The command is stopped when `ctx` is done.
func (helper *TestHelper) Start(ctx context.Context, args ...string) (
	*LockedBuffer, chan error, error) {

	cmd := exec.Command("sitesync", append(args, "--config", helper.ConfigPath)...)

	stdout := &LockedBuffer{}
	cmd.Stdout = stdout

	stderr := bytes.NewBuffer(nil)
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, nil, err
	}

	errChan := make(chan error)
	go func() {
		waitErr := make(chan error)
		go func() {
			waitErr <- cmd.Wait()
			close(waitErr)
		}()

		defer close(errChan)
		select {
		case <-ctx.Done():
			if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
				errChan <- errors.WithContext(err, "kill")
				return
			}
			<-waitErr
		case err := <-waitErr:
			errChan <- fmt.Errorf("crashed (%s): stderr: %s", err, stderr)
		}
	}()
	return stdout, errChan, nil
}

// WriteDump writes a local storage dump named `name`, and returns its path.
func (helper *TestHelper) WriteDump(name string, snapshot site.Snapshot) (string, error) {
	b, err := snapshot.Marshal()
	if err != nil {
		return "", errors.WithContext(err, "marshal")
	}

	path := filepath.Join(helper.Dir, name)
	if err := ioutil.WriteFile(path, b, 0644); err != nil {
		return "", errors.WithContext(err, "write")
	}
	return path, nil
}

// ReadDump reads the local storage dump at `path`.
func (helper *TestHelper) ReadDump(path string) (site.Snapshot, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.WithContext(err, "read")
	}
	return site.ParseSnapshot(b)
}

// Record reads the remote record of `origin` directly from the remote store.
func (helper *TestHelper) Record(ctx context.Context, origin string) (siteSync.Record, error) {
	b, ok, err := file.New(helper.RemotePath).Get(ctx, origin)
	if err != nil {
		return siteSync.Record{}, errors.WithContext(err, "get")
	}

	if !ok {
		return siteSync.Record{}, nil
	}
	return siteSync.ParseRecord(b)
}

// LockedBuffer is a bytes.Buffer that can be written and read concurrently.
type LockedBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (b *LockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// String returns everything written so far.
func (b *LockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// TestWithRetry runs `test` with exponential backoff until it succeeds, or
// `ctx` is done.
func TestWithRetry(ctx context.Context, test func() bool) bool {
	maxSleepTime := 5 * time.Second
	sleepTime := 100 * time.Millisecond
	for {
		select {
		case <-ctx.Done():
			return test()
		case <-time.After(sleepTime):
			sleepTime *= 2
			if sleepTime > maxSleepTime {
				sleepTime = maxSleepTime
			}
		}

		if test() {
			return true
		}
	}
}
