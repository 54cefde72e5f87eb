package lifecycle

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// ProcessController abstracts the soundboard process so the coordinator can
// be exercised in tests without launching anything.
type ProcessController interface {
	// Running reports whether at least one soundboard process exists.
	Running(ctx context.Context) (bool, error)
	// Terminate requests a polite stop of every soundboard process.
	Terminate(ctx context.Context) error
	// Kill forcibly ends every soundboard process.
	Kill(ctx context.Context) error
	// Launch starts a new detached soundboard process.
	Launch(ctx context.Context) error
}

// boardController manages the soundboard through /proc scans and signals.
type boardController struct {
	executable string
	name       string
}

// NewBoardController returns a ProcessController for the given executable.
// Processes are matched by executable basename.
func NewBoardController(executable string) ProcessController {
	return &boardController{
		executable: executable,
		name:       filepath.Base(executable),
	}
}

func (b *boardController) Running(ctx context.Context) (bool, error) {
	pids, err := b.findPIDs()
	if err != nil {
		return false, err
	}
	return len(pids) > 0, nil
}

func (b *boardController) Terminate(ctx context.Context) error {
	return b.signalAll(unix.SIGTERM)
}

func (b *boardController) Kill(ctx context.Context) error {
	return b.signalAll(unix.SIGKILL)
}

// Launch starts the soundboard detached from the daemon. The released
// process survives daemon restarts.
func (b *boardController) Launch(ctx context.Context) error {
	proc := exec.Command(b.executable)
	proc.Dir = filepath.Dir(b.executable)
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch soundboard: %w", err)
	}
	return proc.Process.Release()
}

func (b *boardController) signalAll(sig unix.Signal) error {
	pids, err := b.findPIDs()
	if err != nil {
		return err
	}
	var firstErr error
	for _, pid := range pids {
		if err := unix.Kill(pid, sig); err != nil && firstErr == nil {
			// ESRCH means the process exited between scan and signal.
			if err != unix.ESRCH {
				firstErr = fmt.Errorf("signal pid %d: %w", pid, err)
			}
		}
	}
	return firstErr
}

// findPIDs scans /proc for processes whose command name matches the
// soundboard executable. The kernel truncates comm to 15 bytes, so long
// executable names are matched by prefix.
func (b *boardController) findPIDs() ([]int, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, fmt.Errorf("scan processes: %w", err)
	}

	want := b.name
	truncated := want
	if len(truncated) > 15 {
		truncated = truncated[:15]
	}

	self := os.Getpid()
	var pids []int
	for _, entry := range entries {
		pid, err := strconv.Atoi(entry.Name())
		if err != nil || pid == self {
			continue
		}
		comm, err := os.ReadFile(filepath.Join("/proc", entry.Name(), "comm"))
		if err != nil {
			continue
		}
		name := strings.TrimSpace(string(comm))
		if name == want || name == truncated {
			pids = append(pids, pid)
		}
	}
	return pids, nil
}
