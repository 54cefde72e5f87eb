package lifecycle

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"soundbridge/internal/config"
	"soundbridge/internal/fileutil"
	"soundbridge/internal/logging"
	"soundbridge/internal/services"
	"soundbridge/internal/soundlist"
)

// Phase identifies where in the mutation cycle the coordinator currently is.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseStopping     Phase = "stopping"
	PhaseEditing      Phase = "editing"
	PhaseRelaunching  Phase = "relaunching"
	PhaseWaitingReady Phase = "waiting_ready"
)

// Mutation is a single document edit to run through the lifecycle cycle.
type Mutation interface {
	// Name identifies the operation in logs and errors.
	Name() string
	// Apply transforms the document text and describes the change.
	Apply(text string) (soundlist.Result, error)
}

// MutationFunc adapts a function to the Mutation interface.
type MutationFunc struct {
	Operation string
	Fn        func(text string) (soundlist.Result, error)
}

func (m MutationFunc) Name() string { return m.Operation }

func (m MutationFunc) Apply(text string) (soundlist.Result, error) { return m.Fn(text) }

// Health is the liveness view the coordinator needs: an uncached probe for
// readiness polling and cache invalidation around restarts.
type Health interface {
	Check(ctx context.Context) bool
	Invalidate()
}

// Timings holds the budgets for each lifecycle phase.
type Timings struct {
	GracefulStop time.Duration
	StopPoll     time.Duration
	ForcedStop   time.Duration
	Ready        time.Duration
	ReadyPoll    time.Duration
}

// TimingsFromConfig extracts lifecycle budgets from application config.
func TimingsFromConfig(cfg *config.Config) Timings {
	return Timings{
		GracefulStop: cfg.GracefulStopBudget(),
		StopPoll:     cfg.StopPollInterval(),
		ForcedStop:   cfg.ForcedStopBudget(),
		Ready:        cfg.ReadyTimeout(),
		ReadyPoll:    cfg.ReadyPollInterval(),
	}
}

// Report describes what a completed cycle actually did. Degraded fields
// record budget overruns that were logged as warnings rather than failing
// the mutation.
type Report struct {
	Change        soundlist.Change
	Stopped       bool
	StopDegraded  bool
	Relaunched    bool
	ReadyDegraded bool
	Elapsed       time.Duration
}

// Coordinator owns the single mutation slot. All document edits and the
// process transitions around them flow through Apply.
type Coordinator struct {
	documentPath string
	lockPath     string
	proc         ProcessController
	health       Health
	timings      Timings
	logger       *slog.Logger

	slot sync.Mutex

	mu      sync.Mutex
	phase   Phase
	cycling bool
}

// New builds a coordinator for the configured document and soundboard.
func New(cfg *config.Config, proc ProcessController, health Health, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		documentPath: cfg.Board.Document,
		lockPath:     cfg.DocumentLockPath(),
		proc:         proc,
		health:       health,
		timings:      TimingsFromConfig(cfg),
		logger:       logging.NewComponentLogger(logger, "lifecycle"),
		phase:        PhaseIdle,
	}
}

// Phase returns the current lifecycle phase for status reporting.
func (c *Coordinator) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// InFlight reports whether a mutation cycle is currently running. The
// document monitor uses this to ignore filesystem events caused by the
// coordinator's own writes.
func (c *Coordinator) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cycling
}

func (c *Coordinator) setPhase(p Phase) {
	c.mu.Lock()
	c.phase = p
	c.cycling = p != PhaseIdle
	c.mu.Unlock()
}

// Apply runs one mutation through the full cycle: stop the soundboard, edit
// the document, relaunch, and wait for the control channel. Concurrent calls
// queue on the single slot in arrival order.
//
// Failures before the soundboard is touched return with the process state
// unchanged. Failures after the stop still relaunch so the user is never
// left without a running soundboard.
func (c *Coordinator) Apply(ctx context.Context, m Mutation) (*Report, error) {
	c.slot.Lock()
	defer c.slot.Unlock()

	started := time.Now()
	logger := logging.WithContext(ctx, c.logger).With(logging.String(logging.FieldOperation, m.Name()))

	docLock := flock.New(c.lockPath)
	locked, err := docLock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrPrecondition, "lifecycle", m.Name(), "acquire document lock", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrUnavailable, "lifecycle", m.Name(), "document locked by another process", nil)
	}
	defer func() {
		_ = docLock.Unlock()
	}()

	defer c.setPhase(PhaseIdle)

	// Dry run against the current document so invalid requests never stop
	// the soundboard.
	text, err := c.readDocument(m.Name())
	if err != nil {
		return nil, err
	}
	if _, err := m.Apply(text); err != nil {
		return nil, services.Wrap(services.ErrPrecondition, "lifecycle", m.Name(), "mutation rejected", err)
	}

	report := &Report{}

	c.setPhase(PhaseStopping)
	report.Stopped, report.StopDegraded = c.stopBoard(ctx, logger)

	// The soundboard may rewrite the document on exit, so the mutation runs
	// against a fresh read. A failure here is structural: the process was
	// already stopped, so the relaunch below still happens.
	c.setPhase(PhaseEditing)
	editErr := c.editDocument(m, report, logger)
	if editErr != nil {
		logger.Error("document edit failed, relaunching anyway", logging.Error(editErr))
	}

	c.setPhase(PhaseRelaunching)
	if err := c.proc.Launch(ctx); err != nil {
		launchErr := services.Wrap(services.ErrUnavailable, "lifecycle", m.Name(), "relaunch soundboard", err)
		logger.Error("relaunch failed", logging.Error(err))
		if editErr != nil {
			return report, editErr
		}
		return report, launchErr
	}
	report.Relaunched = true

	c.setPhase(PhaseWaitingReady)
	if !c.waitReady(ctx) {
		report.ReadyDegraded = true
		logger.Warn("soundboard did not become ready in time",
			logging.Duration("budget", c.timings.Ready))
	}

	report.Elapsed = time.Since(started)
	if editErr != nil {
		return report, editErr
	}
	logger.Info("mutation cycle complete",
		logging.String("detail", report.Change.Detail),
		logging.Bool("stopped", report.Stopped),
		logging.Duration("elapsed", report.Elapsed))
	return report, nil
}

func (c *Coordinator) readDocument(operation string) (string, error) {
	data, err := os.ReadFile(c.documentPath)
	if err != nil {
		return "", services.Wrap(services.ErrPrecondition, "lifecycle", operation, "read document", err)
	}
	return string(data), nil
}

// stopBoard brings the soundboard down, escalating from SIGTERM to SIGKILL.
// Returns whether the process was running and whether the stop blew both
// budgets.
func (c *Coordinator) stopBoard(ctx context.Context, logger *slog.Logger) (stopped, degraded bool) {
	// Whatever the cache held before this cycle is stale from here on, even
	// when the board turns out to be down already.
	c.health.Invalidate()

	running, err := c.proc.Running(ctx)
	if err != nil {
		logger.Warn("process scan failed, assuming not running", logging.Error(err))
		return false, false
	}
	if !running {
		return false, false
	}

	if err := c.proc.Terminate(ctx); err != nil {
		logger.Warn("terminate signal failed", logging.Error(err))
	}
	if c.waitStopped(ctx, c.timings.GracefulStop) {
		return true, false
	}

	logger.Warn("graceful stop budget exceeded, forcing",
		logging.Duration("budget", c.timings.GracefulStop))
	if err := c.proc.Kill(ctx); err != nil {
		logger.Warn("kill signal failed", logging.Error(err))
	}
	if c.waitStopped(ctx, c.timings.ForcedStop) {
		return true, false
	}

	logger.Warn("soundboard still running after forced stop",
		logging.Duration("budget", c.timings.ForcedStop))
	return true, true
}

func (c *Coordinator) waitStopped(ctx context.Context, budget time.Duration) bool {
	deadline := time.Now().Add(budget)
	for {
		running, err := c.proc.Running(ctx)
		if err == nil && !running {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(c.timings.StopPoll):
		}
	}
}

func (c *Coordinator) editDocument(m Mutation, report *Report, logger *slog.Logger) error {
	data, err := os.ReadFile(c.documentPath)
	if err != nil {
		return services.Wrap(services.ErrStructural, "lifecycle", m.Name(), "re-read document", err)
	}

	result, err := m.Apply(string(data))
	if err != nil {
		return services.Wrap(services.ErrStructural, "lifecycle", m.Name(), "apply mutation", err)
	}
	report.Change = result.Change

	mode := fs.FileMode(0o644)
	if info, err := os.Stat(c.documentPath); err == nil {
		mode = info.Mode().Perm()
	}
	// Keep the pre-edit content next to the document; a bad edit can be
	// undone by hand from the sidecar.
	if err := fileutil.CopyFileMode(c.documentPath, c.documentPath+".bak", mode); err != nil {
		logger.Warn("document backup failed", logging.Error(err))
	}
	if err := fileutil.AtomicWriteFile(c.documentPath, []byte(result.Text), mode); err != nil {
		return services.Wrap(services.ErrStructural, "lifecycle", m.Name(), "write document", err)
	}
	return nil
}

func (c *Coordinator) waitReady(ctx context.Context) bool {
	deadline := time.Now().Add(c.timings.Ready)
	for {
		if c.health.Check(ctx) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(c.timings.ReadyPoll):
		}
	}
}

// Restart runs an empty cycle: stop and relaunch the soundboard without
// touching the document.
func (c *Coordinator) Restart(ctx context.Context) (*Report, error) {
	c.slot.Lock()
	defer c.slot.Unlock()

	started := time.Now()
	logger := logging.WithContext(ctx, c.logger)
	report := &Report{Change: soundlist.Change{Operation: "restart", Detail: "soundboard restart"}}
	defer c.setPhase(PhaseIdle)

	c.setPhase(PhaseStopping)
	report.Stopped, report.StopDegraded = c.stopBoard(ctx, logger)

	c.setPhase(PhaseRelaunching)
	if err := c.proc.Launch(ctx); err != nil {
		return report, services.Wrap(services.ErrUnavailable, "lifecycle", "restart", "relaunch soundboard", err)
	}
	report.Relaunched = true

	c.setPhase(PhaseWaitingReady)
	if !c.waitReady(ctx) {
		report.ReadyDegraded = true
	}
	report.Elapsed = time.Since(started)
	return report, nil
}
