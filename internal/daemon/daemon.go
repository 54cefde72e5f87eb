package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"soundbridge/internal/config"
	"soundbridge/internal/journal"
	"soundbridge/internal/lifecycle"
	"soundbridge/internal/logging"
	"soundbridge/internal/preflight"
	"soundbridge/internal/services"
	"soundbridge/internal/services/soundpad"
	"soundbridge/internal/soundlist"
)

// Option adjusts daemon construction, primarily for tests.
type Option func(*Daemon)

// WithProcessController replaces the /proc-based soundboard controller.
func WithProcessController(proc lifecycle.ProcessController) Option {
	return func(d *Daemon) {
		if proc != nil {
			d.proc = proc
		}
	}
}

// WithSoundpadOptions forwards options to the control channel client.
func WithSoundpadOptions(opts ...soundpad.Option) Option {
	return func(d *Daemon) {
		d.clientOpts = append(d.clientOpts, opts...)
	}
}

// Daemon owns the long-lived components: the mutation coordinator, the
// control channel client, the mutation journal, and the document monitor.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger

	proc       lifecycle.ProcessController
	clientOpts []soundpad.Option

	client      *soundpad.Client
	monitor     *soundpad.Monitor
	coordinator *lifecycle.Coordinator
	store       *journal.Store
	docMonitor  *DocumentMonitor
	lock        *flock.Flock

	running   atomic.Bool
	startedAt time.Time
}

// Status is a point-in-time snapshot of daemon and soundboard state.
type Status struct {
	Running      bool
	PID          int
	StartedAt    time.Time
	Phase        lifecycle.Phase
	BoardAlive   bool
	DocumentPath string
	DatabasePath string
	SocketPath   string
	LockPath     string
	JournalStats map[journal.Status]int
}

// MutationOutcome pairs the journal record of a mutation with the lifecycle
// report of the cycle that executed it.
type MutationOutcome struct {
	Entry  *journal.Entry
	Report *lifecycle.Report
}

// New assembles a daemon from configuration. Start must be called before
// mutations are accepted.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil {
		return nil, fmt.Errorf("daemon requires configuration")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	d := &Daemon{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "daemon"),
		proc:   lifecycle.NewBoardController(cfg.Board.Executable),
	}
	for _, opt := range opts {
		opt(d)
	}

	clientOpts := append([]soundpad.Option{
		soundpad.WithRequestTimeout(cfg.RequestTimeout()),
		soundpad.WithProbeTimeout(cfg.ProbeTimeout()),
	}, d.clientOpts...)
	client, err := soundpad.New(cfg.Board.ControlAddress, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("control channel client: %w", err)
	}
	d.client = client
	d.monitor = soundpad.NewMonitor(client, soundpad.WithCacheTTL(cfg.HealthCacheTTL()))
	d.coordinator = lifecycle.New(cfg, d.proc, d.monitor, logger)
	return d, nil
}

// Start acquires the single-instance lock, opens the journal, and begins
// watching the document for external changes.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return nil
	}
	if err := d.cfg.EnsureDirectories(); err != nil {
		return err
	}

	lock := flock.New(d.cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire daemon lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another soundbridge daemon is already running (lock: %s)", d.cfg.LockPath())
	}
	d.lock = lock

	store, err := journal.Open(d.cfg)
	if err != nil {
		_ = lock.Unlock()
		return err
	}
	d.store = store

	docMonitor, err := NewDocumentMonitor(d.cfg.Board.Document, d.coordinator, d.monitor, d.logger)
	if err != nil {
		d.logger.Warn("document monitor unavailable", logging.Error(err))
	} else {
		d.docMonitor = docMonitor
		d.docMonitor.Start(ctx)
	}

	d.startedAt = time.Now()
	d.running.Store(true)
	d.logger.Info("daemon started",
		logging.String(logging.FieldDocument, d.cfg.Board.Document),
		logging.Int("pid", os.Getpid()))
	return nil
}

// Stop releases the lock and closes all components.
func (d *Daemon) Stop() {
	if !d.running.Swap(false) {
		return
	}
	if d.docMonitor != nil {
		d.docMonitor.Stop()
	}
	if d.store != nil {
		_ = d.store.Close()
	}
	if d.lock != nil {
		_ = d.lock.Unlock()
	}
	d.logger.Info("daemon stopped")
}

// Running reports whether the daemon has been started.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Status assembles the current daemon snapshot.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		StartedAt:    d.startedAt,
		Phase:        d.coordinator.Phase(),
		DocumentPath: d.cfg.Board.Document,
		DatabasePath: d.cfg.DatabasePath(),
		SocketPath:   d.cfg.SocketPath(),
		LockPath:     d.cfg.LockPath(),
	}
	status.BoardAlive = d.monitor.Alive(ctx)
	if d.store != nil {
		if stats, err := d.store.Stats(ctx); err == nil {
			status.JournalStats = stats
		}
	}
	return status
}

// Preflight runs the environment checks against the current configuration.
func (d *Daemon) Preflight(ctx context.Context) []preflight.Result {
	return preflight.RunAll(ctx, d.cfg)
}

// runMutation drives a document mutation through the journal and the
// lifecycle coordinator.
func (d *Daemon) runMutation(ctx context.Context, operation, requestDetail string, fn func(text string) (soundlist.Result, error)) (*MutationOutcome, error) {
	if !d.running.Load() {
		return nil, services.Wrap(services.ErrUnavailable, "daemon", operation, "daemon not started", nil)
	}

	requestID := uuid.NewString()
	ctx = services.WithRequestID(ctx, requestID)

	entry, err := d.store.Begin(ctx, requestID, operation, requestDetail)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "daemon", operation, "journal begin", err)
	}

	report, applyErr := d.coordinator.Apply(ctx, lifecycle.MutationFunc{Operation: operation, Fn: fn})
	if applyErr != nil {
		if markErr := d.store.MarkFailed(ctx, entry.ID, applyErr.Error()); markErr != nil {
			d.logger.Warn("journal update failed", logging.Error(markErr))
		}
		return &MutationOutcome{Entry: entry, Report: report}, applyErr
	}

	if markErr := d.store.MarkCompleted(ctx, entry.ID, report.Change.Detail); markErr != nil {
		d.logger.Warn("journal update failed", logging.Error(markErr))
	}
	final, err := d.store.GetByID(ctx, entry.ID)
	if err == nil && final != nil {
		entry = final
	}
	return &MutationOutcome{Entry: entry, Report: report}, nil
}

// SoundAdd defines a new sound at the end of the definition list.
func (d *Daemon) SoundAdd(ctx context.Context, def soundlist.Definition) (*MutationOutcome, error) {
	detail := fmt.Sprintf("add sound %s", def.URL)
	return d.runMutation(ctx, "sound_add", detail, func(text string) (soundlist.Result, error) {
		return soundlist.InsertDefinition(text, def)
	})
}

// SoundAttach places a reference to an existing sound inside a category.
func (d *Daemon) SoundAttach(ctx context.Context, category string, id, position int) (*MutationOutcome, error) {
	detail := fmt.Sprintf("attach sound %d to %s at %d", id, category, position)
	return d.runMutation(ctx, "sound_attach", detail, func(text string) (soundlist.Result, error) {
		return soundlist.InsertReference(text, category, id, position)
	})
}

// SoundDetach removes every reference to the sound without touching its
// definition.
func (d *Daemon) SoundDetach(ctx context.Context, id int) (*MutationOutcome, error) {
	detail := fmt.Sprintf("detach sound %d", id)
	return d.runMutation(ctx, "sound_detach", detail, func(text string) (soundlist.Result, error) {
		return soundlist.RemoveReference(text, id)
	})
}

// SoundRemove deletes a definition, strips its references, and renumbers
// the references to every later definition.
func (d *Daemon) SoundRemove(ctx context.Context, id int) (*MutationOutcome, error) {
	detail := fmt.Sprintf("remove sound %d", id)
	return d.runMutation(ctx, "sound_remove", detail, func(text string) (soundlist.Result, error) {
		return soundlist.RemoveAndRenumber(text, id)
	})
}

// SoundUpdate rewrites attributes on the nth Sound element in document order.
func (d *Daemon) SoundUpdate(ctx context.Context, ordinal int, attrs map[string]string) (*MutationOutcome, error) {
	detail := fmt.Sprintf("update sound #%d", ordinal)
	return d.runMutation(ctx, "sound_update", detail, func(text string) (soundlist.Result, error) {
		return soundlist.UpdateAttributes(text, "Sound", ordinal, attrs)
	})
}

// CategoryReorder moves a visible top-level category to a new slot.
func (d *Daemon) CategoryReorder(ctx context.Context, name string, position int) (*MutationOutcome, error) {
	detail := fmt.Sprintf("move category %s to slot %d", name, position)
	return d.runMutation(ctx, "category_reorder", detail, func(text string) (soundlist.Result, error) {
		return soundlist.ReorderCategory(text, name, position)
	})
}

// RestartBoard stops and relaunches the soundboard without editing the
// document.
func (d *Daemon) RestartBoard(ctx context.Context) (*lifecycle.Report, error) {
	return d.coordinator.Restart(ctx)
}

// History returns recent journal entries, newest first.
func (d *Daemon) History(ctx context.Context, limit int) ([]*journal.Entry, error) {
	if d.store == nil {
		return nil, services.Wrap(services.ErrUnavailable, "daemon", "history", "journal not open", nil)
	}
	return d.store.List(ctx, limit)
}

// Play triggers playback of the sound at the given position.
func (d *Daemon) Play(ctx context.Context, id int) error {
	return d.client.PlaySound(ctx, id)
}

// StopAllSounds halts all current playback.
func (d *Daemon) StopAllSounds(ctx context.Context) error {
	return d.client.StopAllSounds(ctx)
}

// TogglePause pauses or resumes playback.
func (d *Daemon) TogglePause(ctx context.Context) error {
	return d.client.TogglePause(ctx)
}

// SetVolume adjusts the soundboard volume percentage.
func (d *Daemon) SetVolume(ctx context.Context, percent int) error {
	return d.client.SetVolume(ctx, percent)
}

// GetVolume reads the soundboard volume percentage.
func (d *Daemon) GetVolume(ctx context.Context) (int, error) {
	return d.client.GetVolume(ctx)
}

// PlayStatus reads the soundboard playback state.
func (d *Daemon) PlayStatus(ctx context.Context) (string, error) {
	return d.client.GetPlayStatus(ctx)
}
