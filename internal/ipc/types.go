package ipc

import "time"

// StatusRequest asks for a daemon status snapshot.
type StatusRequest struct{}

// StatusResponse mirrors daemon.Status across the wire.
type StatusResponse struct {
	Running      bool
	PID          int
	StartedAt    time.Time
	Phase        string
	BoardAlive   bool
	DocumentPath string
	DatabasePath string
	SocketPath   string
	LockPath     string
	JournalStats map[string]int
}

// PreflightRequest asks for environment checks.
type PreflightRequest struct{}

// PreflightCheck is one named check outcome.
type PreflightCheck struct {
	Name   string
	Passed bool
	Detail string
}

// PreflightResponse lists all check outcomes.
type PreflightResponse struct {
	Checks []PreflightCheck
}

// MutationResponse reports a completed (or failed) mutation cycle.
type MutationResponse struct {
	RequestID     string
	Operation     string
	Detail        string
	AssignedID    int
	RemovedRefs   int
	Renumbered    int
	Stopped       bool
	StopDegraded  bool
	Relaunched    bool
	ReadyDegraded bool
	ElapsedMillis int64
}

// SoundAddRequest defines a new sound.
type SoundAddRequest struct {
	URL      string
	Tag      string
	Artist   string
	Title    string
	Duration string
}

// SoundAttachRequest places a reference to sound ID inside a category at
// Position among its direct references.
type SoundAttachRequest struct {
	Category string
	ID       int
	Position int
}

// SoundDetachRequest strips every reference to sound ID.
type SoundDetachRequest struct {
	ID int
}

// SoundRemoveRequest deletes the definition and renumbers later references.
type SoundRemoveRequest struct {
	ID int
}

// SoundUpdateRequest rewrites attributes on the Ordinal-th Sound element in
// document order (1-based).
type SoundUpdateRequest struct {
	Ordinal    int
	Attributes map[string]string
}

// CategoryReorderRequest moves a visible top-level category to Position.
type CategoryReorderRequest struct {
	Name     string
	Position int
}

// RestartRequest stops and relaunches the soundboard without editing.
type RestartRequest struct{}

// RestartResponse reports the restart cycle.
type RestartResponse struct {
	Stopped       bool
	StopDegraded  bool
	Relaunched    bool
	ReadyDegraded bool
	ElapsedMillis int64
}

// HistoryRequest asks for recent journal entries.
type HistoryRequest struct {
	Limit int
}

// HistoryEntry is one journal record.
type HistoryEntry struct {
	ID           int64
	RequestID    string
	Operation    string
	Detail       string
	Status       string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HistoryResponse lists journal entries newest first.
type HistoryResponse struct {
	Entries []HistoryEntry
}

// PlayRequest triggers playback of the sound at a position.
type PlayRequest struct {
	ID int
}

// PlayResponse acknowledges a playback command.
type PlayResponse struct{}

// StopAllRequest halts all playback.
type StopAllRequest struct{}

// StopAllResponse acknowledges the stop command.
type StopAllResponse struct{}

// TogglePauseRequest pauses or resumes playback.
type TogglePauseRequest struct{}

// TogglePauseResponse acknowledges the toggle.
type TogglePauseResponse struct{}

// VolumeRequest sets the volume when Set is true, otherwise reads it.
type VolumeRequest struct {
	Set     bool
	Percent int
}

// VolumeResponse returns the current volume percentage.
type VolumeResponse struct {
	Percent int
}

// PlayStatusRequest reads the playback state.
type PlayStatusRequest struct{}

// PlayStatusResponse carries the soundboard's raw status string.
type PlayStatusResponse struct {
	Status string
}

// ShutdownRequest asks the daemon process to exit.
type ShutdownRequest struct{}

// ShutdownResponse acknowledges the shutdown request.
type ShutdownResponse struct {
	Stopping bool
}
