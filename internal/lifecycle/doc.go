// Package lifecycle coordinates the stop, edit, relaunch cycle that every
// soundlist mutation runs through.
//
// The soundboard application rewrites its soundlist document on exit, so a
// mutation applied while the process runs would be lost. The coordinator
// serializes mutations through a single slot, stops the soundboard, applies
// the edit to the document atomically, relaunches the process detached, and
// waits for its control channel to come back up.
package lifecycle
