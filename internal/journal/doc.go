// Package journal persists a history of mutation requests and their
// outcomes in SQLite, so users can audit what changed the soundlist and why
// a given change failed.
package journal
