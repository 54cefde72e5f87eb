// Command soundbridge is the CLI and daemon entrypoint for managing a
// Soundpad-style soundboard and its soundlist document.
package main
