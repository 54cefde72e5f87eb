// Package daemon wires the long-lived soundbridge components together: the
// lifecycle coordinator, the control channel client and its liveness cache,
// the mutation journal, and the document monitor. The IPC server exposes
// this package's methods to the CLI.
package daemon
