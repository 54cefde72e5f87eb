// Package ipc carries daemon control between the CLI and the daemon as
// JSON-RPC over a Unix domain socket.
package ipc
