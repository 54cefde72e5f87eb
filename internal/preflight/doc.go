// Package preflight validates the environment before the daemon accepts
// mutations: the soundboard executable, the soundlist document, disk
// headroom for atomic rewrites, and control channel reachability.
package preflight
