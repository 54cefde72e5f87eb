// Package soundpad speaks the soundboard application's remote-control
// protocol over its local control channel.
//
// Commands are plain strings terminated by a NUL byte. Responses are either a
// short status token ("R-200 OK") or a document fragment; a response is
// complete when a status token or a structurally-closed fragment has been
// observed, or when the overall request deadline elapses, in which case the
// partial bytes received so far are returned.
//
// The Monitor caches the channel's liveness for a short window so status
// endpoints can poll cheaply; the lifecycle coordinator uses the uncached
// probe as its readiness predicate after relaunching the soundboard.
package soundpad
