package repositories

// SessionControl lets collaborators signal a running conversation turn.
// The websocket client owns the turn state and hands this interface to
// whatever needs to interrupt it; no component reaches into another's
// internals to do so.
type SessionControl interface {
	// Stop ends the current turn, discarding any in-flight response.
	Stop()
	// MarkInterrupt flags that the user spoke over the assistant; the
	// next turn starts fresh instead of continuing the reply.
	MarkInterrupt()
	// IsRunning reports whether a turn is currently being processed.
	IsRunning() bool
}
