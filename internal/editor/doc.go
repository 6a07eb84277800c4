// Package editor contains the panel lifecycle state machine, the
// bidirectional sync engine and the panel registry.
//
// One Session tracks one webview panel bound to one document location. Its
// lifecycle is an explicit state machine:
//
//	Initializing → Active ⇄ Suspended → PendingDisposal → Disposed
//
// Suspended means the backing document closed while the panel stayed open; a
// disposal timer runs and a reopen cancels it. Disposal decisions are always
// re-validated at timer-fire time, because close/reopen sequences from the
// host can invalidate a scheduled teardown before it executes. A panel that
// is focused and visible is never disposed, even when its document reports
// closed, which tolerates hosts that transiently close documents during
// save-as or external modification.
//
// The sync engine reconciles the document and the widget buffer without
// feedback loops: pushes to an unfocused panel are debounced and coalesced,
// edits from a focused panel are applied under an echo-suppression flag, and
// the panel focus flag arbitrates which side is ground truth. Concurrent
// writes from both sides inside one debounce window can still race; that is
// a documented limitation, not a solved problem.
//
// The Registry guarantees at most one live session per document location.
package editor
