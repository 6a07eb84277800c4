// Package workspace owns the host side of the editor: open text documents,
// their change/close/open/save events, and the persisted key-value state.
//
// The document manager is the single writer of document text. Panel sessions
// mutate documents only through it, and observe them only through the event
// stream.
// An fsnotify watcher feeds external file modifications back in as change
// events so panels pick up edits made outside the editor.
package workspace
