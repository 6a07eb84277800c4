// Package protocol defines the JSON message vocabulary spoken between the
// editor host and the embedded markdown widget.
//
// Every message is a JSON object with a "command" discriminator. Host→widget
// commands push content and upload results; widget→host commands report
// readiness, edits, saves, uploads and option changes. A small set of
// transport-chrome commands (reveal, set-title, view-state) is exchanged with
// the bootstrap shell around the widget rather than the widget itself.
//
// Encoding and decoding run on the keystroke path, so the codec uses sonic.
package protocol
