// Command mdeditor runs and drives the markdown editor host.
//
// The host owns the document model for a workspace and serves WYSIWYG
// editor panels over HTTP and WebSocket. Panels follow their documents:
// edits flow both ways, external file changes reach open panels, and a
// panel whose document closes lingers briefly before it is torn down.
//
// Usage:
//
//	mdeditor serve --workspace ~/notes
//	mdeditor open README.md
//	mdeditor fetch-widget
//	mdeditor config
package main

func main() {
	Execute()
}
