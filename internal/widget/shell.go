package widget

import _ "embed"

// shellJS is the widget boot script served at a stable URL by the HTTP API.
//
//go:embed shell.js
var shellJS []byte

// Shell returns the embedded widget boot script.
func Shell() []byte {
	return shellJS
}
