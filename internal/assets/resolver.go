// Package assets resolves upload target folders and stores uploaded files.
//
// The resolver expands the configured folder template against a document
// location; the uploader decodes upload batches from the widget, writes them
// under the resolved folder and hands back document-relative references with
// forward slashes on every platform.
package assets

import (
	"path/filepath"
	"strings"

	"github.com/kcf-jackson/vscode-markdown-editor/internal/shared/paths"
)

// DefaultFolder is used when the configured template is empty.
const DefaultFolder = "assets"

// Resolver expands an upload folder template for documents. Zero side
// effects; an empty template silently falls back to DefaultFolder.
type Resolver struct {
	// Template is the configured folder, possibly carrying placeholders:
	// ${projectRoot}, ${filePath}, ${fileBasenameNoExtension}, ${dir}.
	Template string
	// ProjectRoot substitutes ${projectRoot}.
	ProjectRoot string
}

// Dir returns the absolute upload directory for a document. Relative
// template results resolve against the document's containing directory.
func (r Resolver) Dir(docKey string) string {
	template := strings.TrimSpace(r.Template)
	if template == "" {
		template = DefaultFolder
	}

	docDir := paths.Dir(docKey)
	expanded := strings.NewReplacer(
		"${projectRoot}", r.ProjectRoot,
		"${filePath}", docKey,
		"${fileBasenameNoExtension}", paths.BaseNoExt(docKey),
		"${dir}", docDir,
	).Replace(template)

	if !filepath.IsAbs(filepath.FromSlash(expanded)) {
		expanded = docDir + "/" + expanded
	}
	return filepath.ToSlash(filepath.Clean(filepath.FromSlash(expanded)))
}
