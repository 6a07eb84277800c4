package assets

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/kcf-jackson/vscode-markdown-editor/internal/protocol"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/shared/paths"
)

// Uploader stores upload batches from the widget.
type Uploader struct {
	resolver Resolver
}

// NewUploader creates an uploader with the given folder resolver.
func NewUploader(resolver Resolver) *Uploader {
	return &Uploader{resolver: resolver}
}

// Store writes an upload batch for a document. Best-effort per file: files
// that fail are reported in errs and do not roll back earlier writes. The
// returned references are document-relative, forward-slashed and in the
// input order of the files that succeeded.
func (u *Uploader) Store(docKey string, files []protocol.UploadFile) (refs []string, errs []error) {
	dir := filepath.FromSlash(u.resolver.Dir(docKey))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, []error{fmt.Errorf("create upload folder %s: %w", dir, err)}
	}

	docDir := paths.Dir(docKey)
	for _, file := range files {
		ref, err := u.storeOne(docDir, dir, file)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		refs = append(refs, ref)
	}
	return refs, errs
}

func (u *Uploader) storeOne(docDir, dir string, file protocol.UploadFile) (string, error) {
	data, err := decodePayload(file.Content)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", file.Name, err)
	}

	name := safeName(file.Name)
	if filepath.Ext(name) == "" {
		// The widget occasionally sends pasted images without an extension;
		// derive one from the sniffed content type.
		name += mimetype.Detect(data).Extension()
	}

	target := uniquePath(dir, name)
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", target, err)
	}

	ref, err := paths.Rel(docDir, filepath.ToSlash(target))
	if err != nil {
		return "", err
	}
	return ref, nil
}

// decodePayload decodes base64 content, tolerating a data-URL prefix.
func decodePayload(content string) ([]byte, error) {
	if idx := strings.Index(content, ";base64,"); idx >= 0 && strings.HasPrefix(content, "data:") {
		content = content[idx+len(";base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty payload")
	}
	return data, nil
}

// safeName strips any path components from an upload file name.
func safeName(name string) string {
	name = filepath.Base(filepath.FromSlash(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "upload"
	}
	return name
}

// uniquePath dedupes name collisions as name-1.png, name-2.png, ...
func uniquePath(dir, name string) string {
	target := filepath.Join(dir, name)
	if _, err := os.Stat(target); os.IsNotExist(err) {
		return target
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, i, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}
