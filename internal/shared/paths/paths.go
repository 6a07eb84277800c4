package paths

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// markdownPatterns are the glob patterns a path must match to be claimed by
// the editor.
var markdownPatterns = []string{
	"**/*.md",
	"**/*.markdown",
	"**/*.mdx",
}

// Key normalizes a file path into its canonical location key. Symlinks are
// resolved when the target exists; separators are always forward slashes.
func Key(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", path, err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return filepath.ToSlash(filepath.Clean(abs)), nil
}

// Token derives a short URL-safe token from a location key, used to address
// a panel in editor and websocket routes.
func Token(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:8])
}

// IsMarkdown reports whether path matches one of the markdown claim patterns.
func IsMarkdown(path string) bool {
	slashed := filepath.ToSlash(path)
	if !strings.HasPrefix(slashed, "/") {
		slashed = "/" + slashed
	}
	for _, pattern := range markdownPatterns {
		if ok, err := doublestar.Match(pattern, slashed); err == nil && ok {
			return true
		}
	}
	return false
}

// MarkdownPatterns returns a copy of the claim patterns for callers that walk
// directories themselves.
func MarkdownPatterns() []string {
	out := make([]string, len(markdownPatterns))
	copy(out, markdownPatterns)
	return out
}

// Rel returns target relative to the base directory with forward slashes,
// regardless of host platform.
func Rel(baseDir, target string) (string, error) {
	rel, err := filepath.Rel(filepath.FromSlash(baseDir), filepath.FromSlash(target))
	if err != nil {
		return "", fmt.Errorf("relativize %q against %q: %w", target, baseDir, err)
	}
	return filepath.ToSlash(rel), nil
}

// Dir returns the containing directory of a location key, forward-slashed.
func Dir(key string) string {
	return filepath.ToSlash(filepath.Dir(filepath.FromSlash(key)))
}

// Base returns the file name component of a location key.
func Base(key string) string {
	return filepath.Base(filepath.FromSlash(key))
}

// BaseNoExt returns the file name of a location key without its extension.
func BaseNoExt(key string) string {
	base := Base(key)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
