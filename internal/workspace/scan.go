package workspace

import (
	"context"
	"io/fs"
	"sort"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"

	"github.com/kcf-jackson/vscode-markdown-editor/internal/shared/paths"
)

// Directories never descended into when scanning for markdown files.
var skipDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	"vendor":       true,
}

// ScanMarkdown walks root and returns the workspace-relative paths of all
// markdown files, sorted. The walk is parallel; cancellation is checked per
// entry.
func ScanMarkdown(ctx context.Context, root string) ([]string, error) {
	var (
		mu    sync.Mutex
		found []string
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			name := d.Name()
			if skipDirs[name] || (strings.HasPrefix(name, ".") && path != root) {
				return fastwalk.SkipDir
			}
			return nil
		}
		if !paths.IsMarkdown(path) {
			return nil
		}
		rel, relErr := paths.Rel(root, path)
		if relErr != nil {
			return nil
		}
		mu.Lock()
		found = append(found, rel)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(found)
	return found, nil
}
