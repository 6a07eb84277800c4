// Package paths provides canonical document location keys and path helpers.
//
// Every document opened by the editor is identified by a location key: the
// absolute, symlink-resolved, forward-slash form of its file path. Equivalent
// paths spelled differently (relative segments, symlinks, trailing dots) map
// to the same key, which is what the panel registry uses to guarantee at most
// one live panel per document.
package paths
