package server

import (
	"path/filepath"
	"strings"
)

// resolve canonicalizes reqPath against root and confirms the result
// is a prefix-descendant of root. It resolves ".." segments and
// symlinks, so a served symlink that escapes the root is rejected
// exactly like a literal "../" path.
func resolve(root, reqPath string) (string, bool) {
	joined := filepath.Join(root, filepath.FromSlash(reqPath))
	resolved, err := filepath.EvalSymlinks(joined)
	if err != nil {
		// Missing files can't be symlink-resolved; fall back to the
		// lexically-cleaned join so a missing-file NotAllowed still
		// gets a confinement check against path traversal.
		resolved = filepath.Clean(joined)
	}
	return resolved, isDescendant(root, resolved)
}

// isDescendant reports whether candidate is root itself or nested under it.
func isDescendant(root, candidate string) bool {
	rel, err := filepath.Rel(root, candidate)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return !strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel)
}
