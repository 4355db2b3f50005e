package csoarc

import (
	"path/filepath"
	"strings"
)

// SafeExtractPath reports whether an archive-recorded path is safe to
// join onto an extraction destination directory: it must not be
// absolute, must not escape the destination via "..", and must not
// contain characters that are invalid on common filesystems.
//
// NAR and PAK directories are untrusted input: a crafted path like
// "../../etc/passwd" must never reach os.Create unchecked.
func SafeExtractPath(path string) bool {
	if strings.ContainsAny(path, "<>?:*|") {
		return false
	}

	if len(path) > 0 && (path[0] == '\\' || path[0] == '/') {
		return false
	}

	path = filepath.Clean(path)

	if len(path) < 1 {
		return false
	}

	if path[0] == '\\' || path[0] == '/' {
		return false
	}

	if path[0] == '.' {
		if len(path) > 2 {
			if path[1] == '.' && (path[2] == '/' || path[2] == '\\') {
				return false
			}
		} else if len(path) > 1 {
			return !(path[1] == '.')
		}
	}

	return true
}
