package preproc

import (
	"fmt"
	"os"
	"path/filepath"
)

// includeResolver finds the file backing an #include directive,
// adapted from the teacher's pkg/cpp IncludeResolver but trimmed to
// what spec.md §4.1 actually calls for: `"quoted"` resolves relative
// to the including file's directory, `<angled>` searches the
// configured include path list in order, first hit wins. There is no
// system path list, no #pragma once, and no include-cycle bookkeeping
// — the Ent preprocessor has no conditional compilation to make a
// cyclic include merely inert, so a cycle is left to surface as
// exhausted stack depth rather than be specially detected.
type includeResolver struct {
	paths []string
}

func newIncludeResolver(paths []string) *includeResolver {
	return &includeResolver{paths: paths}
}

// resolve returns the filesystem path for an include target, or a
// fatal error if it cannot be found (spec.md §4.1: "Missing include
// target → fatal").
func (r *includeResolver) resolve(name string, angled bool, currentDir string) (string, error) {
	if !angled {
		candidate := filepath.Join(currentDir, name)
		if fileExists(candidate) {
			return candidate, nil
		}
		return "", fmt.Errorf("#include \"%s\": not found relative to %s", name, currentDir)
	}
	for _, dir := range r.paths {
		candidate := filepath.Join(dir, name)
		if fileExists(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("#include <%s>: not found in include path %v", name, r.paths)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
