package tools

import "path/filepath"

// resolve anchors a relative path at the working directory so clients
// get consistent behavior regardless of the server process cwd.
func resolve(workDir, path string) string {
	if path == "" || filepath.IsAbs(path) || workDir == "" {
		return path
	}
	return filepath.Join(workDir, path)
}
