// Package filex contains local file helpers used by the CLI.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureSubdDir creates dirName under the working directory if needed and
// returns its absolute path.
func EnsureSubdDir(dirName string) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getwd: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// WriteInSubdir writes data to dirName/name under the working directory.
// name must be a plain file name.
func WriteInSubdir(dirName, name string, data []byte) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid file name %q", name)
	}

	dir, err := EnsureSubdDir(dirName)
	if err != nil {
		return "", err
	}

	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, data, 0o640); err != nil {
		return "", fmt.Errorf("write %s: %w", p, err)
	}
	return p, nil
}
