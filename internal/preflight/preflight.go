package preflight

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotDirectory is returned when the scan root is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Request describes what the upcoming run will do.
type Request struct {
	Root string
	// ExportDir receives the export file; empty skips the check.
	ExportDir string
	Delete    bool
}

// CheckRoot resolves root to an absolute path and confirms it is an existing
// directory.
func CheckRoot(root string) (string, error) {
	if root == "" {
		return "", errors.New("root path is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("root %s does not exist", abs)
		}
		return "", fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("root %s: %w", abs, ErrNotDirectory)
	}
	return abs, nil
}

// RunAll executes the access checks that apply to req.
func RunAll(req Request) []Result {
	results := []Result{CheckDirectoryAccess("Scan root", req.Root, req.Delete)}
	if req.ExportDir != "" {
		results = append(results, CheckDirectoryAccess("Export directory", req.ExportDir, true))
	}
	return results
}

// CheckDirectoryAccess verifies that the directory exists and can be listed,
// and when write is set, that entries can be created or removed in it.
func CheckDirectoryAccess(name, path string, write bool) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := checkAccess(path, write); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	if write {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read ok)", path)}
}
