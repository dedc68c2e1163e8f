// Package workspace locates and opens the repair target: the directory
// containing the project under repair and its .cir control directory.
// Every file operation the Executor performs goes through the afero.Fs
// Open returns, which is confined beneath the workspace root so no tool
// call can escape it via ".." or an absolute path (SPEC_FULL §5).
package workspace

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

const CIRDir = ".cir"

var ErrNoWorkspace = errors.New("no .cir workspace found (run 'cir init' first)")
var ErrWorkspaceExists = errors.New(".cir workspace already exists (use --force to overwrite)")

// Find walks up from cwd looking for a .cir directory.
func Find() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return FindFrom(dir)
}

// FindFrom walks up from start looking for a .cir directory.
func FindFrom(start string) (string, error) {
	dir := start
	for {
		cirPath := filepath.Join(dir, CIRDir)
		if info, err := os.Stat(cirPath); err == nil && info.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoWorkspace
		}
		dir = parent
	}
}

// Path returns the .cir control directory path for a workspace.
func Path(workspaceDir string) string {
	return filepath.Join(workspaceDir, CIRDir)
}

// ConfigPath returns the .cir/config.yaml path.
func ConfigPath(workspaceDir string) string {
	return filepath.Join(workspaceDir, CIRDir, "config.yaml")
}

// Open returns an afero.Fs confined beneath workspaceDir. Every path the
// Executor's tools resolve goes through this handle, so BasePathFs's own
// rejection of escaping paths is the path-traversal defense.
func Open(workspaceDir string) afero.Fs {
	return afero.NewBasePathFs(afero.NewOsFs(), workspaceDir)
}
