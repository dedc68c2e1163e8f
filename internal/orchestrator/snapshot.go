package orchestrator

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Snapshot is the captured content of every file matching the predicate at
// the moment it was taken. Exactly one outstanding snapshot exists per run;
// restoring discards it (SPEC_FULL §5).
type Snapshot struct {
	files map[string]string
}

// matchesPredicate reports whether path falls under one of cfg's source
// directories and carries its source extension, or equals the known
// failing artifact.
func matchesPredicate(path, failingArtifact string, cfg SnapshotConfig) bool {
	clean := strings.TrimPrefix(filepath.ToSlash(path), "./")
	if failingArtifact != "" && clean == strings.TrimPrefix(filepath.ToSlash(failingArtifact), "./") {
		return true
	}
	if cfg.Extension != "" && !strings.HasSuffix(clean, cfg.Extension) {
		return false
	}
	for _, dir := range cfg.SourceDirs {
		if clean == dir || strings.HasPrefix(clean, dir+"/") {
			return true
		}
	}
	return false
}

// takeSnapshot walks fs and captures the content of every file matching the
// predicate.
func takeSnapshot(fs afero.Fs, failingArtifact string, cfg SnapshotConfig) (*Snapshot, error) {
	snap := &Snapshot{files: make(map[string]string)}
	err := afero.Walk(fs, ".", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			return nil
		}
		if !matchesPredicate(path, failingArtifact, cfg) {
			return nil
		}
		data, rerr := afero.ReadFile(fs, path)
		if rerr != nil {
			return rerr
		}
		snap.files[path] = string(data)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// restoreSnapshot writes every captured file back to fs, then deletes any
// file that matches the same predicate but was not captured — undoing
// files the repair created (SPEC_FULL §4.1).
func restoreSnapshot(fs afero.Fs, snap *Snapshot, failingArtifact string, cfg SnapshotConfig) error {
	for path, content := range snap.files {
		if dir := filepath.Dir(path); dir != "." {
			if err := fs.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
			return err
		}
	}

	var toDelete []string
	err := afero.Walk(fs, ".", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			return nil
		}
		if !matchesPredicate(path, failingArtifact, cfg) {
			return nil
		}
		if _, captured := snap.files[path]; captured {
			return nil
		}
		toDelete = append(toDelete, path)
		return nil
	})
	if err != nil {
		return err
	}
	for _, path := range toDelete {
		if err := fs.Remove(path); err != nil {
			return err
		}
	}
	return nil
}
