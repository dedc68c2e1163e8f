package orchestrator

import (
	"testing"

	"github.com/spf13/afero"
)

func TestSnapshotRestore_UndoesNewFileAndRestoresModified(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := DefaultSnapshotConfig()

	afero.WriteFile(fs, "src/a.py", []byte("original\n"), 0o644)
	afero.WriteFile(fs, "README.md", []byte("untouched by predicate\n"), 0o644)

	snap, err := takeSnapshot(fs, "", cfg)
	if err != nil {
		t.Fatalf("takeSnapshot: %v", err)
	}

	afero.WriteFile(fs, "src/a.py", []byte("modified by repair\n"), 0o644)
	afero.WriteFile(fs, "src/b.py", []byte("created by repair\n"), 0o644)

	if err := restoreSnapshot(fs, snap, "", cfg); err != nil {
		t.Fatalf("restoreSnapshot: %v", err)
	}

	data, _ := afero.ReadFile(fs, "src/a.py")
	if string(data) != "original\n" {
		t.Fatalf("expected restored content, got %q", data)
	}
	if exists, _ := afero.Exists(fs, "src/b.py"); exists {
		t.Fatal("expected repair-created file to be deleted on restore")
	}
	if exists, _ := afero.Exists(fs, "README.md"); !exists {
		t.Fatal("expected file outside predicate to be left untouched")
	}
}

func TestSnapshotPredicate_IncludesFailingArtifactRegardlessOfExtension(t *testing.T) {
	cfg := DefaultSnapshotConfig()
	if !matchesPredicate("notes.txt", "notes.txt", cfg) {
		t.Fatal("expected the known failing artifact to match regardless of extension")
	}
	if matchesPredicate("other.txt", "notes.txt", cfg) {
		t.Fatal("expected an unrelated non-source file to be excluded")
	}
}
