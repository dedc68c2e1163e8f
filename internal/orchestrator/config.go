package orchestrator

// SnapshotConfig controls which files the workspace snapshot predicate
// captures (SPEC_FULL §4.1): files ending in the project's source
// extension under its source tree, plus the failing-artifact path
// whenever one is known. The spec leaves the exact extension and tree
// unspecified since the repaired project is arbitrary; these defaults
// match the directory anchors the FailureAnalyzer already recognizes.
type SnapshotConfig struct {
	SourceDirs []string
	Extension  string
}

func DefaultSnapshotConfig() SnapshotConfig {
	return SnapshotConfig{
		SourceDirs: []string{"src", "tests", "testing"},
		Extension:  ".py",
	}
}
