package orchestrator

import (
	"encoding/json"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/synapse-cir/cirrepair/internal/types"
)

const metadataFileName = "synapsenet_metadata.json"

// writeMetadata serializes a types.Metadata to <workspaceRoot>/synapsenet_metadata.json
// via the fs's own root, not the confined tool-execution fs, matching
// SPEC_FULL §6's "written at the workspace root".
func writeMetadata(fs afero.Fs, m types.Metadata) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return afero.WriteFile(fs, filepath.Join(".", metadataFileName), data, 0o644)
}

// logBenchmark emits exactly one structured benchmark log line per run
// (SPEC_FULL §6).
func logBenchmark(logger *zap.Logger, b types.Benchmark) {
	logger.Info("repair_benchmark",
		zap.String("case_id", b.CaseID),
		zap.Bool("resolved", b.Resolved),
		zap.Int("total_iterations", b.TotalIterations),
		zap.Int("replan_count", b.ReplanCount),
		zap.Int("tool_call_count", b.ToolCallCount),
		zap.String("failure_type", string(b.FailureType)),
		zap.String("failing_artifact", b.FailingArtifact),
		zap.Float64("wall_time_seconds", b.WallTimeSeconds),
		zap.String("final_status", b.FinalStatus),
	)
}
