// Package state implements SharedState, the mutable run context the
// Orchestrator owns exclusively and threads through the Planner, Executor,
// Critic, and Mediator for one runTask invocation.
package state

import (
	"strings"

	"github.com/synapse-cir/cirrepair/internal/types"
)

// CachedFile is one entry in recentFileReads: a normalized path and its
// (possibly truncated) content.
type CachedFile struct {
	Content   string
	LineCount int
}

// SharedState is created once per runTask and destroyed on return. Agents
// receive it by reference but must not retain references across calls;
// only the Orchestrator and the Executor mutate it (SPEC_FULL §5).
type SharedState struct {
	Goal                  string
	CurrentPlan           *types.PlannerOutput
	CurrentTaskIndex      int
	AttemptsOnCurrentTask int
	TotalIterations       int

	LastTestResults *types.TestResults
	ModifiedFiles   []string

	CurrentPhase types.Phase

	FailingArtifact     string
	FailingArtifactLine int

	CollectionFailureSubtype types.CollectionFailureSubtype
	CollectionFailureReason  string

	LastToolError         string
	ConsecutiveToolErrors int

	LastRootCauseAnalysis *types.RootCauseAnalysis

	RepairHistory []types.RepairAttempt

	RecentFileReads map[string]CachedFile

	StructureDiscovered bool
	FailureObserved     bool

	ReplanCount              int
	ConsecutiveEmptyTaskReplans int
	ToolCallCount            int
}

// New creates a fresh SharedState for one run, phase REPRODUCE.
func New(goal string) *SharedState {
	return &SharedState{
		Goal:            goal,
		CurrentPhase:    types.PhaseReproduce,
		RecentFileReads: make(map[string]CachedFile),
	}
}

// NormalizePath drops a leading "./", trims any trailing slash, and
// collapses runs of "/". It never allocates for a path already normalized.
func NormalizePath(path string) string {
	path = strings.TrimPrefix(path, "./")
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}
	path = strings.TrimSuffix(path, "/")
	return path
}

// AddModifiedFile normalizes path and appends it, preserving insertion order
// without duplicates.
func (s *SharedState) AddModifiedFile(path string) {
	norm := NormalizePath(path)
	for _, existing := range s.ModifiedFiles {
		if existing == norm {
			return
		}
	}
	s.ModifiedFiles = append(s.ModifiedFiles, norm)
}

// ClearModifiedFiles empties the modified-file list; called on REPLAN.
func (s *SharedState) ClearModifiedFiles() {
	s.ModifiedFiles = nil
}

// SetLastTestResults records the latest TestResults. An all-passing result
// clears all stale collection-failure metadata, since a passing run cannot
// still be blocked on a collection error from an earlier iteration.
func (s *SharedState) SetLastTestResults(tr types.TestResults) {
	s.LastTestResults = &tr
	if tr.AllPassing() {
		s.CollectionFailureSubtype = ""
		s.CollectionFailureReason = ""
		s.FailingArtifact = ""
		s.FailingArtifactLine = 0
	}
}

// CacheFileRead truncates content at MaxCachedLines with an 80/20 head-tail
// split, inserting exactly one truncation marker line, and stores it under
// the normalized path.
func (s *SharedState) CacheFileRead(path, content string) {
	norm := NormalizePath(path)
	lines := strings.Split(content, "\n")
	total := len(lines)
	if total <= types.MaxCachedLines {
		s.RecentFileReads[norm] = CachedFile{Content: content, LineCount: total}
		return
	}
	head := int(float64(types.MaxCachedLines) * 0.8)
	tail := types.MaxCachedLines - head
	kept := make([]string, 0, types.MaxCachedLines+1)
	kept = append(kept, lines[:head]...)
	kept = append(kept, types.TruncationMarker)
	kept = append(kept, lines[total-tail:]...)
	s.RecentFileReads[norm] = CachedFile{Content: strings.Join(kept, "\n"), LineCount: total}
}

// ClearFileCache resets structureDiscovered and all collection metadata;
// it does not touch recentFileReads itself.
func (s *SharedState) ClearFileCache() {
	s.StructureDiscovered = false
	s.CollectionFailureSubtype = ""
	s.CollectionFailureReason = ""
}

// SoftReset clears only collection metadata, the last tool error, and the
// consecutive tool error count. It preserves the file cache, the discovery
// flag, the last test results, the failing artifact/line, and
// lastRootCauseAnalysis — REPLAN relies on that preservation to inform the
// next plan.
func (s *SharedState) SoftReset() {
	s.CollectionFailureSubtype = ""
	s.CollectionFailureReason = ""
	s.LastToolError = ""
	s.ConsecutiveToolErrors = 0
}

// AddRepairAttempt appends to repairHistory, dropping the oldest entry once
// the FIFO cap of MaxRepairHistory is exceeded.
func (s *SharedState) AddRepairAttempt(a types.RepairAttempt) {
	s.RepairHistory = append(s.RepairHistory, a)
	if len(s.RepairHistory) > types.MaxRepairHistory {
		s.RepairHistory = s.RepairHistory[len(s.RepairHistory)-types.MaxRepairHistory:]
	}
}

// HasValidRootCauseAnalysis reports whether the stored analysis, if any, is
// marked valid. The Mediator calls this directly rather than re-validating.
func (s *SharedState) HasValidRootCauseAnalysis() bool {
	return s.LastRootCauseAnalysis != nil && s.LastRootCauseAnalysis.Valid
}

// ResetTaskAttempts zeroes the per-task attempt counter; called on ADVANCE
// and REPLAN, never on RETRY.
func (s *SharedState) ResetTaskAttempts() {
	s.AttemptsOnCurrentTask = 0
}

// ValidationContext builds the types.ValidationContext a RootCauseAnalysis
// validates itself against, sourced from the current cache and analyzer
// findings.
func (s *SharedState) ValidationContext() types.ValidationContext {
	vc := types.ValidationContext{
		KnownArtifact: s.FailingArtifact,
		KnownLine:     s.FailingArtifactLine,
	}
	if s.FailingArtifact == "" {
		return vc
	}
	if cached, ok := s.RecentFileReads[NormalizePath(s.FailingArtifact)]; ok {
		vc.HasCachedContent = true
		vc.CachedContent = cached.Content
		vc.CachedLineCount = cached.LineCount
	}
	return vc
}
