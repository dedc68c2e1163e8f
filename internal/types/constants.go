package types

// truncationMarker is inserted exactly once when a cached file read or a
// windowed excerpt elides lines. It must never appear as ordinary source
// text, so normalization treats any line containing it as noise.
const truncationMarker = "... [truncated] ..."

// TruncationMarker exposes the marker for callers that build cache entries
// (internal/state) or windowed excerpts (internal/executor).
const TruncationMarker = truncationMarker

// MaxCachedLines is the cap SharedState.cacheFileRead enforces.
const MaxCachedLines = 500

// MaxRepairHistory is the FIFO cap on SharedState.repairHistory.
const MaxRepairHistory = 5

// MaxTotalIterations is the Mediator's hard iteration cap.
const MaxTotalIterations = 20

// MaxRetriesPerTask is the Mediator's per-task retry cap before REPLAN.
const MaxRetriesPerTask = 3

// MaxConsecutiveReplans is the Orchestrator's cap on consecutive
// "no current task" replans before the run fails outright.
const MaxConsecutiveReplans = 3
