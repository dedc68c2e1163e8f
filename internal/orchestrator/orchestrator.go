// Package orchestrator drives one runTask invocation through the
// Controlled Iterative Repair state machine: it owns SharedState
// exclusively, calls the Planner/Executor/Critic/Mediator in sequence each
// iteration, and applies the Mediator's decision as the one place phase
// transitions, snapshots, and the repair history are mutated (SPEC_FULL
// §4.1).
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/synapse-cir/cirrepair/internal/critic"
	"github.com/synapse-cir/cirrepair/internal/executor"
	"github.com/synapse-cir/cirrepair/internal/mediator"
	"github.com/synapse-cir/cirrepair/internal/planner"
	"github.com/synapse-cir/cirrepair/internal/state"
	"github.com/synapse-cir/cirrepair/internal/types"
)

// Orchestrator wires the four components together over one workspace
// filesystem. rootFs receives the metadata file; toolFs is the executor's
// path-traversal-confined view of the repair root, which snapshot capture
// and restore also go through.
type Orchestrator struct {
	rootFs afero.Fs
	toolFs afero.Fs

	planner  *planner.Planner
	executor *executor.Executor
	critic   *critic.Critic

	logger        *zap.Logger
	snapCfg       SnapshotConfig
	caseID        string
	workspacePath string
	observer      Observer
}

// Observer lets a caller (the CLI's --verbose mode) stream the loop's
// phase transitions and mediator decisions as they happen, without the
// Orchestrator depending on a display implementation.
type Observer struct {
	OnIteration func(iteration int, phase types.Phase, task string)
	OnDecision  func(decision types.Decision, reason string)
}

func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) { o.observer = obs }
}

type Option func(*Orchestrator)

func WithSnapshotConfig(cfg SnapshotConfig) Option {
	return func(o *Orchestrator) { o.snapCfg = cfg }
}

func WithCaseID(id string) Option {
	return func(o *Orchestrator) { o.caseID = id }
}

func WithWorkspacePath(path string) Option {
	return func(o *Orchestrator) { o.workspacePath = path }
}

func New(rootFs, toolFs afero.Fs, p *planner.Planner, e *executor.Executor, c *critic.Critic, logger *zap.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		rootFs:   rootFs,
		toolFs:   toolFs,
		planner:  p,
		executor: e,
		critic:   c,
		logger:   logger,
		snapCfg:  DefaultSnapshotConfig(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunTask drives the full repair loop for goal and returns its result. It
// never panics: every component it calls already degrades to a safe value
// on transport or parse failure, so the only termination paths are
// SUCCESS, FAIL, or the hard iteration cap.
func (o *Orchestrator) RunTask(ctx context.Context, goal string) types.RunResult {
	start := time.Now()
	s := state.New(goal)
	var snapshot *Snapshot

	s.CurrentPlan = planPtr(o.planner.GeneratePlan(ctx, s))

	for {
		s.TotalIterations++

		step, hasTask := s.CurrentPlan.CurrentStep(s.CurrentTaskIndex)
		if !hasTask {
			s.ConsecutiveEmptyTaskReplans++
			if s.ConsecutiveEmptyTaskReplans >= types.MaxConsecutiveReplans {
				return o.finishFail(s, start, "Planner unable to generate valid plan")
			}
			s.SoftReset()
			s.CurrentPhase = types.PhaseReproduce
			s.CurrentPlan = planPtr(o.planner.RevisePlan(ctx, s))
			s.CurrentTaskIndex = 0
			continue
		}
		s.ConsecutiveEmptyTaskReplans = 0
		s.AttemptsOnCurrentTask++

		if o.observer.OnIteration != nil {
			o.observer.OnIteration(s.TotalIterations, s.CurrentPhase, step)
		}

		result := o.executor.Execute(ctx, step, s)
		if result.TestResults != nil {
			s.SetLastTestResults(*result.TestResults)
			if !result.TestResults.AllPassing() {
				s.FailureObserved = true
			}
		}

		feedback := o.critic.Review(ctx, result, s)
		outcome := mediator.Decide(result, feedback, s)

		if o.observer.OnDecision != nil {
			o.observer.OnDecision(outcome.Decision, outcome.Reason)
		}

		switch outcome.Decision {
		case types.DecisionSuccess:
			return o.finishSuccess(s, start, outcome.Reason)
		case types.DecisionFail:
			return o.finishFail(s, start, outcome.Reason)
		case types.DecisionAdvance:
			if err := o.applyAdvance(ctx, s, &snapshot); err != nil {
				return o.finishFail(s, start, fmt.Sprintf("snapshot failed: %v", err))
			}
		case types.DecisionRetry:
			// leave state untouched, iterate.
		case types.DecisionReplan:
			if err := o.applyReplan(ctx, s, outcome, &snapshot); err != nil {
				return o.finishFail(s, start, fmt.Sprintf("snapshot restore failed: %v", err))
			}
		}
	}
}

func planPtr(p types.PlannerOutput) *types.PlannerOutput {
	return &p
}

// applyAdvance applies the phase-transition table for ADVANCE (SPEC_FULL
// §4.1): REPRODUCE takes the snapshot (once) and clears any stale analysis
// on the way to REPAIR_ANALYZE; REPAIR_ANALYZE to REPAIR_PATCH enforces the
// no-test-rerun invariant with a fallback substitution after repeated
// violation; REPAIR_PATCH to VALIDATE just re-plans; VALIDATE advances to
// the plan's next task.
func (o *Orchestrator) applyAdvance(ctx context.Context, s *state.SharedState, snapshot **Snapshot) error {
	s.ResetTaskAttempts()

	switch s.CurrentPhase {
	case types.PhaseReproduce:
		if *snapshot == nil {
			snap, err := takeSnapshot(o.toolFs, s.FailingArtifact, o.snapCfg)
			if err != nil {
				return err
			}
			*snapshot = snap
		}
		s.LastRootCauseAnalysis = nil
		s.CurrentPhase = types.PhaseRepairAnalyze
		s.CurrentPlan = planPtr(o.planner.GeneratePlan(ctx, s))
		s.CurrentTaskIndex = 0

	case types.PhaseRepairAnalyze:
		s.CurrentPhase = types.PhaseRepairPatch
		plan := o.planner.GeneratePlan(ctx, s)
		for attempt := 0; attempt < 2 && plan.Validate(types.PhaseRepairPatch) != nil; attempt++ {
			plan = o.planner.GeneratePlan(ctx, s)
		}
		if plan.Validate(types.PhaseRepairPatch) != nil {
			plan = planner.Fallback(types.PhaseRepairPatch)
		}
		s.CurrentPlan = planPtr(plan)
		s.CurrentTaskIndex = 0

	case types.PhaseRepairPatch:
		s.CurrentPhase = types.PhaseValidate
		s.CurrentPlan = planPtr(o.planner.GeneratePlan(ctx, s))
		s.CurrentTaskIndex = 0

	case types.PhaseValidate:
		s.CurrentTaskIndex++
	}
	return nil
}

// applyReplan applies the REPLAN transition: it builds a RepairAttempt from
// live state before softReset whenever REPLAN fires from a repair phase or
// from VALIDATE (a failed validation is itself a repair-cycle outcome, per
// SPEC_FULL §3/§8 scenario S4), restores the snapshot if one exists, then
// returns to REPRODUCE with a revised plan. lastRootCauseAnalysis is
// intentionally preserved across the reset.
func (o *Orchestrator) applyReplan(ctx context.Context, s *state.SharedState, outcome mediator.Outcome, snapshot **Snapshot) error {
	s.ReplanCount++

	if s.CurrentPhase != types.PhaseReproduce {
		s.AddRepairAttempt(buildRepairAttempt(s, outcome))
	}

	if *snapshot != nil {
		if err := restoreSnapshot(o.toolFs, *snapshot, s.FailingArtifact, o.snapCfg); err != nil {
			return err
		}
		*snapshot = nil
	}

	s.ClearModifiedFiles()
	s.SoftReset()
	s.CurrentPhase = types.PhaseReproduce
	s.CurrentPlan = planPtr(o.planner.RevisePlan(ctx, s))
	s.CurrentTaskIndex = 0
	s.ResetTaskAttempts()
	return nil
}

func buildRepairAttempt(s *state.SharedState, outcome mediator.Outcome) types.RepairAttempt {
	a := types.RepairAttempt{
		Index:                   len(s.RepairHistory) + 1,
		Outcome:                 replanOutcome(s, outcome),
		ValidationFailureReason: outcome.Reason,
	}
	if s.LastRootCauseAnalysis != nil {
		a.DiagnosisSummary = s.LastRootCauseAnalysis.RootCauseSummary
		a.FixStrategy = s.LastRootCauseAnalysis.MinimalFixStrategy
	}
	if s.FailingArtifactLine > 0 {
		a.ValidationFailureLine = s.FailingArtifactLine
	}
	a.ValidationFailureSubtype = string(s.CollectionFailureSubtype)
	return a
}

// replanOutcome derives why a REPLAN fired from a repair phase or VALIDATE,
// so the RepairAttempt folded into history (and the next planner prompt)
// names the actual failure mode instead of a generic one (SPEC_FULL §3's
// RepairOutcome enum, scenarios S3/S4).
func replanOutcome(s *state.SharedState, outcome mediator.Outcome) types.RepairOutcome {
	lower := strings.ToLower(outcome.Reason)

	switch {
	case s.CurrentPhase == types.PhaseRepairAnalyze:
		if s.LastRootCauseAnalysis == nil {
			return types.OutcomeAnalysisCapExceeded
		}
		return types.OutcomeAnalysisInvalid

	case s.CurrentPhase == types.PhaseRepairPatch:
		switch {
		case strings.Contains(lower, "not found"):
			return types.OutcomeSearchFailed
		case strings.Contains(lower, "multiple times"):
			return types.OutcomeSearchAmbiguous
		default:
			return types.OutcomeNoPatch
		}

	case s.CollectionFailureSubtype == types.CollectionSyntaxError:
		return types.OutcomeSyntaxError

	default:
		return types.OutcomeValidateFailed
	}
}

func (o *Orchestrator) finishSuccess(s *state.SharedState, start time.Time, reason string) types.RunResult {
	o.exportAndLog(s, start, true, 0, "SUCCESS")
	return types.RunResult{
		Success:         true,
		TotalIterations: s.TotalIterations,
		Status:          reason,
		Details:         modifiedFilesDetails(s.ModifiedFiles),
	}
}

// modifiedFilesDetails renders the success details string per SPEC_FULL §7:
// the modified file paths, or "No files modified" when the run resolved
// without changing anything (scenario S1).
func modifiedFilesDetails(modifiedFiles []string) string {
	if len(modifiedFiles) == 0 {
		return "No files modified"
	}
	return strings.Join(modifiedFiles, ", ")
}

func (o *Orchestrator) finishFail(s *state.SharedState, start time.Time, reason string) types.RunResult {
	o.exportAndLog(s, start, false, 1, "FAIL")
	return types.RunResult{
		Success:         false,
		TotalIterations: s.TotalIterations,
		Status:          "FAIL",
		Details:         reason,
	}
}

func (o *Orchestrator) exportAndLog(s *state.SharedState, start time.Time, resolved bool, exitCode int, status string) {
	testsPassed := s.LastTestResults != nil && s.LastTestResults.AllPassing()
	meta := types.Metadata{
		Workspace:     o.workspacePath,
		ModifiedFiles: append([]string(nil), s.ModifiedFiles...),
		Iterations:    s.TotalIterations,
		Replans:       s.ReplanCount,
		TestsPassed:   testsPassed,
		ExitCode:      exitCode,
	}
	if err := writeMetadata(o.rootFs, meta); err != nil && o.logger != nil {
		o.logger.Warn("failed to write run metadata", zap.Error(err))
	}

	if o.logger == nil {
		return
	}
	var ft types.FailureType
	if s.LastTestResults != nil {
		ft = s.LastTestResults.FailureType
	}
	logBenchmark(o.logger, types.Benchmark{
		CaseID:          o.caseID,
		Resolved:        resolved,
		TotalIterations: s.TotalIterations,
		ReplanCount:     s.ReplanCount,
		ToolCallCount:   s.ToolCallCount,
		FailureType:     ft,
		FailingArtifact: s.FailingArtifact,
		WallTimeSeconds: time.Since(start).Seconds(),
		FinalStatus:     status,
	})
}
