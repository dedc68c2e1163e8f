// Package llm is the LLM transport: a single generate(role, prompt,
// temperature) operation, implemented over either the Anthropic Messages
// API or an OpenAI-compatible endpoint, with bounded-retry transient-error
// handling. Everything above this package treats the model as an opaque
// text oracle.
package llm

import (
	"context"

	"github.com/synapse-cir/cirrepair/internal/types"
)

// Client is the transport contract every role call goes through.
type Client interface {
	// Generate invokes the model with role's canonical system preamble and
	// the given prompt/temperature, returning the raw text response.
	Generate(ctx context.Context, role types.Role, prompt string, temperature float64) (string, error)
}

// Preamble returns the stable, role-specific system preamble prepended to
// every prompt for that role. Wordings are an implementation detail, not
// part of the wire contract (SPEC_FULL §6).
func Preamble(role types.Role) string {
	switch role {
	case types.RolePlanner:
		return "You are the planning stage of an automated program-repair loop. " +
			"Respond with a single JSON object: {\"repair_steps\": [string, ...], \"reasoning\": string}. " +
			"Do not include any text outside the JSON object other than an optional fenced code block."
	case types.RoleExecutor:
		return "You are the execution stage of an automated program-repair loop. " +
			"Respond with a single JSON object: {\"reasoning\": string, \"tool_calls\": [{\"tool\": string, \"args\": object}, ...]}."
	case types.RoleCritic:
		return "You are reviewing the outcome of one repair-loop step. Respond with concise free-text critique."
	case types.RoleMediator:
		return "You are summarizing a repair-loop decision for a human operator. Respond with concise free-text."
	default:
		return ""
	}
}
