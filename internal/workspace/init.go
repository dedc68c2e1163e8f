package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/synapse-cir/cirrepair/internal/prompts"
)

// Init creates a new .cir control directory in the current directory,
// seeding a default config.yaml and copies of the embedded prompt
// templates. A run reads the embedded templates, not these copies.
func Init(force bool) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	cirPath := filepath.Join(cwd, CIRDir)

	if _, err := os.Stat(cirPath); err == nil {
		if !force {
			return ErrWorkspaceExists
		}
		if err := os.RemoveAll(cirPath); err != nil {
			return fmt.Errorf("failed to remove existing workspace: %w", err)
		}
	}

	dirs := []string{
		cirPath,
		filepath.Join(cirPath, "prompts"),
		filepath.Join(cirPath, "prompts", "phases"),
		filepath.Join(cirPath, "prompts", "execute"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	if err := writeFile(filepath.Join(cirPath, "config.yaml"), defaultConfig); err != nil {
		return err
	}

	if err := copyPrompts(filepath.Join(cirPath, "prompts")); err != nil {
		return err
	}

	fmt.Println("Initialized .cir workspace in", cirPath)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Edit .cir/config.yaml with your test interpreter and LLM settings")
	fmt.Println("  2. Run 'cir run \"<describe the failing behavior>\"' to start a repair")

	return nil
}

func writeFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// copyPrompts seeds .cir/prompts with the embedded templates, laid out as
// prompts.GetForWorkspace looks them up.
func copyPrompts(promptsDir string) error {
	promptFiles := []string{
		"plan_wire_format.md",
		"tool_wire_format.md",
		"rootcause_wire_format.md",
		"phases/reproduce.md",
		"phases/repair_analyze.md",
		"phases/repair_patch.md",
		"phases/validate.md",
		"execute/reproduce.md",
		"execute/repair_patch.md",
		"execute/validate.md",
		"execute/analyze.md",
	}
	for _, name := range promptFiles {
		content, err := prompts.Get(name)
		if err != nil {
			return fmt.Errorf("failed to get embedded prompt %s: %w", name, err)
		}
		path := filepath.Join(promptsDir, name)
		if err := writeFile(path, content); err != nil {
			return err
		}
	}
	return nil
}

const defaultConfig = `# CIR (Controlled Iterative Repair) workspace configuration

workspace:
  path: .                  # directory under which all file IO is confined

executor:
  interpreter: "pytest"    # command used to run the test suite

llm:
  baseUrl: ""               # empty uses the provider's default endpoint
  model: "claude-sonnet-4-5"
  apiKey: ""                # or set ANTHROPIC_API_KEY / OPENAI_API_KEY
  timeout: 60s

server:
  concurrency: 4            # max concurrent runTask invocations
`
