// Package prompts holds the embedded prompt template fragments the Planner
// and Executor compose into phase-specific LLM prompts, plus the
// @-reference mechanism that lets one fragment inline another (e.g. every
// phase template pulling in the shared plan wire format).
package prompts

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

//go:embed templates/*
var embeddedPrompts embed.FS

var atRefPattern = regexp.MustCompile(`(?m)^@([^\s]+\.md)\s*$`)

// processAtReferences resolves @path/to/file.md references, inlining the
// referenced file's (recursively processed) content. Circular references
// are short-circuited rather than recursing forever.
func processAtReferences(content string, basePath string, visited map[string]bool) string {
	if visited == nil {
		visited = make(map[string]bool)
	}

	return atRefPattern.ReplaceAllStringFunc(content, func(match string) string {
		refPath := strings.TrimPrefix(strings.TrimSpace(match), "@")

		if visited[refPath] {
			return fmt.Sprintf("<!-- CIRCULAR REFERENCE: %s -->", refPath)
		}
		visited[refPath] = true

		var refContent string
		if basePath != "" {
			if data, err := os.ReadFile(filepath.Join(basePath, refPath)); err == nil {
				refContent = string(data)
			}
		}
		if refContent == "" {
			data, err := embeddedPrompts.ReadFile("templates/" + refPath)
			if err != nil {
				return fmt.Sprintf("<!-- REFERENCE NOT FOUND: %s -->", refPath)
			}
			refContent = string(data)
		}

		return processAtReferences(refContent, basePath, visited)
	})
}

// Get returns a template's content with @-references resolved. name may
// omit the .md suffix.
func Get(name string) (string, error) {
	if !strings.HasSuffix(name, ".md") {
		name += ".md"
	}
	content, err := embeddedPrompts.ReadFile("templates/" + name)
	if err != nil {
		return "", fmt.Errorf("prompt template %s not found: %w", name, err)
	}
	return processAtReferences(string(content), "", nil), nil
}

// GetForWorkspace checks <workspaceDir>/.cir/prompts/<name> first, falling
// back to the embedded template. The planner and executor load their
// templates through Get, so on-disk copies do not change a run's prompts.
func GetForWorkspace(workspaceDir, name string) (string, error) {
	if !strings.HasSuffix(name, ".md") {
		name += ".md"
	}
	promptsDir := filepath.Join(workspaceDir, ".cir", "prompts")
	localPath := filepath.Join(promptsDir, name)

	if data, err := os.ReadFile(localPath); err == nil {
		return processAtReferences(string(data), promptsDir, nil), nil
	}

	data, err := embeddedPrompts.ReadFile("templates/" + name)
	if err != nil {
		return "", fmt.Errorf("prompt template %s not found in workspace or embedded: %w", name, err)
	}
	return processAtReferences(string(data), "", nil), nil
}

// Exists reports whether an embedded template by this name is available.
func Exists(name string) bool {
	if !strings.HasSuffix(name, ".md") {
		name += ".md"
	}
	_, err := embeddedPrompts.ReadFile("templates/" + name)
	return err == nil
}
