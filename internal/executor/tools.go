package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/synapse-cir/cirrepair/internal/analyzer"
	"github.com/synapse-cir/cirrepair/internal/state"
	"github.com/synapse-cir/cirrepair/internal/types"
)

const maxGrepResults = 100

// runTool dispatches one tool call against the workspace filesystem and
// shared state, returning the ToolResult the caller appends to the
// execution's history.
func (e *Executor) runTool(ctx context.Context, call toolCall, s *state.SharedState) types.ToolResult {
	switch call.Tool {
	case "read_file":
		return e.readFile(call, s)
	case "write_file":
		return e.writeFile(call, s)
	case "replace_in_file":
		return e.replaceInFile(call, s)
	case "grep":
		return e.grep(call)
	case "list_files":
		return e.listFiles(call, s)
	case "file_tree":
		return e.fileTree(call, s)
	case "run_tests":
		return e.runTests(ctx, call, s)
	default:
		return fail(call, fmt.Sprintf("unknown tool %q", call.Tool))
	}
}

func fail(call toolCall, msg string) types.ToolResult {
	return types.ToolResult{Tool: call.Tool, Args: call.Args, Success: false, ErrorMsg: msg}
}

func ok(call toolCall, output string) types.ToolResult {
	return types.ToolResult{Tool: call.Tool, Args: call.Args, Success: true, Output: output}
}

func stringArg(call toolCall, key string) (string, bool) {
	v, found := call.Args[key]
	if !found {
		return "", false
	}
	s, isStr := v.(string)
	return s, isStr
}

func intArg(call toolCall, key string, def int) int {
	v, found := call.Args[key]
	if !found {
		return def
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return def
	}
}

func (e *Executor) readFile(call toolCall, s *state.SharedState) types.ToolResult {
	p, found := stringArg(call, "path")
	if !found || p == "" {
		return fail(call, "read_file requires a non-empty path")
	}
	data, err := afero.ReadFile(e.fs, p)
	if err != nil {
		return fail(call, fmt.Sprintf("read_file %s: %v", p, err))
	}
	content := string(data)
	s.CacheFileRead(p, content)
	cf := s.RecentFileReads[state.NormalizePath(p)]
	return ok(call, cf.Content)
}

func (e *Executor) writeFile(call toolCall, s *state.SharedState) types.ToolResult {
	p, found := stringArg(call, "path")
	if !found || p == "" {
		return fail(call, "write_file requires a non-empty path")
	}
	content, found := stringArg(call, "content")
	if !found {
		return fail(call, "write_file requires content")
	}
	if dir := path.Dir(p); dir != "." && dir != "/" {
		if err := e.fs.MkdirAll(dir, 0o755); err != nil {
			return fail(call, fmt.Sprintf("write_file %s: %v", p, err))
		}
	}
	if err := afero.WriteFile(e.fs, p, []byte(content), 0o644); err != nil {
		return fail(call, fmt.Sprintf("write_file %s: %v", p, err))
	}
	s.AddModifiedFile(p)
	s.ClearFileCache()
	return ok(call, fmt.Sprintf("wrote %s", p))
}

func (e *Executor) replaceInFile(call toolCall, s *state.SharedState) types.ToolResult {
	p, found := stringArg(call, "path")
	if !found || p == "" {
		return fail(call, "replace_in_file requires a non-empty path")
	}
	search, found := stringArg(call, "search_block")
	if !found || search == "" {
		return fail(call, "replace_in_file requires a non-empty search_block")
	}
	replace, _ := stringArg(call, "replace_block")

	data, err := afero.ReadFile(e.fs, p)
	if err != nil {
		return fail(call, fmt.Sprintf("replace_in_file %s: %v", p, err))
	}
	content := string(data)

	newContent, matchErr := applyReplace(content, search, replace)
	if matchErr != nil {
		return fail(call, matchErr.Error())
	}

	if err := afero.WriteFile(e.fs, p, []byte(newContent), 0o644); err != nil {
		return fail(call, fmt.Sprintf("replace_in_file %s: %v", p, err))
	}
	s.AddModifiedFile(p)
	s.CacheFileRead(p, newContent)
	return ok(call, fmt.Sprintf("replaced block in %s", p))
}

// applyReplace implements the two-tier match from SPEC_FULL §4.3: an exact
// substring match first, falling back to whitespace-normalized fuzzy
// matching across candidate windows the same line-length as search. Exactly
// one match is required; zero or multiple is an error.
func applyReplace(content, search, replace string) (string, error) {
	if n := strings.Count(content, search); n == 1 {
		idx := strings.Index(content, search)
		return content[:idx] + replace + content[idx+len(search):], nil
	} else if n > 1 {
		return "", errors.New("replace_in_file: search block found multiple times")
	}

	start, end, err := fuzzyFindWindow(content, search)
	if err != nil {
		return "", err
	}
	return content[:start] + replace + content[end:], nil
}

// fuzzyFindWindow slides a window of search's line count over content's
// lines, comparing each candidate to search under whitespace
// normalization, and returns the byte offsets of the unique match.
func fuzzyFindWindow(content, search string) (int, int, error) {
	normSearch := types.NormalizeForSearch(search)
	if normSearch == "" {
		return 0, 0, errors.New("replace_in_file: search block not found")
	}

	searchLineCount := strings.Count(search, "\n") + 1
	lines := strings.Split(content, "\n")

	offsets := make([]int, len(lines)+1)
	offset := 0
	for i, l := range lines {
		offsets[i] = offset
		offset += len(l) + 1
	}
	offsets[len(lines)] = offset

	type match struct{ start, end int }
	var matches []match

	for i := 0; i+searchLineCount <= len(lines); i++ {
		windowLines := lines[i : i+searchLineCount]
		window := strings.Join(windowLines, "\n")
		if types.NormalizeForSearch(window) == normSearch {
			start := offsets[i]
			end := offsets[i+searchLineCount] - 1
			if end < start {
				end = start
			}
			if end > len(content) {
				end = len(content)
			}
			matches = append(matches, match{start: start, end: end})
		}
	}

	if len(matches) == 0 {
		snippet := firstLineSnippet(search)
		return 0, 0, fmt.Errorf("replace_in_file: search block not found (near %q)", snippet)
	}
	if len(matches) > 1 {
		return 0, 0, errors.New("replace_in_file: search block found multiple times")
	}
	return matches[0].start, matches[0].end, nil
}

func firstLineSnippet(s string) string {
	lines := strings.SplitN(strings.TrimSpace(s), "\n", 2)
	if len(lines) == 0 {
		return ""
	}
	line := lines[0]
	if len(line) > 80 {
		line = line[:80]
	}
	return line
}

func (e *Executor) grep(call toolCall) types.ToolResult {
	pattern, found := stringArg(call, "pattern")
	if !found || pattern == "" {
		return fail(call, "grep requires a non-empty pattern")
	}
	root, found := stringArg(call, "path")
	if !found || root == "" {
		root = "."
	}

	var results []string
	err := afero.Walk(e.fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			return nil
		}
		if len(results) >= maxGrepResults {
			return nil
		}
		data, rerr := afero.ReadFile(e.fs, p)
		if rerr != nil {
			return nil
		}
		for i, line := range strings.Split(string(data), "\n") {
			if len(results) >= maxGrepResults {
				break
			}
			if strings.Contains(line, pattern) {
				results = append(results, fmt.Sprintf("%s:%d:%s", p, i+1, line))
			}
		}
		return nil
	})
	if err != nil {
		return fail(call, fmt.Sprintf("grep: %v", err))
	}
	return ok(call, strings.Join(results, "\n"))
}

func (e *Executor) listFiles(call toolCall, s *state.SharedState) types.ToolResult {
	root, found := stringArg(call, "path")
	if !found || root == "" {
		root = "."
	}
	var entries []string
	infos, err := afero.ReadDir(e.fs, root)
	if err != nil {
		return fail(call, fmt.Sprintf("list_files %s: %v", root, err))
	}
	for _, info := range infos {
		name := info.Name()
		if info.IsDir() {
			name += "/"
		}
		entries = append(entries, name)
	}
	sort.Strings(entries)
	s.StructureDiscovered = true
	return ok(call, strings.Join(entries, "\n"))
}

func (e *Executor) fileTree(call toolCall, s *state.SharedState) types.ToolResult {
	root, found := stringArg(call, "path")
	if !found || root == "" {
		root = "."
	}
	depth := intArg(call, "depth", 3)

	var lines []string
	baseDepth := strings.Count(path.Clean(root), "/")
	err := afero.Walk(e.fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		d := strings.Count(path.Clean(p), "/") - baseDepth
		if d > depth {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		indent := strings.Repeat("  ", d)
		name := info.Name()
		if info.IsDir() {
			name += "/"
		}
		lines = append(lines, indent+name)
		return nil
	})
	if err != nil {
		return fail(call, fmt.Sprintf("file_tree %s: %v", root, err))
	}
	s.StructureDiscovered = true
	return ok(call, strings.Join(lines, "\n"))
}

func (e *Executor) runTests(ctx context.Context, call toolCall, s *state.SharedState) types.ToolResult {
	if e.cfg.Interpreter == "" {
		return fail(call, "run_tests: no test interpreter configured")
	}

	timeout := e.cfg.testTimeout()
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "sh", "-c", e.cfg.Interpreter)
	cmd.Dir = e.workspaceRoot

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	output := buf.String()
	exitCode := 0

	if runCtx.Err() == context.DeadlineExceeded {
		exitCode = -1
		output += "\nTIMEOUT"
	} else if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			return fail(call, fmt.Sprintf("run_tests: %v", err))
		}
	}

	ft := types.ClassifyExitCode(exitCode)
	tr := types.TestResults{
		WasRun:      true,
		RawOutput:   output,
		FailureType: ft,
	}
	if ft == types.FailureNone {
		tr.Passing = []string{"all"}
	} else {
		tr.Failing = []string{"suite"}
		tr.ErrorSnippet = lastLines(output, 20)
	}
	s.SetLastTestResults(tr)

	if ft != types.FailureNone {
		finding := analyzer.Analyze(output)
		s.FailingArtifact = finding.Artifact
		s.FailingArtifactLine = finding.ArtifactLine
		s.CollectionFailureSubtype = finding.CollectionFailureSubtype
		s.CollectionFailureReason = finding.CollectionFailureReason
	}

	return ok(call, fmt.Sprintf("exit=%d\n%s", exitCode, output))
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}
