// Package analyzer implements the FailureAnalyzer: a regex extractor over
// merged test-runner stdout/stderr that locates the failing artifact, its
// line, and a collection-failure subtype when the suite didn't even run.
package analyzer

import (
	"regexp"
	"strings"

	"github.com/synapse-cir/cirrepair/internal/types"
)

// Finding is what the analyzer extracts from one test-runner output blob.
type Finding struct {
	Artifact                 string
	ArtifactLine              int
	CollectionFailureSubtype types.CollectionFailureSubtype
	CollectionFailureReason  string
}

var (
	// File "/abs/path/src/foo.ext", line N — capture groups explicitly
	// exclude newlines so a truncated or concatenated blob can't smuggle a
	// multi-line "path".
	pyFramePattern = regexp.MustCompile(`File "([^"\n]+)", line (\d+)`)

	// Anchored short form: src|tests|testing/path/file.ext:N:
	shortFramePattern = regexp.MustCompile(`((?:src|tests|testing)/[^\s:"\n]+):(\d+):`)

	collectingErrorPattern = regexp.MustCompile(`ERROR collecting ([^\s\n]+)`)
	failedTestPattern      = regexp.MustCompile(`FAILED ([^\s:\n]+)::\S+`)
	notFoundPattern        = regexp.MustCompile(`ERROR: not found|no tests ran|no tests collected`)

	testDirPattern   = regexp.MustCompile(`(^|/)(tests?|testing)(/|$)`)
	outOfProjectPattern = regexp.MustCompile(`(^|/)(site-packages|\.venv|venv|dist-packages|importlib/_bootstrap)(/|$)`)

	pathAnchors = []string{"/src/", "/testing/", "/tests/"}
)

// Analyze extracts a Finding from merged test-runner output, in the priority
// order documented in SPEC_FULL §4.7.
func Analyze(output string) Finding {
	if artifact, line, ok := deepestWorkspaceFrame(output); ok {
		return Finding{Artifact: artifact, ArtifactLine: line}
	}
	if m := collectingErrorPattern.FindStringSubmatch(output); len(m) > 1 {
		path := sanitizeArtifact(m[1])
		return Finding{
			Artifact:                 toWorkspaceRelative(path),
			CollectionFailureSubtype: classifySubtype(output),
			CollectionFailureReason:  "ERROR collecting " + path,
		}
	}
	if m := failedTestPattern.FindStringSubmatch(output); len(m) > 1 {
		path := sanitizeArtifact(m[1])
		return Finding{Artifact: toWorkspaceRelative(path)}
	}
	if notFoundPattern.MatchString(output) {
		return Finding{
			CollectionFailureSubtype: types.CollectionNoTestsFound,
			CollectionFailureReason:  "no tests ran or no tests collected",
		}
	}
	return Finding{}
}

// deepestWorkspaceFrame scans both supported frame formats and prefers
// source frames (not under a test directory) over test frames; within a
// category the last match wins, matching a real traceback's innermost
// frame being the one printed last.
func deepestWorkspaceFrame(output string) (string, int, bool) {
	type frame struct {
		path    string
		line    int
		isTest  bool
	}
	var frames []frame

	for _, m := range pyFramePattern.FindAllStringSubmatch(output, -1) {
		path := m[1]
		if outOfProjectPattern.MatchString(path) {
			continue
		}
		if strings.Contains(path, "\n") {
			continue
		}
		line := atoi(m[2])
		frames = append(frames, frame{path: toWorkspaceRelative(path), line: line, isTest: testDirPattern.MatchString(path)})
	}
	for _, m := range shortFramePattern.FindAllStringSubmatch(output, -1) {
		path := m[1]
		if outOfProjectPattern.MatchString(path) {
			continue
		}
		line := atoi(m[2])
		frames = append(frames, frame{path: path, line: line, isTest: testDirPattern.MatchString(path)})
	}
	if len(frames) == 0 {
		return "", 0, false
	}

	var lastSource, lastTest *frame
	for i := range frames {
		f := &frames[i]
		if f.isTest {
			lastTest = f
		} else {
			lastSource = f
		}
	}
	if lastSource != nil {
		return lastSource.path, lastSource.line, true
	}
	if lastTest != nil {
		return lastTest.path, lastTest.line, true
	}
	return "", 0, false
}

func classifySubtype(output string) types.CollectionFailureSubtype {
	lower := strings.ToLower(output)
	switch {
	case strings.Contains(lower, "importerror") || strings.Contains(lower, "modulenotfounderror"):
		return types.CollectionImportError
	case strings.Contains(lower, "syntaxerror"):
		return types.CollectionSyntaxError
	case strings.Contains(lower, "no tests ran") || strings.Contains(lower, "no tests collected"):
		return types.CollectionNoTestsFound
	default:
		return types.CollectionUnknown
	}
}

// sanitizeArtifact rejects candidates that fail the single-line sanity
// check: newlines, ">" markers, or internal spaces disqualify a match.
func sanitizeArtifact(path string) string {
	if strings.ContainsAny(path, "\n>") || strings.Contains(path, " ") {
		return ""
	}
	return path
}

// toWorkspaceRelative converts an absolute path to workspace-relative using
// the directory anchors from SPEC_FULL §4.7.
func toWorkspaceRelative(path string) string {
	for _, anchor := range pathAnchors {
		if idx := strings.Index(path, anchor); idx >= 0 {
			return path[idx+1:]
		}
	}
	return path
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return n
		}
		n = n*10 + int(c-'0')
	}
	return n
}
