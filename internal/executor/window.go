package executor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/synapse-cir/cirrepair/internal/state"
)

// windowFile renders the file-windowing policy from SPEC_FULL §4.3: around a
// known failure line, emit max(1, line-80) to min(total, line+80) with
// original line numbers, summarizing elided head/tail ranges. With no known
// line, emit the first 120 lines. Empty content yields the empty string.
func windowFile(content string, line int) string {
	if content == "" {
		return ""
	}
	lines := strings.Split(content, "\n")
	total := len(lines)

	if line <= 0 {
		end := 120
		if end > total {
			end = total
		}
		var b strings.Builder
		writeNumbered(&b, lines, 1, end)
		if end < total {
			fmt.Fprintf(&b, "... [%d more lines elided] ...\n", total-end)
		}
		return b.String()
	}

	start := line - 80
	if start < 1 {
		start = 1
	}
	stop := line + 80
	if stop > total {
		stop = total
	}

	var b strings.Builder
	if start > 1 {
		fmt.Fprintf(&b, "... [lines 1-%d elided] ...\n", start-1)
	}
	writeNumbered(&b, lines, start, stop)
	if stop < total {
		fmt.Fprintf(&b, "... [lines %d-%d elided] ...\n", stop+1, total)
	}
	return b.String()
}

// writeNumbered appends lines[start-1:stop] (1-indexed, inclusive) each
// prefixed with its original line number.
func writeNumbered(b *strings.Builder, lines []string, start, stop int) {
	for i := start; i <= stop && i <= len(lines); i++ {
		b.WriteString(strconv.Itoa(i))
		b.WriteString("| ")
		b.WriteString(lines[i-1])
		b.WriteByte('\n')
	}
}

// windowCachedArtifact renders the windowed excerpt for the failing
// artifact only, if it is cached — never all cached files (SPEC_FULL §4.3).
func windowCachedArtifact(cache map[string]state.CachedFile, artifact string, line int) (string, bool) {
	cf, ok := cache[artifact]
	if !ok {
		return "", false
	}
	return windowFile(cf.Content, line), true
}
