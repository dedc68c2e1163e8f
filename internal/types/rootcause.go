package types

import "strings"

// RootCauseAnalysis is the structured diagnosis produced in REPAIR_ANALYZE.
// It is immutable once constructed; Validate derives the Valid flag rather
// than mutating the struct, so callers build a new value from the result.
type RootCauseAnalysis struct {
	ArtifactPath            string
	ArtifactLine            int
	RootCauseSummary        string
	CausalExplanation       string
	MinimalFixStrategy      string
	ProposedSearchBlock     string
	WhyPreviousAttemptsFailed string
	Valid                   bool
	InvalidReason           string
}

// ValidationContext is the subset of SharedState the deterministic validator
// needs: the analyzer-identified artifact/line and the cached content of
// that artifact (if any).
type ValidationContext struct {
	KnownArtifact     string
	KnownLine         int
	CachedLineCount   int
	CachedContent     string
	HasCachedContent  bool
}

// Validate runs the deterministic checks from SPEC_FULL §3/§4.3 and returns
// a new RootCauseAnalysis with Valid/InvalidReason populated. It never
// mutates the receiver.
func (r RootCauseAnalysis) Validate(ctx ValidationContext) RootCauseAnalysis {
	out := r

	if strings.TrimSpace(r.RootCauseSummary) == "" ||
		strings.TrimSpace(r.CausalExplanation) == "" ||
		strings.TrimSpace(r.MinimalFixStrategy) == "" {
		out.Valid = false
		out.InvalidReason = "required text fields must be non-empty"
		return out
	}

	tolerance := LineTolerance(ctx.CachedLineCount, ctx.KnownLine, r.ArtifactLine)
	if ctx.KnownLine > 0 && r.ArtifactLine > 0 {
		delta := r.ArtifactLine - ctx.KnownLine
		if delta < 0 {
			delta = -delta
		}
		if delta > tolerance {
			out.Valid = false
			out.InvalidReason = "artifact line outside tolerance of analyzer-identified line"
			return out
		}
	}

	if r.ProposedSearchBlock != "" && ctx.HasCachedContent {
		if !SearchBlockExists(r.ProposedSearchBlock, ctx.CachedContent) {
			out.Valid = false
			out.InvalidReason = "proposed search block not found in cached file content"
			return out
		}
	}

	// Path mismatch against the analyzer heuristic is a soft check: logged
	// by the caller, never rejecting here.
	out.Valid = true
	out.InvalidReason = ""
	return out
}

// LineTolerance implements the dynamic tolerance band from SPEC_FULL §4.3
// and §9: max(cached-line-count, known-line*4, reported-line*4) * 20%,
// floored at 75.
func LineTolerance(cachedLineCount, knownLine, reportedLine int) int {
	max := cachedLineCount
	if v := knownLine * 4; v > max {
		max = v
	}
	if v := reportedLine * 4; v > max {
		max = v
	}
	tol := int(float64(max) * 0.20)
	if tol < 75 {
		tol = 75
	}
	return tol
}

// NormalizeForSearch collapses runs of whitespace, trims each line, drops
// blank lines, and strips windowing line-number prefixes ("123| " or
// "  42: "). It is idempotent: NormalizeForSearch(NormalizeForSearch(s)) ==
// NormalizeForSearch(s).
func NormalizeForSearch(s string) string {
	lines := strings.Split(s, "\n")
	var kept []string
	for _, line := range lines {
		line = stripWindowPrefix(line)
		line = collapseWhitespace(strings.TrimSpace(line))
		if line == "" {
			continue
		}
		if strings.Contains(line, truncationMarker) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// stripWindowPrefix removes a leading "NNNN| " or "NNNN: " line-number
// prefix added by the file-windowing policy, if present.
func stripWindowPrefix(line string) string {
	trimmed := strings.TrimLeft(line, " \t")
	i := 0
	for i < len(trimmed) && trimmed[i] >= '0' && trimmed[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(trimmed) {
		return line
	}
	rest := trimmed[i:]
	rest = strings.TrimLeft(rest, " \t")
	if strings.HasPrefix(rest, "| ") {
		return rest[2:]
	}
	if strings.HasPrefix(rest, ": ") {
		return rest[2:]
	}
	if strings.HasPrefix(rest, "|") {
		return rest[1:]
	}
	return line
}

func collapseWhitespace(s string) string {
	var b strings.Builder
	prevSpace := false
	for _, r := range s {
		isSpace := r == ' ' || r == '\t'
		if isSpace {
			if !prevSpace {
				b.WriteByte(' ')
			}
			prevSpace = true
			continue
		}
		prevSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// SearchBlockExists reports whether block appears in content up to
// whitespace/prefix normalization.
func SearchBlockExists(block, content string) bool {
	nb := NormalizeForSearch(block)
	if nb == "" {
		return false
	}
	nc := NormalizeForSearch(content)
	return strings.Contains(nc, nb)
}
