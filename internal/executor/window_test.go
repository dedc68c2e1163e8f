package executor

import (
	"strconv"
	"strings"
	"testing"
)

func buildLines(n int) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		b.WriteString("line")
		b.WriteString(strconv.Itoa(i))
		b.WriteByte('\n')
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func TestWindowFile_KnownLineCentersWindow(t *testing.T) {
	content := buildLines(300)
	out := windowFile(content, 150)
	if !strings.Contains(out, "70| line70") {
		t.Fatalf("expected window to start near line-80, got:\n%s", out[:200])
	}
	if !strings.Contains(out, "elided") {
		t.Fatal("expected elided-range summary for a centered window")
	}
}

func TestWindowFile_UnknownLineUsesFirst120(t *testing.T) {
	content := buildLines(300)
	out := windowFile(content, 0)
	if !strings.Contains(out, "1| line1") || !strings.Contains(out, "120| line120") {
		t.Fatal("expected first 120 lines to be numbered")
	}
	if strings.Contains(out, "121| line121") {
		t.Fatal("expected line 121 to be elided")
	}
}

func TestWindowFile_ShortFileNoElision(t *testing.T) {
	content := buildLines(10)
	out := windowFile(content, 0)
	if strings.Contains(out, "elided") {
		t.Fatal("a file shorter than the window should not report elision")
	}
}
