// Package completion aggregates QA-gate results (lint, test, typecheck,
// build, ...) into a single verdict. It is the only component authorized
// to pronounce COMPLETE, folding N named gates' pass/fail counts together
// with run-id cross-checking so results from different runs never mix.
package completion

import (
	"regexp"
	"strings"

	"github.com/pmrun/pmrun/internal/model"
)

var outOfScopePattern = regexp.MustCompile(`(?i)external|integration|e2e|third[- ]?party`)

// scopeFor tags a failing test name IN_SCOPE unless it looks external.
func scopeFor(name string) model.FailingTestScope {
	if outOfScopePattern.MatchString(name) {
		return model.ScopeOutOfScope
	}
	return model.ScopeInScope
}

// mochaFailPattern matches Mocha's indented "N) test name" failure header,
// capturing the test name which may wrap onto a continuation line mocha
// indents further — we only capture the first line, flagging Truncated
// when the following line looks like a continuation (deeper indent, no
// blank line between).
var (
	mochaFailPattern = regexp.MustCompile(`^\s*\d+\)\s+(.+?)\s*:?\s*$`)
	jestFailPattern  = regexp.MustCompile(`(?i)^\s*(?:✕|✗|FAIL|fail)\s+(.+?)\s*(?:\(\d+\s*ms\))?\s*$`)
)

// ParseFailingTests extracts failing test names from raw Mocha- or
// Jest-style output. Best-effort: a name that appears to continue past the
// line boundary (the next line is a deeper-indented, non-blank
// continuation with no failure marker of its own) is still returned, with
// Truncated set so callers can detect the degraded case rather than
// silently trust a cut name (decision recorded in DESIGN.md).
func ParseFailingTests(output string) []model.FailingTest {
	lines := strings.Split(output, "\n")
	var out []model.FailingTest

	for i, line := range lines {
		var name string
		if m := mochaFailPattern.FindStringSubmatch(line); m != nil {
			name = m[1]
		} else if m := jestFailPattern.FindStringSubmatch(line); m != nil {
			name = m[1]
		} else {
			continue
		}
		if name == "" {
			continue
		}

		truncated := false
		if i+1 < len(lines) {
			next := lines[i+1]
			trimmedNext := strings.TrimSpace(next)
			if trimmedNext != "" &&
				mochaFailPattern.FindStringSubmatch(next) == nil &&
				jestFailPattern.FindStringSubmatch(next) == nil &&
				leadingSpaces(next) > leadingSpaces(line) &&
				!strings.HasPrefix(trimmedNext, "at ") {
				truncated = true
			}
		}

		out = append(out, model.FailingTest{
			Name:      strings.TrimSpace(name),
			Scope:     scopeFor(name),
			Truncated: truncated,
		})
	}

	return out
}

func leadingSpaces(s string) int {
	n := 0
	for _, r := range s {
		if r == ' ' || r == '\t' {
			n++
			continue
		}
		break
	}
	return n
}
