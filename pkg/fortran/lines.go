// Package fortran holds the lexical heuristics used to read fixed-form
// FORTRAN source: line predicates, statement patterns and subroutine scoping.
//
// None of this is a parser. Every function works on a single case-folded
// line and tolerates stylistic variance instead of rejecting it.
package fortran

import (
	"regexp"
	"strings"
)

// DeclarationKeywords are the type keywords that open a declaration line.
var DeclarationKeywords = []string{"INTEGER", "REAL", "CHARACTER", "LOGICAL", "DIMENSION"}

// DefaultDebugRoutines are the name prefixes of debug-output routines whose
// call lines are excluded from usage classification.
var DefaultDebugRoutines = []string{"DBG"}

var (
	subroutinePattern = regexp.MustCompile(`^\s*SUBROUTINE\s+([A-Z][A-Z0-9_]*)\s*(?:\(|$)`)
	endPattern        = regexp.MustCompile(`^\s*END\s*(?:SUBROUTINE\b.*)?$`)
	callPattern       = regexp.MustCompile(`\bCALL\s+([A-Z][A-Z0-9_]*)`)
	tokenPattern      = regexp.MustCompile(`[A-Z][A-Z0-9_]*`)
)

// Normalize case-folds a raw source line and drops a trailing carriage return.
func Normalize(line string) string {
	return strings.ToUpper(strings.TrimRight(line, "\r\n"))
}

// IsComment reports whether line is blank or starts with a comment marker.
func IsComment(line string) bool {
	if strings.TrimSpace(line) == "" {
		return true
	}
	switch line[0] {
	case 'C', 'c', '*', '!', '#':
		return true
	}
	return false
}

// IsContinuation reports whether the first non-blank character is '&'.
func IsContinuation(line string) bool {
	return strings.HasPrefix(strings.TrimLeft(line, " \t"), "&")
}

// IsDeclarationLine reports whether line starts with a type keyword followed
// by a size suffix (*n) or whitespace.
func IsDeclarationLine(line string) bool {
	s := strings.TrimLeft(line, " \t")
	end := 0
	for end < len(s) && s[end] >= 'A' && s[end] <= 'Z' {
		end++
	}
	if end == 0 || end == len(s) {
		return false
	}
	word := s[:end]
	known := false
	for _, kw := range DeclarationKeywords {
		if word == kw {
			known = true
			break
		}
	}
	if !known {
		return false
	}
	next := s[end]
	if next == ' ' || next == '\t' {
		return true
	}
	return next == '*' && end+1 < len(s) && s[end+1] >= '0' && s[end+1] <= '9'
}

// IsDebugCallLine reports whether line calls one of the debug routines.
func IsDebugCallLine(line string, debugRoutines []string) bool {
	if !strings.Contains(line, "CALL ") {
		return false
	}
	for _, prefix := range debugRoutines {
		if prefix != "" && strings.Contains(line, "CALL "+prefix) {
			return true
		}
	}
	return false
}

// SubroutineName returns the name declared by a SUBROUTINE statement.
func SubroutineName(line string) (string, bool) {
	if !strings.Contains(line, "SUBROUTINE") {
		return "", false
	}
	m := subroutinePattern.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// IsEnd reports whether line terminates a subroutine (END or END SUBROUTINE).
func IsEnd(line string) bool {
	return endPattern.MatchString(line)
}

// CallSites returns the routine names invoked by CALL statements on line, in
// left to right order.
func CallSites(line string) []string {
	if !strings.Contains(line, "CALL") {
		return nil
	}
	matches := callPattern.FindAllStringSubmatch(line, -1)
	if len(matches) == 0 {
		return nil
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// NextToken finds the first identifier in s and returns it together with the
// text that follows it. ok is false when s holds no identifier.
func NextToken(s string) (token, rest string, ok bool) {
	loc := tokenPattern.FindStringIndex(s)
	if loc == nil {
		return "", "", false
	}
	return s[loc[0]:loc[1]], s[loc[1]:], true
}
