package commons

import (
	"fmt"
	"strings"

	"github.com/vividroyjeong/calltree/pkg/fortran"
	"github.com/vividroyjeong/calltree/pkg/models"
	"github.com/vividroyjeong/calltree/pkg/source"
)

// Strategy selects how member references are classified.
type Strategy string

const (
	// StrategyToken tokenizes each line once, left to right. The first
	// member on a line with an '=' somewhere after it is the assignment;
	// every other member on the line is a read.
	StrategyToken Strategy = "token"
	// StrategyPattern tests every line against a boundary-aware assignment
	// and reference pattern per member. Cost is members x lines.
	StrategyPattern Strategy = "pattern"
)

// ParseStrategy converts a string to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(s)) {
	case StrategyToken, "":
		return StrategyToken, nil
	case StrategyPattern:
		return StrategyPattern, nil
	default:
		return "", fmt.Errorf("unknown classification strategy %q (want token or pattern)", s)
	}
}

// Options configures classification.
type Options struct {
	Strategy      Strategy
	DebugRoutines []string
}

// DefaultOptions returns the token strategy with the default debug routines.
func DefaultOptions() Options {
	return Options{
		Strategy:      StrategyToken,
		DebugRoutines: fortran.DefaultDebugRoutines,
	}
}

// Classify reports which common-block members f assigns and reads. With an
// empty scope the whole file is classified, otherwise only the body of the
// named subroutine. Classifying an unknown scope yields an empty set.
func Classify(f *source.File, tables *models.Tables, scope string, opts Options) models.UsageSet {
	usage := models.NewUsageSet()
	if len(tables.MemberBlock) == 0 {
		return usage
	}

	lines := codeLines(scopedLines(f.Lines, scope), opts.DebugRoutines)
	switch opts.Strategy {
	case StrategyPattern:
		classifyByPattern(lines, tables, usage)
	default:
		classifyByToken(lines, tables, usage)
	}
	return usage
}

func scopedLines(lines []string, scope string) []string {
	if scope == "" {
		return lines
	}
	start, end, ok := fortran.Body(lines, scope)
	if !ok {
		return nil
	}
	return lines[start+1 : end]
}

// codeLines keeps the executable lines: no comments, no COMMON declarations
// or their continuations, no type declarations, no debug calls.
func codeLines(lines []string, debugRoutines []string) []string {
	var code []string
	inCommon := false
	for _, line := range lines {
		if fortran.IsComment(line) {
			continue
		}
		if commonKeyword.MatchString(line) {
			inCommon = true
			continue
		}
		if inCommon && fortran.IsContinuation(line) {
			continue
		}
		inCommon = false
		if fortran.IsDeclarationLine(line) || fortran.IsDebugCallLine(line, debugRoutines) {
			continue
		}
		code = append(code, line)
	}
	return code
}

// classifyByToken applies the single-pass heuristic. The assigned flag is per
// line, not per token: once one member on a line is taken as assigned, later
// members are reads even when another '=' follows them.
func classifyByToken(lines []string, tables *models.Tables, usage models.UsageSet) {
	for _, line := range lines {
		assigned := false
		rest := line
		for {
			token, after, ok := fortran.NextToken(rest)
			if !ok {
				break
			}
			rest = after
			block, known := tables.Owner(token)
			if !known {
				continue
			}
			if !assigned && strings.Contains(rest, "=") {
				usage.Assign(block, token)
				assigned = true
			} else {
				usage.Read(block, token)
			}
		}
	}
}
