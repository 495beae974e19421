package commons

import (
	"regexp"
	"sync"

	"github.com/vividroyjeong/calltree/pkg/models"
)

type memberPatterns struct {
	assignment *regexp.Regexp
	reference  *regexp.Regexp
}

// patternCache holds compiled patterns keyed by member name.
var patternCache sync.Map

func patternsFor(member string) memberPatterns {
	if p, ok := patternCache.Load(member); ok {
		return p.(memberPatterns)
	}
	name := regexp.QuoteMeta(member)
	p := memberPatterns{
		assignment: regexp.MustCompile(`(?:^|[^A-Z0-9_])` + name + `(?:[^A-Z0-9_][^=]*)?=`),
		reference:  regexp.MustCompile(`(?:^|[^A-Z0-9_])` + name + `(?:[^A-Z0-9_]|$)`),
	}
	actual, _ := patternCache.LoadOrStore(member, p)
	return actual.(memberPatterns)
}

// classifyByPattern checks every member against every line. An assignment
// match on a line wins over a reference match on the same line. Scanning for
// a member stops once it has been seen both assigned and read.
func classifyByPattern(lines []string, tables *models.Tables, usage models.UsageSet) {
	seen := make(map[string]bool)
	for _, block := range tables.Blocks {
		for _, member := range tables.BlockMembers[block] {
			if seen[member] {
				continue
			}
			seen[member] = true

			owner, ok := tables.Owner(member)
			if !ok {
				continue
			}
			p := patternsFor(member)
			qualified := models.Qualify(owner, member)
			for _, line := range lines {
				if p.assignment.MatchString(line) {
					usage.Assign(owner, member)
				} else if p.reference.MatchString(line) {
					usage.Read(owner, member)
				}
				if usage.MembersAssigned.Has(qualified) && usage.MembersRead.Has(qualified) {
					break
				}
			}
		}
	}
}
