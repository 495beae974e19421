package models

// CallTreeNode is one rendered node of a call tree. A subroutine reachable
// along several paths appears once under each caller.
type CallTreeNode struct {
	Name        string          `json:"name"`
	File        string          `json:"file,omitempty"`
	Assignments []BlockUsage    `json:"assignments,omitempty"`
	Usages      []BlockUsage    `json:"usages,omitempty"`
	Recursive   bool            `json:"recursive,omitempty"`
	Callees     []*CallTreeNode `json:"callees,omitempty"`
}

// Count returns the number of nodes in the tree rooted at n.
func (n *CallTreeNode) Count() int {
	if n == nil {
		return 0
	}
	total := 1
	for _, c := range n.Callees {
		total += c.Count()
	}
	return total
}

// CommonsReport is the usage listing of one file or routine. Members are in
// qualified "BLOCK.MEMBER" form and every list is sorted.
type CommonsReport struct {
	File            string   `json:"file"`
	Routine         string   `json:"routine,omitempty"`
	BlocksAssigned  []string `json:"blocks_assigned"`
	MembersAssigned []string `json:"members_assigned"`
	BlocksRead      []string `json:"blocks_read"`
	MembersRead     []string `json:"members_read"`
}

// NewCommonsReport flattens a usage set into a report.
func NewCommonsReport(file, routine string, u UsageSet) CommonsReport {
	return CommonsReport{
		File:            file,
		Routine:         routine,
		BlocksAssigned:  u.BlocksAssigned.Sorted(),
		MembersAssigned: u.MembersAssigned.Sorted(),
		BlocksRead:      u.BlocksRead.Sorted(),
		MembersRead:     u.MembersRead.Sorted(),
	}
}

// IsEmpty reports whether no member is assigned or read.
func (r CommonsReport) IsEmpty() bool {
	return len(r.MembersAssigned) == 0 && len(r.MembersRead) == 0
}

// Cycle is a set of subroutines that call each other, directly or through
// one another.
type Cycle struct {
	Members []string `json:"members"`
}
