package models

import (
	"sort"
	"strings"
)

// StringSet is an unordered set of names.
type StringSet map[string]struct{}

// NewStringSet creates a set holding items.
func NewStringSet(items ...string) StringSet {
	s := make(StringSet, len(items))
	for _, item := range items {
		s[item] = struct{}{}
	}
	return s
}

// Add inserts item.
func (s StringSet) Add(item string) {
	s[item] = struct{}{}
}

// Has reports whether item is in the set.
func (s StringSet) Has(item string) bool {
	_, ok := s[item]
	return ok
}

// Sorted returns the items in ascending order.
func (s StringSet) Sorted() []string {
	items := make([]string, 0, len(s))
	for item := range s {
		items = append(items, item)
	}
	sort.Strings(items)
	return items
}

// Tables are the common-block descriptors of one file.
//
// BlockMembers and MemberBlock are maintained independently: when a member
// name is declared in two blocks of the same file, MemberBlock keeps the
// later block while both member lists still contain the name.
type Tables struct {
	// Blocks lists block names in order of first declaration.
	Blocks []string `json:"blocks"`
	// BlockMembers maps a block to its members in declaration order.
	BlockMembers map[string][]string `json:"block_members"`
	// MemberBlock maps a member to its owning block (last declaration wins).
	MemberBlock map[string]string `json:"member_block"`
}

// NewTables creates empty tables.
func NewTables() *Tables {
	return &Tables{
		BlockMembers: make(map[string][]string),
		MemberBlock:  make(map[string]string),
	}
}

// Owner returns the block owning member.
func (t *Tables) Owner(member string) (string, bool) {
	block, ok := t.MemberBlock[member]
	return block, ok
}

// Qualify returns the "BLOCK.MEMBER" form of a member name.
func Qualify(block, member string) string {
	return block + "." + member
}

// SplitQualified splits a "BLOCK.MEMBER" name.
func SplitQualified(qualified string) (block, member string) {
	block, member, _ = strings.Cut(qualified, ".")
	return block, member
}

// UsageSet classifies references to common-block members as assignments or
// reads. Members are held in qualified "BLOCK.MEMBER" form.
type UsageSet struct {
	BlocksAssigned  StringSet `json:"blocks_assigned"`
	BlocksRead      StringSet `json:"blocks_read"`
	MembersAssigned StringSet `json:"members_assigned"`
	MembersRead     StringSet `json:"members_read"`
}

// NewUsageSet creates an empty usage set.
func NewUsageSet() UsageSet {
	return UsageSet{
		BlocksAssigned:  make(StringSet),
		BlocksRead:      make(StringSet),
		MembersAssigned: make(StringSet),
		MembersRead:     make(StringSet),
	}
}

// Assign records an assignment of member in block.
func (u UsageSet) Assign(block, member string) {
	u.BlocksAssigned.Add(block)
	u.MembersAssigned.Add(Qualify(block, member))
}

// Read records a read of member in block.
func (u UsageSet) Read(block, member string) {
	u.BlocksRead.Add(block)
	u.MembersRead.Add(Qualify(block, member))
}

// IsEmpty reports whether no member was referenced.
func (u UsageSet) IsEmpty() bool {
	return len(u.MembersAssigned) == 0 && len(u.MembersRead) == 0
}

// BlockUsage is one block with the members referenced in it.
type BlockUsage struct {
	Block   string   `json:"block"`
	Members []string `json:"members,omitempty"`
}

// GroupByBlock groups qualified member names by block, skipping ignored
// blocks. Blocks and members are sorted.
func GroupByBlock(blocks, members StringSet, ignored StringSet) []BlockUsage {
	grouped := make(map[string][]string)
	for block := range blocks {
		if ignored.Has(block) {
			continue
		}
		grouped[block] = nil
	}
	for _, qualified := range members.Sorted() {
		block, member := SplitQualified(qualified)
		if _, ok := grouped[block]; !ok {
			continue
		}
		grouped[block] = append(grouped[block], member)
	}

	names := make([]string, 0, len(grouped))
	for block := range grouped {
		names = append(names, block)
	}
	sort.Strings(names)

	usages := make([]BlockUsage, 0, len(names))
	for _, block := range names {
		usages = append(usages, BlockUsage{Block: block, Members: grouped[block]})
	}
	return usages
}

// Touches reports whether any non-ignored block is assigned, or read when
// includeReads is set.
func (u UsageSet) Touches(ignored StringSet, includeReads bool) bool {
	for block := range u.BlocksAssigned {
		if !ignored.Has(block) {
			return true
		}
	}
	if !includeReads {
		return false
	}
	for block := range u.BlocksRead {
		if !ignored.Has(block) {
			return true
		}
	}
	return false
}
