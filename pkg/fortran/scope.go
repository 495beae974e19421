package fortran

// Declaration is a SUBROUTINE statement found in a file.
type Declaration struct {
	Name string
	Line int // zero-based index into the file's lines
}

// Declarations lists every SUBROUTINE statement in lines, in file order.
func Declarations(lines []string) []Declaration {
	var decls []Declaration
	for i, line := range lines {
		if IsComment(line) {
			continue
		}
		if name, ok := SubroutineName(line); ok {
			decls = append(decls, Declaration{Name: name, Line: i})
		}
	}
	return decls
}

// Body locates the first subroutine called name. start is the index of its
// SUBROUTINE line and end the index of its terminating END line, or
// len(lines) when the file ends first. Lines in (start, end) form the body.
func Body(lines []string, name string) (start, end int, ok bool) {
	for i, line := range lines {
		if IsComment(line) {
			continue
		}
		if decl, found := SubroutineName(line); found && decl == name {
			return i, End(lines, i), true
		}
	}
	return 0, 0, false
}

// End returns the index of the first END line after the SUBROUTINE line at
// start, or len(lines) when the file ends first.
func End(lines []string, start int) int {
	for i := start + 1; i < len(lines); i++ {
		if !IsComment(lines[i]) && IsEnd(lines[i]) {
			return i
		}
	}
	return len(lines)
}
