package domain

// CanTransition reports whether moving from one status to another is allowed
// by the given transition table. Every status-bearing entity declares its
// table once; services check transitions through this helper instead of
// re-deriving the rules inline.
func CanTransition[S comparable](table map[S][]S, from, to S) bool {
	for _, next := range table[from] {
		if next == to {
			return true
		}
	}
	return false
}
