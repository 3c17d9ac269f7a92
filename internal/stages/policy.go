package stages

// Policy decides which stage transitions are permitted.
// The zero value and Unrestricted allow every move, including moves out of
// terminal-looking stages such as hired or rejected.
type Policy struct {
	allowed map[string]map[string]bool
}

// Unrestricted returns a policy that permits any transition.
func Unrestricted() *Policy {
	return &Policy{}
}

// NewPolicy builds a strict policy from a from-stage -> to-stages table.
// A from-stage missing from the table may not move anywhere.
func NewPolicy(table map[string][]string) *Policy {
	allowed := make(map[string]map[string]bool, len(table))
	for from, tos := range table {
		set := make(map[string]bool, len(tos))
		for _, to := range tos {
			set[to] = true
		}
		allowed[from] = set
	}
	return &Policy{allowed: allowed}
}

// Restricted reports whether the policy consults a transition table.
func (p *Policy) Restricted() bool {
	return p != nil && p.allowed != nil
}

// Allows reports whether moving from one stage to another is permitted.
func (p *Policy) Allows(from, to string) bool {
	if !p.Restricted() {
		return true
	}
	return p.allowed[from][to]
}
