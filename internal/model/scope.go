package model

// RuleScope selects which rule file a new pattern is written to.
type RuleScope string

// Rule scopes.
const (
	// ScopeGlobal targets the rule files at the watch root.
	ScopeGlobal RuleScope = "global"
	// ScopeProject targets the rule files next to a specific path.
	ScopeProject RuleScope = "project"
)

// Valid reports whether s is one of the defined scopes.
func (s RuleScope) Valid() bool {
	return s == ScopeGlobal || s == ScopeProject
}
