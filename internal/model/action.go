// Package model defines the core domain models used throughout the application.
package model

// Action is the outcome of classifying a path against the rule hierarchy.
type Action string

// Classification actions.
const (
	ActionInclude Action = "include"
	ActionIgnore  Action = "ignore"
	ActionReview  Action = "review"
)

// Valid reports whether a is one of the defined actions.
func (a Action) Valid() bool {
	switch a {
	case ActionInclude, ActionIgnore, ActionReview:
		return true
	default:
		return false
	}
}

// String returns the action's wire value.
func (a Action) String() string {
	return string(a)
}
