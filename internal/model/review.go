package model

import "time"

// ReviewStatus indicates where a review item is in its lifecycle.
type ReviewStatus string

// Review item statuses.
const (
	StatusPending  ReviewStatus = "pending"
	StatusResolved ReviewStatus = "resolved"
)

// Decision is the verdict a reviewer records on a pending item.
type Decision string

// Review decisions.
const (
	DecisionInclude Decision = "include"
	DecisionIgnore  Decision = "ignore"
)

// Valid reports whether d is a decision a reviewer may record.
func (d Decision) Valid() bool {
	return d == DecisionInclude || d == DecisionIgnore
}

// Action returns the classification action the decision corresponds to.
func (d Decision) Action() Action {
	if d == DecisionIgnore {
		return ActionIgnore
	}
	return ActionInclude
}

// ReviewItem is a path parked for a human decision.
type ReviewItem struct {
	CreatedAt  time.Time
	ResolvedAt *time.Time
	Metadata   map[string]string
	FilePath   string
	Reason     string
	Status     ReviewStatus
	Decision   Decision
	ID         int64
}

// Pending reports whether the item still awaits a decision.
func (r *ReviewItem) Pending() bool {
	return r.Status == StatusPending
}
