package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActionValid(t *testing.T) {
	tests := []struct {
		name   string
		action Action
		want   bool
	}{
		{name: "include", action: ActionInclude, want: true},
		{name: "ignore", action: ActionIgnore, want: true},
		{name: "review", action: ActionReview, want: true},
		{name: "empty", action: Action(""), want: false},
		{name: "unknown", action: Action("commit"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.action.Valid())
		})
	}
}

func TestDecisionAction(t *testing.T) {
	assert.Equal(t, ActionInclude, DecisionInclude.Action())
	assert.Equal(t, ActionIgnore, DecisionIgnore.Action())
	assert.False(t, Decision("review").Valid())
	assert.False(t, Decision("").Valid())
}
