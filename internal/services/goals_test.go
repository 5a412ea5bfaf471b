package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
)

func TestEvaluateGoal(t *testing.T) {
	today := core.NewDate(2025, 6, 1)

	tests := []struct {
		name string
		goal core.Goal
		want GoalStatus
	}{
		{
			name: "reached goal is completed",
			goal: core.Goal{Name: "Bike", Target: core.Money{Cents: 100000}, Current: core.Money{Cents: 100000}, Due: core.NewDate(2099, 1, 1)},
			want: GoalCompleted,
		},
		{
			name: "past due goal is overdue",
			goal: core.Goal{Name: "Car", Target: core.Money{Cents: 100000}, Current: core.Money{Cents: 50000}, Due: core.NewDate(2000, 1, 1)},
			want: GoalOverdue,
		},
		{
			name: "reached beats overdue",
			goal: core.Goal{Name: "Trip", Target: core.Money{Cents: 100}, Current: core.Money{Cents: 150}, Due: core.NewDate(2000, 1, 1)},
			want: GoalCompleted,
		},
		{
			name: "due today is still in progress",
			goal: core.Goal{Name: "Phone", Target: core.Money{Cents: 100}, Current: core.Money{Cents: 10}, Due: today},
			want: GoalInProgress,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EvaluateGoal(tt.goal, today))
		})
	}
}

func TestGoalViews(t *testing.T) {
	goals := []core.Goal{
		{Name: "Bike", Target: core.Money{Cents: 30000}, Current: core.Money{Cents: 10000}, Due: core.NewDate(2026, 1, 1)},
	}
	views := GoalViews(goals, core.NewDate(2025, 1, 1))
	if assert.Len(t, views, 1) {
		assert.Equal(t, 1, views[0].Index)
		assert.Equal(t, "33.3", views[0].Progress.String())
		assert.Equal(t, int64(20000), views[0].Remaining.Cents)
		assert.Equal(t, GoalInProgress, views[0].Status)
	}
}

func TestCheckGoalUniqueness(t *testing.T) {
	s := ledger.New()
	s.AddGoal(core.Goal{Name: "Bike", Target: core.Money{Cents: 100}, Due: core.NewDate(2026, 1, 1)})
	s.AddGoal(core.Goal{Name: "Car", Target: core.Money{Cents: 100}, Due: core.NewDate(2026, 1, 1)})

	dup := core.Goal{Name: "  bike ", Target: core.Money{Cents: 100}, Due: core.NewDate(2026, 1, 1)}
	assert.ErrorIs(t, checkGoal(s, 0, dup), core.ErrDuplicateGoal)

	// keeping its own name is not a conflict
	assert.NoError(t, checkGoal(s, 1, dup))

	// renaming onto another goal is
	assert.ErrorIs(t, checkGoal(s, 2, dup), core.ErrDuplicateGoal)

	bad := core.Goal{Name: "House", Target: core.Money{}, Due: core.NewDate(2026, 1, 1)}
	assert.ErrorIs(t, checkGoal(s, 0, bad), core.ErrInvalidTarget)

	neg := core.Goal{Name: "House", Target: core.Money{Cents: 100}, Current: core.Money{Cents: -1}, Due: core.NewDate(2026, 1, 1)}
	assert.ErrorIs(t, checkGoal(s, 0, neg), core.ErrNegativeAmount)
}
