package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
)

type GoalStatus string

const (
	GoalInProgress GoalStatus = ""
	GoalCompleted  GoalStatus = "completed"
	GoalOverdue    GoalStatus = "overdue"
)

// GoalView is a goal together with its derived progress figures.
type GoalView struct {
	Index     int
	Goal      core.Goal
	Progress  decimal.Decimal
	Remaining core.Money
	Status    GoalStatus
}

// EvaluateGoal tags a goal. A reached goal is completed even past its due date.
func EvaluateGoal(g core.Goal, today core.Date) GoalStatus {
	switch {
	case g.Reached():
		return GoalCompleted
	case g.Due.Before(today):
		return GoalOverdue
	default:
		return GoalInProgress
	}
}

// GoalViews evaluates every goal in list order.
func GoalViews(goals []core.Goal, today core.Date) []GoalView {
	out := make([]GoalView, 0, len(goals))
	for i, g := range goals {
		out = append(out, GoalView{
			Index:     i + 1,
			Goal:      g,
			Progress:  g.Progress(),
			Remaining: g.Remaining(),
			Status:    EvaluateGoal(g, today),
		})
	}
	return out
}

// checkGoal validates g and, when replacing the goal at index (1-based,
// 0 for a new goal), that its name is not taken by any other goal.
func checkGoal(s *ledger.Store, index int, g core.Goal) error {
	if err := g.Validate(); err != nil {
		return err
	}
	for i, other := range s.Goals {
		if i+1 == index {
			continue
		}
		if core.SameName(other.Name, g.Name) {
			return fmt.Errorf("%w: %q", core.ErrDuplicateGoal, g.Name)
		}
	}
	return nil
}
