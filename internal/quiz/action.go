package quiz

import (
	"errors"
	"fmt"
)

// ErrUnknownAction is returned by Apply for an action type it does not recognize.
var ErrUnknownAction = errors.New("unknown quiz action")

// ActionType names one of the runtime's user actions.
type ActionType string

const (
	ActionSelectAnswer ActionType = "selectAnswer"
	ActionCheckAnswer  ActionType = "checkAnswer"
	ActionNextQuestion ActionType = "nextQuestion"
	ActionPrevQuestion ActionType = "prevQuestion"
	ActionFinishQuiz   ActionType = "finishQuiz"
	ActionResetQuiz    ActionType = "resetQuiz"
)

// Action is a user action as dispatched by a view binding.
type Action struct {
	Type     ActionType `json:"type"`
	Question int        `json:"question"`
	Option   int        `json:"option"`
}

// Apply dispatches a to the matching runtime action.
func (r *Runtime) Apply(a Action) error {
	switch a.Type {
	case ActionSelectAnswer:
		return r.SelectAnswer(a.Question, a.Option)
	case ActionCheckAnswer:
		return r.CheckAnswer(a.Question)
	case ActionNextQuestion:
		return r.NextQuestion()
	case ActionPrevQuestion:
		return r.PrevQuestion()
	case ActionFinishQuiz:
		r.FinishQuiz()
		return nil
	case ActionResetQuiz:
		r.Reset()
		return nil
	default:
		return fmt.Errorf("%w %q", ErrUnknownAction, a.Type)
	}
}
