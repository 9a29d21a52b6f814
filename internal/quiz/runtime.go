// Package quiz implements the per-attempt quiz runtime: a small state machine over a shared
// definition plus the derived state a view renders.
package quiz

import (
	"fmt"

	"quiz-schema-service/internal/domain"
)

// Unanswered marks a question with no selected option.
const Unanswered = -1

// State is the mutable part of one attempt. It is owned exclusively by its Runtime.
type State struct {
	CurrentQuestion int    `json:"currentQuestion"`
	Answers         []int  `json:"answers"`
	Revealed        []bool `json:"revealed"`
	Complete        bool   `json:"isComplete"`
	Score           int    `json:"score"`
}

func freshState(n int) State {
	answers := make([]int, n)
	for i := range answers {
		answers[i] = Unanswered
	}
	return State{
		Answers:  answers,
		Revealed: make([]bool, n),
	}
}

// Runtime binds one session's State to a Definition.
// It is not safe for concurrent use; callers serialize actions per runtime.
type Runtime struct {
	def   *domain.Definition
	state State
}

// New starts a session against def. The definition must have passed Load or Validate.
func New(def *domain.Definition) *Runtime {
	return &Runtime{def: def, state: freshState(def.QuestionCount())}
}

// Restore rebuilds a runtime from a previously captured state.
func Restore(def *domain.Definition, st State) (*Runtime, error) {
	n := def.QuestionCount()
	if len(st.Answers) != n || len(st.Revealed) != n {
		return nil, fmt.Errorf("restore session: state has %d answers for %d questions", len(st.Answers), n)
	}
	if st.CurrentQuestion < 0 || st.CurrentQuestion >= n {
		return nil, fmt.Errorf("restore session: current question %d out of range", st.CurrentQuestion)
	}
	for i, a := range st.Answers {
		if a != Unanswered && (a < 0 || a >= len(def.Questions[i].Options)) {
			return nil, fmt.Errorf("restore session: answer %d for question %d out of range", a, i)
		}
		if a == Unanswered && st.Revealed[i] {
			return nil, fmt.Errorf("restore session: question %d revealed without a selection", i)
		}
	}
	if st.Score < 0 || st.Score > n {
		return nil, fmt.Errorf("restore session: score %d out of range", st.Score)
	}
	if !st.Complete && st.Score != 0 {
		return nil, fmt.Errorf("restore session: score %d on an unfinished attempt", st.Score)
	}
	return &Runtime{
		def: def,
		state: State{
			CurrentQuestion: st.CurrentQuestion,
			Answers:         append([]int(nil), st.Answers...),
			Revealed:        append([]bool(nil), st.Revealed...),
			Complete:        st.Complete,
			Score:           st.Score,
		},
	}, nil
}

// Definition returns the shared definition.
func (r *Runtime) Definition() *domain.Definition {
	return r.def
}

// State returns a copy of the session state.
func (r *Runtime) State() State {
	st := r.state
	st.Answers = append([]int(nil), r.state.Answers...)
	st.Revealed = append([]bool(nil), r.state.Revealed...)
	return st
}

func (r *Runtime) validQuestion(q int) bool {
	return q >= 0 && q < len(r.def.Questions)
}

// SelectAnswer records option as the answer to question q. Selection is locked once the
// question has been revealed.
func (r *Runtime) SelectAnswer(q, option int) error {
	if !r.validQuestion(q) {
		return rejected("select answer", "question %d out of range", q)
	}
	if option < 0 || option >= len(r.def.Questions[q].Options) {
		return rejected("select answer", "option %d out of range for question %d", option, q)
	}
	if r.state.Revealed[q] {
		return rejected("select answer", "question %d already revealed", q)
	}
	r.state.Answers[q] = option
	return nil
}

// CheckAnswer reveals correctness for question q. It requires a selection and is idempotent.
func (r *Runtime) CheckAnswer(q int) error {
	if !r.validQuestion(q) {
		return rejected("check answer", "question %d out of range", q)
	}
	if r.state.Answers[q] == Unanswered {
		return rejected("check answer", "question %d has no selection", q)
	}
	r.state.Revealed[q] = true
	return nil
}

// NextQuestion advances the cursor, stopping at the last question.
func (r *Runtime) NextQuestion() error {
	if r.state.CurrentQuestion >= len(r.def.Questions)-1 {
		return rejected("next question", "already at last question")
	}
	r.state.CurrentQuestion++
	return nil
}

// PrevQuestion moves the cursor back, stopping at the first question.
func (r *Runtime) PrevQuestion() error {
	if r.state.CurrentQuestion <= 0 {
		return rejected("previous question", "already at first question")
	}
	r.state.CurrentQuestion--
	return nil
}

// FinishQuiz scores every question from scratch and marks the attempt complete.
// Unanswered questions count as incorrect.
func (r *Runtime) FinishQuiz() {
	score := 0
	for i, q := range r.def.Questions {
		if r.state.Answers[i] == q.CorrectOptionIndex {
			score++
		}
	}
	r.state.Score = score
	r.state.Complete = true
}

// Reset returns the session to its creation-time values against the same definition.
func (r *Runtime) Reset() {
	r.state = freshState(len(r.def.Questions))
}

func rejected(action, format string, args ...any) error {
	return fmt.Errorf("%s: %s: %w", action, fmt.Sprintf(format, args...), domain.ErrActionRejected)
}
