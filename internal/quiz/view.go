package quiz

import "quiz-schema-service/internal/domain"

// OptionView is the rendered state of one option.
type OptionView struct {
	Text  string             `json:"text"`
	State domain.OptionState `json:"state"`
}

// QuestionView is the rendered state of one question.
type QuestionView struct {
	Index       int          `json:"index"`
	Text        string       `json:"text"`
	ImageURL    string       `json:"imageUrl,omitempty"`
	Options     []OptionView `json:"options"`
	Visible     bool         `json:"visible"`
	Answered    bool         `json:"answered"`
	Revealed    bool         `json:"revealed"`
	Disabled    bool         `json:"disabled"`
	CanCheck    bool         `json:"canCheck"`
	Explanation string       `json:"explanation,omitempty"`
}

// Result is present once the quiz is complete.
type Result struct {
	Score      int         `json:"score"`
	Total      int         `json:"total"`
	Percent    int         `json:"percent"`
	ScoreLabel string      `json:"scoreLabel"`
	Tier       domain.Tier `json:"tier"`
	Message    string      `json:"message"`
	Passed     bool        `json:"passed"`
}

// View is a snapshot of the session and everything derived from it.
type View struct {
	Title           string         `json:"title"`
	QuestionCount   int            `json:"questionCount"`
	CurrentQuestion int            `json:"currentQuestion"`
	ProgressPercent float64        `json:"progressPercent"`
	IsFirst         bool           `json:"isFirst"`
	IsLast          bool           `json:"isLast"`
	IsComplete      bool           `json:"isComplete"`
	Questions       []QuestionView `json:"questions"`
	Result          *Result        `json:"result,omitempty"`
}

// View computes the current view snapshot. Explanations are only included once visible so a
// client cannot read them ahead of a reveal.
func (r *Runtime) View() View {
	v := View{
		Title:           r.def.Title,
		QuestionCount:   len(r.def.Questions),
		CurrentQuestion: r.state.CurrentQuestion,
		ProgressPercent: r.ProgressPercent(),
		IsFirst:         r.IsFirstQuestion(),
		IsLast:          r.IsLastQuestion(),
		IsComplete:      r.state.Complete,
		Questions:       make([]QuestionView, len(r.def.Questions)),
	}
	for i, q := range r.def.Questions {
		qv := QuestionView{
			Index:    i,
			Text:     q.Text,
			ImageURL: q.ImageURL,
			Options:  make([]OptionView, len(q.Options)),
			Visible:  r.IsQuestionVisible(i),
			Answered: r.IsAnswered(i),
			Revealed: r.IsRevealed(i),
			Disabled: r.OptionsDisabled(i),
			CanCheck: r.CanCheck(i),
		}
		for j, opt := range q.Options {
			qv.Options[j] = OptionView{Text: opt, State: r.OptionState(i, j)}
		}
		if r.ExplanationVisible(i) {
			qv.Explanation = q.Explanation
		}
		v.Questions[i] = qv
	}
	if r.state.Complete {
		v.Result = &Result{
			Score:      r.state.Score,
			Total:      len(r.def.Questions),
			Percent:    r.Percent(),
			ScoreLabel: r.ScoreLabel(),
			Tier:       r.ResultTier(),
			Message:    r.ResultMessage(),
			Passed:     r.Passed(),
		}
	}
	return v
}
