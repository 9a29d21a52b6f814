package quiz

import (
	"fmt"

	"quiz-schema-service/internal/domain"
)

// ProgressFraction is (current+1)/questionCount.
func (r *Runtime) ProgressFraction() float64 {
	return float64(r.state.CurrentQuestion+1) / float64(len(r.def.Questions))
}

// ProgressPercent is ProgressFraction scaled to 0..100 for a progress bar width.
func (r *Runtime) ProgressPercent() float64 {
	return r.ProgressFraction() * 100
}

func (r *Runtime) IsFirstQuestion() bool {
	return r.state.CurrentQuestion == 0
}

func (r *Runtime) IsLastQuestion() bool {
	return r.state.CurrentQuestion == len(r.def.Questions)-1
}

// IsQuestionVisible reports whether q is the one question currently shown.
func (r *Runtime) IsQuestionVisible(q int) bool {
	return q == r.state.CurrentQuestion
}

func (r *Runtime) IsRevealed(q int) bool {
	return r.validQuestion(q) && r.state.Revealed[q]
}

func (r *Runtime) IsAnswered(q int) bool {
	return r.validQuestion(q) && r.state.Answers[q] != Unanswered
}

// OptionsDisabled reports whether the options of q no longer accept selection.
func (r *Runtime) OptionsDisabled(q int) bool {
	return r.IsRevealed(q)
}

// CanCheck reports whether the check button for q is actionable.
func (r *Runtime) CanCheck(q int) bool {
	return r.IsAnswered(q) && !r.IsRevealed(q)
}

// ExplanationVisible reports whether q's explanation should be shown.
func (r *Runtime) ExplanationVisible(q int) bool {
	return r.def.ShowExplanations && r.IsRevealed(q) && r.def.Questions[q].Explanation != ""
}

// OptionState classifies option of question q for rendering.
func (r *Runtime) OptionState(q, option int) domain.OptionState {
	if !r.validQuestion(q) {
		return domain.OptionNeutral
	}
	selected := r.state.Answers[q] == option
	if r.state.Revealed[q] {
		correct := r.def.Questions[q].CorrectOptionIndex
		switch {
		case option == correct:
			return domain.OptionCorrect
		case selected:
			return domain.OptionIncorrectSelected
		}
		return domain.OptionNeutral
	}
	if selected {
		return domain.OptionSelected
	}
	return domain.OptionNeutral
}

// Percent returns round(100*score/questionCount), rounding halves up.
func (r *Runtime) Percent() int {
	return percent(r.state.Score, len(r.def.Questions))
}

func percent(score, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*score + total) / (2 * total)
}

// ResultTier maps the score percentage to a tier; boundaries belong to the higher tier.
func (r *Runtime) ResultTier() domain.Tier {
	return TierFor(r.Percent())
}

// TierFor returns the tier for a percentage.
func TierFor(pct int) domain.Tier {
	switch {
	case pct >= 90:
		return domain.TierExcellent
	case pct >= 70:
		return domain.TierGood
	case pct >= 50:
		return domain.TierAverage
	default:
		return domain.TierNeedsWork
	}
}

func (r *Runtime) ResultMessage() string {
	return r.def.ResultTiers.Message(r.ResultTier())
}

// ScoreLabel formats the score as "{score}/{total} ({pct}%)".
func (r *Runtime) ScoreLabel() string {
	return fmt.Sprintf("%d/%d (%d%%)", r.state.Score, len(r.def.Questions), r.Percent())
}

// Passed reports whether the percentage reaches the definition's passing score.
func (r *Runtime) Passed() bool {
	return r.Percent() >= r.def.PassingScore
}
