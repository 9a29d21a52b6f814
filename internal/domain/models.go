package domain

import "time"

// Tier is a score-percentage band used to pick a result message.
type Tier string

const (
	TierExcellent Tier = "excellent"
	TierGood      Tier = "good"
	TierAverage   Tier = "average"
	TierNeedsWork Tier = "needsWork"
)

// OptionState is the visual classification of one answer option.
type OptionState string

const (
	OptionNeutral           OptionState = "neutral"
	OptionSelected          OptionState = "selected-unrevealed"
	OptionCorrect           OptionState = "correct"
	OptionIncorrectSelected OptionState = "incorrect-selected"
)

// Quiz types accepted by the loader.
const (
	QuizTypeMultipleChoice = "multiple-choice"
	QuizTypeTrueFalse      = "true-false"
	QuizTypePersonality    = "personality"
)

// ResultTiers maps each tier to the message shown on the results panel.
type ResultTiers struct {
	Excellent string `json:"excellent"`
	Good      string `json:"good"`
	Average   string `json:"average"`
	NeedsWork string `json:"needsWork"`
}

// Message returns the message configured for t.
func (r ResultTiers) Message(t Tier) string {
	switch t {
	case TierExcellent:
		return r.Excellent
	case TierGood:
		return r.Good
	case TierAverage:
		return r.Average
	default:
		return r.NeedsWork
	}
}

// Author is the optional byline carried into structured data.
type Author struct {
	Name string `json:"name,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Question is a single multiple-choice question with exactly one correct option.
type Question struct {
	Text               string   `json:"question"`
	Options            []string `json:"options"`
	CorrectOptionIndex int      `json:"correctAnswer"`
	Explanation        string   `json:"explanation,omitempty"`
	ImageURL           string   `json:"imageUrl,omitempty"`
}

// Definition is the static quiz content. It is shared read-only by every session built from it.
type Definition struct {
	Title            string      `json:"quizTitle"`
	Description      string      `json:"description,omitempty"`
	QuizType         string      `json:"quizType"`
	Questions        []Question  `json:"questions"`
	PassingScore     int         `json:"passingScore"`
	ShowExplanations bool        `json:"showExplanations"`
	ResultTiers      ResultTiers `json:"resultDescriptions"`
	Author           Author      `json:"author"`
	DatePublished    string      `json:"datePublished,omitempty"`
}

// QuestionCount returns the number of questions.
func (d Definition) QuestionCount() int {
	return len(d.Questions)
}

// Quiz is a stored quiz page: the post title and body plus the quiz definition.
type Quiz struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Body       string     `json:"body,omitempty"`
	Definition Definition `json:"definition"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// CompletionEvent is emitted when a session finishes a quiz.
type CompletionEvent struct {
	QuizID      string    `json:"quizId"`
	SessionID   string    `json:"sessionId"`
	Score       int       `json:"score"`
	Total       int       `json:"total"`
	Percent     int       `json:"percent"`
	Tier        Tier      `json:"tier"`
	Passed      bool      `json:"passed"`
	CompletedAt time.Time `json:"completedAt"`
}
