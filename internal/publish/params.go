package publish

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"quiz-schema-service/internal/domain"
	"quiz-schema-service/internal/quiz"
	"quiz-schema-service/internal/sanitize"
)

// QuestionParams is one question as supplied by the pipeline.
type QuestionParams struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer Int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation,omitempty"`
	ImageURL      string   `json:"imageUrl,omitempty"`
}

// Int is an integer parameter that also accepts the numeric strings tool-calling models often
// emit. A string is read up to its first non-digit, so "2" and "2nd" are 2 and "abc" is 0.
type Int int

func (n *Int) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*n = 0
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = Int(leadingInt(s))
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("expected a number, got %s", data)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return fmt.Errorf("number %s out of range", data)
	}
	*n = Int(int(f))
	return nil
}

func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	v, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return v
}

// Params is the tool-call parameter bag accepted by the publish handler.
type Params struct {
	PostTitle          string             `json:"post_title"`
	PostContent        string             `json:"post_content"`
	QuizTitle          string             `json:"quizTitle"`
	Description        string             `json:"description,omitempty"`
	QuizType           string             `json:"quizType,omitempty"`
	Questions          []QuestionParams   `json:"questions"`
	PassingScore       *Int               `json:"passingScore,omitempty"`
	ShowExplanations   *bool              `json:"showExplanations,omitempty"`
	ResultDescriptions *domain.ResultTiers `json:"resultDescriptions,omitempty"`
	DatePublished      string             `json:"datePublished,omitempty"`
}

// Definition sanitizes the quiz fields of p and loads them as a validated definition.
// Author and publish date are filled in by the handler.
func (p Params) Definition() (domain.Definition, error) {
	questions := make([]map[string]any, 0, len(p.Questions))
	for _, q := range p.Questions {
		options := make([]string, len(q.Options))
		for i, o := range q.Options {
			options[i] = sanitize.Text(o)
		}
		questions = append(questions, map[string]any{
			"question":      sanitize.Text(q.Question),
			"options":       options,
			"correctAnswer": absint(int(q.CorrectAnswer)),
			"explanation":   sanitize.HTML(q.Explanation),
			"imageUrl":      sanitize.URL(q.ImageURL),
		})
	}

	quizType := sanitize.Text(p.QuizType)
	raw := map[string]any{
		"quizTitle":   sanitize.Text(p.QuizTitle),
		"description": sanitize.HTML(p.Description),
		"quizType":    quizType,
		"questions":   questions,
	}
	if p.PassingScore != nil {
		raw["passingScore"] = absint(int(*p.PassingScore))
	}
	if p.ShowExplanations != nil {
		raw["showExplanations"] = *p.ShowExplanations
	}
	if t := p.ResultDescriptions; t != nil {
		tiers := map[string]any{}
		for key, v := range map[string]string{
			"excellent": t.Excellent,
			"good":      t.Good,
			"average":   t.Average,
			"needsWork": t.NeedsWork,
		} {
			// empty tiers fall back to the defaults
			if clean := sanitize.Text(v); clean != "" {
				tiers[key] = clean
			}
		}
		raw["resultDescriptions"] = tiers
	}
	def, err := quiz.Load(raw)
	if err != nil {
		return domain.Definition{}, err
	}
	def.DatePublished = sanitize.Text(p.DatePublished)
	return def, nil
}

// DecodeParams decodes a JSON tool-call payload.
func DecodeParams(data []byte) (Params, error) {
	var p Params
	if err := json.Unmarshal(data, &p); err != nil {
		return Params{}, fmt.Errorf("decode publish params: %w", err)
	}
	return p, nil
}

func absint(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
