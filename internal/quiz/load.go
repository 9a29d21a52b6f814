package quiz

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"gopkg.in/go-playground/validator.v9"

	"quiz-schema-service/internal/domain"
)

// Defaults applied when a field is absent from the raw definition.
const (
	DefaultPassingScore = 70
	MinOptions          = 2
	MaxOptions          = 6
)

// DefaultResultTiers are the messages used for tiers the source leaves unset.
var DefaultResultTiers = domain.ResultTiers{
	Excellent: "You really know your stuff!",
	Good:      "Great job!",
	Average:   "Not bad!",
	NeedsWork: "Keep learning!",
}

type rawQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options" validate:"required,min=2,max=6"`
	CorrectAnswer *int     `json:"correctAnswer" validate:"omitempty,min=0"`
	Explanation   string   `json:"explanation"`
	ImageURL      string   `json:"imageUrl"`
}

type rawTiers struct {
	Excellent *string `json:"excellent"`
	Good      *string `json:"good"`
	Average   *string `json:"average"`
	NeedsWork *string `json:"needsWork"`
}

type rawDefinition struct {
	QuizTitle          string        `json:"quizTitle"`
	Description        string        `json:"description"`
	QuizType           string        `json:"quizType" validate:"omitempty,oneof=multiple-choice true-false personality"`
	Questions          []rawQuestion `json:"questions" validate:"required,min=1,dive"`
	PassingScore       *int          `json:"passingScore" validate:"omitempty,min=0,max=100"`
	ShowExplanations   *bool         `json:"showExplanations"`
	ResultDescriptions *rawTiers     `json:"resultDescriptions"`
	Author             domain.Author `json:"author"`
	DatePublished      string        `json:"datePublished"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Load builds a Definition from an untyped record, such as decoded block attributes or
// tool-call parameters.
func Load(raw map[string]any) (domain.Definition, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return domain.Definition{}, fmt.Errorf("encode raw definition: %w", err)
	}
	return LoadJSON(data)
}

// LoadJSON decodes and validates a JSON quiz definition, applying defaults for absent fields.
func LoadJSON(data []byte) (domain.Definition, error) {
	var raw rawDefinition
	if err := json.Unmarshal(data, &raw); err != nil {
		verr := &domain.ValidationError{}
		verr.Add("definition", "is not valid JSON: "+err.Error())
		return domain.Definition{}, verr
	}
	if err := check(raw); err != nil {
		return domain.Definition{}, err
	}
	return normalize(raw), nil
}

// Validate re-checks an already typed definition against the load rules.
func Validate(def domain.Definition) error {
	verr := &domain.ValidationError{}
	if len(def.Questions) == 0 {
		verr.Add("questions", "must contain at least 1 question")
	}
	for i, q := range def.Questions {
		field := fmt.Sprintf("questions[%d]", i)
		if n := len(q.Options); n < MinOptions || n > MaxOptions {
			verr.Add(field+".options", fmt.Sprintf("must have between %d and %d options, got %d", MinOptions, MaxOptions, n))
		}
		if q.CorrectOptionIndex < 0 || q.CorrectOptionIndex >= len(q.Options) {
			verr.Add(field+".correctAnswer", fmt.Sprintf("index %d is out of range", q.CorrectOptionIndex))
		}
	}
	if def.PassingScore < 0 || def.PassingScore > 100 {
		verr.Add("passingScore", "must be between 0 and 100")
	}
	return verr.OrNil()
}

func check(raw rawDefinition) error {
	verr := &domain.ValidationError{}
	if err := validatorInstance().Struct(raw); err != nil {
		fieldErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		for _, fe := range fieldErrs {
			verr.Add(fieldPath(fe.Namespace()), describe(fe))
		}
	}
	// index vs. option count is a cross-field rule the tags cannot express
	for i, q := range raw.Questions {
		if q.CorrectAnswer == nil || *q.CorrectAnswer < 0 || len(q.Options) < MinOptions {
			continue
		}
		if *q.CorrectAnswer >= len(q.Options) {
			verr.Add(fmt.Sprintf("questions[%d].correctAnswer", i),
				fmt.Sprintf("index %d is out of range for %d options", *q.CorrectAnswer, len(q.Options)))
		}
	}
	return verr.OrNil()
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return "must have at least " + fe.Param() + " items"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.Slice {
			return "must have at most " + fe.Param() + " items"
		}
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "failed " + fe.Tag() + " rule"
	}
}

func normalize(raw rawDefinition) domain.Definition {
	def := domain.Definition{
		Title:            raw.QuizTitle,
		Description:      raw.Description,
		QuizType:         raw.QuizType,
		PassingScore:     DefaultPassingScore,
		ShowExplanations: true,
		ResultTiers:      DefaultResultTiers,
		Author:           raw.Author,
		DatePublished:    raw.DatePublished,
	}
	if def.QuizType == "" {
		def.QuizType = domain.QuizTypeMultipleChoice
	}
	if raw.PassingScore != nil {
		def.PassingScore = *raw.PassingScore
	}
	if raw.ShowExplanations != nil {
		def.ShowExplanations = *raw.ShowExplanations
	}
	if t := raw.ResultDescriptions; t != nil {
		setIfPresent(&def.ResultTiers.Excellent, t.Excellent)
		setIfPresent(&def.ResultTiers.Good, t.Good)
		setIfPresent(&def.ResultTiers.Average, t.Average)
		setIfPresent(&def.ResultTiers.NeedsWork, t.NeedsWork)
	}

	def.Questions = make([]domain.Question, len(raw.Questions))
	for i, q := range raw.Questions {
		correct := 0
		if q.CorrectAnswer != nil {
			correct = *q.CorrectAnswer
		}
		def.Questions[i] = domain.Question{
			Text:               q.Question,
			Options:            append([]string(nil), q.Options...),
			CorrectOptionIndex: correct,
			Explanation:        q.Explanation,
			ImageURL:           q.ImageURL,
		}
	}
	return def
}

func setIfPresent(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
