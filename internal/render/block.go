// Package render produces the server-side markup for a quiz block and its page.
package render

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"io"

	"quiz-schema-service/internal/domain"
	"quiz-schema-service/internal/quiz"
	"quiz-schema-service/internal/sanitize"
	"quiz-schema-service/internal/schema"
)

//go:embed block.html.tmpl
var blockSource string

//go:embed page.html.tmpl
var pageSource string

var templates = template.Must(template.New("block").Funcs(template.FuncMap{
	"optionClass": optionClass,
	"safeHTML":    func(s string) template.HTML { return template.HTML(sanitize.HTML(s)) },
	"inc":         func(i int) int { return i + 1 },
}).Parse(blockSource))

func init() {
	template.Must(templates.New("page").Parse(pageSource))
}

type blockData struct {
	QuizID      string
	Def         domain.Definition
	View        quiz.View
	Current     int
	Width       string
	StructData  template.HTML
	Description string
	ActionURL   string
}

// Block renders the quiz block for def in the state described by view.
// With a non-empty actionURL the controls are wrapped in a form that posts the clicked
// action there as "action=<type>[:question[:option]]".
// It returns an empty string for a definition without questions.
func Block(quizID string, def domain.Definition, view quiz.View, ctx schema.Context, actionURL string) (template.HTML, error) {
	if len(def.Questions) == 0 {
		return "", nil
	}
	tag, err := schema.ScriptTag(def, ctx)
	if err != nil {
		return "", fmt.Errorf("render structured data: %w", err)
	}
	data := blockData{
		QuizID:      quizID,
		Def:         def,
		View:        view,
		Current:     view.CurrentQuestion + 1,
		Width:       fmt.Sprintf("%.2f%%", view.ProgressPercent),
		StructData:  tag,
		Description: def.Description,
		ActionURL:   actionURL,
	}
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "block", data); err != nil {
		return "", fmt.Errorf("render block: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// Page writes a standalone HTML page holding the stored body followed by the quiz block.
func Page(w io.Writer, q domain.Quiz, view quiz.View, ctx schema.Context, actionURL string) error {
	block, err := Block(q.ID, q.Definition, view, ctx, actionURL)
	if err != nil {
		return err
	}
	return templates.ExecuteTemplate(w, "page", struct {
		Title string
		Body  template.HTML
		Block template.HTML
	}{
		Title: q.Title,
		Body:  template.HTML(sanitize.HTML(q.Body)),
		Block: block,
	})
}

func optionClass(state domain.OptionState) string {
	switch state {
	case domain.OptionSelected:
		return "dmq-option-btn dmq-selected"
	case domain.OptionCorrect:
		return "dmq-option-btn dmq-correct"
	case domain.OptionIncorrectSelected:
		return "dmq-option-btn dmq-selected dmq-wrong"
	default:
		return "dmq-option-btn"
	}
}
