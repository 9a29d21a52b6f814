package render

import (
	"bytes"
	"strings"
	"testing"

	"quiz-schema-service/internal/domain"
	"quiz-schema-service/internal/quiz"
	"quiz-schema-service/internal/schema"
)

func sampleDefinition() domain.Definition {
	return domain.Definition{
		Title:            "Capitals <quiz>",
		Description:      `<p>Pick one<script>x()</script></p>`,
		ShowExplanations: true,
		ResultTiers:      quiz.DefaultResultTiers,
		PassingScore:     70,
		Questions: []domain.Question{
			{Text: "France?", Options: []string{"Paris", "Rome"}, CorrectOptionIndex: 0, Explanation: "<b>Paris</b>"},
			{Text: "Italy?", Options: []string{"Paris", "Rome"}, CorrectOptionIndex: 1, ImageURL: "https://example.com/it.png"},
		},
	}
}

func TestBlockInitialState(t *testing.T) {
	def := sampleDefinition()
	r := quiz.New(&def)

	out, err := Block("quiz-1", def, r.View(), schema.Context{}, "")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(out)

	for _, want := range []string{
		`<script type="application/ld+json">`,
		`data-quiz-id="quiz-1"`,
		`Capitals &lt;quiz&gt;`,
		`<p class="dmq-quiz-description"><p>Pick one</p></p>`,
		`Question 1 of 2`,
		`width: 50.00%`,
		`src="https://example.com/it.png"`,
		`See Results`,
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in output:\n%s", want, html)
		}
	}
	if strings.Contains(html, "x()") {
		t.Fatalf("description script leaked into output")
	}
	if strings.Contains(html, "dmq-explanation") {
		t.Fatalf("explanation rendered before reveal")
	}
	if strings.Count(html, `data-question-index="1" hidden`) != 1 {
		t.Fatalf("expected second question hidden")
	}
}

func TestBlockRevealedAndComplete(t *testing.T) {
	def := sampleDefinition()
	r := quiz.New(&def)
	_ = r.SelectAnswer(0, 1)
	_ = r.CheckAnswer(0)

	out, err := Block("quiz-1", def, r.View(), schema.Context{}, "")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(out)
	if !strings.Contains(html, `class="dmq-option-btn dmq-correct"`) || !strings.Contains(html, `dmq-selected dmq-wrong`) {
		t.Fatalf("expected correct and wrong option classes:\n%s", html)
	}
	if !strings.Contains(html, `<div class="dmq-explanation"><p><b>Paris</b></p></div>`) {
		t.Fatalf("expected explanation after reveal:\n%s", html)
	}

	r.FinishQuiz()
	out, _ = Block("quiz-1", def, r.View(), schema.Context{}, "")
	if !strings.Contains(string(out), "0/2 (0%)") || !strings.Contains(string(out), "Keep learning!") {
		t.Fatalf("expected results panel:\n%s", out)
	}
}

func TestBlockFormBinding(t *testing.T) {
	def := sampleDefinition()
	r := quiz.New(&def)

	out, err := Block("quiz-1", def, r.View(), schema.Context{}, "")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(string(out), "<form") {
		t.Fatalf("unexpected form without an action url")
	}

	out, err = Block("quiz-1", def, r.View(), schema.Context{}, "/quizzes/quiz-1/play")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(out)
	for _, want := range []string{
		`<form class="dmq-quiz-form" method="post" action="/quizzes/quiz-1/play">`,
		`name="action" value="selectAnswer:0:1"`,
		`name="action" value="checkAnswer:1"`,
		`name="action" value="nextQuestion"`,
		`name="action" value="finishQuiz"`,
		`name="action" value="resetQuiz"`,
		`</form>`,
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in output:\n%s", want, html)
		}
	}
}

func TestBlockWithoutQuestions(t *testing.T) {
	out, err := Block("quiz-1", domain.Definition{}, quiz.View{}, schema.Context{}, "")
	if err != nil || out != "" {
		t.Fatalf("expected empty output, got %q, %v", out, err)
	}
}

func TestPage(t *testing.T) {
	def := sampleDefinition()
	r := quiz.New(&def)
	var buf bytes.Buffer
	err := Page(&buf, domain.Quiz{ID: "quiz-1", Title: "Post", Body: "<p>Intro</p><iframe></iframe>", Definition: def}, r.View(), schema.Context{}, "")
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if !strings.Contains(buf.String(), "<p>Intro</p>") || strings.Contains(buf.String(), "iframe") {
		t.Fatalf("unexpected page body:\n%s", buf.String())
	}
}
