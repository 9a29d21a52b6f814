// Package schema maps quiz definitions to Schema.org Quiz structured data.
package schema

import (
	"bytes"
	"encoding/json"
	"html/template"

	"quiz-schema-service/internal/domain"
	"quiz-schema-service/internal/sanitize"
)

// Context carries page-level values. Author and date are fallbacks for definitions that
// leave them empty.
type Context struct {
	PageURL       string
	AuthorName    string
	AuthorURL     string
	PublishedDate string
}

type Thing struct {
	Type string `json:"@type"`
	Name string `json:"name"`
}

type Answer struct {
	Type string `json:"@type"`
	Text string `json:"text"`
}

type Person struct {
	Type string `json:"@type"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

type Question struct {
	Type            string   `json:"@type"`
	Name            string   `json:"name"`
	AcceptedAnswer  *Answer  `json:"acceptedAnswer,omitempty"`
	SuggestedAnswer []Answer `json:"suggestedAnswer,omitempty"`
}

// Quiz is the JSON-LD document.
type Quiz struct {
	Context       string     `json:"@context"`
	Type          string     `json:"@type"`
	Name          string     `json:"name,omitempty"`
	URL           string     `json:"url,omitempty"`
	About         *Thing     `json:"about,omitempty"`
	HasPart       []Question `json:"hasPart,omitempty"`
	Author        *Person    `json:"author,omitempty"`
	DatePublished string     `json:"datePublished"`
}

// ToStructuredData builds the Schema.org Quiz for def. The definition's own author and date
// win; context values fill in only when the definition leaves them empty.
func ToStructuredData(def domain.Definition, ctx Context) Quiz {
	out := Quiz{
		Context:       "https://schema.org/",
		Type:          "Quiz",
		Name:          def.Title,
		URL:           ctx.PageURL,
		DatePublished: firstNonEmpty(def.DatePublished, ctx.PublishedDate),
	}
	if def.Description != "" {
		out.About = &Thing{Type: "Thing", Name: sanitize.StripTags(def.Description)}
	}

	for _, q := range def.Questions {
		part := Question{Type: "Question", Name: q.Text}
		for i, opt := range q.Options {
			if i == q.CorrectOptionIndex {
				part.AcceptedAnswer = &Answer{Type: "Answer", Text: opt}
				continue
			}
			part.SuggestedAnswer = append(part.SuggestedAnswer, Answer{Type: "Answer", Text: opt})
		}
		out.HasPart = append(out.HasPart, part)
	}

	author := def.Author
	if author.Name == "" && ctx.AuthorName != "" {
		author = domain.Author{Name: ctx.AuthorName, URL: ctx.AuthorURL}
	}
	if author.Name != "" {
		out.Author = &Person{Type: "Person", Name: author.Name, URL: author.URL}
	}
	return out
}

// ScriptTag renders the structured data inside an ld+json script element. The encoder's
// HTML escaping keeps "</script>" in quiz text from closing the element.
func ScriptTag(def domain.Definition, ctx Context) (template.HTML, error) {
	var buf bytes.Buffer
	buf.WriteString(`<script type="application/ld+json">`)
	if err := json.NewEncoder(&buf).Encode(ToStructuredData(def, ctx)); err != nil {
		return "", err
	}
	buf.Truncate(buf.Len() - 1)
	buf.WriteString("</script>")
	return template.HTML(buf.String()), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
