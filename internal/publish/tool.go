package publish

// ToolParameters describes the parameters the AI pipeline must supply to the handler.
func ToolParameters() map[string]any {
	str := func(desc string) map[string]any {
		return map[string]any{"type": "string", "description": desc}
	}
	return map[string]any{
		"post_title": map[string]any{
			"type":        "string",
			"required":    true,
			"description": "The title of the blog post",
		},
		"post_content": map[string]any{
			"type":        "string",
			"required":    true,
			"description": "Quiz article content formatted as HTML paragraphs, headings and lists.",
		},
		"quizTitle": map[string]any{
			"type":        "string",
			"required":    true,
			"description": "The display name of the quiz",
		},
		"description": str("A description of the quiz"),
		"quizType": map[string]any{
			"type":        "string",
			"enum":        []string{"multiple-choice", "true-false", "personality"},
			"default":     "multiple-choice",
			"description": "Type of quiz",
		},
		"questions": map[string]any{
			"type":     "array",
			"required": true,
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"question":      map[string]any{"type": "string", "required": true},
					"options":       map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "required": true, "minItems": 2, "maxItems": 6},
					"correctAnswer": map[string]any{"type": "integer", "required": true, "minimum": 0, "description": "0-based index of correct answer"},
					"explanation":   str("Explanation shown after answering"),
					"imageUrl":      str("Optional image URL for the question"),
				},
			},
			"description": "Question objects with text, answer options, correct answer index and optional explanation/image",
		},
		"passingScore": map[string]any{
			"type":        "integer",
			"default":     70,
			"description": "Percentage score needed to pass the quiz",
		},
		"showExplanations": map[string]any{
			"type":        "boolean",
			"default":     true,
			"description": "Whether to show explanations after each answer",
		},
		"resultDescriptions": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"excellent": map[string]any{"type": "string", "default": "You really know your stuff!"},
				"good":      map[string]any{"type": "string", "default": "Great job!"},
				"average":   map[string]any{"type": "string", "default": "Not bad!"},
				"needsWork": map[string]any{"type": "string", "default": "Keep learning!"},
			},
			"description": "Score range descriptions for results (90-100%, 70-89%, 50-69%, 0-49%)",
		},
	}
}
