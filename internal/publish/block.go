package publish

import (
	"bytes"
	"encoding/json"
	"fmt"

	"quiz-schema-service/internal/domain"
)

// BlockName is the editor block that renders quizzes.
const BlockName = "data-machine-quiz/quiz-schema"

// BlockMarkup serializes def as the opening and closing block comments stored in post content.
func BlockMarkup(def domain.Definition) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	// keep < > & escaped; they must not appear raw inside an HTML comment
	if err := enc.Encode(def); err != nil {
		return "", fmt.Errorf("encode quiz block attributes: %w", err)
	}
	attrs := bytes.TrimRight(buf.Bytes(), "\n")
	// "--" would terminate the comment early
	attrs = bytes.ReplaceAll(attrs, []byte("--"), []byte(`\u002d\u002d`))

	return "<!-- wp:" + BlockName + " " + string(attrs) + " -->\n<!-- /wp:" + BlockName + " -->", nil
}
