package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"quiz-schema-service/internal/domain"
	"quiz-schema-service/internal/quiz"
	"quiz-schema-service/internal/schema"
)

// NewValidateCmd checks a quiz definition file against the load rules.
func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <definition.json>",
		Short: "Validate a quiz definition file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := loadDefinitionFile(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d questions, %s, pass at %d%%)\n",
				args[0], def.QuestionCount(), def.QuizType, def.PassingScore)
			return nil
		},
	}
}

// NewSchemaCmd prints the Schema.org Quiz document for a definition file.
func NewSchemaCmd() *cobra.Command {
	var sc schema.Context
	cmd := &cobra.Command{
		Use:   "schema <definition.json>",
		Short: "Print the JSON-LD structured data for a quiz definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := loadDefinitionFile(args[0])
			if err != nil {
				return err
			}
			if sc.PublishedDate == "" && def.DatePublished == "" {
				sc.PublishedDate = time.Now().UTC().Format(time.RFC3339)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(schema.ToStructuredData(def, sc))
		},
	}
	cmd.Flags().StringVar(&sc.PageURL, "url", "", "canonical page URL")
	cmd.Flags().StringVar(&sc.AuthorName, "author", "", "author name when the definition has none")
	cmd.Flags().StringVar(&sc.AuthorURL, "author-url", "", "author URL when the definition has no author")
	cmd.Flags().StringVar(&sc.PublishedDate, "date", "", "publication date (ISO 8601) when the definition has none")
	return cmd
}

func loadDefinitionFile(path string) (domain.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Definition{}, err
	}
	def, err := quiz.LoadJSON(data)
	if err != nil {
		return domain.Definition{}, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}
