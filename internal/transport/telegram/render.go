package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"quiz-schema-service/internal/domain"
	"quiz-schema-service/internal/quiz"
	"quiz-schema-service/internal/sanitize"
)

// Render turns a view into message text and its inline keyboard. Only the current
// question is shown; completed quizzes show the result and a restart button.
func Render(view quiz.View) (string, tgbotapi.InlineKeyboardMarkup) {
	var b strings.Builder
	b.WriteString(view.Title)
	b.WriteString("\n\n")

	if view.IsComplete && view.Result != nil {
		fmt.Fprintf(&b, "🏁 %s\n%s", view.Result.ScoreLabel, view.Result.Message)
		return b.String(), tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🔁 Try again", cbReset)),
		)
	}

	q := view.Questions[view.CurrentQuestion]
	fmt.Fprintf(&b, "❓ Question %d/%d\n\n%s", view.CurrentQuestion+1, view.QuestionCount, q.Text)
	if q.Explanation != "" {
		b.WriteString("\n\n💡 ")
		b.WriteString(sanitize.StripTags(q.Explanation))
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(q.Options)+2)
	for i, opt := range q.Options {
		label := optionMarker(opt.State) + opt.Text
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, selectData(q.Index, i)),
		))
	}
	if q.CanCheck {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Check answer", checkData(q.Index)),
		))
	}

	var nav []tgbotapi.InlineKeyboardButton
	if !view.IsFirst {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅️ Previous", cbPrev))
	}
	if view.IsLast {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("🏁 Finish", cbFinish))
	} else {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Next ➡️", cbNext))
	}
	rows = append(rows, nav)
	return b.String(), tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func optionMarker(state domain.OptionState) string {
	switch state {
	case domain.OptionSelected:
		return "🔘 "
	case domain.OptionCorrect:
		return "✅ "
	case domain.OptionIncorrectSelected:
		return "❌ "
	default:
		return ""
	}
}
