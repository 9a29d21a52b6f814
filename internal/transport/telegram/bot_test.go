package telegram

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	"quiz-schema-service/internal/app"
	"quiz-schema-service/internal/domain"
	"quiz-schema-service/internal/infra/memory"
	"quiz-schema-service/internal/quiz"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []tgbotapi.Chattable
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeSender) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) last() tgbotapi.Chattable {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func newTestBot() (*Bot, *fakeSender, *memory.SessionStore) {
	sessions := memory.NewSessionStore()
	repo := memory.NewQuizRepository(memory.NewQuizStore(map[string]domain.Quiz{
		"quiz-1": {
			ID: "quiz-1",
			Definition: domain.Definition{
				Title:            "Colours",
				PassingScore:     70,
				ShowExplanations: true,
				ResultTiers:      quiz.DefaultResultTiers,
				Questions: []domain.Question{
					{Text: "Colour of the sky?", Options: []string{"Blue", "Green"}, CorrectOptionIndex: 0, Explanation: "<b>Rayleigh</b> scattering."},
					{Text: "Colour of grass?", Options: []string{"Blue", "Green"}, CorrectOptionIndex: 1},
				},
			},
		},
	}), time.Minute)
	sender := &fakeSender{}
	return NewBot(sender, app.NewQuizService(sessions, repo), "quiz-1", nil), sender, sessions
}

func command(chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 1,
		Chat:      &tgbotapi.Chat{ID: chatID},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}},
	}}
}

func callback(chatID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		Data:    data,
		Message: &tgbotapi.Message{MessageID: 1, Chat: &tgbotapi.Chat{ID: chatID}},
	}}
}

func TestBotQuizFlow(t *testing.T) {
	bot, sender, _ := newTestBot()
	ctx := context.Background()

	bot.HandleUpdate(ctx, command(42, "/quiz"))
	msg, ok := sender.last().(tgbotapi.MessageConfig)
	require.True(t, ok)
	require.Contains(t, msg.Text, "Question 1/2")
	require.Contains(t, msg.Text, "Colour of the sky?")

	bot.HandleUpdate(ctx, callback(42, "sel:0:0"))
	edit, ok := sender.last().(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	require.Equal(t, "🔘 Blue", edit.ReplyMarkup.InlineKeyboard[0][0].Text)
	require.Equal(t, "Check answer", edit.ReplyMarkup.InlineKeyboard[2][0].Text)

	bot.HandleUpdate(ctx, callback(42, "chk:0"))
	edit = sender.last().(tgbotapi.EditMessageTextConfig)
	require.Equal(t, "✅ Blue", edit.ReplyMarkup.InlineKeyboard[0][0].Text)
	require.Contains(t, edit.Text, "Rayleigh scattering.")
	require.NotContains(t, edit.Text, "<b>")

	bot.HandleUpdate(ctx, callback(42, "next"))
	bot.HandleUpdate(ctx, callback(42, "sel:1:0"))
	bot.HandleUpdate(ctx, callback(42, "finish"))
	edit = sender.last().(tgbotapi.EditMessageTextConfig)
	require.Contains(t, edit.Text, "1/2 (50%)")
	require.Contains(t, edit.Text, quiz.DefaultResultTiers.Average)
	require.Equal(t, cbReset, *edit.ReplyMarkup.InlineKeyboard[0][0].CallbackData)
}

func TestBotSkipsEditForRejectedAction(t *testing.T) {
	bot, sender, _ := newTestBot()
	ctx := context.Background()

	bot.HandleUpdate(ctx, command(7, "/quiz"))
	before := sender.count()
	// nothing selected yet, so checking is rejected and the view is unchanged
	bot.HandleUpdate(ctx, callback(7, "chk:0"))
	require.Equal(t, before, sender.count())
}

func TestBotRestartEndsPreviousSession(t *testing.T) {
	bot, _, sessions := newTestBot()
	ctx := context.Background()

	bot.HandleUpdate(ctx, command(1, "/quiz"))
	bot.HandleUpdate(ctx, command(1, "/quiz"))
	require.Equal(t, 1, sessions.Len())

	bot.HandleUpdate(ctx, command(1, "/stop"))
	require.Equal(t, 0, sessions.Len())
}

func TestBotCallbackWithoutSession(t *testing.T) {
	bot, sender, _ := newTestBot()
	bot.HandleUpdate(context.Background(), callback(99, "next"))
	msg, ok := sender.last().(tgbotapi.MessageConfig)
	require.True(t, ok)
	require.True(t, strings.Contains(msg.Text, "/quiz"))
}
