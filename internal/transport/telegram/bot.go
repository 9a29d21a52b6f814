package telegram

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"quiz-schema-service/internal/app"
	"quiz-schema-service/internal/domain"
)

// Sender is the part of *tgbotapi.BotAPI the bot uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type chatSession struct {
	sessionID string
	rendered  string
}

// Bot is a Telegram view binding: every chat drives its own session of one quiz.
type Bot struct {
	api     Sender
	service *app.QuizService
	quizID  string
	log     *slog.Logger

	mu    sync.Mutex
	chats map[int64]*chatSession
}

func NewBot(api Sender, service *app.QuizService, quizID string, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		api:     api,
		service: service,
		quizID:  quizID,
		log:     logger,
		chats:   make(map[int64]*chatSession),
	}
}

// Run handles updates until ctx is done or the channel closes.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		b.handleCommand(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start", "quiz":
		b.startQuiz(ctx, chatID)
	case "stop":
		b.endChat(ctx, chatID)
		b.send(tgbotapi.NewMessage(chatID, "Quiz closed. Send /quiz to start again."))
	default:
		b.send(tgbotapi.NewMessage(chatID, "Send /quiz to start the quiz."))
	}
}

func (b *Bot) startQuiz(ctx context.Context, chatID int64) {
	b.endChat(ctx, chatID)

	started, err := b.service.Start(ctx, b.quizID)
	if err != nil {
		b.log.Error("start telegram session", "chat_id", chatID, "error", err)
		b.send(tgbotapi.NewMessage(chatID, "The quiz is not available right now."))
		return
	}
	text, markup := Render(started.View)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	b.send(msg)

	b.mu.Lock()
	b.chats[chatID] = &chatSession{sessionID: started.SessionID, rendered: text + markupKey(markup)}
	b.mu.Unlock()
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Debug("answer callback", "error", err)
	}
	if cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	chatID := cb.Message.Chat.ID

	action, err := ParseCallback(cb.Data)
	if err != nil {
		b.log.Debug("ignoring callback", "chat_id", chatID, "error", err)
		return
	}

	b.mu.Lock()
	chat, ok := b.chats[chatID]
	b.mu.Unlock()
	if !ok {
		b.send(tgbotapi.NewMessage(chatID, "This quiz has expired. Send /quiz to start again."))
		return
	}

	view, err := b.service.Dispatch(ctx, chat.sessionID, action)
	if errors.Is(err, domain.ErrSessionNotFound) {
		b.forget(chatID)
		b.send(tgbotapi.NewMessage(chatID, "This quiz has expired. Send /quiz to start again."))
		return
	}
	if err != nil {
		b.log.Error("dispatch telegram action", "chat_id", chatID, "error", err)
		return
	}

	text, markup := Render(view.View)
	b.mu.Lock()
	unchanged := chat.rendered == text+markupKey(markup)
	chat.rendered = text + markupKey(markup)
	b.mu.Unlock()
	// Telegram refuses edits that change nothing, which is what rejected actions produce.
	if unchanged {
		return
	}
	b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, cb.Message.MessageID, text, markup))
}

func (b *Bot) endChat(ctx context.Context, chatID int64) {
	b.mu.Lock()
	chat, ok := b.chats[chatID]
	delete(b.chats, chatID)
	b.mu.Unlock()
	if !ok {
		return
	}
	if err := b.service.End(ctx, chat.sessionID); err != nil {
		b.log.Warn("end telegram session", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) forget(chatID int64) {
	b.mu.Lock()
	delete(b.chats, chatID)
	b.mu.Unlock()
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.log.Warn("telegram send failed", "error", err)
	}
}

func markupKey(m tgbotapi.InlineKeyboardMarkup) string {
	var key string
	for _, row := range m.InlineKeyboard {
		for _, btn := range row {
			key += "|" + btn.Text
		}
		key += "/"
	}
	return key
}
