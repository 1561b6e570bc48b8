package telegram

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"bookscout/internal/service"
)

// Searcher is the part of service.CatalogClient the bot needs.
type Searcher interface {
	Search(ctx context.Context, query string) ([]service.Result, error)
}

type Bot struct {
	bot           *tgbotapi.BotAPI
	searcher      Searcher
	log           *zap.Logger
	searchTimeout time.Duration
	// последняя выдача по каждому чату, для кнопок страниц и карточек
	sessions      map[int64]*searchSession
	sessionsMu    sync.Mutex
}

type searchSession struct {
	results  []service.Result
	page     int
	pageSize int
}

func NewBot(token string, searcher Searcher, log *zap.Logger, searchTimeout time.Duration) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	bot.Debug = false
	log.Info("telegram bot authorized", zap.String("username", bot.Self.UserName))

	return &Bot{
		bot:           bot,
		searcher:      searcher,
		log:           log,
		searchTimeout: searchTimeout,
		sessions:      make(map[int64]*searchSession),
	}, nil
}

// Start polls for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.bot.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message != nil {
				b.handleMessage(ctx, update.Message)
			}
			if update.CallbackQuery != nil {
				b.handleCallback(update.CallbackQuery)
			}
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() && msg.Command() == "start" {
		b.sendMessage(msg.Chat.ID, "Hi! Send me a title or an author and I'll look it up.")
		return
	}

	query := strings.TrimSpace(msg.Text)
	chatID := msg.Chat.ID
	if query == "" {
		return
	}

	b.sendMessage(chatID, "🔎 Searching: "+query+"...")

	if b.searchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.searchTimeout)
		defer cancel()
	}

	results, err := b.searcher.Search(ctx, query)
	if err != nil {
		b.sendMessage(chatID, "❌ Search failed, the catalog could not be reached.")
		b.log.Error("search failed", zap.String("query", query), zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}

	if len(results) == 0 {
		b.sendMessage(chatID, "😔 Nothing found.")
		return
	}

	b.storeSession(chatID, results)
	b.sendResultsPage(chatID, 0)
}

func (b *Bot) storeSession(chatID int64, results []service.Result) {
	b.sessionsMu.Lock()
	defer b.sessionsMu.Unlock()

	b.sessions[chatID] = &searchSession{
		results:  results,
		page:     0,
		pageSize: defaultPageSize,
	}
}

func (b *Bot) getSession(chatID int64) (*searchSession, bool) {
	b.sessionsMu.Lock()
	defer b.sessionsMu.Unlock()

	session, ok := b.sessions[chatID]
	return session, ok
}

func (b *Bot) findResult(chatID int64, index int) (service.Result, bool) {
	session, ok := b.getSession(chatID)
	if !ok || index < 0 || index >= len(session.results) {
		return service.Result{}, false
	}
	return session.results[index], true
}

func (b *Bot) buildPage(chatID int64, page int) (string, tgbotapi.InlineKeyboardMarkup, bool) {
	session, ok := b.getSession(chatID)
	if !ok || len(session.results) == 0 {
		return "", tgbotapi.InlineKeyboardMarkup{}, false
	}

	text, markup, page := resultsPage(session.results, page, session.pageSize)

	b.sessionsMu.Lock()
	if session, ok := b.sessions[chatID]; ok {
		session.page = page
	}
	b.sessionsMu.Unlock()

	return text, markup, true
}

func (b *Bot) sendResultsPage(chatID int64, page int) {
	text, markup, ok := b.buildPage(chatID, page)
	if !ok {
		b.sendMessage(chatID, "⚠️ These results expired. Send the query again.")
		return
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	b.send(msg)
}

func (b *Bot) editResultsPage(chatID int64, messageID int, page int) {
	text, markup, ok := b.buildPage(chatID, page)
	if !ok {
		b.sendMessage(chatID, "⚠️ These results expired. Send the query again.")
		return
	}

	editText := tgbotapi.NewEditMessageText(chatID, messageID, text)
	editText.ReplyMarkup = &markup
	b.send(editText)
}

func (b *Bot) sendBookCard(chatID int64, index int) {
	result, ok := b.findResult(chatID, index)
	if !ok {
		b.sendMessage(chatID, "⚠️ These results expired. Send the query again.")
		return
	}

	caption := bookCaption(result)

	if result.Book.CoverImage != "" {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(result.Book.CoverImage))
		photo.Caption = caption
		_, err := b.bot.Send(photo)
		if err == nil {
			return
		}
		// Telegram не смог скачать обложку, отправляем просто текст.
		b.log.Warn("cover upload failed", zap.String("cover", result.Book.CoverImage), zap.Error(err))
	}

	b.sendMessage(chatID, caption)
}

func (b *Bot) handleCallback(cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		return
	}

	chatID := cb.Message.Chat.ID
	data := cb.Data

	if strings.HasPrefix(data, cbPagePrefix) {
		b.answer(cb.ID, "Turning the page…")

		page, err := strconv.Atoi(strings.TrimPrefix(data, cbPagePrefix))
		if err != nil {
			b.sendMessage(chatID, "⚠️ Could not switch the page.")
			b.log.Warn("invalid page callback", zap.String("data", data))
			return
		}

		b.editResultsPage(chatID, cb.Message.MessageID, page)
		return
	}

	if strings.HasPrefix(data, cbBookPrefix) {
		b.answer(cb.ID, "Opening…")

		index, err := strconv.Atoi(strings.TrimPrefix(data, cbBookPrefix))
		if err != nil {
			b.log.Warn("invalid book callback", zap.String("data", data))
			return
		}

		b.sendBookCard(chatID, index)
	}
}

func (b *Bot) answer(callbackID, text string) {
	if _, err := b.bot.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		b.log.Warn("callback answer failed", zap.Error(err))
	}
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.bot.Send(c); err != nil {
		b.log.Warn("telegram send failed", zap.Error(err))
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}
