// Package notify sends optional operator alerts about transport and
// view lifecycle. The daemon is fully functional without it.
package notify

import (
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Min interval between any two Telegram messages to the same chat to
// avoid 429 Too Many Requests (~30/min limit).
const telegramSendInterval = 2 * time.Second

const queueSize = 32

// Telegram queues lifecycle alerts to a chat. Create with NewTelegram;
// a failed bot init returns nil and the caller runs without alerts.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	queue  chan string
	done   chan struct{}
}

func NewTelegram(token string, chatID int64) *Telegram {
	if token == "" || chatID == 0 {
		return nil
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		slog.Error("Failed to create telegram bot, alerts disabled", "error", err)
		return nil
	}
	bot.Debug = false

	if _, err := bot.GetMe(); err != nil {
		slog.Error("Telegram bot unreachable, alerts disabled", "error", err)
		return nil
	}

	t := &Telegram{
		bot:    bot,
		chatID: chatID,
		queue:  make(chan string, queueSize),
		done:   make(chan struct{}),
	}
	go t.sender()
	return t
}

func (t *Telegram) ConnectionUp() {
	t.enqueue("✅ Feed connection established")
}

func (t *Telegram) ConnectionDown() {
	t.enqueue("⚠️ Feed connection lost, reconnecting")
}

func (t *Telegram) ViewReloaded(reason string) {
	t.enqueue(fmt.Sprintf("🔄 Page view reloaded (%s)", reason))
}

func (t *Telegram) Close() {
	close(t.done)
}

func (t *Telegram) enqueue(text string) {
	select {
	case t.queue <- text:
	default:
		slog.Warn("Telegram alert dropped, queue full")
	}
}

func (t *Telegram) sender() {
	var lastSend time.Time
	for {
		select {
		case <-t.done:
			return
		case text := <-t.queue:
			if wait := telegramSendInterval - time.Since(lastSend); wait > 0 {
				time.Sleep(wait)
			}
			msg := tgbotapi.NewMessage(t.chatID, text)
			if _, err := t.bot.Send(msg); err != nil {
				slog.Warn("Telegram send failed", "error", err)
			}
			lastSend = time.Now()
		}
	}
}
