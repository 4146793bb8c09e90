// Package botkit wires Telegram updates received over long polling to
// registered command views.
package botkit

import (
	"context"
	"log"
	"runtime/debug"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type ViewFunc func(ctx context.Context, bot *tgbotapi.BotAPI, update tgbotapi.Update) error

type Bot struct {
	api          *tgbotapi.BotAPI
	cmdViews     map[string]ViewFunc
	chatJoinView ViewFunc
}

func New(api *tgbotapi.BotAPI) *Bot {
	return &Bot{api: api}
}

func (b *Bot) RegisterCmdView(cmd string, view ViewFunc) {
	if b.cmdViews == nil {
		b.cmdViews = make(map[string]ViewFunc)
	}
	b.cmdViews[cmd] = view
}

// RegisterChatJoinView sets the view invoked when the bot itself is added to
// a chat (the new-chat-members update).
func (b *Bot) RegisterChatJoinView(view ViewFunc) {
	b.chatJoinView = view
}

func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case update := <-updates:
			updateCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			b.handleUpdate(updateCtx, update)
			cancel()
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if p := recover(); p != nil {
			log.Printf("[ERROR] panic in view: %v\n%s", p, string(debug.Stack()))
		}
	}()

	if update.Message == nil {
		return
	}

	var view ViewFunc
	switch {
	case update.Message.IsCommand():
		cmdView, ok := b.cmdViews[update.Message.Command()]
		if !ok {
			return
		}
		view = cmdView
	case len(update.Message.NewChatMembers) > 0 && b.chatJoinView != nil:
		view = b.chatJoinView
	default:
		return
	}

	if err := view(ctx, b.api, update); err != nil {
		log.Printf("[ERROR] failed to handle update: %v", err)

		if _, err := b.api.Send(
			tgbotapi.NewMessage(update.Message.Chat.ID, "internal error"),
		); err != nil {
			log.Printf("[ERROR] failed to send error message: %v", err)
		}
	}
}
