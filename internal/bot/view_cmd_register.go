package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/lo"

	"github.com/0x0BSoD/tweetRelay/internal/botkit"
	"github.com/0x0BSoD/tweetRelay/internal/model"
)

type SubscriberStorage interface {
	Subscribers(ctx context.Context) ([]model.Subscriber, error)
	Add(ctx context.Context, sub model.Subscriber) error
	Remove(ctx context.Context, chatID int64) error
}

// ViewCmdRegister subscribes the current chat to the relay.
func ViewCmdRegister(storage SubscriberStorage, account string) botkit.ViewFunc {
	return func(ctx context.Context, bot *tgbotapi.BotAPI, update tgbotapi.Update) error {
		chat := update.Message.Chat

		subs, err := storage.Subscribers(ctx)
		if err != nil {
			return err
		}

		if lo.ContainsBy(subs, func(s model.Subscriber) bool { return s.ChatID == chat.ID }) {
			reply := tgbotapi.NewMessage(chat.ID,
				"This chat is already registered and receives new posts automatically.")
			_, err := bot.Send(reply)
			return err
		}

		if err := storage.Add(ctx, model.Subscriber{
			ChatID:  chat.ID,
			Title:   chatTitle(chat),
			AddedAt: time.Now(),
		}); err != nil {
			return err
		}

		reply := tgbotapi.NewMessage(chat.ID, fmt.Sprintf(
			"Chat registered. New posts from @%s will be delivered here automatically.\n"+
				"Use /stop to unsubscribe.",
			account,
		))
		if _, err := bot.Send(reply); err != nil {
			return err
		}

		return nil
	}
}

func chatTitle(chat *tgbotapi.Chat) string {
	if chat.Title != "" {
		return chat.Title
	}
	return fmt.Sprintf("Chat %d", chat.ID)
}
