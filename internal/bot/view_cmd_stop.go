package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/0x0BSoD/tweetRelay/internal/botkit"
)

// ViewCmdStop unsubscribes the current chat.
func ViewCmdStop(storage SubscriberStorage) botkit.ViewFunc {
	return func(ctx context.Context, bot *tgbotapi.BotAPI, update tgbotapi.Update) error {
		chatID := update.Message.Chat.ID

		if err := storage.Remove(ctx, chatID); err != nil {
			return err
		}

		reply := tgbotapi.NewMessage(chatID,
			"Unsubscribed. This chat will no longer receive posts.\n"+
				"Use /register to subscribe again.")
		if _, err := bot.Send(reply); err != nil {
			return err
		}

		return nil
	}
}
