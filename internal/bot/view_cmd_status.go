package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/lo"

	"github.com/0x0BSoD/tweetRelay/internal/botkit"
	"github.com/0x0BSoD/tweetRelay/internal/model"
)

// ViewCmdStatus reports whether the current chat is subscribed and how many
// chats the relay serves in total.
func ViewCmdStatus(storage SubscriberStorage, account string) botkit.ViewFunc {
	return func(ctx context.Context, bot *tgbotapi.BotAPI, update tgbotapi.Update) error {
		chatID := update.Message.Chat.ID

		subs, err := storage.Subscribers(ctx)
		if err != nil {
			return err
		}

		state := "not subscribed"
		if lo.ContainsBy(subs, func(s model.Subscriber) bool { return s.ChatID == chatID }) {
			state = "subscribed"
		}

		reply := tgbotapi.NewMessage(chatID, fmt.Sprintf(
			"This chat: %s\n"+
				"Subscribed chats: %d\n"+
				"Monitored account: @%s",
			state, len(subs), account,
		))
		if _, err := bot.Send(reply); err != nil {
			return err
		}

		return nil
	}
}
