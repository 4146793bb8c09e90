package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/0x0BSoD/tweetRelay/internal/botkit"
	"github.com/0x0BSoD/tweetRelay/internal/model"
)

// ViewChatJoin registers a chat when the bot itself is added to it and
// sends a short welcome. Updates about other members joining are ignored.
func ViewChatJoin(storage SubscriberStorage, account string) botkit.ViewFunc {
	return func(ctx context.Context, bot *tgbotapi.BotAPI, update tgbotapi.Update) error {
		var joined bool
		for _, member := range update.Message.NewChatMembers {
			if member.UserName == bot.Self.UserName {
				joined = true
				break
			}
		}
		if !joined {
			return nil
		}

		chat := update.Message.Chat
		if err := storage.Add(ctx, model.Subscriber{
			ChatID:  chat.ID,
			Title:   chatTitle(chat),
			AddedAt: time.Now(),
		}); err != nil {
			return err
		}

		reply := tgbotapi.NewMessage(chat.ID, fmt.Sprintf(
			"Bot activated. This chat will now receive every new post from @%s.\n\n"+
				"Commands: /start /stop /status",
			account,
		))
		if _, err := bot.Send(reply); err != nil {
			return err
		}

		return nil
	}
}
