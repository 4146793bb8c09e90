// Copyright (c) 2024, 0x0BSoD. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/0x0BSoD/tweetRelay/internal/bot"
	"github.com/0x0BSoD/tweetRelay/internal/botkit"
	"github.com/0x0BSoD/tweetRelay/internal/config"
	"github.com/0x0BSoD/tweetRelay/internal/fetcher"
	"github.com/0x0BSoD/tweetRelay/internal/model"
	"github.com/0x0BSoD/tweetRelay/internal/monitor"
	"github.com/0x0BSoD/tweetRelay/internal/notifier"
	"github.com/0x0BSoD/tweetRelay/internal/reporter"
	"github.com/0x0BSoD/tweetRelay/internal/source"
	"github.com/0x0BSoD/tweetRelay/internal/storage"
)

type subscriberStore interface {
	Subscribers(ctx context.Context) ([]model.Subscriber, error)
	Add(ctx context.Context, sub model.Subscriber) error
	Remove(ctx context.Context, chatID int64) error
	RemoveBatch(ctx context.Context, chatIDs []int64) error
}

type historyStore interface {
	IDs(ctx context.Context) ([]string, error)
	Append(ctx context.Context, ids []string) error
}

func main() {
	cfg := config.Get()

	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Printf("[ERROR] failed to create botAPI: %v", err)
		return
	}

	var (
		subscribers subscriberStore
		history     historyStore
	)
	if cfg.DatabaseDSN != "" {
		db, err := sqlx.Connect("postgres", cfg.DatabaseDSN)
		if err != nil {
			log.Printf("[ERROR] failed to connect to db: %v", err)
			return
		}
		defer db.Close()

		subscribers = storage.NewPostgresSubscriberStorage(db)
		history = storage.NewPostgresHistoryStorage(db, cfg.HistoryLimit)
		log.Printf("[INFO] using postgres storage")
	} else {
		subscribers = storage.NewFileSubscriberStorage(cfg.SubscribersFile)
		history = storage.NewFileHistoryStorage(cfg.HistoryFile, cfg.HistoryLimit)
		log.Printf("[INFO] using file storage (%s, %s)", cfg.SubscribersFile, cfg.HistoryFile)
	}

	alerts := reporter.New(botAPI, cfg.TelegramAdminChatID)

	mirrors := make([]fetcher.Source, 0, len(cfg.Mirrors))
	for _, base := range cfg.Mirrors {
		mirrors = append(mirrors, source.NewMirror(
			base,
			cfg.AccountName,
			cfg.FeedTimeout,
			cfg.PageTimeout,
		))
	}

	var (
		acquirer = fetcher.New(
			fetcher.NewSelector(mirrors...),
			cfg.AccountName,
			cfg.LivenessItem,
			alerts,
		)
		broadcaster = notifier.New(
			subscribers,
			botAPI,
			cfg.AccountName,
			cfg.SendPause,
		)
		relayMonitor = monitor.New(
			acquirer,
			broadcaster,
			subscribers,
			history,
			alerts,
			cfg.CheckInterval,
			cfg.ItemPause,
		)
	)

	relayBot := botkit.New(botAPI)
	relayBot.RegisterCmdView("start", bot.ViewCmdStart(subscribers, cfg.AccountName))
	relayBot.RegisterCmdView("register", bot.ViewCmdRegister(subscribers, cfg.AccountName))
	relayBot.RegisterCmdView("stop", bot.ViewCmdStop(subscribers))
	relayBot.RegisterCmdView("status", bot.ViewCmdStatus(subscribers, cfg.AccountName))
	relayBot.RegisterChatJoinView(bot.ViewChatJoin(subscribers, cfg.AccountName))

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		subs, err := subscribers.Subscribers(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":      "ok",
			"account":     cfg.AccountName,
			"subscribers": len(subs),
			"timestamp":   time.Now().Format(time.RFC3339),
		})
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func(ctx context.Context) {
		if err := relayMonitor.Start(ctx); err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Printf("[ERROR] failed to run monitor: %v", err)
				return
			}

			log.Printf("[INFO] monitor stopped")
		}
	}(ctx)

	go func(ctx context.Context) {
		if err := http.ListenAndServe(cfg.ListenAddr, mux); err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Printf("[ERROR] failed to run http server: %v", err)
				return
			}

			log.Printf("[INFO] http server stopped")
		}
	}(ctx)

	if err := relayBot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("[ERROR] failed to run botkit: %v", err)
	}
}
