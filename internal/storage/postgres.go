package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/samber/lo"

	"github.com/0x0BSoD/tweetRelay/internal/model"
)

// Schema:
//
//	CREATE TABLE IF NOT EXISTS subscribers (
//	    chat_id    BIGINT PRIMARY KEY,
//	    chat_title TEXT NOT NULL DEFAULT '',
//	    added_date TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
//
//	CREATE TABLE IF NOT EXISTS posted_items (
//	    ordinal  BIGSERIAL PRIMARY KEY,
//	    item_id  TEXT NOT NULL UNIQUE
//	);

type dbSubscriber struct {
	ChatID  int64     `db:"chat_id"`
	Title   string    `db:"chat_title"`
	AddedAt time.Time `db:"added_date"`
}

type PostgresSubscriberStorage struct {
	db *sqlx.DB
}

func NewPostgresSubscriberStorage(db *sqlx.DB) *PostgresSubscriberStorage {
	return &PostgresSubscriberStorage{db: db}
}

func (s *PostgresSubscriberStorage) Subscribers(ctx context.Context) ([]model.Subscriber, error) {
	var records []dbSubscriber
	if err := s.db.SelectContext(ctx, &records,
		`SELECT chat_id, chat_title, added_date FROM subscribers ORDER BY added_date`,
	); err != nil {
		return nil, fmt.Errorf("select subscribers: %w", err)
	}

	return lo.Map(records, func(r dbSubscriber, _ int) model.Subscriber {
		return model.Subscriber{ChatID: r.ChatID, Title: r.Title, AddedAt: r.AddedAt}
	}), nil
}

func (s *PostgresSubscriberStorage) Add(ctx context.Context, sub model.Subscriber) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO subscribers (chat_id, chat_title, added_date)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (chat_id) DO NOTHING`,
		sub.ChatID, sub.Title, sub.AddedAt,
	); err != nil {
		return fmt.Errorf("insert subscriber: %w", err)
	}
	return nil
}

func (s *PostgresSubscriberStorage) Remove(ctx context.Context, chatID int64) error {
	return s.RemoveBatch(ctx, []int64{chatID})
}

func (s *PostgresSubscriberStorage) RemoveBatch(ctx context.Context, chatIDs []int64) error {
	if len(chatIDs) == 0 {
		return nil
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM subscribers WHERE chat_id = ANY($1)`,
		pq.Array(chatIDs),
	); err != nil {
		return fmt.Errorf("delete subscribers: %w", err)
	}
	return nil
}

type PostgresHistoryStorage struct {
	db    *sqlx.DB
	limit int
}

func NewPostgresHistoryStorage(db *sqlx.DB, limit int) *PostgresHistoryStorage {
	return &PostgresHistoryStorage{db: db, limit: limit}
}

func (s *PostgresHistoryStorage) IDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.SelectContext(ctx, &ids,
		`SELECT item_id FROM posted_items ORDER BY ordinal`,
	); err != nil {
		return nil, fmt.Errorf("select history: %w", err)
	}
	return ids, nil
}

func (s *PostgresHistoryStorage) Append(ctx context.Context, newIDs []string) error {
	if len(newIDs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, id := range newIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO posted_items (item_id) VALUES ($1) ON CONFLICT (item_id) DO NOTHING`,
			id,
		); err != nil {
			return fmt.Errorf("insert history id: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM posted_items
		 WHERE ordinal NOT IN (SELECT ordinal FROM posted_items ORDER BY ordinal DESC LIMIT $1)`,
		s.limit,
	); err != nil {
		return fmt.Errorf("trim history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history tx: %w", err)
	}
	return nil
}
