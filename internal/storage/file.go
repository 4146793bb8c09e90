// Package storage provides the durable subscriber registry and the bounded
// history of delivered item ids. Two interchangeable backends exist: flat
// JSON documents rewritten whole on every mutation, and Postgres tables.
// Every operation is a serialized read-modify-write so the bot command path
// and the monitor loop cannot revert each other's updates.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/0x0BSoD/tweetRelay/internal/model"
)

type subscriberRecord struct {
	ChatID  int64     `json:"chat_id"`
	Title   string    `json:"chat_title"`
	AddedAt time.Time `json:"added_date"`
}

type FileSubscriberStorage struct {
	path string
	mu   sync.Mutex
}

func NewFileSubscriberStorage(path string) *FileSubscriberStorage {
	return &FileSubscriberStorage{path: path}
}

func (s *FileSubscriberStorage) Subscribers(_ context.Context) ([]model.Subscriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return nil, err
	}

	return lo.Map(records, func(r subscriberRecord, _ int) model.Subscriber {
		return model.Subscriber{ChatID: r.ChatID, Title: r.Title, AddedAt: r.AddedAt}
	}), nil
}

// Add registers a subscriber. Re-registration of a known chat id is a no-op.
func (s *FileSubscriberStorage) Add(_ context.Context, sub model.Subscriber) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}

	for _, r := range records {
		if r.ChatID == sub.ChatID {
			return nil
		}
	}

	records = append(records, subscriberRecord{
		ChatID:  sub.ChatID,
		Title:   sub.Title,
		AddedAt: sub.AddedAt,
	})

	return s.save(records)
}

func (s *FileSubscriberStorage) Remove(ctx context.Context, chatID int64) error {
	return s.RemoveBatch(ctx, []int64{chatID})
}

// RemoveBatch drops all listed chat ids in one document rewrite; the
// broadcaster uses it to prune every unreachable subscriber of a cycle at
// once.
func (s *FileSubscriberStorage) RemoveBatch(_ context.Context, chatIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}

	drop := make(map[int64]struct{}, len(chatIDs))
	for _, id := range chatIDs {
		drop[id] = struct{}{}
	}

	kept := lo.Filter(records, func(r subscriberRecord, _ int) bool {
		_, gone := drop[r.ChatID]
		return !gone
	})
	if len(kept) == len(records) {
		return nil
	}

	return s.save(kept)
}

func (s *FileSubscriberStorage) load() ([]subscriberRecord, error) {
	var records []subscriberRecord
	if err := loadJSON(s.path, &records); err != nil {
		return nil, fmt.Errorf("load subscribers: %w", err)
	}
	return records, nil
}

func (s *FileSubscriberStorage) save(records []subscriberRecord) error {
	if err := saveJSON(s.path, records); err != nil {
		return fmt.Errorf("save subscribers: %w", err)
	}
	return nil
}

// FileHistoryStorage keeps the ordered ids of already delivered items,
// bounded to the newest limit entries.
type FileHistoryStorage struct {
	path  string
	limit int
	mu    sync.Mutex
}

func NewFileHistoryStorage(path string, limit int) *FileHistoryStorage {
	return &FileHistoryStorage{path: path, limit: limit}
}

func (s *FileHistoryStorage) IDs(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	if err := loadJSON(s.path, &ids); err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return ids, nil
}

// Append records newly delivered ids in delivery order, evicting the oldest
// entries once the bound is exceeded.
func (s *FileHistoryStorage) Append(_ context.Context, newIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	if err := loadJSON(s.path, &ids); err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	ids = append(ids, newIDs...)
	if len(ids) > s.limit {
		ids = ids[len(ids)-s.limit:]
	}

	if err := saveJSON(s.path, ids); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// saveJSON rewrites the whole document through a rename so a crash mid-write
// never leaves a truncated file behind.
func saveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
