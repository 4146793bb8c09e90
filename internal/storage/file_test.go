package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0x0BSoD/tweetRelay/internal/model"
)

func newSubscriberStorage(t *testing.T) *FileSubscriberStorage {
	t.Helper()
	return NewFileSubscriberStorage(filepath.Join(t.TempDir(), "subscribers.json"))
}

func TestFileSubscriberStorage_AddAndList(t *testing.T) {
	ctx := context.Background()
	s := newSubscriberStorage(t)

	subs, err := s.Subscribers(ctx)
	require.NoError(t, err)
	assert.Empty(t, subs)

	require.NoError(t, s.Add(ctx, model.Subscriber{ChatID: 1, Title: "one", AddedAt: time.Now()}))
	require.NoError(t, s.Add(ctx, model.Subscriber{ChatID: 2, Title: "two", AddedAt: time.Now()}))

	subs, err = s.Subscribers(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, int64(1), subs[0].ChatID)
	assert.Equal(t, "two", subs[1].Title)
}

func TestFileSubscriberStorage_ReRegisterIsNoOp(t *testing.T) {
	ctx := context.Background()
	s := newSubscriberStorage(t)

	require.NoError(t, s.Add(ctx, model.Subscriber{ChatID: 1, Title: "original", AddedAt: time.Now()}))
	require.NoError(t, s.Add(ctx, model.Subscriber{ChatID: 1, Title: "duplicate", AddedAt: time.Now()}))

	subs, err := s.Subscribers(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "original", subs[0].Title)
}

func TestFileSubscriberStorage_RemoveBatch(t *testing.T) {
	ctx := context.Background()
	s := newSubscriberStorage(t)

	for i := int64(1); i <= 4; i++ {
		require.NoError(t, s.Add(ctx, model.Subscriber{ChatID: i, AddedAt: time.Now()}))
	}

	require.NoError(t, s.RemoveBatch(ctx, []int64{2, 4}))

	subs, err := s.Subscribers(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, int64(1), subs[0].ChatID)
	assert.Equal(t, int64(3), subs[1].ChatID)
}

func TestFileSubscriberStorage_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "subscribers.json")

	first := NewFileSubscriberStorage(path)
	require.NoError(t, first.Add(ctx, model.Subscriber{ChatID: 42, Title: "kept", AddedAt: time.Now()}))

	second := NewFileSubscriberStorage(path)
	subs, err := second.Subscribers(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, int64(42), subs[0].ChatID)
}

func TestFileHistoryStorage_AppendKeepsOrder(t *testing.T) {
	ctx := context.Background()
	s := NewFileHistoryStorage(filepath.Join(t.TempDir(), "history.json"), 200)

	require.NoError(t, s.Append(ctx, []string{"a", "b"}))
	require.NoError(t, s.Append(ctx, []string{"c"}))

	ids, err := s.IDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestFileHistoryStorage_BoundedToNewest(t *testing.T) {
	ctx := context.Background()
	s := NewFileHistoryStorage(filepath.Join(t.TempDir(), "history.json"), 200)

	for i := 0; i < 250; i++ {
		require.NoError(t, s.Append(ctx, []string{fmt.Sprintf("id-%03d", i)}))
	}

	ids, err := s.IDs(ctx)
	require.NoError(t, err)
	require.Len(t, ids, 200)

	// The 50 oldest are gone, the 200 newest remain in insertion order.
	assert.Equal(t, "id-050", ids[0])
	assert.Equal(t, "id-249", ids[199])
}
