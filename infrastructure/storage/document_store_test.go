package storage

import (
	"context"
	"fmt"
	"livechat/contract"
	"livechat/domain"
	"livechat/domain/event"
	"livechat/errors"
	"livechat/mocks"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func openDB(t *testing.T) *badger.DB {
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// newStore returns a store whose clock ticks one second per insert.
func newStore(t *testing.T, registry contract.IRegistry, inserted chan event.Event) *DocumentStore {
	store := NewDocumentStore(openDB(t), logs.GetLoggerFromLevel(slog.LevelDebug), registry, inserted)
	at := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		at = at.Add(time.Second)
		return at
	}
	return store
}

func insertAll(t *testing.T, store *DocumentStore, texts ...string) []string {
	var ids []string
	for _, text := range texts {
		id, err := store.Insert(context.Background(), domain.NewPostMessageCommand(text, "Alice"))
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func texts(messages []domain.Message) []string {
	res := make([]string, 0, len(messages))
	for _, m := range messages {
		res = append(res, m.Text)
	}
	return res
}

func TestDocumentStore_Insert_Assigns_ID_And_Timestamp(t *testing.T) {
	req := require.New(t)
	inserted := make(chan event.Event, 1)
	store := newStore(t, nil, inserted)

	// When Alice posts a message
	id, err := store.Insert(context.Background(), domain.NewPostMessageCommand("hello", "Alice"))

	// Then the record is stored with the server fields
	req.NoError(err)
	req.NotEmpty(id)
	snapshot, err := store.Snapshot(domain.FeedQuery(100))
	req.NoError(err)
	req.Len(snapshot.Messages, 1)
	message := snapshot.Messages[0]
	req.Equal(id, message.ID)
	req.Equal("hello", message.Text)
	req.Equal("Alice", message.UID)
	req.Equal("https://ui-avatars.com/api/?name=Alice", message.PhotoURL)
	req.Equal(time.Date(2024, 1, 1, 10, 0, 1, 0, time.UTC), message.CreatedAt)

	// And the insert is announced
	e := <-inserted
	req.Equal(event.DocumentInsertedType, e.Type)
	req.Equal(id, e.Payload.(event.DocumentInserted).ID)
}

func TestDocumentStore_Insert_Rejects_Invalid_Commands(t *testing.T) {
	req := require.New(t)
	store := newStore(t, nil, nil)

	_, err := store.Insert(context.Background(), domain.NewPostMessageCommand("", "Alice"))
	req.ErrorIs(err, errors.ErrEmptyText)

	_, err = store.Insert(context.Background(), domain.NewPostMessageCommand("hello", "  "))
	req.ErrorIs(err, errors.ErrEmptyAuthor)

	snapshot, err := store.Snapshot(domain.FeedQuery(100))
	req.NoError(err)
	req.Empty(snapshot.Messages)
}

func TestDocumentStore_Snapshot_Order_And_Window(t *testing.T) {
	req := require.New(t)
	store := newStore(t, nil, nil)

	// Given five messages written one second apart
	insertAll(t, store, "m1", "m2", "m3", "m4", "m5")

	// When reading a window of three, ascending then descending
	asc, err := store.Snapshot(domain.FeedQuery(3))
	req.NoError(err)
	descQuery := domain.FeedQuery(3)
	descQuery.Direction = domain.Descending
	desc, err := store.Snapshot(descQuery)
	req.NoError(err)

	// Then only the three most recent are returned in the asked order
	req.Equal([]string{"m3", "m4", "m5"}, texts(asc.Messages))
	req.Equal([]string{"m5", "m4", "m3"}, texts(desc.Messages))
}

func TestDocumentStore_Same_Timestamp_Ordered_By_ID(t *testing.T) {
	req := require.New(t)
	store := newStore(t, nil, nil)
	at := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return at }

	// Given three messages written in the same nanosecond
	insertAll(t, store, "a", "b", "c")

	// Then they come back sorted by id
	snapshot, err := store.Snapshot(domain.FeedQuery(100))
	req.NoError(err)
	req.Len(snapshot.Messages, 3)
	for i := 1; i < len(snapshot.Messages); i++ {
		req.Less(snapshot.Messages[i-1].ID, snapshot.Messages[i].ID)
	}
}

func TestDocumentStore_Snapshot_Version_Grows_With_Writes(t *testing.T) {
	req := require.New(t)
	store := newStore(t, nil, nil)

	before, err := store.Snapshot(domain.FeedQuery(100))
	req.NoError(err)
	same, err := store.Snapshot(domain.FeedQuery(100))
	req.NoError(err)
	insertAll(t, store, "hello")
	after, err := store.Snapshot(domain.FeedQuery(100))
	req.NoError(err)

	req.Equal(before.Version, same.Version)
	req.Greater(after.Version, before.Version)
}

func TestDocumentStore_Snapshot_Rejects_Invalid_Query(t *testing.T) {
	req := require.New(t)
	store := newStore(t, nil, nil)

	_, err := store.Snapshot(domain.FeedQuery(0))
	req.ErrorIs(err, errors.ErrInvalidQuery)

	query := domain.FeedQuery(10)
	query.OrderBy = "text"
	_, err = store.Snapshot(query)
	req.ErrorIs(err, errors.ErrInvalidQuery)
}

func TestDocumentStore_Subscribe_Registers_And_Releases(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockIRegistry(ctrl)
	store := newStore(t, registry, nil)
	insertAll(t, store, "hello")

	var subscriberID string
	registry.EXPECT().Subscribe(gomock.Any(), gomock.Any()).
		Do(func(id string, subscriber contract.Subscriber) {
			subscriberID = id
			req.Equal(domain.FeedQuery(100), subscriber.Query)
		}).Times(1)

	// When subscribing to the feed
	sub, err := store.Subscribe(context.Background(), domain.FeedQuery(100))
	req.NoError(err)

	// Then the current content is pushed at once
	snapshot := <-sub.Snapshots()
	req.Equal([]string{"hello"}, texts(snapshot.Messages))

	// When the subscription is closed
	registry.EXPECT().Unsubscribe(gomock.Any()).
		Do(func(id string) { req.Equal(subscriberID, id) }).Times(1)
	sub.Close()
	sub.Close()

	// Then the channel is closed without error
	_, ok := <-sub.Snapshots()
	req.False(ok)
	req.NoError(sub.Err())
}

func TestDocumentStore_Subscribe_Released_On_Context_Cancel(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockIRegistry(ctrl)
	store := newStore(t, registry, nil)

	released := make(chan struct{})
	registry.EXPECT().Subscribe(gomock.Any(), gomock.Any()).Times(1)
	registry.EXPECT().Unsubscribe(gomock.Any()).Do(func(string) { close(released) }).Times(1)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := store.Subscribe(ctx, domain.FeedQuery(100))
	req.NoError(err)

	// When the owner context ends
	cancel()

	// Then the subscription is released
	select {
	case <-released:
	case <-time.After(time.Second):
		req.Fail("subscription should be released")
	}
}

func TestDocumentStore_Closed_Database_Maps_To_Store_Closed(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	store := NewDocumentStore(db, logs.GetLoggerFromLevel(slog.LevelDebug), nil, nil)

	// Given a database already closed
	req.NoError(db.Close())

	// When writing or reading
	_, insertErr := store.Insert(context.Background(), domain.NewPostMessageCommand("hello", "Alice"))
	_, snapshotErr := store.Snapshot(domain.FeedQuery(10))

	// Then both report the store as closed
	req.ErrorIs(insertErr, errors.ErrStoreClosed)
	req.ErrorIs(snapshotErr, errors.ErrStoreClosed)
}

func TestStoreError_Unwraps_Closed_Database(t *testing.T) {
	req := require.New(t)

	// Given a badger close error wrapped by a caller
	wrapped := fmt.Errorf("commit: %w", badger.ErrDBClosed)

	// Then it is still recognised, other errors pass through
	req.ErrorIs(storeError(wrapped), errors.ErrStoreClosed)
	req.ErrorIs(storeError(badger.ErrKeyNotFound), badger.ErrKeyNotFound)
}
