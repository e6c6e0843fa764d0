package storage

import (
	"context"
	"errors"
	"fmt"
	"livechat/contract"
	"livechat/domain"
	"livechat/domain/event"
	lcerrors "livechat/errors"
	"livechat/sink"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

var (
	_ contract.Store          = (*DocumentStore)(nil)
	_ contract.SnapshotReader = (*DocumentStore)(nil)
)

type DocumentStore struct {
	db       *badger.DB
	log      *slog.Logger
	registry contract.IRegistry
	inserted chan<- event.Event
	now      func() time.Time
}

// NewDocumentStore wires a badger backed store.
// Every committed insert is announced on inserted, the fanout turns
// those announcements into snapshots for live subscribers.
func NewDocumentStore(db *badger.DB, log *slog.Logger, registry contract.IRegistry, inserted chan<- event.Event) *DocumentStore {
	return &DocumentStore{
		db:       db,
		log:      log,
		registry: registry,
		inserted: inserted,
		now:      time.Now,
	}
}

// Insert persists a message in BadgerDB.
// The key is formatted as "doc:{collection}:{timestamp_padded}:{id}" so that
// the 19-digit zero padding keeps keys in chronological order and the id
// breaks ties between two writes at the same nanosecond.
func (s *DocumentStore) Insert(ctx context.Context, cmd domain.PostMessageCommand) (string, error) {
	if cmd.Text == "" {
		return "", lcerrors.ErrEmptyText
	}
	if strings.TrimSpace(cmd.UID) == "" {
		return "", lcerrors.ErrEmptyAuthor
	}
	message := domain.Message{
		ID:        uuid.NewString(),
		Text:      cmd.Text,
		UID:       cmd.UID,
		PhotoURL:  cmd.PhotoURL,
		CreatedAt: s.now().UTC(),
	}
	record, err := EncodeMessage(message)
	if err != nil {
		return "", err
	}
	bytes, err := proto.Marshal(record)
	if err != nil {
		return "", err
	}
	key := documentKey(domain.Collection, message.CreatedAt, message.ID)
	if err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, bytes)
	}); err != nil {
		return "", storeError(err)
	}

	if s.inserted != nil {
		e := event.New(event.DocumentInsertedType, event.DocumentInserted{
			Collection: domain.Collection,
			ID:         message.ID,
			At:         message.CreatedAt,
		})
		select {
		case s.inserted <- e:
		case <-ctx.Done():
			s.log.Warn("insert committed but not announced", "id", message.ID, "error", ctx.Err())
		}
	}
	return message.ID, nil
}

// Snapshot retrieves the most recent records of a collection using a reverse prefix scan.
// The whole read happens in one transaction, its read timestamp is the snapshot version.
func (s *DocumentStore) Snapshot(query domain.Query) (domain.Snapshot, error) {
	if err := query.Validate(); err != nil {
		return domain.Snapshot{}, err
	}
	snapshot := domain.Snapshot{Query: query}
	var messages []domain.Message
	err := s.db.View(func(txn *badger.Txn) error {
		snapshot.Version = txn.ReadTs()
		prefix := collectionPrefix(query.Collection)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Start past the newest key of the collection and walk back in time
		for it.Seek(append(prefix, 0xff)); it.ValidForPrefix(prefix); it.Next() {
			if len(messages) == query.Limit {
				break
			}
			item := it.Item()
			id := idFromKey(item.Key())
			err := item.Value(func(value []byte) error {
				var record structpb.Struct
				if err := proto.Unmarshal(value, &record); err != nil {
					return fmt.Errorf("%w: %v", lcerrors.ErrInvalidDocument, err)
				}
				message, err := DecodeMessage(id, &record)
				if err != nil {
					return err
				}
				messages = append(messages, message)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Snapshot{}, storeError(err)
	}
	if query.Direction == domain.Ascending {
		slices.Reverse(messages)
	}
	snapshot.Messages = messages
	return snapshot, nil
}

// Subscribe opens a live view of the query.
// The subscriber is registered before the first snapshot is read, a write
// landing in between is picked up by the fanout and the stale one is dropped.
func (s *DocumentStore) Subscribe(ctx context.Context, query domain.Query) (contract.Subscription, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	subscriberID := uuid.NewString()
	live := sink.NewLiveSink(func() {
		s.registry.Unsubscribe(subscriberID)
	})
	s.registry.Subscribe(subscriberID, contract.Subscriber{Query: query, Sink: live})

	snapshot, err := s.Snapshot(query)
	if err != nil {
		live.Close()
		return nil, err
	}
	if err = live.Consume(ctx, snapshot); err != nil {
		return nil, err
	}
	live.Bind(ctx)
	s.log.Debug("subscription opened", "subscriber", subscriberID, "collection", query.Collection)
	return live, nil
}

// storeError maps badger failures to domain errors.
func storeError(err error) error {
	if errors.Is(err, badger.ErrDBClosed) {
		return lcerrors.ErrStoreClosed
	}
	return err
}

func collectionPrefix(collection string) []byte {
	return []byte(fmt.Sprintf("doc:%s:", collection))
}

func documentKey(collection string, at time.Time, id string) []byte {
	return []byte(fmt.Sprintf("doc:%s:%019d:%s", collection, at.UnixNano(), id))
}

func idFromKey(key []byte) string {
	k := string(key)
	return k[strings.LastIndex(k, ":")+1:]
}
