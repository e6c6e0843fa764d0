//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"livechat/domain"
	"livechat/domain/event"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Store is the capability the chat needs from a document store:
// append a record, and follow a live ordered view of a collection.
type Store interface {
	Insert(ctx context.Context, cmd domain.PostMessageCommand) (string, error)
	Subscribe(ctx context.Context, query domain.Query) (Subscription, error)
}

// Subscription is an unbounded stream of full snapshots.
// The channel is closed once the subscription is closed or fails,
// Err then tells which one happened.
type Subscription interface {
	Snapshots() <-chan domain.Snapshot
	Err() error
	Close()
}

// SnapshotReader runs a query against a consistent view of the store.
type SnapshotReader interface {
	Snapshot(query domain.Query) (domain.Snapshot, error)
}

// SnapshotSink receives pushes for one live subscription.
type SnapshotSink interface {
	Consume(ctx context.Context, snapshot domain.Snapshot) error
}

type IRegistry interface {
	GetSinksForCollection(collection string) map[string]Subscriber
	Subscribe(subscriberID string, subscriber Subscriber)
	Unsubscribe(subscriberID string)
}

// Subscriber binds a query to the sink its snapshots are pushed to.
type Subscriber struct {
	Query domain.Query
	Sink  SnapshotSink
}

// ErrorSink receives failures that have no caller left to return to.
type ErrorSink interface {
	Report(e event.Event)
}

// Dispatcher accepts fire-and-forget writes.
type Dispatcher interface {
	PostMessage(cmd domain.PostMessageCommand)
}
