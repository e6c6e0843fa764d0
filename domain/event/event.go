package event

import (
	"livechat/domain"
	"time"
)

type Type string

const (
	DocumentInsertedType    Type = "DOCUMENT_INSERTED"
	InsertFailedType        Type = "INSERT_FAILED"
	SubscriptionEndedType   Type = "SUBSCRIPTION_ENDED"
	RestartedAfterPanicType Type = "WORKER_RESTARTED_AFTER_PANIC"
	QueueDepthType          Type = "QUEUE_DEPTH"
	SelfStatsType           Type = "SELF_STATS"
)

// Event is the envelope travelling on internal channels.
type Event struct {
	Type      Type
	CreatedAt time.Time
	Payload   any
}

func New(t Type, payload any) Event {
	return Event{Type: t, CreatedAt: time.Now().UTC(), Payload: payload}
}

// DocumentInserted is published by the store once a write is committed.
type DocumentInserted struct {
	Collection string
	ID         string
	At         time.Time
}

// InsertFailed reports a fire-and-forget write that never reached the store.
type InsertFailed struct {
	Command domain.PostMessageCommand
	Err     error
}

// SubscriptionEnded reports a live query that stopped delivering.
type SubscriptionEnded struct {
	Query domain.Query
	Err   error
}
