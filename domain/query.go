package domain

import (
	"fmt"
	"livechat/errors"
)

type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// Query describes a live view of a collection.
// Limit always keeps the most recent records; Direction only decides
// the order they are returned in.
type Query struct {
	Collection string
	OrderBy    string
	Direction  Direction
	Limit      int
}

// FeedQuery is the query mounted by the message feed.
func FeedQuery(window int) Query {
	return Query{
		Collection: Collection,
		OrderBy:    FieldCreatedAt,
		Direction:  Ascending,
		Limit:      window,
	}
}

func (q Query) Validate() error {
	if q.Collection == "" {
		return fmt.Errorf("%w: empty collection", errors.ErrInvalidQuery)
	}
	if q.OrderBy != FieldCreatedAt {
		return fmt.Errorf("%w: unsupported order field %q", errors.ErrInvalidQuery, q.OrderBy)
	}
	if q.Direction != Ascending && q.Direction != Descending {
		return fmt.Errorf("%w: unsupported direction %q", errors.ErrInvalidQuery, q.Direction)
	}
	if q.Limit <= 0 {
		return fmt.Errorf("%w: limit must be positive, got %d", errors.ErrInvalidQuery, q.Limit)
	}
	return nil
}

// Snapshot is one full result set pushed by a live subscription.
// Version grows with every committed write the snapshot observes.
type Snapshot struct {
	Query    Query
	Version  uint64
	Messages []Message
}
