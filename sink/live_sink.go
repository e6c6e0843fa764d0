package sink

import (
	"context"
	"livechat/contract"
	"livechat/domain"
	"livechat/errors"
	"sync"
)

var (
	_ contract.SnapshotSink = (*LiveSink)(nil)
	_ contract.Subscription = (*LiveSink)(nil)
)

// LiveSink is both ends of one live subscription.
// The fanout pushes snapshots through Consume, the subscriber reads them
// from Snapshots. Only the latest pending snapshot is kept: every push is
// a full result set, so an older pending one carries nothing the newer
// one lacks. Snapshots older than the last accepted version are dropped.
type LiveSink struct {
	mu          sync.Mutex
	snapshots   chan domain.Snapshot
	done        chan struct{}
	lastVersion uint64
	delivered   bool
	closed      bool
	err         error
	onClose     func()
}

func NewLiveSink(onClose func()) *LiveSink {
	return &LiveSink{
		snapshots: make(chan domain.Snapshot, 1),
		done:      make(chan struct{}),
		onClose:   onClose,
	}
}

// Consume is called by the fanout.
// It never blocks: a pending snapshot is replaced by the newer one.
func (s *LiveSink) Consume(_ context.Context, snapshot domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.ErrSubscriptionClosed
	}
	if s.delivered && snapshot.Version <= s.lastVersion {
		return nil
	}
	select {
	case <-s.snapshots:
	default:
	}
	s.snapshots <- snapshot
	s.lastVersion = snapshot.Version
	s.delivered = true
	return nil
}

func (s *LiveSink) Snapshots() <-chan domain.Snapshot {
	return s.snapshots
}

func (s *LiveSink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close releases the subscription. It is safe to call more than once.
func (s *LiveSink) Close() {
	s.Fail(nil)
}

// Fail ends the subscription with err, nil meaning a regular close.
func (s *LiveSink) Fail(err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.err = err
	close(s.snapshots)
	close(s.done)
	s.mu.Unlock()

	if s.onClose != nil {
		s.onClose()
	}
}

// Done is closed once the subscription ended.
func (s *LiveSink) Done() <-chan struct{} {
	return s.done
}

// Bind closes the subscription when ctx ends.
func (s *LiveSink) Bind(ctx context.Context) {
	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.done:
		}
	}()
}
