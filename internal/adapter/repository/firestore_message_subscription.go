package repository

import (
	"context"
	"sync"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"foodshare/internal/domain/entity"
	"foodshare/pkg/errors"
	"foodshare/pkg/logger"
)

// snapshotIterator is the part of *firestore.QuerySnapshotIterator the subscription uses.
// Stop must not be called concurrently with Next.
type snapshotIterator interface {
	Next() (*firestore.QuerySnapshot, error)
	Stop()
}

// firestoreMessageSubscription adapts a QuerySnapshotIterator into a channel of
// MessageChange values. The run goroutine owns the iterator and is the only caller of
// Next and Stop; Stop on the subscription only cancels the context.
type firestoreMessageSubscription struct {
	conversationID string
	iter           snapshotIterator
	cancel         context.CancelFunc
	changes        chan entity.MessageChange

	stopOnce sync.Once
	mu       sync.Mutex
	err      error
}

func newMessageSubscription(ctx context.Context, conversationID string, query firestore.Query) *firestoreMessageSubscription {
	subCtx, cancel := context.WithCancel(ctx)
	return startMessageSubscription(subCtx, cancel, conversationID, query.Snapshots(subCtx))
}

func startMessageSubscription(ctx context.Context, cancel context.CancelFunc, conversationID string, iter snapshotIterator) *firestoreMessageSubscription {
	s := &firestoreMessageSubscription{
		conversationID: conversationID,
		iter:           iter,
		cancel:         cancel,
		changes:        make(chan entity.MessageChange, 64),
	}
	go s.run(ctx)
	return s
}

func (s *firestoreMessageSubscription) Changes() <-chan entity.MessageChange {
	return s.changes
}

func (s *firestoreMessageSubscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *firestoreMessageSubscription) Stop() {
	s.stopOnce.Do(s.cancel)
}

func (s *firestoreMessageSubscription) run(ctx context.Context) {
	defer close(s.changes)
	defer s.iter.Stop()

	for {
		snap, err := s.iter.Next()
		if err != nil {
			if err != iterator.Done && status.Code(err) != codes.Canceled && ctx.Err() == nil {
				logger.Error("Message subscription for conversation %s failed: %v", s.conversationID, err)
				s.mu.Lock()
				s.err = errors.RemoteFailed("Message subscription failed", err)
				s.mu.Unlock()
			}
			return
		}

		for _, change := range snap.Changes {
			var message entity.Message
			if err := change.Doc.DataTo(&message); err != nil {
				logger.Warn("Skipping unreadable message %s in conversation %s: %v", change.Doc.Ref.ID, s.conversationID, err)
				continue
			}
			message.ID = change.Doc.Ref.ID

			select {
			case s.changes <- entity.MessageChange{Kind: changeKind(change.Kind), Message: &message}:
			case <-ctx.Done():
				return
			}
		}
	}
}

func changeKind(kind firestore.DocumentChangeKind) entity.ChangeKind {
	switch kind {
	case firestore.DocumentAdded:
		return entity.ChangeAdded
	case firestore.DocumentModified:
		return entity.ChangeModified
	default:
		return entity.ChangeRemoved
	}
}
