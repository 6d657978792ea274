package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"foodshare/pkg/errors"
)

// blockingIterator blocks in Next until ctx ends, the way a watch stream does, and
// records whether Stop ever overlapped a Next call.
type blockingIterator struct {
	ctx     context.Context
	failErr error

	mu             sync.Mutex
	inNext         bool
	stops          int
	stopDuringNext bool
}

func (it *blockingIterator) Next() (*firestore.QuerySnapshot, error) {
	it.mu.Lock()
	it.inNext = true
	it.mu.Unlock()
	defer func() {
		it.mu.Lock()
		it.inNext = false
		it.mu.Unlock()
	}()

	if it.failErr != nil {
		return nil, it.failErr
	}
	<-it.ctx.Done()
	return nil, status.Error(codes.Canceled, "context canceled")
}

func (it *blockingIterator) Stop() {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.stops++
	if it.inNext {
		it.stopDuringNext = true
	}
}

func (it *blockingIterator) snapshot() (int, bool) {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.stops, it.stopDuringNext
}

func drain(t *testing.T, sub *firestoreMessageSubscription) {
	t.Helper()
	select {
	case _, open := <-sub.Changes():
		require.False(t, open, "unexpected change")
	case <-time.After(2 * time.Second):
		t.Fatal("changes channel was not closed")
	}
}

func TestMessageSubscription_StopNeverOverlapsNext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	iter := &blockingIterator{ctx: ctx}
	sub := startMessageSubscription(ctx, cancel, "c1", iter)

	require.Eventually(t, func() bool {
		iter.mu.Lock()
		defer iter.mu.Unlock()
		return iter.inNext
	}, time.Second, time.Millisecond)

	sub.Stop()
	sub.Stop()
	drain(t, sub)

	stops, overlapped := iter.snapshot()
	assert.Equal(t, 1, stops)
	assert.False(t, overlapped)
	assert.NoError(t, sub.Err())
}

func TestMessageSubscription_StreamFailureIsReported(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	iter := &blockingIterator{ctx: ctx, failErr: fmt.Errorf("stream reset")}
	sub := startMessageSubscription(ctx, cancel, "c1", iter)

	drain(t, sub)

	assert.True(t, errors.Is(sub.Err(), errors.CodeRemoteFailed))
	stops, _ := iter.snapshot()
	assert.Equal(t, 1, stops)
}
