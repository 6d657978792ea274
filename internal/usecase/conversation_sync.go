package usecase

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/pkg/errors"
	"foodshare/pkg/logger"
	"foodshare/pkg/metrics"
)

type SyncEventType string

const (
	SyncSnapshot        SyncEventType = "snapshot"
	SyncMessageAdded    SyncEventType = "message_added"
	SyncMessageModified SyncEventType = "message_modified"
	SyncFailed          SyncEventType = "error"
)

// SyncEvent is published after every merge into the synchronizer's message list.
type SyncEvent struct {
	Type     SyncEventType
	Message  *entity.Message
	Messages []*entity.Message
	Err      error
}

// ConversationHeader is the display context resolved on activation. Counterpart and
// Listing degrade to empty values when they cannot be loaded.
type ConversationHeader struct {
	Conversation *entity.Conversation  `json:"conversation"`
	Counterpart  *entity.User          `json:"counterpart,omitempty"`
	Listing      entity.ListingSummary `json:"listing"`
}

type sendFunc func(ctx context.Context, conversation *entity.Conversation, senderID, text string) (*entity.Message, error)

// Synchronizer keeps an ordered in-memory copy of one conversation's messages in step
// with the store for as long as a view is open. Close must be called when the view goes
// away, whether or not Activate succeeded.
type Synchronizer struct {
	conversationRepo repository.ConversationRepository
	userRepo         repository.UserRepository
	listingRepo      repository.ListingRepository
	send             sendFunc

	conversationID string
	userID         string
	log            *zap.SugaredLogger

	mutex    sync.Mutex
	header   ConversationHeader
	messages []*entity.Message
	byID     map[string]*entity.Message

	sub       repository.MessageSubscription
	done      chan struct{}
	closeOnce sync.Once
	merging   sync.WaitGroup
	markers   sync.WaitGroup

	publishMutex  sync.Mutex
	updates       chan SyncEvent
	updatesClosed bool
}

func newSynchronizer(
	conversationRepo repository.ConversationRepository,
	userRepo repository.UserRepository,
	listingRepo repository.ListingRepository,
	send sendFunc,
	conversationID, userID string,
) *Synchronizer {
	return &Synchronizer{
		conversationRepo: conversationRepo,
		userRepo:         userRepo,
		listingRepo:      listingRepo,
		send:             send,
		conversationID:   conversationID,
		userID:           userID,
		log:              logger.With("conversation", conversationID, "user", userID),
		byID:             make(map[string]*entity.Message),
		updates:          make(chan SyncEvent, 64),
		done:             make(chan struct{}),
	}
}

// Activate loads the conversation, seeds the message list, settles read receipts and
// opens the live subscription. The subscription lives until Close or until ctx ends.
func (s *Synchronizer) Activate(ctx context.Context) error {
	if err := s.load(ctx); err != nil {
		return err
	}
	return s.subscribe(ctx)
}

// load performs the one-shot part of activation: access check, header, bulk read and
// read bookkeeping.
func (s *Synchronizer) load(ctx context.Context) error {
	conversation, err := s.conversationRepo.GetByID(ctx, s.conversationID)
	if err != nil {
		return err
	}
	if !conversation.HasParticipant(s.userID) {
		return errors.AccessDenied("You are not a participant in this conversation")
	}

	header := ConversationHeader{Conversation: conversation}
	s.resolveHeader(ctx, &header)

	seed, err := s.conversationRepo.ListMessages(ctx, s.conversationID)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	s.header = header
	for _, message := range seed {
		s.insert(message)
	}
	s.mutex.Unlock()

	s.settleReadReceipts(ctx, seed)
	return nil
}

func (s *Synchronizer) subscribe(ctx context.Context) error {
	sub, err := s.conversationRepo.SubscribeMessages(ctx, s.conversationID)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	select {
	case <-s.done:
		s.mutex.Unlock()
		sub.Stop()
		return errors.BadRequest("Conversation view closed during activation", nil)
	default:
	}
	s.sub = sub
	s.merging.Add(1)
	s.mutex.Unlock()
	metrics.ActiveSubscriptions.Inc()

	s.publish(SyncEvent{Type: SyncSnapshot, Messages: s.Snapshot()})
	go s.mergeLoop(ctx, sub)

	return nil
}

func (s *Synchronizer) resolveHeader(ctx context.Context, header *ConversationHeader) {
	conversation := header.Conversation

	if counterpartID := conversation.Counterpart(s.userID); counterpartID != "" {
		user, err := s.userRepo.GetByID(ctx, counterpartID)
		if err != nil {
			s.log.Warnf("counterpart %s unavailable: %v", counterpartID, err)
		} else {
			header.Counterpart = user
		}
	}

	header.Listing.ID = conversation.ListingID
	if conversation.ListingID != "" {
		listing, err := s.listingRepo.GetByID(ctx, conversation.ListingID)
		if err != nil {
			s.log.Warnf("listing %s unavailable: %v", conversation.ListingID, err)
		} else {
			header.Listing.Title = listing.Title
			header.Listing.ImageURL = listing.CoverImage()
		}
	}
}

// settleReadReceipts marks every unread counterpart message read, then clears the
// current user's unread counter. Failures are logged and left for the next activation.
func (s *Synchronizer) settleReadReceipts(ctx context.Context, seed []*entity.Message) {
	for _, message := range seed {
		if message.SenderID == s.userID || message.Read {
			continue
		}
		if err := s.conversationRepo.MarkMessageRead(ctx, s.conversationID, message.ID); err != nil {
			s.log.Warnf("failed to mark message %s read: %v", message.ID, err)
			metrics.SecondaryWriteFailures.WithLabelValues("mark_read").Inc()
			continue
		}
		s.mutex.Lock()
		if current, ok := s.byID[message.ID]; ok {
			current.Read = true
		}
		s.mutex.Unlock()
	}

	if err := s.conversationRepo.ResetUnread(ctx, s.conversationID, s.userID); err != nil {
		s.log.Warnf("failed to reset unread count: %v", err)
		metrics.SecondaryWriteFailures.WithLabelValues("reset_unread").Inc()
	}
}

func (s *Synchronizer) mergeLoop(ctx context.Context, sub repository.MessageSubscription) {
	defer s.merging.Done()
	defer s.closeUpdates()

	for change := range sub.Changes() {
		s.apply(ctx, change)
	}

	if err := sub.Err(); err != nil {
		s.publish(SyncEvent{Type: SyncFailed, Err: err})
	}
}

func (s *Synchronizer) apply(ctx context.Context, change entity.MessageChange) {
	if change.Message == nil {
		return
	}
	metrics.ChangeEvents.WithLabelValues(string(change.Kind)).Inc()

	switch change.Kind {
	case entity.ChangeAdded:
		s.mutex.Lock()
		added := s.insert(change.Message)
		s.mutex.Unlock()
		if !added {
			return
		}

		if change.Message.SenderID != s.userID && !change.Message.Read {
			s.markReadAsync(ctx, change.Message.ID)
		}
		s.publish(SyncEvent{Type: SyncMessageAdded, Message: copyMessage(change.Message)})

	case entity.ChangeModified:
		var updated *entity.Message
		s.mutex.Lock()
		if current, ok := s.byID[change.Message.ID]; ok {
			current.Text = change.Message.Text
			current.Read = change.Message.Read
			updated = copyMessage(current)
		}
		s.mutex.Unlock()
		if updated != nil {
			s.publish(SyncEvent{Type: SyncMessageModified, Message: updated})
		}

	case entity.ChangeRemoved:
		// Messages are never deleted.
	}
}

// insert adds message after the last entry whose CreatedAt is not later than its own,
// which is a tail append for in-order delivery. It reports false for a known id.
// Callers hold s.mutex.
func (s *Synchronizer) insert(message *entity.Message) bool {
	if _, exists := s.byID[message.ID]; exists {
		return false
	}
	stored := copyMessage(message)
	s.byID[stored.ID] = stored

	at := len(s.messages)
	for at > 0 && s.messages[at-1].CreatedAt.After(stored.CreatedAt) {
		at--
	}
	s.messages = append(s.messages, nil)
	copy(s.messages[at+1:], s.messages[at:])
	s.messages[at] = stored
	return true
}

func (s *Synchronizer) markReadAsync(ctx context.Context, messageID string) {
	s.markers.Add(1)
	go func() {
		defer s.markers.Done()
		if err := s.conversationRepo.MarkMessageRead(context.WithoutCancel(ctx), s.conversationID, messageID); err != nil {
			s.log.Warnf("failed to mark message %s read: %v", messageID, err)
			metrics.SecondaryWriteFailures.WithLabelValues("mark_read").Inc()
		}
	}()
}

func (s *Synchronizer) publish(event SyncEvent) {
	s.publishMutex.Lock()
	defer s.publishMutex.Unlock()

	if s.updatesClosed {
		return
	}
	select {
	case s.updates <- event:
	case <-s.done:
	}
}

func (s *Synchronizer) closeUpdates() {
	s.publishMutex.Lock()
	defer s.publishMutex.Unlock()

	if !s.updatesClosed {
		s.updatesClosed = true
		close(s.updates)
	}
}

// Send writes a new message from the current user and appends it locally without
// waiting for the subscription to echo it back.
func (s *Synchronizer) Send(ctx context.Context, text string) (*entity.Message, error) {
	s.mutex.Lock()
	conversation := s.header.Conversation
	s.mutex.Unlock()
	if conversation == nil {
		return nil, errors.BadRequest("Conversation is not active", nil)
	}

	message, err := s.send(ctx, conversation, s.userID, text)
	if err != nil {
		return nil, err
	}

	s.mutex.Lock()
	added := s.insert(message)
	s.mutex.Unlock()
	if added {
		s.publish(SyncEvent{Type: SyncMessageAdded, Message: copyMessage(message)})
	}

	return message, nil
}

// Snapshot returns a copy of the current ordered message list.
func (s *Synchronizer) Snapshot() []*entity.Message {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	out := make([]*entity.Message, len(s.messages))
	for i, m := range s.messages {
		out[i] = copyMessage(m)
	}
	return out
}

func (s *Synchronizer) Header() ConversationHeader {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.header
}

// Updates delivers merge events until the subscription ends. It is closed after Close.
func (s *Synchronizer) Updates() <-chan SyncEvent {
	return s.updates
}

// Close stops the live subscription exactly once. It is safe to call at any point,
// including after a failed Activate.
func (s *Synchronizer) Close() {
	s.closeOnce.Do(func() {
		close(s.done)

		s.mutex.Lock()
		sub := s.sub
		s.mutex.Unlock()

		if sub != nil {
			sub.Stop()
			s.merging.Wait()
			metrics.ActiveSubscriptions.Dec()
		}
		s.closeUpdates()
	})
}

func copyMessage(m *entity.Message) *entity.Message {
	c := *m
	return &c
}
