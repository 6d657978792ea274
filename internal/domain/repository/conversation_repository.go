package repository

import (
	"context"

	"foodshare/internal/domain/entity"
)

// MessageSubscription is a live query over one conversation's messages. Changes are
// delivered in the query's order (createdAt ascending); the initial snapshot arrives as a
// run of added events. The channel is closed after Stop or on a terminal error, which Err
// then reports.
type MessageSubscription interface {
	Changes() <-chan entity.MessageChange
	Err() error
	Stop()
}

type ConversationRepository interface {
	Create(ctx context.Context, conversation *entity.Conversation) error
	GetByID(ctx context.Context, id string) (*entity.Conversation, error)
	FindByBuyerAndListing(ctx context.Context, buyerID, listingID string) (*entity.Conversation, error)
	ListByParticipant(ctx context.Context, userID string, limit int) ([]*entity.Conversation, error)
	ResetUnread(ctx context.Context, conversationID, userID string) error
	// RecordMessageSent mirrors the last message and increments the recipient's unread counter.
	RecordMessageSent(ctx context.Context, conversationID string, last entity.LastMessage, recipientID string) error

	// Message methods
	CreateMessage(ctx context.Context, message *entity.Message) error
	ListMessages(ctx context.Context, conversationID string) ([]*entity.Message, error)
	MarkMessageRead(ctx context.Context, conversationID, messageID string) error
	SubscribeMessages(ctx context.Context, conversationID string) (MessageSubscription, error)
}
