package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/pkg/errors"
)

const (
	conversationsCollection = "conversations"
	messagesCollection      = "messages"
)

type firestoreConversationRepository struct {
	client *firestore.Client
}

func NewFirestoreConversationRepository(client *firestore.Client) repository.ConversationRepository {
	return &firestoreConversationRepository{
		client: client,
	}
}

func (r *firestoreConversationRepository) messages(conversationID string) *firestore.CollectionRef {
	return r.client.Collection(conversationsCollection).Doc(conversationID).Collection(messagesCollection)
}

func (r *firestoreConversationRepository) Create(ctx context.Context, conversation *entity.Conversation) error {
	if conversation.ID == "" {
		conversation.ID = r.client.Collection(conversationsCollection).NewDoc().ID
	}

	now := time.Now()
	conversation.CreatedAt = now
	conversation.UpdatedAt = now
	if conversation.UnreadCount == nil {
		conversation.UnreadCount = make(map[string]int, len(conversation.Participants))
	}
	for _, p := range conversation.Participants {
		if _, ok := conversation.UnreadCount[p]; !ok {
			conversation.UnreadCount[p] = 0
		}
	}

	_, err := r.client.Collection(conversationsCollection).Doc(conversation.ID).Set(ctx, conversation)
	if err != nil {
		return errors.RemoteFailed("Failed to create conversation", err)
	}

	return nil
}

func (r *firestoreConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	doc, err := r.client.Collection(conversationsCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, storeError("Conversation", "Failed to get conversation", err)
	}

	var conversation entity.Conversation
	if err := doc.DataTo(&conversation); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}
	conversation.ID = doc.Ref.ID

	return &conversation, nil
}

func (r *firestoreConversationRepository) FindByBuyerAndListing(ctx context.Context, buyerID, listingID string) (*entity.Conversation, error) {
	query := r.client.Collection(conversationsCollection).
		Where("buyerId", "==", buyerID).
		Where("listingId", "==", listingID).
		Limit(1)
	iter := query.Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, errors.NotFound("Conversation", nil)
	}
	if err != nil {
		return nil, errors.RemoteFailed("Failed to query conversation by listing", err)
	}

	var conversation entity.Conversation
	if err := doc.DataTo(&conversation); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}
	conversation.ID = doc.Ref.ID

	return &conversation, nil
}

func (r *firestoreConversationRepository) ListByParticipant(ctx context.Context, userID string, limit int) ([]*entity.Conversation, error) {
	query := r.client.Collection(conversationsCollection).
		Where("participants", "array-contains", userID).
		OrderBy("updatedAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.RemoteFailed("Failed to fetch conversations", err)
	}

	conversations := make([]*entity.Conversation, 0, len(docs))
	for _, doc := range docs {
		var conversation entity.Conversation
		if err := doc.DataTo(&conversation); err != nil {
			continue // Skip malformed documents
		}
		conversation.ID = doc.Ref.ID
		conversations = append(conversations, &conversation)
	}

	return conversations, nil
}

func (r *firestoreConversationRepository) ResetUnread(ctx context.Context, conversationID, userID string) error {
	_, err := r.client.Collection(conversationsCollection).Doc(conversationID).Update(ctx, []firestore.Update{
		{FieldPath: firestore.FieldPath{"unreadCount", userID}, Value: 0},
	})
	if err != nil {
		return storeError("Conversation", "Failed to reset unread count", err)
	}

	return nil
}

func (r *firestoreConversationRepository) RecordMessageSent(ctx context.Context, conversationID string, last entity.LastMessage, recipientID string) error {
	_, err := r.client.Collection(conversationsCollection).Doc(conversationID).Update(ctx, []firestore.Update{
		{Path: "lastMessage", Value: last},
		{FieldPath: firestore.FieldPath{"unreadCount", recipientID}, Value: firestore.Increment(1)},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		return storeError("Conversation", "Failed to update conversation summary", err)
	}

	return nil
}

func (r *firestoreConversationRepository) CreateMessage(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}

	// CreatedAt stays zero so the serverTimestamp tag lets the store assign it.
	message.CreatedAt = time.Time{}
	result, err := r.messages(message.ConversationID).Doc(message.ID).Create(ctx, message)
	if err != nil {
		return errors.RemoteFailed("Failed to create message", err)
	}
	message.CreatedAt = result.UpdateTime

	return nil
}

func (r *firestoreConversationRepository) ListMessages(ctx context.Context, conversationID string) ([]*entity.Message, error) {
	iter := r.messages(conversationID).OrderBy("createdAt", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	messages := []*entity.Message{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.RemoteFailed("Failed to iterate messages", err)
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			return nil, errors.Internal("Failed to parse message data", err)
		}
		message.ID = doc.Ref.ID
		messages = append(messages, &message)
	}

	return messages, nil
}

func (r *firestoreConversationRepository) MarkMessageRead(ctx context.Context, conversationID, messageID string) error {
	_, err := r.messages(conversationID).Doc(messageID).Update(ctx, []firestore.Update{
		{Path: "read", Value: true},
	})
	if err != nil {
		return storeError("Message", "Failed to mark message read", err)
	}

	return nil
}

func (r *firestoreConversationRepository) SubscribeMessages(ctx context.Context, conversationID string) (repository.MessageSubscription, error) {
	query := r.messages(conversationID).OrderBy("createdAt", firestore.Asc)
	return newMessageSubscription(ctx, conversationID, query), nil
}
