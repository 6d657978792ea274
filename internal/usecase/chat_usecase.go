package usecase

import (
	"context"
	"strings"
	"unicode/utf8"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/internal/infrastructure/ratelimit"
	"foodshare/pkg/errors"
	"foodshare/pkg/logger"
	"foodshare/pkg/metrics"
)

const (
	EventConversationUpdated = "conversation_updated"

	maxMessageLength = 2000
)

type ChatUseCase struct {
	conversationRepo repository.ConversationRepository
	userRepo         repository.UserRepository
	listingRepo      repository.ListingRepository
	notifier         Notifier
	rateLimiter      RateLimiter
}

func NewChatUseCase(
	conversationRepo repository.ConversationRepository,
	userRepo repository.UserRepository,
	listingRepo repository.ListingRepository,
	notifier Notifier,
	rateLimiter RateLimiter,
) *ChatUseCase {
	return &ChatUseCase{
		conversationRepo: conversationRepo,
		userRepo:         userRepo,
		listingRepo:      listingRepo,
		notifier:         notifier,
		rateLimiter:      rateLimiter,
	}
}

type ConversationResponse struct {
	*entity.Conversation
	Listing     entity.ListingSummary `json:"listing"`
	Counterpart *entity.User          `json:"counterpart,omitempty"`
	Unread      int                   `json:"unread"`
}

type ConversationView struct {
	ConversationHeader
	Messages []*entity.Message `json:"messages"`
}

type ConversationUpdate struct {
	ConversationID string             `json:"conversation_id"`
	LastMessage    entity.LastMessage `json:"last_message"`
}

// StartConversation returns the buyer's conversation about listingID, creating it on
// first contact. The bool reports whether a new conversation was created.
func (uc *ChatUseCase) StartConversation(ctx context.Context, userID, listingID string) (*entity.Conversation, bool, error) {
	if strings.TrimSpace(listingID) == "" {
		return nil, false, errors.ValidationFailed("listing_id is required")
	}

	listing, err := uc.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return nil, false, err
	}
	if listing.OwnerID == userID {
		return nil, false, errors.BadRequest("You cannot start a conversation about your own listing", nil)
	}

	existing, err := uc.conversationRepo.FindByBuyerAndListing(ctx, userID, listingID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, errors.CodeNotFound) {
		return nil, false, err
	}

	if allowed, wait := uc.rateLimiter.Allow(userID, ratelimit.ActionStartConversation); !allowed {
		logger.Info("StartConversation rate limited: user %s must wait %v", userID, wait)
		return nil, false, errors.TooManyRequests("Too many new conversations. Please wait before starting another")
	}

	conversation := &entity.Conversation{
		Participants: []string{userID, listing.OwnerID},
		BuyerID:      userID,
		SellerID:     listing.OwnerID,
		ListingID:    listingID,
		UnreadCount: map[string]int{
			userID:          0,
			listing.OwnerID: 0,
		},
	}
	if err := uc.conversationRepo.Create(ctx, conversation); err != nil {
		return nil, false, err
	}

	logger.Info("Conversation %s started by %s for listing %s", conversation.ID, userID, listingID)
	return conversation, true, nil
}

// ListConversations returns the user's inbox, most recently active first.
func (uc *ChatUseCase) ListConversations(ctx context.Context, userID string, limit int) ([]*ConversationResponse, error) {
	conversations, err := uc.conversationRepo.ListByParticipant(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	users := make(map[string]*entity.User)
	listings := make(map[string]entity.ListingSummary)

	responses := make([]*ConversationResponse, 0, len(conversations))
	for _, conversation := range conversations {
		response := &ConversationResponse{
			Conversation: conversation,
			Unread:       conversation.UnreadCount[userID],
		}

		if counterpartID := conversation.Counterpart(userID); counterpartID != "" {
			user, cached := users[counterpartID]
			if !cached {
				user, err = uc.userRepo.GetByID(ctx, counterpartID)
				if err != nil {
					logger.Debug("Inbox: counterpart %s unavailable: %v", counterpartID, err)
					user = nil
				}
				users[counterpartID] = user
			}
			response.Counterpart = user
		}

		summary, cached := listings[conversation.ListingID]
		if !cached {
			summary = entity.ListingSummary{ID: conversation.ListingID}
			if listing, err := uc.listingRepo.GetByID(ctx, conversation.ListingID); err == nil {
				summary.Title = listing.Title
				summary.ImageURL = listing.CoverImage()
			}
			listings[conversation.ListingID] = summary
		}
		response.Listing = summary

		responses = append(responses, response)
	}

	return responses, nil
}

// GetMessages performs a one-shot activation: access check, header, ordered messages and
// read bookkeeping, without a live subscription.
func (uc *ChatUseCase) GetMessages(ctx context.Context, userID, conversationID string) (*ConversationView, error) {
	s := uc.newSynchronizer(conversationID, userID)
	defer s.Close()

	if err := s.load(ctx); err != nil {
		return nil, err
	}

	return &ConversationView{
		ConversationHeader: s.Header(),
		Messages:           s.Snapshot(),
	}, nil
}

// OpenConversation activates a live synchronizer for a view. The caller owns the
// returned synchronizer and must Close it.
func (uc *ChatUseCase) OpenConversation(ctx context.Context, userID, conversationID string) (*Synchronizer, error) {
	s := uc.newSynchronizer(conversationID, userID)
	if err := s.Activate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (uc *ChatUseCase) newSynchronizer(conversationID, userID string) *Synchronizer {
	return newSynchronizer(uc.conversationRepo, uc.userRepo, uc.listingRepo, uc.deliver, conversationID, userID)
}

// SendMessage sends text from userID into the conversation without an open view.
func (uc *ChatUseCase) SendMessage(ctx context.Context, userID, conversationID, text string) (*entity.Message, error) {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(userID) {
		return nil, errors.AccessDenied("You are not a participant in this conversation")
	}

	return uc.deliver(ctx, conversation, userID, text)
}

// deliver writes the message, then updates the conversation summary and the recipient's
// unread counter. The summary write is best-effort: its failure leaves the message sent.
func (uc *ChatUseCase) deliver(ctx context.Context, conversation *entity.Conversation, senderID, text string) (*entity.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.ValidationFailed("Message text is required")
	}
	if utf8.RuneCountInString(text) > maxMessageLength {
		return nil, errors.ValidationFailed("Message text is too long")
	}

	recipientID := conversation.Counterpart(senderID)
	if recipientID == "" {
		return nil, errors.AccessDenied("You are not a participant in this conversation")
	}

	if allowed, wait := uc.rateLimiter.Allow(senderID, ratelimit.ActionSendMessage); !allowed {
		logger.Info("SendMessage rate limited: user %s must wait %v", senderID, wait)
		return nil, errors.TooManyRequests("You are sending messages too quickly. Please slow down")
	}

	message := &entity.Message{
		ConversationID: conversation.ID,
		SenderID:       senderID,
		Text:           text,
		Read:           false,
	}
	if err := uc.conversationRepo.CreateMessage(ctx, message); err != nil {
		return nil, err
	}
	metrics.MessagesSent.Inc()

	last := entity.LastMessage{
		Text:      message.Text,
		SenderID:  senderID,
		Timestamp: message.CreatedAt,
	}
	if err := uc.conversationRepo.RecordMessageSent(ctx, conversation.ID, last, recipientID); err != nil {
		logger.Warn("Conversation %s: message %s sent but summary update failed: %v", conversation.ID, message.ID, err)
		metrics.SecondaryWriteFailures.WithLabelValues("record_message_sent").Inc()
	}

	if uc.notifier != nil {
		uc.notifier.NotifyUser(recipientID, EventConversationUpdated, ConversationUpdate{
			ConversationID: conversation.ID,
			LastMessage:    last,
		})
	}

	return message, nil
}
