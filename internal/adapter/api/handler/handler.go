package handler

import (
	ws "foodshare/internal/infrastructure/websocket"
	"foodshare/internal/usecase"
)

var (
	sessionHandler   *SessionHandler
	listingHandler   *ListingHandler
	chatHandler      *ChatHandler
	orderHandler     *OrderHandler
	webSocketHandler *WebSocketHandler
)

func Setup(
	sessionUseCase *usecase.SessionUseCase,
	listingUseCase *usecase.ListingUseCase,
	queryBuilder *usecase.ListingQueryBuilder,
	similarFinder *usecase.SimilarListingsFinder,
	chatUseCase *usecase.ChatUseCase,
	orderTracker *usecase.OrderTracker,
	wsManager *ws.Manager,
) {
	sessionHandler = NewSessionHandler(sessionUseCase)
	listingHandler = NewListingHandler(listingUseCase, queryBuilder, similarFinder)
	chatHandler = NewChatHandler(chatUseCase)
	orderHandler = NewOrderHandler(orderTracker)
	webSocketHandler = NewWebSocketHandler(wsManager, chatUseCase)
	SetupHealthHandler()
}

func GetSessionHandler() *SessionHandler {
	return sessionHandler
}

func GetListingHandler() *ListingHandler {
	return listingHandler
}

func GetChatHandler() *ChatHandler {
	return chatHandler
}

func GetOrderHandler() *OrderHandler {
	return orderHandler
}

func GetWebSocketHandler() *WebSocketHandler {
	return webSocketHandler
}
