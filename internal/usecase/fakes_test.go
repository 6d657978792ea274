package usecase

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/pkg/errors"
)

var baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }

// --- listings ---

type fakeListingRepo struct {
	mu       sync.Mutex
	listings map[string]*entity.Listing
	queries  []repository.ListingQuery

	queryErr    func(q repository.ListingQuery) error
	markSoldErr error
	releaseErr  error
	nextID      int
}

func newFakeListingRepo(listings ...*entity.Listing) *fakeListingRepo {
	r := &fakeListingRepo{listings: make(map[string]*entity.Listing)}
	for _, l := range listings {
		r.put(l)
	}
	return r
}

func (r *fakeListingRepo) put(l *entity.Listing) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l.IsFree = l.PriceIsFree()
	c := *l
	r.listings[l.ID] = &c
}

func (r *fakeListingRepo) get(id string) *entity.Listing {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *r.listings[id]
	return &c
}

func (r *fakeListingRepo) queryCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queries)
}

func (r *fakeListingRepo) Create(ctx context.Context, listing *entity.Listing) error {
	r.mu.Lock()
	r.nextID++
	if listing.ID == "" {
		listing.ID = fmt.Sprintf("listing-%d", r.nextID)
	}
	r.mu.Unlock()
	listing.CreatedAt = baseTime
	listing.UpdatedAt = baseTime
	r.put(listing)
	return nil
}

func (r *fakeListingRepo) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return nil, errors.NotFound("Listing", nil)
	}
	c := *l
	return &c, nil
}

// Update copies only the owner-editable fields, like the Firestore field-path update.
func (r *fakeListingRepo) Update(ctx context.Context, listing *entity.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.listings[listing.ID]
	if !ok {
		return errors.NotFound("Listing", nil)
	}
	stored.Title = listing.Title
	stored.Description = listing.Description
	stored.Price = listing.Price
	stored.IsFree = listing.PriceIsFree()
	stored.IsDonation = listing.IsDonation
	stored.Category = listing.Category
	stored.Location = listing.Location
	stored.ImageURLs = listing.ImageURLs
	stored.ExpiresAt = listing.ExpiresAt
	return nil
}

func (r *fakeListingRepo) SoftDelete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return errors.NotFound("Listing", nil)
	}
	l.IsAvailable = false
	return nil
}

func (r *fakeListingRepo) ListByOwner(ctx context.Context, ownerID string, limit int) ([]*entity.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Listing
	for _, l := range r.listings {
		if l.OwnerID == ownerID {
			c := *l
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func comparePrice(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	}
	return 0
}

func compareListings(a, b *entity.Listing, order repository.ListingOrder) int {
	var c int
	switch order.Field {
	case repository.ListingFieldExpiresAt:
		c = a.ExpiresAt.Compare(b.ExpiresAt)
	case repository.ListingFieldPrice:
		c = comparePrice(a.Price, b.Price)
	default:
		c = a.CreatedAt.Compare(b.CreatedAt)
	}
	if c == 0 {
		c = strings.Compare(a.ID, b.ID)
	}
	if order.Desc {
		c = -c
	}
	return c
}

func (r *fakeListingRepo) QueryAvailable(ctx context.Context, q repository.ListingQuery) ([]*entity.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, q)
	if r.queryErr != nil {
		if err := r.queryErr(q); err != nil {
			return nil, err
		}
	}

	order := q.OrderBy
	if order.Field == "" {
		order = repository.ListingOrder{Field: repository.ListingFieldCreatedAt, Desc: true}
	}

	var matched []*entity.Listing
	for _, l := range r.listings {
		if !l.IsAvailable {
			continue
		}
		if q.City != "" && l.Location.City != q.City {
			continue
		}
		if q.Category != "" && l.Category != q.Category {
			continue
		}
		if q.IsDonation != nil && l.IsDonation != *q.IsDonation {
			continue
		}
		if q.FreeOnly && !l.IsFree {
			continue
		}
		c := *l
		matched = append(matched, &c)
	}
	sort.Slice(matched, func(i, j int) bool { return compareListings(matched[i], matched[j], order) < 0 })

	if q.After != nil {
		pivot := &entity.Listing{ID: q.After.ID, Price: q.After.Number}
		if q.After.Time != nil {
			pivot.CreatedAt = *q.After.Time
			pivot.ExpiresAt = *q.After.Time
		}
		start := len(matched)
		for i, l := range matched {
			if compareListings(l, pivot, order) > 0 {
				start = i
				break
			}
		}
		matched = matched[start:]
	}

	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

func (r *fakeListingRepo) MarkSold(ctx context.Context, id, buyerID string) error {
	if r.markSoldErr != nil {
		return r.markSoldErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return errors.NotFound("Listing", nil)
	}
	l.IsAvailable = false
	l.SoldTo = buyerID
	return nil
}

func (r *fakeListingRepo) Release(ctx context.Context, id string) error {
	if r.releaseErr != nil {
		return r.releaseErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return errors.NotFound("Listing", nil)
	}
	l.IsAvailable = true
	l.SoldTo = ""
	return nil
}

// --- conversations ---

type fakeSubscription struct {
	changes  chan entity.MessageChange
	err      error
	stops    int
	stopOnce sync.Once
	mu       sync.Mutex
}

func newFakeSubscription() *fakeSubscription {
	return &fakeSubscription{changes: make(chan entity.MessageChange, 128)}
}

func (s *fakeSubscription) Changes() <-chan entity.MessageChange { return s.changes }

func (s *fakeSubscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *fakeSubscription) Stop() {
	s.mu.Lock()
	s.stops++
	s.mu.Unlock()
	s.stopOnce.Do(func() { close(s.changes) })
}

func (s *fakeSubscription) stopCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stops
}

func (s *fakeSubscription) push(kind entity.ChangeKind, m *entity.Message) {
	c := *m
	s.changes <- entity.MessageChange{Kind: kind, Message: &c}
}

// fail ends the stream the way a broken store listener does.
func (s *fakeSubscription) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	s.stopOnce.Do(func() { close(s.changes) })
}

type fakeConversationRepo struct {
	mu            sync.Mutex
	conversations map[string]*entity.Conversation
	messages      map[string][]*entity.Message
	clock         time.Time
	nextID        int

	markReadCalls map[string]int
	resetCalls    map[string]int
	subs          []*fakeSubscription

	listErr      error
	subscribeErr error
	recordErr    error
	markReadErr  map[string]error
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{
		conversations: make(map[string]*entity.Conversation),
		messages:      make(map[string][]*entity.Message),
		clock:         baseTime,
		markReadCalls: make(map[string]int),
		resetCalls:    make(map[string]int),
		markReadErr:   make(map[string]error),
	}
}

func (r *fakeConversationRepo) conversation(id string) *entity.Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *r.conversations[id]
	unread := make(map[string]int, len(c.UnreadCount))
	for k, v := range c.UnreadCount {
		unread[k] = v
	}
	c.UnreadCount = unread
	return &c
}

func (r *fakeConversationRepo) storedMessage(conversationID, id string) *entity.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages[conversationID] {
		if m.ID == id {
			c := *m
			return &c
		}
	}
	return nil
}

func (r *fakeConversationRepo) markReadCount(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.markReadCalls[id]
}

func (r *fakeConversationRepo) subscriptions() []*fakeSubscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*fakeSubscription(nil), r.subs...)
}

// seed stores a message created at baseTime plus offset minutes.
func (r *fakeConversationRepo) seed(conversationID, id, senderID, text string, read bool, offset int) *entity.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := &entity.Message{
		ID:             id,
		ConversationID: conversationID,
		SenderID:       senderID,
		Text:           text,
		Read:           read,
		CreatedAt:      baseTime.Add(time.Duration(offset) * time.Minute),
	}
	r.messages[conversationID] = append(r.messages[conversationID], m)
	c := *m
	return &c
}

func (r *fakeConversationRepo) Create(ctx context.Context, conversation *entity.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	if conversation.ID == "" {
		conversation.ID = fmt.Sprintf("conv-%d", r.nextID)
	}
	conversation.CreatedAt = r.clock
	conversation.UpdatedAt = r.clock
	c := *conversation
	r.conversations[c.ID] = &c
	return nil
}

func (r *fakeConversationRepo) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[id]
	if !ok {
		return nil, errors.NotFound("Conversation", nil)
	}
	cp := *c
	return &cp, nil
}

func (r *fakeConversationRepo) FindByBuyerAndListing(ctx context.Context, buyerID, listingID string) (*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.conversations {
		if c.BuyerID == buyerID && c.ListingID == listingID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, errors.NotFound("Conversation", nil)
}

func (r *fakeConversationRepo) ListByParticipant(ctx context.Context, userID string, limit int) ([]*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Conversation
	for _, c := range r.conversations {
		if c.HasParticipant(userID) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeConversationRepo) ResetUnread(ctx context.Context, conversationID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetCalls[conversationID+"/"+userID]++
	c, ok := r.conversations[conversationID]
	if !ok {
		return errors.NotFound("Conversation", nil)
	}
	if c.UnreadCount == nil {
		c.UnreadCount = map[string]int{}
	}
	c.UnreadCount[userID] = 0
	return nil
}

func (r *fakeConversationRepo) RecordMessageSent(ctx context.Context, conversationID string, last entity.LastMessage, recipientID string) error {
	if r.recordErr != nil {
		return r.recordErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[conversationID]
	if !ok {
		return errors.NotFound("Conversation", nil)
	}
	c.LastMessage = &last
	if c.UnreadCount == nil {
		c.UnreadCount = map[string]int{}
	}
	c.UnreadCount[recipientID]++
	c.UpdatedAt = last.Timestamp
	return nil
}

func (r *fakeConversationRepo) CreateMessage(ctx context.Context, message *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	if message.ID == "" {
		message.ID = fmt.Sprintf("msg-%d", r.nextID)
	}
	r.clock = r.clock.Add(time.Hour)
	message.CreatedAt = r.clock
	c := *message
	r.messages[message.ConversationID] = append(r.messages[message.ConversationID], &c)
	return nil
}

func (r *fakeConversationRepo) ListMessages(ctx context.Context, conversationID string) ([]*entity.Message, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.Message, 0, len(r.messages[conversationID]))
	for _, m := range r.messages[conversationID] {
		c := *m
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeConversationRepo) MarkMessageRead(ctx context.Context, conversationID, messageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markReadCalls[messageID]++
	if err := r.markReadErr[messageID]; err != nil {
		return err
	}
	for _, m := range r.messages[conversationID] {
		if m.ID == messageID {
			m.Read = true
			return nil
		}
	}
	return errors.NotFound("Message", nil)
}

func (r *fakeConversationRepo) SubscribeMessages(ctx context.Context, conversationID string) (repository.MessageSubscription, error) {
	if r.subscribeErr != nil {
		return nil, r.subscribeErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	sub := newFakeSubscription()
	r.subs = append(r.subs, sub)
	return sub, nil
}

// --- users ---

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User
	err   error
}

func newFakeUserRepo(users ...*entity.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*entity.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	c := *u
	return &c, nil
}

func (r *fakeUserRepo) Upsert(ctx context.Context, user *entity.User) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.users[user.ID]; ok {
		user.CreatedAt = existing.CreatedAt
	} else {
		user.CreatedAt = baseTime
	}
	user.LastLoginAt = baseTime
	c := *user
	r.users[user.ID] = &c
	return nil
}

// --- orders ---

type fakeOrderRepo struct {
	mu          sync.Mutex
	orders      map[string]*entity.Order
	appendCalls int
	appendErr   error
	nextID      int
}

func newFakeOrderRepo(orders ...*entity.Order) *fakeOrderRepo {
	r := &fakeOrderRepo{orders: make(map[string]*entity.Order)}
	for _, o := range orders {
		r.orders[o.ID] = o
	}
	return r
}

func (r *fakeOrderRepo) Create(ctx context.Context, order *entity.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	if order.ID == "" {
		order.ID = fmt.Sprintf("order-%d", r.nextID)
	}
	c := *order
	c.TrackingHistory = append([]entity.TrackingEvent(nil), order.TrackingHistory...)
	r.orders[order.ID] = &c
	return nil
}

func (r *fakeOrderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, errors.NotFound("Order", nil)
	}
	c := *o
	c.TrackingHistory = append([]entity.TrackingEvent(nil), o.TrackingHistory...)
	return &c, nil
}

func (r *fakeOrderRepo) AppendHistory(ctx context.Context, orderID string, event entity.TrackingEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appendCalls++
	if r.appendErr != nil {
		return r.appendErr
	}
	o, ok := r.orders[orderID]
	if !ok {
		return errors.NotFound("Order", nil)
	}
	o.TrackingHistory = append(o.TrackingHistory, event)
	o.Status = event.Status.Normalize()
	o.UpdatedAt = event.Timestamp
	return nil
}

func (r *fakeOrderRepo) ListByUserID(ctx context.Context, userID string, role string, limit int) ([]*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Order
	for _, o := range r.orders {
		if (role == "buyer" && o.BuyerID == userID) || (role == "seller" && o.SellerID == userID) {
			c := *o
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- collaborators ---

type notification struct {
	userID string
	event  string
	data   interface{}
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *fakeNotifier) NotifyUser(userID string, event string, data interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{userID: userID, event: event, data: data})
}

type fakeRateLimiter struct {
	denied map[string]bool
}

func (l *fakeRateLimiter) Allow(userID, action string) (bool, time.Duration) {
	if l.denied[action] {
		return false, time.Minute
	}
	return true, 0
}

type fakeAuthClient struct {
	identities map[string]*entity.Identity
	revoked    []string
	revokeErr  error
}

func (a *fakeAuthClient) VerifyToken(ctx context.Context, token string) (*entity.Identity, error) {
	identity, ok := a.identities[token]
	if !ok {
		return nil, fmt.Errorf("token rejected")
	}
	c := *identity
	return &c, nil
}

func (a *fakeAuthClient) RevokeRefreshTokens(ctx context.Context, uid string) error {
	if a.revokeErr != nil {
		return a.revokeErr
	}
	a.revoked = append(a.revoked, uid)
	return nil
}

type fakeImageStore struct {
	uploads []string
}

func (s *fakeImageStore) UploadListingImage(ctx context.Context, ownerID string, file io.Reader, filename, contentType string) (string, error) {
	s.uploads = append(s.uploads, filename)
	return "https://storage.googleapis.com/bucket/listings/" + ownerID + "/" + filename, nil
}
