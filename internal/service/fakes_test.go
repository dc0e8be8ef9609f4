package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

// In-memory фейки сторов и нотификатора для тестов сервисного слоя.

type fakeMessageStore struct {
	mu        sync.Mutex
	seq       int
	byID      map[string]*domain.Message
	delivered chan string
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{
		byID:      make(map[string]*domain.Message),
		delivered: make(chan string, 8),
	}
}

func (f *fakeMessageStore) Save(ctx context.Context, m *domain.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	m.ID = fmt.Sprintf("m%d", f.seq)
	m.Status = domain.StatusSent
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	cp := *m
	f.byID[m.ID] = &cp
	return nil
}

func (f *fakeMessageStore) Get(ctx context.Context, id string) (*domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrMessageNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMessageStore) UpdateAtomic(ctx context.Context, id string, fn func(m *domain.Message) error) (*domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrMessageNotFound
	}
	cp := *m
	if err := fn(&cp); err != nil {
		return nil, err
	}
	f.byID[id] = &cp
	out := cp
	return &out, nil
}

func (f *fakeMessageStore) MarkDelivered(ctx context.Context, id string) error {
	f.mu.Lock()
	if m, ok := f.byID[id]; ok && m.Status == domain.StatusSent {
		m.Status = domain.StatusDelivered
	}
	f.mu.Unlock()
	f.delivered <- id
	return nil
}

func (f *fakeMessageStore) MarkReadBulk(ctx context.Context, readerID, otherID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, m := range f.byID {
		if m.SenderID == otherID && m.ReceiverID != nil && *m.ReceiverID == readerID && m.Status != domain.StatusRead {
			m.Status = domain.StatusRead
			n++
		}
	}
	return n, nil
}

func (f *fakeMessageStore) ListConversation(ctx context.Context, convID, after string, limit int) ([]domain.Message, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Message
	for _, m := range f.byID {
		if m.ConversationID != nil && *m.ConversationID == convID {
			out = append(out, *m)
		}
	}
	return out, "", nil
}

func (f *fakeMessageStore) ListGroup(ctx context.Context, groupID, after string, limit int) ([]domain.Message, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Message
	for _, m := range f.byID {
		if m.GroupID != nil && *m.GroupID == groupID {
			out = append(out, *m)
		}
	}
	return out, "", nil
}

func (f *fakeMessageStore) ListStarred(ctx context.Context, userID string) ([]domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Message
	for _, m := range f.byID {
		if m.StarredByUser(userID) {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMessageStore) DeleteByGroup(ctx context.Context, groupID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, m := range f.byID {
		if m.GroupID != nil && *m.GroupID == groupID {
			delete(f.byID, id)
			n++
		}
	}
	return n, nil
}

type fakeUserStore struct {
	users map[string]*domain.User
}

func newFakeUserStore(ids ...string) *fakeUserStore {
	f := &fakeUserStore{users: make(map[string]*domain.User)}
	for _, id := range ids {
		f.users[id] = &domain.User{ID: id, Email: id + "@test", FullName: id}
	}
	return f
}

func (f *fakeUserStore) Get(ctx context.Context, id string) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserStore) ListExcept(ctx context.Context, userID string) ([]domain.User, error) {
	var out []domain.User
	for id, u := range f.users {
		if id != userID {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUserStore) TouchLastSeen(ctx context.Context, userID string) error { return nil }

type fakeGroupStore struct {
	mu     sync.Mutex
	seq    int
	groups map[string]*domain.Group
}

func newFakeGroupStore() *fakeGroupStore {
	return &fakeGroupStore{groups: make(map[string]*domain.Group)}
}

func (f *fakeGroupStore) Create(ctx context.Context, g *domain.Group) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	g.ID = fmt.Sprintf("g%d", f.seq)
	g.CreatedAt = time.Now()
	g.UpdatedAt = g.CreatedAt
	cp := *g
	f.groups[g.ID] = &cp
	return nil
}

func (f *fakeGroupStore) Get(ctx context.Context, id string) (*domain.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[id]
	if !ok {
		return nil, domain.ErrGroupNotFound
	}
	cp := *g
	cp.Members = append([]string(nil), g.Members...)
	return &cp, nil
}

func (f *fakeGroupStore) ListForUser(ctx context.Context, userID string) ([]domain.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Group
	for _, g := range f.groups {
		if g.IsMember(userID) {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (f *fakeGroupStore) UpdateMeta(ctx context.Context, id, name, avatar string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[id]
	if !ok {
		return domain.ErrGroupNotFound
	}
	if name != "" {
		g.Name = name
	}
	if avatar != "" {
		g.Avatar = avatar
	}
	g.UpdatedAt = time.Now()
	return nil
}

func (f *fakeGroupStore) AddMember(ctx context.Context, groupID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[groupID]
	if !ok {
		return domain.ErrGroupNotFound
	}
	if g.IsMember(userID) {
		return domain.ErrAlreadyMember
	}
	g.Members = append(g.Members, userID)
	return nil
}

func (f *fakeGroupStore) RemoveMember(ctx context.Context, groupID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[groupID]
	if !ok {
		return domain.ErrGroupNotFound
	}
	if !g.IsMember(userID) {
		return domain.ErrNotGroupMember
	}
	g.Members = g.MembersExcept(userID)
	return nil
}

func (f *fakeGroupStore) SetLastMessage(ctx context.Context, groupID string, lm *domain.GroupLastMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[groupID]
	if !ok {
		return domain.ErrGroupNotFound
	}
	g.LastMessage = lm
	return nil
}

func (f *fakeGroupStore) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.groups[id]; !ok {
		return domain.ErrGroupNotFound
	}
	delete(f.groups, id)
	return nil
}

// fakeNotifier пишет имена событий в журнал; аргументы последнего вызова
// доступны для проверок.
type fakeNotifier struct {
	mu     sync.Mutex
	events []string

	lastUsers     []string
	lastMessage   *domain.Message
	lastGroupID   string
	lastMessageID string
	subscribed    map[string][]string // userID -> groupIDs
	unsubscribed  map[string][]string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{
		subscribed:   make(map[string][]string),
		unsubscribed: make(map[string][]string),
	}
}

func (f *fakeNotifier) record(ev string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

func (f *fakeNotifier) has(ev string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.events {
		if e == ev {
			return true
		}
	}
	return false
}

func (f *fakeNotifier) NewMessage(userIDs []string, msg *domain.Message) {
	f.mu.Lock()
	f.lastUsers = userIDs
	f.lastMessage = msg
	f.mu.Unlock()
	f.record("newMessage")
}

func (f *fakeNotifier) NewGroupMessage(groupID string, msg *domain.Message) {
	f.mu.Lock()
	f.lastGroupID = groupID
	f.lastMessage = msg
	f.mu.Unlock()
	f.record("newGroupMessage")
}

func (f *fakeNotifier) MessageRead(otherID, readerID string) { f.record("messageRead") }

func (f *fakeNotifier) ReactionAdded(userIDs []string, messageID string, r domain.Reaction) {
	f.mu.Lock()
	f.lastUsers = userIDs
	f.lastMessageID = messageID
	f.mu.Unlock()
	f.record("reactionAdded")
}

func (f *fakeNotifier) ReactionRemoved(userIDs []string, messageID, userID, emoji string) {
	f.record("reactionRemoved")
}

func (f *fakeNotifier) MessageDeleted(userIDs []string, messageID string, deletedFor []string) {
	f.mu.Lock()
	f.lastUsers = userIDs
	f.lastMessageID = messageID
	f.mu.Unlock()
	f.record("messageDeleted")
}

func (f *fakeNotifier) MessageStarred(userIDs []string, messageID string, starred bool, userID string) {
	f.record("messageStarred")
}

func (f *fakeNotifier) GroupUpdated(userIDs []string, g *domain.Group) { f.record("groupUpdated") }

func (f *fakeNotifier) GroupMemberAdded(userID string, g *domain.Group, addedBy string) {
	f.record("groupMemberAdded")
}

func (f *fakeNotifier) GroupMemberRemoved(userID, groupID, removedBy string) {
	f.record("groupMemberRemoved")
}

func (f *fakeNotifier) GroupMemberLeft(userIDs []string, groupID, userID string) {
	f.record("groupMemberLeft")
}

func (f *fakeNotifier) GroupDeleted(userIDs []string, groupID, deletedBy string) {
	f.record("groupDeleted")
}

func (f *fakeNotifier) GroupSubscribe(userID, groupID string) {
	f.mu.Lock()
	f.subscribed[userID] = append(f.subscribed[userID], groupID)
	f.mu.Unlock()
	f.record("groupSubscribe")
}

func (f *fakeNotifier) GroupUnsubscribe(userID, groupID string) {
	f.mu.Lock()
	f.unsubscribed[userID] = append(f.unsubscribed[userID], groupID)
	f.mu.Unlock()
	f.record("groupUnsubscribe")
}

func (f *fakeNotifier) GroupDropped(groupID string) { f.record("groupDropped") }

type fakePresence struct {
	online map[string]bool
}

func (f *fakePresence) IsOnline(userID string) bool { return f.online[userID] }

type fakeConvStore struct {
	mu     sync.Mutex
	seq    int
	byKey  map[string]*domain.Conversation
	legacy []*domain.Message

	// createErr отдаётся первым вызовом Create (эмуляция проигрыша гонки);
	// winner при этом вставляется как строка, закоммиченная победителем
	createErr error
	winner    *domain.Conversation
}

func newFakeConvStore() *fakeConvStore {
	return &fakeConvStore{byKey: make(map[string]*domain.Conversation)}
}

func (f *fakeConvStore) GetByRoomKey(ctx context.Context, roomKey string) (*domain.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byKey[roomKey]
	if !ok {
		return nil, domain.ErrConversationNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeConvStore) Create(ctx context.Context, c *domain.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		err := f.createErr
		f.createErr = nil
		if f.winner != nil {
			f.byKey[f.winner.RoomKey] = f.winner
		}
		return err
	}
	f.seq++
	c.ID = fmt.Sprintf("c%d", f.seq)
	c.CreatedAt = time.Now()
	cp := *c
	f.byKey[c.RoomKey] = &cp
	return nil
}

func (f *fakeConvStore) LatestLegacy(ctx context.Context, a, b string) (*domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *domain.Message
	for _, m := range f.legacy {
		pair := m.SenderID == a && m.ReceiverID != nil && *m.ReceiverID == b ||
			m.SenderID == b && m.ReceiverID != nil && *m.ReceiverID == a
		if pair && m.ConversationID == nil {
			if latest == nil || m.CreatedAt.After(latest.CreatedAt) {
				latest = m
			}
		}
	}
	if latest == nil {
		return nil, domain.ErrMessageNotFound
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeConvStore) BackfillLegacy(ctx context.Context, convID, a, b string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, m := range f.legacy {
		pair := m.SenderID == a && m.ReceiverID != nil && *m.ReceiverID == b ||
			m.SenderID == b && m.ReceiverID != nil && *m.ReceiverID == a
		if pair && m.ConversationID == nil {
			id := convID
			m.ConversationID = &id
			n++
		}
	}
	return n, nil
}

func (f *fakeConvStore) SetLastMessage(ctx context.Context, convID, messageID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.byKey {
		if c.ID == convID {
			id := messageID
			c.LastMessageID = &id
			c.LastMessageAt = at
			return nil
		}
	}
	return domain.ErrConversationNotFound
}

func (f *fakeConvStore) ListForUser(ctx context.Context, userID string) ([]domain.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Conversation
	for _, c := range f.byKey {
		if c.HasParticipant(userID) {
			out = append(out, *c)
		}
	}
	return out, nil
}
