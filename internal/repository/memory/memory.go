// Package memoryrepo provides in-process repository implementations with
// the same semantics as the mongo backend: filter-guarded monotonic state
// advances, lazy expiry, pair uniqueness. It backs the storage.driver=memory
// dev mode and the service-level test suites.
package memoryrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/webitel/im-messaging-service/internal/domain/model"
	"github.com/webitel/im-messaging-service/internal/repository"
)

// Interface guards
var (
	_ repository.MessageRepository      = (*MessageRepository)(nil)
	_ repository.ConversationRepository = (*ConversationRepository)(nil)
	_ repository.BlockRepository        = (*BlockRepository)(nil)
)

type MessageRepository struct {
	mu       sync.RWMutex
	messages map[uuid.UUID]*model.Message
}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{messages: make(map[uuid.UUID]*model.Message)}
}

func (r *MessageRepository) Create(_ context.Context, msg *model.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	cp := *msg
	r.messages[msg.ID] = &cp
	return nil
}

func (r *MessageRepository) FindByID(_ context.Context, id uuid.UUID) (*model.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	msg, ok := r.messages[id]
	if !ok || msg.Expired(time.Now()) {
		return nil, repository.ErrNotFound
	}
	cp := *msg
	return &cp, nil
}

func (r *MessageRepository) FindPending(_ context.Context, receiverID uuid.UUID) ([]*model.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	now := time.Now()

	var res []*model.Message
	for _, msg := range r.messages {
		if msg.ReceiverID == receiverID && msg.State == model.StateSent && !msg.Expired(now) {
			cp := *msg
			res = append(res, &cp)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	return res, nil
}

func (r *MessageRepository) MarkDelivered(_ context.Context, ids []uuid.UUID, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, id := range ids {
		msg, ok := r.messages[id]
		if !ok || msg.State != model.StateSent {
			continue
		}
		msg.Advance(model.StateDelivered, at)
		n++
	}
	return n, nil
}

func (r *MessageRepository) MarkRead(_ context.Context, readerID, senderID uuid.UUID, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, msg := range r.messages {
		if msg.SenderID != senderID || msg.ReceiverID != readerID || msg.Expired(at) {
			continue
		}
		if msg.Advance(model.StateRead, at) {
			n++
		}
	}
	return n, nil
}

type ConversationRepository struct {
	mu            sync.Mutex
	conversations map[[2]uuid.UUID]*model.Conversation
}

func NewConversationRepository() *ConversationRepository {
	return &ConversationRepository{conversations: make(map[[2]uuid.UUID]*model.Conversation)}
}

func (r *ConversationRepository) FindByParticipants(_ context.Context, a, b uuid.UUID) (*model.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.conversations[model.NormalizePair(a, b)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneConversation(conv), nil
}

func (r *ConversationRepository) Ensure(_ context.Context, a, b uuid.UUID) (*model.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pair := model.NormalizePair(a, b)
	if conv, ok := r.conversations[pair]; ok {
		return cloneConversation(conv), nil
	}

	now := time.Now()
	conv := &model.Conversation{
		ID:           uuid.New(),
		Participants: pair,
		Settings: []model.ParticipantSettings{
			{UserID: pair[0]},
			{UserID: pair[1]},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.conversations[pair] = conv
	return cloneConversation(conv), nil
}

func (r *ConversationRepository) UpdateSettings(_ context.Context, convID, userID uuid.UUID, patch repository.SettingsPatch) (*model.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.findByID(convID)
	if !ok {
		return nil, repository.ErrNotFound
	}
	for i := range conv.Settings {
		if conv.Settings[i].UserID != userID {
			continue
		}
		if patch.IsMuted != nil {
			conv.Settings[i].IsMuted = *patch.IsMuted
		}
		if patch.IsFavourite != nil {
			conv.Settings[i].IsFavourite = *patch.IsFavourite
		}
	}
	conv.UpdatedAt = time.Now()
	return cloneConversation(conv), nil
}

func (r *ConversationRepository) SetDisappearing(_ context.Context, convID uuid.UUID, seconds int64) (*model.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.findByID(convID)
	if !ok {
		return nil, repository.ErrNotFound
	}
	for i := range conv.Settings {
		conv.Settings[i].DisappearingSeconds = seconds
	}
	conv.UpdatedAt = time.Now()
	return cloneConversation(conv), nil
}

func (r *ConversationRepository) findByID(convID uuid.UUID) (*model.Conversation, bool) {
	for _, conv := range r.conversations {
		if conv.ID == convID {
			return conv, true
		}
	}
	return nil, false
}

func cloneConversation(conv *model.Conversation) *model.Conversation {
	cp := *conv
	cp.Settings = append([]model.ParticipantSettings(nil), conv.Settings...)
	return &cp
}

type BlockRepository struct {
	mu     sync.RWMutex
	blocks map[uuid.UUID]map[uuid.UUID]struct{}
}

func NewBlockRepository() *BlockRepository {
	return &BlockRepository{blocks: make(map[uuid.UUID]map[uuid.UUID]struct{})}
}

func (r *BlockRepository) IsBlocked(_ context.Context, owner, target uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.blocks[owner][target]
	return ok, nil
}

func (r *BlockRepository) Toggle(_ context.Context, owner, target uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.blocks[owner]
	if !ok {
		set = make(map[uuid.UUID]struct{})
		r.blocks[owner] = set
	}
	if _, blocked := set[target]; blocked {
		delete(set, target)
		return false, nil
	}
	set[target] = struct{}{}
	return true, nil
}
