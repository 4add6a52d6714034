package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"github.com/webitel/im-messaging-service/internal/domain/model"
	"github.com/webitel/im-messaging-service/internal/repository"
	"golang.org/x/sync/errgroup"
)

// Policy rejections, surfaced synchronously and never causing a partial
// state change.
var (
	ErrBlocked              = errors.New("policy: sending between these users is blocked")
	ErrNotParticipant       = errors.New("policy: caller is not a conversation participant")
	ErrConversationNotFound = errors.New("policy: conversation not found")
	ErrSelfConversation     = errors.New("policy: cannot converse with yourself")
)

// Policier is the conversation policy store: per-pair settings, block
// gating and disappearing-message expiry.
type Policier interface {
	GetSettings(ctx context.Context, userID, otherID uuid.UUID) (model.ParticipantSettings, error)
	ToggleMute(ctx context.Context, userID, otherID uuid.UUID) (model.ParticipantSettings, error)
	ToggleFavourite(ctx context.Context, userID, otherID uuid.UUID) (model.ParticipantSettings, error)
	SetDisappearingTimer(ctx context.Context, userID, otherID uuid.UUID, seconds int64) (model.ParticipantSettings, error)
	ToggleBlock(ctx context.Context, userID, targetID uuid.UUID) (bool, error)
	CheckSendAllowed(ctx context.Context, senderID, receiverID uuid.UUID) error
	ComputeExpiry(ctx context.Context, senderID, receiverID uuid.UUID) (*time.Time, error)
}

// Interface guard
var _ Policier = (*PolicyService)(nil)

type PolicyService struct {
	conversations repository.ConversationRepository
	blocks        repository.BlockRepository

	// [HOT_PATH] settings are read on every send (expiry computation);
	// cache per normalized pair, invalidated on every mutation.
	cache *lru.Cache[string, *model.Conversation]
}

func NewPolicyService(conversations repository.ConversationRepository, blocks repository.BlockRepository) *PolicyService {
	cache, _ := lru.New[string, *model.Conversation](1024)
	return &PolicyService{
		conversations: conversations,
		blocks:        blocks,
		cache:         cache,
	}
}

func pairKey(a, b uuid.UUID) string {
	pair := model.NormalizePair(a, b)
	return fmt.Sprintf("%s:%s", pair[0], pair[1])
}

// GetSettings returns the caller's own view, defaulting to all-false/zero
// when the pair never talked and never touched settings.
func (s *PolicyService) GetSettings(ctx context.Context, userID, otherID uuid.UUID) (model.ParticipantSettings, error) {
	conv, err := s.lookup(ctx, userID, otherID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.ParticipantSettings{UserID: userID}, nil
		}
		return model.ParticipantSettings{}, err
	}
	return conv.SettingsFor(userID), nil
}

func (s *PolicyService) ToggleMute(ctx context.Context, userID, otherID uuid.UUID) (model.ParticipantSettings, error) {
	return s.toggle(ctx, userID, otherID, func(cur model.ParticipantSettings) repository.SettingsPatch {
		muted := !cur.IsMuted
		return repository.SettingsPatch{IsMuted: &muted}
	})
}

func (s *PolicyService) ToggleFavourite(ctx context.Context, userID, otherID uuid.UUID) (model.ParticipantSettings, error) {
	return s.toggle(ctx, userID, otherID, func(cur model.ParticipantSettings) repository.SettingsPatch {
		fav := !cur.IsFavourite
		return repository.SettingsPatch{IsFavourite: &fav}
	})
}

// toggle is the shared read-modify-write for the per-participant booleans.
// The conversation is created lazily on first use with the other side's
// entry defaulted.
func (s *PolicyService) toggle(ctx context.Context, userID, otherID uuid.UUID, patchFn func(model.ParticipantSettings) repository.SettingsPatch) (model.ParticipantSettings, error) {
	if userID == otherID {
		return model.ParticipantSettings{}, ErrSelfConversation
	}

	conv, err := s.conversations.Ensure(ctx, userID, otherID)
	if err != nil {
		return model.ParticipantSettings{}, err
	}
	if err := s.authorize(conv, userID); err != nil {
		return model.ParticipantSettings{}, err
	}

	updated, err := s.conversations.UpdateSettings(ctx, conv.ID, userID, patchFn(conv.SettingsFor(userID)))
	if err != nil {
		return model.ParticipantSettings{}, err
	}
	s.cache.Remove(pairKey(userID, otherID))
	return updated.SettingsFor(userID), nil
}

// SetDisappearingTimer writes the same value into BOTH participants'
// entries in one atomic update: a timer set by either party governs new
// messages in both directions (shared-setting semantics).
func (s *PolicyService) SetDisappearingTimer(ctx context.Context, userID, otherID uuid.UUID, seconds int64) (model.ParticipantSettings, error) {
	if userID == otherID {
		return model.ParticipantSettings{}, ErrSelfConversation
	}
	if seconds < 0 {
		seconds = 0
	}

	conv, err := s.conversations.Ensure(ctx, userID, otherID)
	if err != nil {
		return model.ParticipantSettings{}, err
	}
	if err := s.authorize(conv, userID); err != nil {
		return model.ParticipantSettings{}, err
	}

	updated, err := s.conversations.SetDisappearing(ctx, conv.ID, seconds)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.ParticipantSettings{}, ErrConversationNotFound
		}
		return model.ParticipantSettings{}, err
	}
	s.cache.Remove(pairKey(userID, otherID))
	return updated.SettingsFor(userID), nil
}

func (s *PolicyService) ToggleBlock(ctx context.Context, userID, targetID uuid.UUID) (bool, error) {
	if userID == targetID {
		return false, ErrSelfConversation
	}
	return s.blocks.Toggle(ctx, userID, targetID)
}

// CheckSendAllowed verifies BOTH block directions independently; a send is
// rejected if either party blocks the other. The two lookups run in
// parallel and fail together.
func (s *PolicyService) CheckSendAllowed(ctx context.Context, senderID, receiverID uuid.UUID) error {
	if senderID == receiverID {
		return ErrSelfConversation
	}

	g, gCtx := errgroup.WithContext(ctx)

	var senderBlocks, receiverBlocks bool
	g.Go(func() error {
		var err error
		senderBlocks, err = s.blocks.IsBlocked(gCtx, senderID, receiverID)
		return err
	})
	g.Go(func() error {
		var err error
		receiverBlocks, err = s.blocks.IsBlocked(gCtx, receiverID, senderID)
		return err
	})
	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "policy: block lookup failed")
	}

	if senderBlocks || receiverBlocks {
		return ErrBlocked
	}
	return nil
}

// ComputeExpiry reads the sender's own disappearing timer for the pair;
// a positive timer yields now+T, zero yields no expiry.
func (s *PolicyService) ComputeExpiry(ctx context.Context, senderID, receiverID uuid.UUID) (*time.Time, error) {
	conv, err := s.lookup(ctx, senderID, receiverID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	seconds := conv.SettingsFor(senderID).DisappearingSeconds
	if seconds <= 0 {
		return nil, nil
	}
	expiry := time.Now().Add(time.Duration(seconds) * time.Second)
	return &expiry, nil
}

func (s *PolicyService) lookup(ctx context.Context, a, b uuid.UUID) (*model.Conversation, error) {
	key := pairKey(a, b)
	if conv, ok := s.cache.Get(key); ok {
		return conv, nil
	}
	conv, err := s.conversations.FindByParticipants(ctx, a, b)
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, conv)
	return conv, nil
}

// authorize enforces the participant invariant on settings mutations.
func (s *PolicyService) authorize(conv *model.Conversation, userID uuid.UUID) error {
	if !conv.HasParticipant(userID) {
		return ErrNotParticipant
	}
	return nil
}
