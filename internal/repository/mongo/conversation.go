package mongorepo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/webitel/im-messaging-service/internal/domain/model"
	"github.com/webitel/im-messaging-service/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const conversationsCollection = "conversations"

// Interface guard
var _ repository.ConversationRepository = (*ConversationRepository)(nil)

type ConversationRepository struct {
	col *mongo.Collection
}

func NewConversationRepository(db *mongo.Database) *ConversationRepository {
	return &ConversationRepository{col: db.Collection(conversationsCollection)}
}

type settingsDoc struct {
	UserID              string `bson:"user_id"`
	IsMuted             bool   `bson:"is_muted"`
	IsFavourite         bool   `bson:"is_favourite"`
	DisappearingSeconds int64  `bson:"disappearing_seconds"`
}

type conversationDoc struct {
	ID           string        `bson:"_id"`
	Participants []string      `bson:"participants"` // always the normalized pair
	Settings     []settingsDoc `bson:"settings"`
	CreatedAt    time.Time     `bson:"created_at"`
	UpdatedAt    time.Time     `bson:"updated_at"`
}

func (r *ConversationRepository) FindByParticipants(ctx context.Context, a, b uuid.UUID) (*model.Conversation, error) {
	pair := model.NormalizePair(a, b)

	var doc conversationDoc
	err := r.col.FindOne(ctx, bson.M{
		"participants": bson.A{pair[0].String(), pair[1].String()},
	}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, errors.Wrap(err, "conversationRepo.FindByParticipants.Decode")
	}
	return fromConversationDoc(&doc)
}

// Ensure lazily creates the conversation on first contact between a pair.
// The upsert races are resolved by the unique index on participants: the
// loser of a concurrent insert simply reads the winner's document.
func (r *ConversationRepository) Ensure(ctx context.Context, a, b uuid.UUID) (*model.Conversation, error) {
	pair := model.NormalizePair(a, b)
	now := time.Now()

	filter := bson.M{"participants": bson.A{pair[0].String(), pair[1].String()}}
	update := bson.M{
		"$setOnInsert": bson.M{
			"_id":          uuid.NewString(),
			"participants": bson.A{pair[0].String(), pair[1].String()},
			"settings": bson.A{
				settingsDoc{UserID: pair[0].String()},
				settingsDoc{UserID: pair[1].String()},
			},
			"created_at": now,
			"updated_at": now,
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc conversationDoc
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return r.FindByParticipants(ctx, a, b)
		}
		return nil, errors.Wrap(err, "conversationRepo.Ensure.FindOneAndUpdate")
	}
	return fromConversationDoc(&doc)
}

// UpdateSettings patches one participant's own entry with a single
// arrayFilters update. Last-write-wins on the booleans is acceptable:
// these are manually toggled flags.
func (r *ConversationRepository) UpdateSettings(ctx context.Context, convID, userID uuid.UUID, patch repository.SettingsPatch) (*model.Conversation, error) {
	set := bson.M{"updated_at": time.Now()}
	if patch.IsMuted != nil {
		set["settings.$[elem].is_muted"] = *patch.IsMuted
	}
	if patch.IsFavourite != nil {
		set["settings.$[elem].is_favourite"] = *patch.IsFavourite
	}

	opts := options.FindOneAndUpdate().
		SetArrayFilters(options.ArrayFilters{
			Filters: bson.A{bson.M{"elem.user_id": userID.String()}},
		}).
		SetReturnDocument(options.After)

	var doc conversationDoc
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": convID.String()},
		bson.M{"$set": set},
		opts,
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, errors.Wrap(err, "conversationRepo.UpdateSettings.FindOneAndUpdate")
	}
	return fromConversationDoc(&doc)
}

// SetDisappearing writes the timer into BOTH settings entries with the
// all-positional operator: one atomic document update, so a concurrent
// mute toggle can never interleave between two half-writes.
func (r *ConversationRepository) SetDisappearing(ctx context.Context, convID uuid.UUID, seconds int64) (*model.Conversation, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc conversationDoc
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": convID.String()},
		bson.M{"$set": bson.M{
			"settings.$[].disappearing_seconds": seconds,
			"updated_at":                        time.Now(),
		}},
		opts,
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, errors.Wrap(err, "conversationRepo.SetDisappearing.FindOneAndUpdate")
	}
	return fromConversationDoc(&doc)
}

func fromConversationDoc(doc *conversationDoc) (*model.Conversation, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, errors.Wrap(err, "conversationRepo.parse id")
	}
	if len(doc.Participants) != 2 {
		return nil, errors.Errorf("conversationRepo: malformed participants on %s", doc.ID)
	}
	p0, err := uuid.Parse(doc.Participants[0])
	if err != nil {
		return nil, errors.Wrap(err, "conversationRepo.parse participant")
	}
	p1, err := uuid.Parse(doc.Participants[1])
	if err != nil {
		return nil, errors.Wrap(err, "conversationRepo.parse participant")
	}

	conv := &model.Conversation{
		ID:           id,
		Participants: [2]uuid.UUID{p0, p1},
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}
	for _, s := range doc.Settings {
		uid, err := uuid.Parse(s.UserID)
		if err != nil {
			return nil, errors.Wrap(err, "conversationRepo.parse settings user_id")
		}
		conv.Settings = append(conv.Settings, model.ParticipantSettings{
			UserID:              uid,
			IsMuted:             s.IsMuted,
			IsFavourite:         s.IsFavourite,
			DisappearingSeconds: s.DisappearingSeconds,
		})
	}
	return conv, nil
}
