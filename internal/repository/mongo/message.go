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

const messagesCollection = "messages"

// Interface guard
var _ repository.MessageRepository = (*MessageRepository)(nil)

type MessageRepository struct {
	col *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) *MessageRepository {
	return &MessageRepository{col: db.Collection(messagesCollection)}
}

type attachmentDoc struct {
	URL      string `bson:"url"`
	Kind     int16  `bson:"kind"`
	FileName string `bson:"file_name"`
	MimeType string `bson:"mime_type"`
	Size     int64  `bson:"size"`
}

type messageDoc struct {
	ID          string         `bson:"_id"`
	ClientID    string         `bson:"client_id,omitempty"`
	SenderID    string         `bson:"sender_id"`
	ReceiverID  string         `bson:"receiver_id"`
	Text        string         `bson:"text,omitempty"`
	Attachment  *attachmentDoc `bson:"attachment,omitempty"`
	State       string         `bson:"state"`
	CreatedAt   time.Time      `bson:"created_at"`
	DeliveredAt *time.Time     `bson:"delivered_at,omitempty"`
	ReadAt      *time.Time     `bson:"read_at,omitempty"`
	ExpiresAt   *time.Time     `bson:"expires_at,omitempty"`
}

// notExpired is the lazy-expiry filter applied on every read path: a
// message past its disappearing deadline is treated as absent.
func notExpired(now time.Time) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"expires_at": bson.M{"$exists": false}},
		bson.M{"expires_at": bson.M{"$gt": now}},
	}}
}

func (r *MessageRepository) Create(ctx context.Context, msg *model.Message) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if _, err := r.col.InsertOne(ctx, toMessageDoc(msg)); err != nil {
		return errors.Wrap(err, "messageRepo.Create.InsertOne")
	}
	return nil
}

func (r *MessageRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Message, error) {
	filter := bson.M{
		"_id":  id.String(),
		"$and": bson.A{notExpired(time.Now())},
	}

	var doc messageDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, errors.Wrap(err, "messageRepo.FindByID.Decode")
	}
	return fromMessageDoc(&doc)
}

func (r *MessageRepository) FindPending(ctx context.Context, receiverID uuid.UUID) ([]*model.Message, error) {
	filter := bson.M{
		"receiver_id": receiverID.String(),
		"state":       string(model.StateSent),
		"$and":        bson.A{notExpired(time.Now())},
	}

	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "messageRepo.FindPending.Find")
	}
	defer cur.Close(ctx)

	var res []*model.Message
	for cur.Next(ctx) {
		var doc messageDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "messageRepo.FindPending.Decode")
		}
		msg, err := fromMessageDoc(&doc)
		if err != nil {
			return nil, err
		}
		res = append(res, msg)
	}
	return res, errors.Wrap(cur.Err(), "messageRepo.FindPending.Cursor")
}

// MarkDelivered is a single bulk round trip. The state filter makes the
// call idempotent: a message already delivered or read is left untouched.
func (r *MessageRepository) MarkDelivered(ctx context.Context, ids []uuid.UUID, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	raw := make([]string, 0, len(ids))
	for _, id := range ids {
		raw = append(raw, id.String())
	}

	res, err := r.col.UpdateMany(ctx,
		bson.M{
			"_id":   bson.M{"$in": raw},
			"state": string(model.StateSent),
		},
		bson.M{"$set": bson.M{
			"state":        string(model.StateDelivered),
			"delivered_at": at,
		}},
	)
	if err != nil {
		return 0, errors.Wrap(err, "messageRepo.MarkDelivered.UpdateMany")
	}
	return res.ModifiedCount, nil
}

// MarkRead bulk-advances every unread message from senderID to readerID.
// sent -> read is a legal forward skip when the delivered ack was lost.
func (r *MessageRepository) MarkRead(ctx context.Context, readerID, senderID uuid.UUID, at time.Time) (int64, error) {
	res, err := r.col.UpdateMany(ctx,
		bson.M{
			"sender_id":   senderID.String(),
			"receiver_id": readerID.String(),
			"state":       bson.M{"$in": bson.A{string(model.StateSent), string(model.StateDelivered)}},
			"$and":        bson.A{notExpired(at)},
		},
		bson.M{"$set": bson.M{
			"state":   string(model.StateRead),
			"read_at": at,
		}},
	)
	if err != nil {
		return 0, errors.Wrap(err, "messageRepo.MarkRead.UpdateMany")
	}
	return res.ModifiedCount, nil
}

func toMessageDoc(m *model.Message) *messageDoc {
	doc := &messageDoc{
		ID:          m.ID.String(),
		ClientID:    m.ClientID,
		SenderID:    m.SenderID.String(),
		ReceiverID:  m.ReceiverID.String(),
		Text:        m.Text,
		State:       string(m.State),
		CreatedAt:   m.CreatedAt,
		DeliveredAt: m.DeliveredAt,
		ReadAt:      m.ReadAt,
		ExpiresAt:   m.ExpiresAt,
	}
	if m.Attachment != nil {
		doc.Attachment = &attachmentDoc{
			URL:      m.Attachment.URL,
			Kind:     int16(m.Attachment.Kind),
			FileName: m.Attachment.FileName,
			MimeType: m.Attachment.MimeType,
			Size:     m.Attachment.Size,
		}
	}
	return doc
}

func fromMessageDoc(doc *messageDoc) (*model.Message, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, errors.Wrap(err, "messageRepo.parse id")
	}
	sender, err := uuid.Parse(doc.SenderID)
	if err != nil {
		return nil, errors.Wrap(err, "messageRepo.parse sender_id")
	}
	receiver, err := uuid.Parse(doc.ReceiverID)
	if err != nil {
		return nil, errors.Wrap(err, "messageRepo.parse receiver_id")
	}

	msg := &model.Message{
		ID:          id,
		ClientID:    doc.ClientID,
		SenderID:    sender,
		ReceiverID:  receiver,
		Text:        doc.Text,
		State:       model.DeliveryState(doc.State),
		CreatedAt:   doc.CreatedAt,
		DeliveredAt: doc.DeliveredAt,
		ReadAt:      doc.ReadAt,
		ExpiresAt:   doc.ExpiresAt,
	}
	if doc.Attachment != nil {
		msg.Attachment = &model.Attachment{
			URL:      doc.Attachment.URL,
			Kind:     model.AttachmentKind(doc.Attachment.Kind),
			FileName: doc.Attachment.FileName,
			MimeType: doc.Attachment.MimeType,
			Size:     doc.Attachment.Size,
		}
	}
	return msg, nil
}
