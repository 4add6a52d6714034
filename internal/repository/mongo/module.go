package mongorepo

import (
	"context"
	"time"

	"github.com/webitel/im-messaging-service/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"
)

var Module = fx.Module("mongo-repository",
	fx.Provide(
		fx.Annotate(NewMessageRepository, fx.As(new(repository.MessageRepository))),
		fx.Annotate(NewConversationRepository, fx.As(new(repository.ConversationRepository))),
		fx.Annotate(NewBlockRepository, fx.As(new(repository.BlockRepository))),
	),
	fx.Invoke(EnsureIndexes),
)

// EnsureIndexes creates the index set the delivery core depends on:
//   - messages (sender_id, receiver_id, created_at): history reads
//   - messages (receiver_id, state): reconciliation scan
//   - conversations participants UNIQUE: the pair-uniqueness invariant
func EnsureIndexes(lc fx.Lifecycle, db *mongo.Database) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
			defer cancel()

			_, err := db.Collection(messagesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
				{Keys: bson.D{
					{Key: "sender_id", Value: 1},
					{Key: "receiver_id", Value: 1},
					{Key: "created_at", Value: 1},
				}},
				{Keys: bson.D{
					{Key: "receiver_id", Value: 1},
					{Key: "state", Value: 1},
				}},
			})
			if err != nil {
				return err
			}

			_, err = db.Collection(conversationsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
				Keys:    bson.D{{Key: "participants", Value: 1}},
				Options: options.Index().SetUnique(true),
			})
			return err
		},
	})
}
