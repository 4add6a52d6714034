package mongorepo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/webitel/im-messaging-service/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const blocksCollection = "user_blocks"

// Interface guard
var _ repository.BlockRepository = (*BlockRepository)(nil)

// BlockRepository stores the directional block set per user:
// { _id: <owner>, blocked_ids: [<target>, ...] }. A blocking B says
// nothing about B blocking A; both documents are independent.
type BlockRepository struct {
	col *mongo.Collection
}

func NewBlockRepository(db *mongo.Database) *BlockRepository {
	return &BlockRepository{col: db.Collection(blocksCollection)}
}

func (r *BlockRepository) IsBlocked(ctx context.Context, owner, target uuid.UUID) (bool, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{
		"_id":         owner.String(),
		"blocked_ids": target.String(),
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, errors.Wrap(err, "blockRepo.IsBlocked.CountDocuments")
	}
	return n > 0, nil
}

// Toggle flips membership. Read-then-write is acceptable here: a racing
// double-toggle degenerates to last-write-wins on a manually clicked flag.
func (r *BlockRepository) Toggle(ctx context.Context, owner, target uuid.UUID) (bool, error) {
	blocked, err := r.IsBlocked(ctx, owner, target)
	if err != nil {
		return false, err
	}

	var update bson.M
	if blocked {
		update = bson.M{
			"$pull": bson.M{"blocked_ids": target.String()},
			"$set":  bson.M{"updated_at": time.Now()},
		}
	} else {
		update = bson.M{
			"$addToSet": bson.M{"blocked_ids": target.String()},
			"$set":      bson.M{"updated_at": time.Now()},
		}
	}

	_, err = r.col.UpdateOne(ctx,
		bson.M{"_id": owner.String()},
		update,
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return blocked, errors.Wrap(err, "blockRepo.Toggle.UpdateOne")
	}
	return !blocked, nil
}
