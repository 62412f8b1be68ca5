package notes

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoCollection = "notes"

// MongoRepository stores one document per note. Single-document writes are
// atomic, so it needs no transactions.
type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(mongoCollection)}
}

// EnsureIndexes creates the index used by ListByUser.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "modified_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

func (r *MongoRepository) Create(ctx context.Context, n *models.Note) error {
	if _, err := r.coll.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

func (r *MongoRepository) Get(ctx context.Context, id, userID string) (*models.Note, error) {
	var n models.Note
	err := r.coll.FindOne(ctx, ownedBy(id, userID)).Decode(&n)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find note %s: %w", id, err)
	}
	return &n, nil
}

func (r *MongoRepository) ListByUser(ctx context.Context, userID string) ([]models.Note, error) {
	opts := options.Find().SetSort(bson.D{{Key: "modified_at", Value: -1}})

	cursor, err := r.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer cursor.Close(ctx)

	result := make([]models.Note, 0)
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("decode notes: %w", err)
	}
	return result, nil
}

func (r *MongoRepository) Update(ctx context.Context, n *models.Note) error {
	res, err := r.coll.UpdateOne(ctx, notNewerThan(n), updateDoc(n))
	if err != nil {
		return fmt.Errorf("update note %s: %w", n.ID, err)
	}
	if res.MatchedCount == 0 {
		return common.ErrVersionConflict
	}
	return nil
}

func (r *MongoRepository) Delete(ctx context.Context, id, userID string) error {
	res, err := r.coll.DeleteOne(ctx, ownedBy(id, userID))
	if err != nil {
		return fmt.Errorf("delete note %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func ownedBy(id, userID string) bson.M {
	return bson.M{"_id": id, "user_id": userID}
}

// notNewerThan matches the note only while its stored copy is not newer
// than the incoming edit.
func notNewerThan(n *models.Note) bson.M {
	f := ownedBy(n.ID, n.UserID)
	f["modified_at"] = bson.M{"$lte": n.ModifiedAt}
	return f
}

func updateDoc(n *models.Note) bson.M {
	return bson.M{"$set": bson.M{
		"title":       n.Title,
		"content":     n.Content,
		"modified_at": n.ModifiedAt,
	}}
}
