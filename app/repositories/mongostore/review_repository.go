package mongostore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cardboard/app/models"
	"cardboard/app/repositories"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type reviewDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Post      primitive.ObjectID `bson:"post"`
	Nickname  string             `bson:"nickname"`
	Text      string             `bson:"text"`
	Rating    int                `bson:"rating"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d reviewDoc) model() *models.Review {
	return &models.Review{
		ID:        d.ID.Hex(),
		PostID:    d.Post.Hex(),
		Nickname:  d.Nickname,
		Text:      d.Text,
		Rating:    d.Rating,
		CreatedAt: d.CreatedAt,
	}
}

// ReviewRepository stores reviews in the reviews collection, each holding
// its post's ObjectID.
type ReviewRepository struct {
	coll *mongo.Collection
}

func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	postID, err := objectID(review.PostID)
	if err != nil {
		return err
	}
	doc := reviewDoc{
		ID:        primitive.NewObjectID(),
		Post:      postID,
		Nickname:  review.Nickname,
		Text:      review.Text,
		Rating:    review.Rating,
		CreatedAt: review.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return err
	}
	review.ID = doc.ID.Hex()
	return nil
}

func (r *ReviewRepository) findOne(ctx context.Context, filter bson.M) (*models.Review, error) {
	var doc reviewDoc
	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*models.Review, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *ReviewRepository) ListByPost(ctx context.Context, postID string) ([]*models.Review, error) {
	reviews := []*models.Review{}
	oid, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return reviews, nil
	}
	cur, err := r.coll.Find(ctx, bson.M{"post": oid}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var doc reviewDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		reviews = append(reviews, doc.model())
	}
	return reviews, cur.Err()
}

func (r *ReviewRepository) Update(ctx context.Context, review *models.Review) error {
	oid, err := objectID(review.ID)
	if err != nil {
		return err
	}
	update := bson.M{"$set": bson.M{
		"nickname": review.Nickname,
		"text":     review.Text,
		"rating":   review.Rating,
	}}
	var doc reviewDoc
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repositories.ErrNotFound
	}
	if err != nil {
		return err
	}
	review.PostID = doc.Post.Hex()
	return nil
}

func (r *ReviewRepository) Delete(ctx context.Context, id string) (*models.Review, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc reviewDoc
	err = r.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

func (r *ReviewRepository) DeleteByPost(ctx context.Context, postID string) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return 0, nil
	}
	res, err := r.coll.DeleteMany(ctx, bson.M{"post": oid})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *ReviewRepository) NicknameExists(ctx context.Context, postID, nickname, excludeID string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return false, nil
	}
	filter := excluding(bson.M{"post": oid, "nickname": strings.TrimSpace(nickname)}, excludeID)
	n, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

var _ repositories.ReviewRepository = (*ReviewRepository)(nil)
