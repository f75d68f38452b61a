// Package mongostore implements the post and review repositories on MongoDB.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"cardboard/app/repositories"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names.
const (
	PostsCollection   = "posts"
	ReviewsCollection = "reviews"
)

const connectTimeout = 10 * time.Second

// Store holds the client and database shared by both repositories.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials uri and selects database.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}
	return &Store{client: client, db: client.Database(database)}, nil
}

// EnsureIndexes creates the lookup indexes. Uniqueness stays an
// application-level check.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(ReviewsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "post", Value: 1}, {Key: "nickname", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("creating review index: %w", err)
	}
	_, err = s.db.Collection(PostsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "collection", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("creating post index: %w", err)
	}
	return nil
}

// Posts returns the post repository.
func (s *Store) Posts() *PostRepository {
	return &PostRepository{coll: s.db.Collection(PostsCollection)}
}

// Reviews returns the review repository.
func (s *Store) Reviews() *ReviewRepository {
	return &ReviewRepository{coll: s.db.Collection(ReviewsCollection)}
}

// Ping checks the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// objectID parses a hex id. Anything malformed cannot exist, so it maps to
// ErrNotFound.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, repositories.ErrNotFound
	}
	return oid, nil
}

// excluding adds an _id inequality when excludeID is a valid id.
func excluding(filter bson.M, excludeID string) bson.M {
	if excludeID == "" {
		return filter
	}
	if oid, err := primitive.ObjectIDFromHex(excludeID); err == nil {
		filter["_id"] = bson.M{"$ne": oid}
	}
	return filter
}

// paginate mirrors the skip/limit options used for every page query.
func paginate(skip, limit int) *options.FindOptions {
	if skip < 0 {
		skip = 0
	}
	return options.Find().
		SetSkip(int64(skip)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "_id", Value: 1}})
}
