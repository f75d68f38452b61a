package mongostore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"cardboard/app/models"
	"cardboard/app/query"
	"cardboard/app/repositories"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type postDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Price       string             `bson:"price"`
	Collection  string             `bson:"collection"`
	ReleaseDate string             `bson:"releaseDate"`
	Description string             `bson:"description"`
	Illustrator string             `bson:"illustrator"`
	Image       string             `bson:"image"`
	CreatedAt   time.Time          `bson:"createdAt"`
}

func toPostDoc(p *models.Post) postDoc {
	return postDoc{
		Title:       p.Title,
		Price:       p.Price,
		Collection:  p.Collection,
		ReleaseDate: p.ReleaseDate,
		Description: p.Description,
		Illustrator: p.Illustrator,
		Image:       p.Image,
		CreatedAt:   p.CreatedAt,
	}
}

func (d postDoc) model() *models.Post {
	return &models.Post{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Price:       d.Price,
		Collection:  d.Collection,
		ReleaseDate: d.ReleaseDate,
		Description: d.Description,
		Illustrator: d.Illustrator,
		Image:       d.Image,
		CreatedAt:   d.CreatedAt,
	}
}

// PostRepository stores posts in the posts collection.
type PostRepository struct {
	coll *mongo.Collection
}

func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	doc := toPostDoc(post)
	doc.ID = primitive.NewObjectID()
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return err
	}
	post.ID = doc.ID.Hex()
	return nil
}

func (r *PostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc postDoc
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

func (r *PostRepository) Find(ctx context.Context, filter query.Filter, skip, limit int) ([]*models.Post, error) {
	posts := []*models.Post{}
	if limit <= 0 {
		return posts, nil
	}
	cur, err := r.coll.Find(ctx, filter.BSON(), paginate(skip, limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var doc postDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		posts = append(posts, doc.model())
	}
	return posts, cur.Err()
}

func (r *PostRepository) Count(ctx context.Context, filter query.Filter) (int64, error) {
	return r.coll.CountDocuments(ctx, filter.BSON())
}

func (r *PostRepository) Update(ctx context.Context, post *models.Post) error {
	oid, err := objectID(post.ID)
	if err != nil {
		return err
	}
	doc := toPostDoc(post)
	doc.ID = oid
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *PostRepository) Delete(ctx context.Context, id string) (*models.Post, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc postDoc
	err = r.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

func (r *PostRepository) Collections(ctx context.Context) ([]string, error) {
	values, err := r.coll.Distinct(ctx, query.FieldCollection, bson.M{})
	if err != nil {
		return nil, err
	}
	return distinctLabels(values), nil
}

// distinctLabels trims, dedupes and sorts raw distinct() results.
func distinctLabels(values []any) []string {
	seen := make(map[string]bool, len(values))
	out := []string{}
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func (r *PostRepository) TitleExists(ctx context.Context, title, excludeID string) (bool, error) {
	filter := excluding(query.TitleEqualsBSON(title), excludeID)
	n, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

var _ repositories.PostRepository = (*PostRepository)(nil)
