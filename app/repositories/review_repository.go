package repositories

import (
	"context"
	"strings"

	"cardboard/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerReviewRepository implements ReviewRepository using BadgerDB
type BadgerReviewRepository struct {
	db *badger.DB
}

// NewBadgerReviewRepository creates a new BadgerReviewRepository
func NewBadgerReviewRepository(db *badger.DB) *BadgerReviewRepository {
	return &BadgerReviewRepository{db: db}
}

// Create creates a new review
func (r *BadgerReviewRepository) Create(ctx context.Context, review *models.Review) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		id, err := getNextID(txn, ReviewSeqKey)
		if err != nil {
			return err
		}
		review.ID = id

		data, err := marshalEntity(review)
		if err != nil {
			return err
		}
		if err := txn.Set(reviewKey(review.PostID, review.ID), data); err != nil {
			return err
		}
		return txn.Set(reviewIndexKey(review.ID), []byte(review.PostID))
	})
}

// lookupPostID resolves the post a review id belongs to.
func lookupPostID(txn *badger.Txn, id string) (string, error) {
	item, err := txn.Get(reviewIndexKey(id))
	if err == badger.ErrKeyNotFound {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return "", err
	}
	return string(val), nil
}

// GetByID retrieves a review by ID
func (r *BadgerReviewRepository) GetByID(ctx context.Context, id string) (*models.Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var review models.Review
	err := r.db.View(func(txn *badger.Txn) error {
		postID, err := lookupPostID(txn, id)
		if err != nil {
			return err
		}
		return getEntity(txn, reviewKey(postID, id), &review)
	})
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// ListByPost retrieves all reviews for a post, oldest first
func (r *BadgerReviewRepository) ListByPost(ctx context.Context, postID string) ([]*models.Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	reviews := []*models.Review{}
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := reviewPrefix(postID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var review models.Review
			err := it.Item().Value(func(val []byte) error {
				return unmarshalEntity(val, &review)
			})
			if err != nil {
				return err
			}
			reviews = append(reviews, &review)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortReviews(reviews)
	return reviews, nil
}

// Update updates an existing review. A review never moves between posts.
func (r *BadgerReviewRepository) Update(ctx context.Context, review *models.Review) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		postID, err := lookupPostID(txn, review.ID)
		if err != nil {
			return err
		}
		review.PostID = postID

		data, err := marshalEntity(review)
		if err != nil {
			return err
		}
		return txn.Set(reviewKey(postID, review.ID), data)
	})
}

// Delete deletes a review by ID
func (r *BadgerReviewRepository) Delete(ctx context.Context, id string) (*models.Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var review models.Review
	err := r.db.Update(func(txn *badger.Txn) error {
		postID, err := lookupPostID(txn, id)
		if err != nil {
			return err
		}
		key := reviewKey(postID, id)
		if err := getEntity(txn, key, &review); err != nil {
			return err
		}
		if err := txn.Delete(key); err != nil {
			return err
		}
		return txn.Delete(reviewIndexKey(id))
	})
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// DeleteByPost removes every review attached to postID
func (r *BadgerReviewRepository) DeleteByPost(ctx context.Context, postID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var deleted int64
	err := r.db.Update(func(txn *badger.Txn) error {
		prefix := reviewPrefix(postID)
		var keys [][]byte

		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, key := range keys {
			id := strings.TrimPrefix(string(key), string(prefix))
			if err := txn.Delete(key); err != nil {
				return err
			}
			if err := txn.Delete(reviewIndexKey(id)); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// NicknameExists reports whether nickname already reviewed postID,
// ignoring the review excludeID.
func (r *BadgerReviewRepository) NicknameExists(ctx context.Context, postID, nickname, excludeID string) (bool, error) {
	reviews, err := r.ListByPost(ctx, postID)
	if err != nil {
		return false, err
	}
	nickname = strings.TrimSpace(nickname)
	for _, rv := range reviews {
		if rv.ID != excludeID && strings.TrimSpace(rv.Nickname) == nickname {
			return true, nil
		}
	}
	return false, nil
}
