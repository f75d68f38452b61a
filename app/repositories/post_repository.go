package repositories

import (
	"context"
	"sort"
	"strings"

	"cardboard/app/models"
	"cardboard/app/query"

	"github.com/dgraph-io/badger/v4"
)

// BadgerPostRepository implements PostRepository using BadgerDB
type BadgerPostRepository struct {
	db *badger.DB
}

// NewBadgerPostRepository creates a new BadgerPostRepository
func NewBadgerPostRepository(db *badger.DB) *BadgerPostRepository {
	return &BadgerPostRepository{db: db}
}

// Create creates a new post
func (r *BadgerPostRepository) Create(ctx context.Context, post *models.Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		id, err := getNextID(txn, PostSeqKey)
		if err != nil {
			return err
		}
		post.ID = id

		data, err := marshalEntity(post)
		if err != nil {
			return err
		}
		return txn.Set(postKey(post.ID), data)
	})
}

// GetByID retrieves a post by ID
func (r *BadgerPostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var post models.Post
	err := r.db.View(func(txn *badger.Txn) error {
		return getEntity(txn, postKey(id), &post)
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// scan walks every post, oldest first, keeping those matching filter.
func (r *BadgerPostRepository) scan(ctx context.Context, filter query.Filter) ([]*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var posts []*models.Post
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(PostKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var post models.Post
			err := it.Item().Value(func(val []byte) error {
				return unmarshalEntity(val, &post)
			})
			if err != nil {
				return err
			}
			if filter.Matches(&post) {
				posts = append(posts, &post)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortPosts(posts)
	return posts, nil
}

// Find retrieves one page of posts matching filter
func (r *BadgerPostRepository) Find(ctx context.Context, filter query.Filter, skip, limit int) ([]*models.Post, error) {
	posts, err := r.scan(ctx, filter)
	if err != nil {
		return nil, err
	}
	if skip < 0 {
		skip = 0
	}
	if skip >= len(posts) || limit <= 0 {
		return []*models.Post{}, nil
	}
	end := skip + limit
	if end > len(posts) {
		end = len(posts)
	}
	return posts[skip:end], nil
}

// Count returns how many posts match filter
func (r *BadgerPostRepository) Count(ctx context.Context, filter query.Filter) (int64, error) {
	posts, err := r.scan(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(posts)), nil
}

// Update updates an existing post
func (r *BadgerPostRepository) Update(ctx context.Context, post *models.Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		key := postKey(post.ID)
		if _, err := txn.Get(key); err == badger.ErrKeyNotFound {
			return ErrNotFound
		} else if err != nil {
			return err
		}

		data, err := marshalEntity(post)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
}

// Delete deletes a post by ID
func (r *BadgerPostRepository) Delete(ctx context.Context, id string) (*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var post models.Post
	err := r.db.Update(func(txn *badger.Txn) error {
		key := postKey(id)
		if err := getEntity(txn, key, &post); err != nil {
			return err
		}
		return txn.Delete(key)
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// Collections lists the distinct collection labels in use
func (r *BadgerPostRepository) Collections(ctx context.Context) ([]string, error) {
	posts, err := r.scan(ctx, query.Filter{})
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	out := []string{}
	for _, p := range posts {
		c := strings.TrimSpace(p.Collection)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

// TitleExists reports whether a post other than excludeID has title
func (r *BadgerPostRepository) TitleExists(ctx context.Context, title, excludeID string) (bool, error) {
	posts, err := r.scan(ctx, query.Filter{})
	if err != nil {
		return false, err
	}
	for _, p := range posts {
		if p.ID != excludeID && query.SameTitle(p.Title, title) {
			return true, nil
		}
	}
	return false, nil
}
