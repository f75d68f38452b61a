package repositories

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"cardboard/app/models"

	"github.com/dgraph-io/badger/v4"
)

const (
	// Key prefixes for different entity types
	PostKeyPrefix        = "post:"
	ReviewKeyPrefix      = "review:"
	ReviewIndexKeyPrefix = "review-post:"

	// Sequence keys for auto-incrementing IDs
	PostSeqKey   = "seq:post"
	ReviewSeqKey = "seq:review"
)

func postKey(id string) []byte {
	return []byte(PostKeyPrefix + id)
}

// reviewKey groups reviews under their post so a post's reviews are one
// prefix scan.
func reviewKey(postID, id string) []byte {
	return []byte(ReviewKeyPrefix + postID + ":" + id)
}

func reviewPrefix(postID string) []byte {
	return []byte(ReviewKeyPrefix + postID + ":")
}

// reviewIndexKey maps a review id to its post id.
func reviewIndexKey(id string) []byte {
	return []byte(ReviewIndexKeyPrefix + id)
}

// getNextID gets the next available ID for a given sequence key
func getNextID(txn *badger.Txn, seqKey string) (string, error) {
	var id uint64
	item, err := txn.Get([]byte(seqKey))
	switch {
	case err == badger.ErrKeyNotFound:
		id = 1
	case err != nil:
		return "", err
	default:
		err = item.Value(func(val []byte) error {
			if len(val) != 8 {
				return fmt.Errorf("corrupt sequence %q", seqKey)
			}
			id = binary.BigEndian.Uint64(val) + 1
			return nil
		})
		if err != nil {
			return "", err
		}
	}

	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, id)
	if err := txn.Set([]byte(seqKey), buf); err != nil {
		return "", err
	}
	return strconv.FormatUint(id, 10), nil
}

// marshalEntity marshals an entity to JSON
func marshalEntity(entity any) ([]byte, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity: %w", err)
	}
	return data, nil
}

// unmarshalEntity unmarshals JSON data into an entity
func unmarshalEntity(data []byte, entity any) error {
	if err := json.Unmarshal(data, entity); err != nil {
		return fmt.Errorf("failed to unmarshal entity: %w", err)
	}
	return nil
}

// getEntity loads the JSON document at key into entity.
func getEntity(txn *badger.Txn, key []byte, entity any) error {
	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return unmarshalEntity(val, entity)
	})
}

// lessID orders decimal sequence ids numerically.
func lessID(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// sortPosts orders posts oldest first, falling back to id.
func sortPosts(posts []*models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.Before(posts[j].CreatedAt)
		}
		return lessID(posts[i].ID, posts[j].ID)
	})
}

func sortReviews(reviews []*models.Review) {
	sort.SliceStable(reviews, func(i, j int) bool {
		if !reviews[i].CreatedAt.Equal(reviews[j].CreatedAt) {
			return reviews[i].CreatedAt.Before(reviews[j].CreatedAt)
		}
		return lessID(reviews[i].ID, reviews[j].ID)
	})
}
