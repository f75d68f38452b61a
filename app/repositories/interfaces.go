package repositories

import (
	"context"
	"errors"

	"cardboard/app/models"
	"cardboard/app/query"
)

// ErrNotFound is returned when a post or review does not exist.
var ErrNotFound = errors.New("record not found")

// PostRepository defines the interface for post data access
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	// Find returns at most limit posts matching filter after skipping skip,
	// oldest first.
	Find(ctx context.Context, filter query.Filter, skip, limit int) ([]*models.Post, error)
	Count(ctx context.Context, filter query.Filter) (int64, error)
	Update(ctx context.Context, post *models.Post) error
	// Delete removes the post and returns what was stored.
	Delete(ctx context.Context, id string) (*models.Post, error)
	// Collections returns the distinct non-empty collection labels, sorted.
	Collections(ctx context.Context) ([]string, error)
	// TitleExists reports whether another post already uses title,
	// compared case-insensitively.
	TitleExists(ctx context.Context, title, excludeID string) (bool, error)
}

// ReviewRepository defines the interface for review data access
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id string) (*models.Review, error)
	ListByPost(ctx context.Context, postID string) ([]*models.Review, error)
	Update(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, id string) (*models.Review, error)
	// DeleteByPost removes every review of a post and returns how many went.
	DeleteByPost(ctx context.Context, postID string) (int64, error)
	NicknameExists(ctx context.Context, postID, nickname, excludeID string) (bool, error)
}
