package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cardboard/app/logging"
	"cardboard/app/models"
	"cardboard/app/pagination"
	"cardboard/app/query"
	"cardboard/app/repositories"
	"cardboard/app/storage"
	"cardboard/app/validation"

	"golang.org/x/sync/errgroup"
)

// PostService handles business logic for card posts
type PostService struct {
	postRepo   repositories.PostRepository
	reviewRepo repositories.ReviewRepository
	images     storage.Store
	validator  *validation.Validator
	perPage    int
}

// NewPostService creates a new PostService
func NewPostService(postRepo repositories.PostRepository, reviewRepo repositories.ReviewRepository, images storage.Store, v *validation.Validator, perPage int) *PostService {
	if v == nil {
		v = validation.New()
	}
	perPage = pagination.Config{PerPage: perPage}.Normalized().PerPage
	return &PostService{
		postRepo:   postRepo,
		reviewRepo: reviewRepo,
		images:     images,
		validator:  v,
		perPage:    perPage,
	}
}

// PerPage is the configured page size.
func (s *PostService) PerPage() int { return s.perPage }

// Listing is one page of filtered posts.
type Listing struct {
	Posts  []*models.Post
	Page   pagination.Page
	Params query.Params
}

// ListPosts runs the filtered, counted page query. The page and the count
// are fetched concurrently.
func (s *PostService) ListPosts(ctx context.Context, params query.Params, page int) (*Listing, error) {
	start := time.Now()
	filter := query.Build(params)
	req := pagination.NewRequest(page, s.perPage)

	var (
		posts []*models.Post
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		posts, err = s.postRepo.Find(gctx, filter, req.Skip(), req.Limit())
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.postRepo.Count(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}

	pagination.RecordDuration("list", time.Since(start).Seconds())
	pagination.RecordMatched(total)

	if posts == nil {
		posts = []*models.Post{}
	}
	return &Listing{Posts: posts, Page: req.Resolve(total), Params: params}, nil
}

// GetPost retrieves a post by ID with its reviews
func (s *PostService) GetPost(ctx context.Context, id string) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	reviews, err := s.reviewRepo.ListByPost(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews: %w", err)
	}
	for _, r := range reviews {
		if err := post.AddReview(r); err != nil {
			return nil, err
		}
	}
	return post, nil
}

// CreatePost validates the submission, stores the image and inserts the post.
// The image is removed again when the insert fails.
func (s *PostService) CreatePost(ctx context.Context, in validation.PostInput, upload *storage.Upload) (*models.Post, error) {
	in = in.Normalize()
	in.HasImage = upload != nil

	violations, err := s.validator.ValidatePost(ctx, s.postRepo, in, validation.Create())
	if err != nil {
		return nil, err
	}
	if !violations.Empty() {
		recordMutation("post", "create", "invalid")
		return nil, invalid(violations)
	}

	if err := s.saveImage(ctx, upload); err != nil {
		return nil, err
	}

	post := &models.Post{Image: upload.Name}
	applyInput(post, in)
	post.BeforeCreate()

	if err := s.postRepo.Create(ctx, post); err != nil {
		s.removeImage(ctx, upload.Name)
		return nil, fmt.Errorf("creating post: %w", err)
	}

	recordMutation("post", "create", "ok")
	logging.FromContext(ctx).Info("post created", "post_id", post.ID, "title", post.Title)
	return post, nil
}

// UpdatePost applies an edit. A new upload replaces the image; removeImage
// without an upload clears it. Replaced images are deleted after the update.
func (s *PostService) UpdatePost(ctx context.Context, id string, in validation.PostInput, upload *storage.Upload, removeImage bool) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	in = in.Normalize()
	in.HasImage = upload != nil || post.HasImage()

	violations, err := s.validator.ValidatePost(ctx, s.postRepo, in, validation.Edit(id))
	if err != nil {
		return nil, err
	}
	if !violations.Empty() {
		recordMutation("post", "update", "invalid")
		return nil, invalid(violations)
	}

	oldImage := post.Image
	switch {
	case upload != nil:
		if err := s.saveImage(ctx, upload); err != nil {
			return nil, err
		}
		post.Image = upload.Name
	case removeImage:
		post.Image = ""
	}
	applyInput(post, in)

	if err := s.postRepo.Update(ctx, post); err != nil {
		if upload != nil {
			s.removeImage(ctx, upload.Name)
		}
		return nil, fmt.Errorf("updating post: %w", err)
	}

	if oldImage != "" && oldImage != post.Image {
		s.removeImage(ctx, oldImage)
	}
	recordMutation("post", "update", "ok")
	logging.FromContext(ctx).Info("post updated", "post_id", post.ID)
	return post, nil
}

// DeletePost deletes a post, its reviews and its image
func (s *PostService) DeletePost(ctx context.Context, id string) error {
	if _, err := s.postRepo.GetByID(ctx, id); err != nil {
		return err
	}

	n, err := s.reviewRepo.DeleteByPost(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete reviews: %w", err)
	}

	post, err := s.postRepo.Delete(ctx, id)
	if err != nil {
		return err
	}

	if post.HasImage() {
		s.removeImage(ctx, post.Image)
	}
	recordMutation("post", "delete", "ok")
	logging.FromContext(ctx).Info("post deleted", "post_id", id, "reviews_deleted", n)
	return nil
}

// TitleAvailable reports whether title could be used by a new post, or by
// post excludeID when editing. A blank title is never available.
func (s *PostService) TitleAvailable(ctx context.Context, title, excludeID string) (bool, error) {
	if strings.TrimSpace(title) == "" {
		return false, nil
	}
	exists, err := s.postRepo.TitleExists(ctx, title, excludeID)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// Collections lists the collection labels for the filter buttons.
func (s *PostService) Collections(ctx context.Context) ([]string, error) {
	return s.postRepo.Collections(ctx)
}

// OpenImage opens a stored image by name.
func (s *PostService) OpenImage(ctx context.Context, name string) (*storage.Object, error) {
	return s.images.Open(ctx, name)
}

func (s *PostService) saveImage(ctx context.Context, upload *storage.Upload) error {
	if err := s.images.Save(ctx, upload.Name, upload.Reader(), upload.Size(), upload.ContentType); err != nil {
		return fmt.Errorf("saving image: %w", err)
	}
	return nil
}

// removeImage deletes a stored image. Failures are logged, never retried.
func (s *PostService) removeImage(ctx context.Context, name string) {
	if err := s.images.Delete(ctx, name); err != nil {
		logging.FromContext(ctx).Warn("failed to delete image", "image", name, "error", err)
	}
}

func applyInput(post *models.Post, in validation.PostInput) {
	post.Title = in.Title
	post.Price = in.Price
	post.Collection = in.Collection
	post.ReleaseDate = in.ReleaseDate
	post.Description = in.Description
	post.Illustrator = in.Illustrator
}
