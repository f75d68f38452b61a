package services

import (
	"context"
	"fmt"
	"strconv"

	"cardboard/app/logging"
	"cardboard/app/models"
	"cardboard/app/repositories"
	"cardboard/app/validation"
)

// ReviewService handles business logic for reviews
type ReviewService struct {
	reviewRepo repositories.ReviewRepository
	postRepo   repositories.PostRepository
	validator  *validation.Validator
}

// NewReviewService creates a new ReviewService
func NewReviewService(reviewRepo repositories.ReviewRepository, postRepo repositories.PostRepository, v *validation.Validator) *ReviewService {
	if v == nil {
		v = validation.New()
	}
	return &ReviewService{
		reviewRepo: reviewRepo,
		postRepo:   postRepo,
		validator:  v,
	}
}

// CreateReview attaches a new review to postID
func (s *ReviewService) CreateReview(ctx context.Context, postID string, in validation.ReviewInput) (*models.Review, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	in.PostID = post.ID
	in = in.Normalize()
	violations, err := s.validator.ValidateReview(ctx, s.reviewRepo, in, validation.Create())
	if err != nil {
		return nil, err
	}
	if !violations.Empty() {
		recordMutation("review", "create", "invalid")
		return nil, invalid(violations)
	}

	review := &models.Review{}
	if err := review.SetPost(post); err != nil {
		return nil, err
	}
	applyReviewInput(review, in)
	review.BeforeCreate()

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("creating review: %w", err)
	}
	recordMutation("review", "create", "ok")
	logging.FromContext(ctx).Info("review created", "review_id", review.ID, "post_id", post.ID)
	return review, nil
}

// GetReview retrieves a review by ID
func (s *ReviewService) GetReview(ctx context.Context, id string) (*models.Review, error) {
	return s.reviewRepo.GetByID(ctx, id)
}

// ListReviews returns a post's reviews, oldest first
func (s *ReviewService) ListReviews(ctx context.Context, postID string) ([]*models.Review, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	return s.reviewRepo.ListByPost(ctx, postID)
}

// UpdateReview edits a review in place. Nickname uniqueness is checked
// against the other reviews of the same post.
func (s *ReviewService) UpdateReview(ctx context.Context, id string, in validation.ReviewInput) (*models.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	in.PostID = review.PostID
	in = in.Normalize()
	violations, err := s.validator.ValidateReview(ctx, s.reviewRepo, in, validation.Edit(id))
	if err != nil {
		return nil, err
	}
	if !violations.Empty() {
		recordMutation("review", "update", "invalid")
		return nil, invalid(violations)
	}

	applyReviewInput(review, in)
	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("updating review: %w", err)
	}
	recordMutation("review", "update", "ok")
	logging.FromContext(ctx).Info("review updated", "review_id", review.ID)
	return review, nil
}

// DeleteReview deletes a review and returns it
func (s *ReviewService) DeleteReview(ctx context.Context, id string) (*models.Review, error) {
	review, err := s.reviewRepo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	recordMutation("review", "delete", "ok")
	logging.FromContext(ctx).Info("review deleted", "review_id", id, "post_id", review.PostID)
	return review, nil
}

// applyReviewInput copies validated fields; the rating has already
// passed the range check.
func applyReviewInput(review *models.Review, in validation.ReviewInput) {
	review.Nickname = in.Nickname
	review.Text = in.Text
	review.Rating, _ = strconv.Atoi(in.Rating)
}
