package models

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// BeforeCreate sets up any necessary fields before creation
func (p *Post) BeforeCreate() {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
}

// PriceValue parses the stored decimal-string price.
func (p *Post) PriceValue() (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(p.Price), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// HasImage reports whether the post references a stored image.
func (p *Post) HasImage() bool {
	return p.Image != ""
}

// AverageRating returns the mean rating of the attached reviews, or 0 without reviews.
func (p *Post) AverageRating() float64 {
	if len(p.Reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range p.Reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(p.Reviews))
}

// AddReview attaches a review to the post
func (p *Post) AddReview(review *Review) error {
	if review == nil {
		return errors.New("review cannot be nil")
	}

	review.PostID = p.ID
	p.Reviews = append(p.Reviews, review)
	return nil
}
