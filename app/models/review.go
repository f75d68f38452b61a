package models

import (
	"errors"
	"time"
)

// BeforeCreate sets up any necessary fields before creation
func (r *Review) BeforeCreate() {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
}

// SetPost sets the parent post and updates the PostID
func (r *Review) SetPost(post *Post) error {
	if post == nil {
		return errors.New("post cannot be nil")
	}

	r.Post = post
	r.PostID = post.ID
	return nil
}
