package models

import "time"

// Post represents a listed collectible card.
type Post struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Price       string    `json:"price"`
	Collection  string    `json:"collection"`
	ReleaseDate string    `json:"releaseDate"`
	Description string    `json:"description"`
	Illustrator string    `json:"illustrator,omitempty"`
	Image       string    `json:"image,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	Reviews     []*Review `json:"reviews,omitempty"`
}

// Review represents a rated comment attached to exactly one post.
type Review struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	Nickname  string    `json:"nickname"`
	Text      string    `json:"text"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
	Post      *Post     `json:"-"`
}
