// Package mock provides in-memory repositories for service and controller
// tests. Setting Err makes every call fail with it.
package mock

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"cardboard/app/models"
	"cardboard/app/query"
	"cardboard/app/repositories"
)

type PostRepository struct {
	posts  map[string]*models.Post
	nextID int
	mutex  sync.RWMutex

	Err error
}

type ReviewRepository struct {
	reviews map[string]*models.Review
	nextID  int
	mutex   sync.RWMutex

	Err error
}

func NewPostRepository() *PostRepository {
	return &PostRepository{
		posts:  make(map[string]*models.Post),
		nextID: 1,
	}
}

func (m *PostRepository) Clear() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.posts = make(map[string]*models.Post)
	m.nextID = 1
}

func NewReviewRepository() *ReviewRepository {
	return &ReviewRepository{
		reviews: make(map[string]*models.Review),
		nextID:  1,
	}
}

// PostRepository implementation
func (m *PostRepository) Create(_ context.Context, post *models.Post) error {
	if m.Err != nil {
		return m.Err
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()

	post.ID = strconv.Itoa(m.nextID)
	m.nextID++
	m.posts[post.ID] = post
	return nil
}

func (m *PostRepository) GetByID(_ context.Context, id string) (*models.Post, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	post, exists := m.posts[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return post, nil
}

func (m *PostRepository) Update(_ context.Context, post *models.Post) error {
	if m.Err != nil {
		return m.Err
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.posts[post.ID]; !exists {
		return repositories.ErrNotFound
	}
	m.posts[post.ID] = post
	return nil
}

func (m *PostRepository) Delete(_ context.Context, id string) (*models.Post, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()

	post, exists := m.posts[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	delete(m.posts, id)
	return post, nil
}

// matching returns posts passing filter in id order.
func (m *PostRepository) matching(filter query.Filter) []*models.Post {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var posts []*models.Post
	for id := 1; id < m.nextID; id++ {
		if post, exists := m.posts[strconv.Itoa(id)]; exists && filter.Matches(post) {
			posts = append(posts, post)
		}
	}
	return posts
}

func (m *PostRepository) Find(_ context.Context, filter query.Filter, skip, limit int) ([]*models.Post, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	posts := []*models.Post{}
	for i, post := range m.matching(filter) {
		if i >= skip && len(posts) < limit {
			posts = append(posts, post)
		}
	}
	return posts, nil
}

func (m *PostRepository) Count(_ context.Context, filter query.Filter) (int64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	return int64(len(m.matching(filter))), nil
}

func (m *PostRepository) Collections(_ context.Context) ([]string, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	seen := map[string]bool{}
	out := []string{}
	for _, post := range m.matching(query.Filter{}) {
		c := strings.TrimSpace(post.Collection)
		if c != "" && !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *PostRepository) TitleExists(_ context.Context, title, excludeID string) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	for _, post := range m.matching(query.Filter{}) {
		if post.ID != excludeID && query.SameTitle(post.Title, title) {
			return true, nil
		}
	}
	return false, nil
}

// ReviewRepository implementation
func (m *ReviewRepository) Create(_ context.Context, review *models.Review) error {
	if m.Err != nil {
		return m.Err
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()

	review.ID = strconv.Itoa(m.nextID)
	m.nextID++
	m.reviews[review.ID] = review
	return nil
}

func (m *ReviewRepository) GetByID(_ context.Context, id string) (*models.Review, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	review, exists := m.reviews[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return review, nil
}

func (m *ReviewRepository) Update(_ context.Context, review *models.Review) error {
	if m.Err != nil {
		return m.Err
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()

	existing, exists := m.reviews[review.ID]
	if !exists {
		return repositories.ErrNotFound
	}
	review.PostID = existing.PostID
	m.reviews[review.ID] = review
	return nil
}

func (m *ReviewRepository) Delete(_ context.Context, id string) (*models.Review, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()

	review, exists := m.reviews[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	delete(m.reviews, id)
	return review, nil
}

func (m *ReviewRepository) ListByPost(_ context.Context, postID string) ([]*models.Review, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	reviews := []*models.Review{}
	for id := 1; id < m.nextID; id++ {
		if review, exists := m.reviews[strconv.Itoa(id)]; exists && review.PostID == postID {
			reviews = append(reviews, review)
		}
	}
	return reviews, nil
}

func (m *ReviewRepository) DeleteByPost(_ context.Context, postID string) (int64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var n int64
	for id, review := range m.reviews {
		if review.PostID == postID {
			delete(m.reviews, id)
			n++
		}
	}
	return n, nil
}

func (m *ReviewRepository) NicknameExists(ctx context.Context, postID, nickname, excludeID string) (bool, error) {
	reviews, err := m.ListByPost(ctx, postID)
	if err != nil {
		return false, err
	}
	nickname = strings.TrimSpace(nickname)
	for _, review := range reviews {
		if review.ID != excludeID && strings.TrimSpace(review.Nickname) == nickname {
			return true, nil
		}
	}
	return false, nil
}

var (
	_ repositories.PostRepository   = (*PostRepository)(nil)
	_ repositories.ReviewRepository = (*ReviewRepository)(nil)
)
