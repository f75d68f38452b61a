package repositories

import (
	"context"
	"math"
	"testing"
	"time"

	"cardboard/app/models"
	"cardboard/app/query"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPosts(t *testing.T, repo *BadgerPostRepository, posts ...*models.Post) {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, p := range posts {
		p.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Create(t.Context(), p))
	}
}

func TestPostRepository(t *testing.T) {
	store := setupTestStore(t)
	repo := store.Posts()
	ctx := t.Context()

	t.Run("create and get post", func(t *testing.T) {
		post := &models.Post{Title: "Test Card", Price: "12", Collection: "Jungle", CreatedAt: time.Now()}
		require.NoError(t, repo.Create(ctx, post))
		assert.Equal(t, "1", post.ID)

		got, err := repo.GetByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, post.Title, got.Title)
		assert.Equal(t, post.Collection, got.Collection)
	})

	t.Run("update post", func(t *testing.T) {
		post := &models.Post{Title: "Original Title", CreatedAt: time.Now()}
		require.NoError(t, repo.Create(ctx, post))

		post.Title = "Updated Title"
		require.NoError(t, repo.Update(ctx, post))

		got, err := repo.GetByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, "Updated Title", got.Title)
	})

	t.Run("update missing post", func(t *testing.T) {
		err := repo.Update(ctx, &models.Post{ID: "999"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete post", func(t *testing.T) {
		post := &models.Post{Title: "Doomed", Image: "doomed.png", CreatedAt: time.Now()}
		require.NoError(t, repo.Create(ctx, post))

		deleted, err := repo.Delete(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, "doomed.png", deleted.Image)

		_, err = repo.GetByID(ctx, post.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = repo.Delete(ctx, post.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := repo.GetByID(cctx, "1")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestPostRepositoryFindAndCount(t *testing.T) {
	store := setupTestStore(t)
	repo := store.Posts()
	ctx := t.Context()

	posts := []*models.Post{
		{Title: "Pikachu", Price: "5", Collection: "Base Set"},
		{Title: "Raichu", Price: "25", Collection: "Base Set"},
		{Title: "Pichu", Price: "60", Collection: "Neo Genesis"},
		{Title: "Mew", Price: "n/a", Collection: "Promo"},
	}
	// Ten more so the decimal ids cross a digit boundary.
	for i := 0; i < 10; i++ {
		posts = append(posts, &models.Post{Title: "Filler", Price: "30", Collection: "Fossil"})
	}
	seedPosts(t, repo, posts...)

	t.Run("all posts in insertion order", func(t *testing.T) {
		posts, err := repo.Find(ctx, query.Filter{}, 0, 6)
		require.NoError(t, err)
		require.Len(t, posts, 6)
		assert.Equal(t, "Pikachu", posts[0].Title)
		assert.Equal(t, "Mew", posts[3].Title)

		total, err := repo.Count(ctx, query.Filter{})
		require.NoError(t, err)
		assert.EqualValues(t, 14, total)
	})

	t.Run("skip past the end", func(t *testing.T) {
		posts, err := repo.Find(ctx, query.Filter{}, 100, 6)
		require.NoError(t, err)
		assert.Empty(t, posts)

		posts, err = repo.Find(ctx, query.Filter{}, math.MaxInt, 6)
		require.NoError(t, err)
		assert.Empty(t, posts)
	})

	t.Run("composed filter", func(t *testing.T) {
		f := query.Build(query.Params{Q: "chu", Collection: "Base Set", Price: "lt10"})
		posts, err := repo.Find(ctx, f, 0, 6)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, "Pikachu", posts[0].Title)

		total, err := repo.Count(ctx, f)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
	})

	t.Run("unparsable price never matches a price filter", func(t *testing.T) {
		total, err := repo.Count(ctx, query.Build(query.Params{Q: "mew", Price: "0-1000"}))
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("collections are distinct and sorted", func(t *testing.T) {
		got, err := repo.Collections(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Base Set", "Fossil", "Neo Genesis", "Promo"}, got)
	})

	t.Run("title exists ignores case and excluded id", func(t *testing.T) {
		exists, err := repo.TitleExists(ctx, "PIKACHU", "")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.TitleExists(ctx, "pikachu", "1")
		require.NoError(t, err)
		assert.False(t, exists)

		exists, err = repo.TitleExists(ctx, "Zapdos", "")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}
