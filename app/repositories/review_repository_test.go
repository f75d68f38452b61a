package repositories

import (
	"testing"
	"time"

	"cardboard/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewRepository(t *testing.T) {
	store := setupTestStore(t)
	repo := store.Reviews()
	ctx := t.Context()

	newReview := func(postID, nickname string) *models.Review {
		r := &models.Review{PostID: postID, Nickname: nickname, Text: "nice", Rating: 4, CreatedAt: time.Now()}
		require.NoError(t, repo.Create(ctx, r))
		return r
	}

	t.Run("create and get review", func(t *testing.T) {
		r := newReview("1", "Ash")
		assert.NotEmpty(t, r.ID)

		got, err := repo.GetByID(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ash", got.Nickname)
		assert.Equal(t, "1", got.PostID)
	})

	t.Run("get missing review", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "404")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list by post keeps posts apart", func(t *testing.T) {
		newReview("10", "Misty")
		newReview("10", "Brock")
		newReview("1", "Gary")

		reviews, err := repo.ListByPost(ctx, "10")
		require.NoError(t, err)
		require.Len(t, reviews, 2)
		assert.Equal(t, "Misty", reviews[0].Nickname)
		assert.Equal(t, "Brock", reviews[1].Nickname)

		reviews, err = repo.ListByPost(ctx, "1")
		require.NoError(t, err)
		assert.Len(t, reviews, 2)
	})

	t.Run("update review keeps its post", func(t *testing.T) {
		r := newReview("2", "Oak")
		r.Text = "changed"
		r.PostID = "3"
		require.NoError(t, repo.Update(ctx, r))

		got, err := repo.GetByID(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, "changed", got.Text)
		assert.Equal(t, "2", got.PostID)

		assert.ErrorIs(t, repo.Update(ctx, &models.Review{ID: "999"}), ErrNotFound)
	})

	t.Run("delete review", func(t *testing.T) {
		r := newReview("4", "Jessie")
		deleted, err := repo.Delete(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, "Jessie", deleted.Nickname)

		_, err = repo.GetByID(ctx, r.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete by post", func(t *testing.T) {
		a := newReview("5", "James")
		newReview("5", "Meowth")
		other := newReview("50", "James")

		n, err := repo.DeleteByPost(ctx, "5")
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)

		_, err = repo.GetByID(ctx, a.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = repo.GetByID(ctx, other.ID)
		assert.NoError(t, err)
	})

	t.Run("nickname uniqueness is per post", func(t *testing.T) {
		r := newReview("6", "Ash")

		exists, err := repo.NicknameExists(ctx, "6", "Ash", "")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.NicknameExists(ctx, "6", "Ash", r.ID)
		require.NoError(t, err)
		assert.False(t, exists)

		exists, err = repo.NicknameExists(ctx, "7", "Ash", "")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}
