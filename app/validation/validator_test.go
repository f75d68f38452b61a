package validation

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTitles struct {
	titles map[string]string // id -> title
	err    error
}

func (f fakeTitles) TitleExists(_ context.Context, title, excludeID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for id, t := range f.titles {
		if id != excludeID && strings.EqualFold(t, title) {
			return true, nil
		}
	}
	return false, nil
}

type fakeNicknames struct {
	reviews map[string][2]string // id -> {postID, nickname}
}

func (f fakeNicknames) NicknameExists(_ context.Context, postID, nickname, excludeID string) (bool, error) {
	for id, r := range f.reviews {
		if id != excludeID && r[0] == postID && r[1] == nickname {
			return true, nil
		}
	}
	return false, nil
}

func validPost() PostInput {
	return PostInput{
		Title:       "Charizard",
		Price:       "120.50",
		Collection:  "Base Set",
		ReleaseDate: "1999-01-09",
		Description: "Holo rare",
		HasImage:    true,
	}
}

func TestValidatePostValid(t *testing.T) {
	v := New()
	got, err := v.ValidatePost(context.Background(), fakeTitles{}, validPost(), Create())
	require.NoError(t, err)
	assert.True(t, got.Empty())
}

func TestValidatePostCollectsAllViolations(t *testing.T) {
	v := New()
	got, err := v.ValidatePost(context.Background(), fakeTitles{}, PostInput{Title: "   "}, Create())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Title is required",
		"Price is required",
		"Collection is required",
		"Release date is required",
		"Description is required",
		MsgImageRequired,
	}, got.Messages())
}

func TestValidatePostTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  []string
	}{
		{"lowercase first letter", "charizard", []string{"Title must start with an uppercase letter"}},
		{"digit first", "1st Edition", []string{"Title must start with an uppercase letter"}},
		{"unicode uppercase", "Évoli", nil},
		{"leading spaces trimmed", "  Mew", nil},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validPost()
			in.Title = tt.title
			got, err := v.ValidatePost(context.Background(), fakeTitles{}, in, Create())
			require.NoError(t, err)
			if tt.want == nil {
				assert.True(t, got.Empty(), got.Messages())
				return
			}
			assert.Equal(t, tt.want, got.Messages())
		})
	}
}

func TestValidatePostPrice(t *testing.T) {
	tests := []struct {
		price string
		ok    bool
	}{
		{"0.01", true},
		{"15", true},
		{"0", false},
		{"-3", false},
		{"abc", false},
		{"Inf", false},
		{"NaN", false},
		{"0x1p4", false},
		{"1e3", false},
		{"+5", false},
		{"12.", false},
		{"007.50", true},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.price, func(t *testing.T) {
			in := validPost()
			in.Price = tt.price
			got, err := v.ValidatePost(context.Background(), fakeTitles{}, in, Create())
			require.NoError(t, err)
			if tt.ok {
				assert.True(t, got.Empty())
			} else {
				assert.Equal(t, []string{"Price must be greater than 0"}, got.Messages())
			}
		})
	}
}

func TestValidatePostTitleUniqueness(t *testing.T) {
	titles := fakeTitles{titles: map[string]string{"1": "Charizard", "2": "Blastoise"}}
	v := New()
	ctx := context.Background()

	in := validPost()
	in.Title = "CHARIZARD"
	got, err := v.ValidatePost(ctx, titles, in, Create())
	require.NoError(t, err)
	assert.Equal(t, []string{MsgTitleTaken}, got.Messages())

	// Editing the record that owns the title is allowed.
	got, err = v.ValidatePost(ctx, titles, in, Edit("1"))
	require.NoError(t, err)
	assert.True(t, got.Empty())

	// Renaming another record onto it is not.
	got, err = v.ValidatePost(ctx, titles, in, Edit("2"))
	require.NoError(t, err)
	assert.Equal(t, []string{MsgTitleTaken}, got.Messages())
}

func TestValidatePostImageOptionalOnEdit(t *testing.T) {
	in := validPost()
	in.HasImage = false
	got, err := New().ValidatePost(context.Background(), fakeTitles{}, in, Edit("1"))
	require.NoError(t, err)
	assert.True(t, got.Empty())
}

func TestValidatePostLookupError(t *testing.T) {
	boom := errors.New("db down")
	_, err := New().ValidatePost(context.Background(), fakeTitles{err: boom}, validPost(), Create())
	assert.ErrorIs(t, err, boom)
}

func TestValidateReview(t *testing.T) {
	nicks := fakeNicknames{reviews: map[string][2]string{"10": {"A", "Ash"}}}
	v := New()
	ctx := context.Background()

	in := ReviewInput{PostID: "A", Nickname: "Ash", Text: "Great", Rating: "5"}
	got, err := v.ValidateReview(ctx, nicks, in, Create())
	require.NoError(t, err)
	assert.Equal(t, []string{MsgNicknameTaken}, got.Messages())

	in.PostID = "B"
	got, err = v.ValidateReview(ctx, nicks, in, Create())
	require.NoError(t, err)
	assert.True(t, got.Empty())

	in.PostID = "A"
	got, err = v.ValidateReview(ctx, nicks, in, Edit("10"))
	require.NoError(t, err)
	assert.True(t, got.Empty())
}

func TestValidateReviewRequiredAndRating(t *testing.T) {
	v := New()
	got, err := v.ValidateReview(context.Background(), fakeNicknames{}, ReviewInput{}, Create())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Nickname is required",
		"Review text is required",
		"Rating is required",
		"Review must belong to a post",
	}, got.Messages())

	for _, rating := range []string{"0", "6", "4.5", "five"} {
		got, err := v.ValidateReview(context.Background(), fakeNicknames{},
			ReviewInput{PostID: "A", Nickname: "Misty", Text: "ok", Rating: rating}, Create())
		require.NoError(t, err)
		assert.Equal(t, []string{"Rating must be a whole number between 1 and 5"}, got.Messages(), rating)
	}
}

func TestViolationsByField(t *testing.T) {
	vs := Violations{
		{Field: FieldTitle, Message: "first"},
		{Field: FieldTitle, Message: "second"},
		{Field: FieldPrice, Message: "price"},
	}
	assert.Equal(t, map[string]string{FieldTitle: "first", FieldPrice: "price"}, vs.ByField())
}

func TestRulesJSON(t *testing.T) {
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal([]byte(RulesJSON(ReviewRules)), &decoded))
	require.Len(t, decoded, len(ReviewRules))

	rating := decoded[2]
	assert.Equal(t, FieldRating, rating["field"])
	checks := rating["checks"].([]any)
	rangeCheck := checks[1].(map[string]any)
	assert.Equal(t, KindRange, rangeCheck["kind"])
	assert.EqualValues(t, 1, rangeCheck["min"])
	assert.EqualValues(t, 5, rangeCheck["max"])
	assert.NotContains(t, rangeCheck, "Tag")
}

func TestModeExcludeID(t *testing.T) {
	assert.Equal(t, "", Create().ExcludeID())
	assert.Equal(t, "7", Edit("7").ExcludeID())
}

func TestValidatePostImageProblem(t *testing.T) {
	in := validPost()
	in.Title = "lower"
	in.HasImage = false
	in.ImageProblem = MsgInvalidImageUpload

	got, err := New().ValidatePost(context.Background(), fakeTitles{}, in, Create())
	require.NoError(t, err)
	assert.Equal(t, []string{"Title must start with an uppercase letter", MsgInvalidImageUpload}, got.Messages())
}
