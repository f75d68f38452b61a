package services

import (
	"context"
	"testing"

	"cardboard/app/validation"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutationMetrics(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	created := MutationsTotal.WithLabelValues("post", "create", "ok")
	rejected := MutationsTotal.WithLabelValues("review", "create", "invalid")
	beforeCreated := testutil.ToFloat64(created)
	beforeRejected := testutil.ToFloat64(rejected)

	post, err := f.svc.CreatePost(ctx, cardInput("Machamp"), upload("m.png"))
	require.NoError(t, err)
	_, err = f.rsvc.CreateReview(ctx, post.ID, validation.ReviewInput{Nickname: "Bruno"})
	require.Error(t, err)

	assert.Equal(t, beforeCreated+1, testutil.ToFloat64(created))
	assert.Equal(t, beforeRejected+1, testutil.ToFloat64(rejected))
}
