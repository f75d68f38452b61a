package routes

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"cardboard/app/logging"
	"cardboard/app/middleware"
	"cardboard/app/repositories"
	"cardboard/app/services"
	"cardboard/app/storage"
	"cardboard/app/validation"

	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type testEnv struct {
	handler http.Handler
	store   *repositories.Store
	posts   *services.PostService
	reviews *services.ReviewService
}

func setupTestStore(t *testing.T) *repositories.Store {
	t.Helper()
	store, err := repositories.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func setupTestRouter(t *testing.T, tweaks ...func(*Options)) *testEnv {
	t.Helper()
	store := setupTestStore(t)
	images, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	v := validation.New()
	postService := services.NewPostService(store.Posts(), store.Reviews(), images, v, 6)
	reviewService := services.NewReviewService(store.Reviews(), store.Posts(), v)

	opts := Options{
		Logger:     logging.Discard(),
		MaxUpload:  1 << 20,
		TitleProbe: middleware.NewRateLimiter(100, 100),
		Health:     store.Ping,
	}
	for _, tweak := range tweaks {
		tweak(&opts)
	}
	router, err := SetupRoutes(postService, reviewService, opts)
	require.NoError(t, err)

	return &testEnv{handler: Handler(router), store: store, posts: postService, reviews: reviewService}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

// createPost stores a card through the service, image included, and returns its id.
func (e *testEnv) createPost(t *testing.T, title, collection, price string) string {
	t.Helper()
	up, err := storage.PrepareUpload(bytes.NewReader(pngBytes), 1<<20)
	require.NoError(t, err)
	post, err := e.posts.CreatePost(t.Context(), validation.PostInput{
		Title:       title,
		Price:       price,
		Collection:  collection,
		ReleaseDate: "1999-01-09",
		Description: "Holo rare",
	}, up)
	require.NoError(t, err)
	return post.ID
}

func cardForm(t *testing.T, target string, fields map[string]string, image []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if image != nil {
		fw, err := mw.CreateFormFile("image", "card.png")
		require.NoError(t, err)
		_, err = fw.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}
