package routes

import (
	"context"
	"log/slog"
	"net/http"

	"cardboard/app/controllers"
	"cardboard/app/middleware"
	"cardboard/app/requestid"
	"cardboard/app/services"
	"cardboard/app/views"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

// Options carries the router's non-service dependencies.
type Options struct {
	Logger     *slog.Logger
	MaxUpload  int64
	TitleProbe *middleware.RateLimiter
	// Health reports whether the document store is reachable.
	Health func(context.Context) error
}

// SetupRoutes defines the application's routes and returns a router.
func SetupRoutes(posts *services.PostService, reviews *services.ReviewService, opts Options) (*mux.Router, error) {
	renderer, err := controllers.NewRenderer()
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.TitleProbe == nil {
		opts.TitleProbe = middleware.NewRateLimiter(5, 10)
	}

	postController := controllers.NewPostController(posts, renderer, opts.MaxUpload)
	reviewController := controllers.NewReviewController(reviews, posts, renderer)

	router := mux.NewRouter()
	router.NotFoundHandler = wrapUnmatched(http.HandlerFunc(renderer.NotFound), opts.Logger)

	// Apply global middleware
	router.Use(requestid.Middleware)
	router.Use(middleware.Logger(opts.Logger))
	router.Use(middleware.Recoverer)
	router.Use(spanName)

	router.HandleFunc("/healthz", health(opts.Health)).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServerFS(views.Static())))
	router.HandleFunc("/images/{name}", postController.Image).Methods(http.MethodGet)

	// Web routes
	router.HandleFunc("/", postController.Index).Methods(http.MethodGet)

	// Posts web endpoints
	webPosts := router.PathPrefix("/posts").Subrouter()
	webPosts.HandleFunc("", postController.Index).Methods(http.MethodGet)
	webPosts.HandleFunc("/new", postController.New).Methods(http.MethodGet)
	webPosts.HandleFunc("", postController.Create).Methods(http.MethodPost)
	webPosts.HandleFunc("/{id}", postController.Show).Methods(http.MethodGet)
	webPosts.HandleFunc("/{id}/edit", postController.Edit).Methods(http.MethodGet)
	webPosts.HandleFunc("/{id}", postController.Update).Methods(http.MethodPost)
	webPosts.HandleFunc("/{id}/delete", postController.Delete).Methods(http.MethodPost)
	webPosts.HandleFunc("/{id}/image", postController.Download).Methods(http.MethodGet)

	// Reviews web endpoints
	webPosts.HandleFunc("/{id}/reviews", reviewController.Create).Methods(http.MethodPost)
	router.HandleFunc("/reviews/{id}/edit", reviewController.Edit).Methods(http.MethodGet)
	router.HandleFunc("/reviews/{id}", reviewController.Update).Methods(http.MethodPost)
	router.HandleFunc("/reviews/{id}/delete", reviewController.Delete).Methods(http.MethodPost)

	// API routes with JSON content type
	api := router.PathPrefix("/api").Subrouter()
	api.Use(middleware.ContentTypeJSON)

	apiPosts := api.PathPrefix("/posts").Subrouter()
	apiPosts.HandleFunc("", postController.List).Methods(http.MethodGet)
	apiPosts.HandleFunc("", postController.Create).Methods(http.MethodPost)
	apiPosts.HandleFunc("/{id}", postController.Show).Methods(http.MethodGet)
	apiPosts.HandleFunc("/{id}", postController.Update).Methods(http.MethodPut)
	apiPosts.HandleFunc("/{id}", postController.Delete).Methods(http.MethodDelete)
	apiPosts.HandleFunc("/{id}/reviews", reviewController.List).Methods(http.MethodGet)
	apiPosts.HandleFunc("/{id}/reviews", reviewController.Create).Methods(http.MethodPost)

	api.HandleFunc("/reviews/{id}", reviewController.Update).Methods(http.MethodPut)
	api.HandleFunc("/reviews/{id}", reviewController.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/collections", postController.Collections).Methods(http.MethodGet)
	api.Handle("/validate/title", opts.TitleProbe.Middleware(http.HandlerFunc(postController.TitleAvailable))).
		Methods(http.MethodGet)

	return router, nil
}

// Handler wraps the router for serving: every request gets a server span.
func Handler(router http.Handler) http.Handler {
	return otelhttp.NewHandler(router, "http.server")
}

// wrapUnmatched gives unmatched requests the same id and access log as routed ones;
// mux only runs Use middleware on matches.
func wrapUnmatched(h http.Handler, logger *slog.Logger) http.Handler {
	return requestid.Middleware(middleware.Logger(logger)(h))
}

// spanName renames the server span after the matched route template.
func spanName(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				trace.SpanFromContext(r.Context()).SetName(r.Method + " " + tmpl)
			}
		}
		next.ServeHTTP(w, r)
	})
}

func health(check func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if check != nil {
			if err := check(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("unavailable"))
				return
			}
		}
		_, _ = w.Write([]byte("ok"))
	}
}
