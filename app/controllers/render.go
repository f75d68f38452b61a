package controllers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"cardboard/app/logging"
	"cardboard/app/services"
	"cardboard/app/views"
)

// Template names.
const (
	tmplIndex      = "index"
	tmplShow       = "show"
	tmplForm       = "form"
	tmplReviewEdit = "review_edit"
	tmplError      = "error"
)

var pageFiles = map[string][]string{
	tmplIndex:      {"layout.html", "posts/index.html", "shared/card.html"},
	tmplShow:       {"layout.html", "posts/show.html", "shared/reviews.html", "shared/errors.html"},
	tmplForm:       {"layout.html", "posts/form.html", "shared/errors.html"},
	tmplReviewEdit: {"layout.html", "reviews/edit.html", "shared/errors.html"},
	tmplError:      {"layout.html", "error.html"},
}

// Renderer holds one parsed template set per page. Every set defines
// "layout", which pulls in the page's "content".
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	return loadTemplates(views.Templates())
}

func loadTemplates(fsys fs.FS) (*Renderer, error) {
	templates := make(map[string]*template.Template, len(pageFiles))
	for name, files := range pageFiles {
		t, err := template.New(name).ParseFS(fsys, files...)
		if err != nil {
			return nil, fmt.Errorf("parsing %s templates: %w", name, err)
		}
		templates[name] = t
	}
	return &Renderer{templates: templates}, nil
}

// Render executes the named page into a buffer first so a template error
// never leaves a half-written response.
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	t, ok := rd.templates[name]
	if !ok {
		logging.FromContext(r.Context()).Error("unknown template", "template", name)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		logging.FromContext(r.Context()).Error("template error", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

type errorView struct {
	PageTitle string
	Status    int
	Message   string
}

// RenderError shows the plain error page.
func (rd *Renderer) RenderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	rd.Render(w, r, status, tmplError, errorView{
		PageTitle: http.StatusText(status),
		Status:    status,
		Message:   message,
	})
}

// wantsJSON picks the response shape: /api routes and clients asking for
// JSON get JSON, browsers get HTML.
func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}

// Response is the JSON envelope for mutations and errors.
type Response struct {
	Success  bool     `json:"success"`
	Message  string   `json:"message,omitempty"`
	Errors   []string `json:"errors,omitempty"`
	PostID   string   `json:"postId,omitempty"`
	ReviewID string   `json:"reviewId,omitempty"`
	Data     any      `json:"data,omitempty"`
}

func sendJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Messages shown for the non-validation error kinds.
const (
	msgNotFound   = "Not found"
	msgInternal   = "Something went wrong, please try again"
	msgBadRequest = "Malformed request"
	msgValidation = "Validation failed"
)

// classify maps an error to its HTTP status and public message.
func classify(err error) (int, string, []string) {
	if ve, ok := services.AsValidation(err); ok {
		return http.StatusUnprocessableEntity, msgValidation, ve.Violations.Messages()
	}
	var bre *badRequestError
	if errors.As(err, &bre) {
		return http.StatusBadRequest, bre.Error(), nil
	}
	if services.IsNotFound(err) {
		return http.StatusNotFound, msgNotFound, nil
	}
	return http.StatusInternalServerError, msgInternal, nil
}

// sendError writes err in the shape the client asked for. Infrastructure
// errors are logged and never shown.
func (rd *Renderer) sendError(w http.ResponseWriter, r *http.Request, err error) {
	status, message, details := classify(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error("request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
	}
	if wantsJSON(r) {
		sendJSON(w, status, Response{Success: false, Message: message, Errors: details})
		return
	}
	if len(details) > 0 {
		message = strings.Join(details, ". ")
	}
	rd.RenderError(w, r, status, message)
}

// badRequestError marks malformed input that never reached validation.
type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &badRequestError{msg: fmt.Sprintf(format, args...)}
}

// NotFound answers unmatched routes in the shape the client asked for.
func (rd *Renderer) NotFound(w http.ResponseWriter, r *http.Request) {
	rd.sendError(w, r, services.ErrNotFound)
}
