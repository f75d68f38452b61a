package controllers

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"cardboard/app/logging"
	"cardboard/app/models"
	"cardboard/app/pagination"
	"cardboard/app/query"
	"cardboard/app/services"
	"cardboard/app/validation"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"
)

// PostController handles HTTP requests for card posts
type PostController struct {
	posts     *services.PostService
	views     *Renderer
	maxUpload int64
}

// NewPostController creates a new PostController
func NewPostController(posts *services.PostService, views *Renderer, maxUpload int64) *PostController {
	return &PostController{posts: posts, views: views, maxUpload: maxUpload}
}

type collectionButton struct {
	Name    string
	URL     string
	Current bool
}

type indexView struct {
	PageTitle string
	Posts     []*models.Post
	Page      pagination.Page
	Pages     []pageLink
	PrevURL   string
	NextURL   string

	Q          string
	Collection string
	Price      string
	Query      string
	IsLT10     bool
	Is10To50   bool
	IsGT50     bool

	Collections       []collectionButton
	AllCollectionsURL string
}

type pageLink struct {
	pagination.Link
	URL string
}

type listResponse struct {
	Posts []*models.Post `json:"posts"`
	pagination.Page
}

func paramsFrom(r *http.Request) query.Params {
	q := r.URL.Query()
	return query.Params{
		Q:          q.Get("q"),
		Collection: q.Get("collection"),
		Price:      q.Get("price"),
	}
}

// filterValues encodes the active filters, omitting blanks.
func filterValues(p query.Params) url.Values {
	v := url.Values{}
	if p.Q != "" {
		v.Set("q", p.Q)
	}
	if p.Collection != "" {
		v.Set("collection", p.Collection)
	}
	if p.Price != "" {
		v.Set("price", p.Price)
	}
	return v
}

func indexURL(p query.Params, page int) string {
	v := filterValues(p)
	if page > 1 {
		v.Set("page", strconv.Itoa(page))
	}
	if len(v) == 0 {
		return "/"
	}
	return "/?" + v.Encode()
}

func buildIndexView(listing *services.Listing, collections []string) indexView {
	p := listing.Params
	view := indexView{
		PageTitle:  "Cards",
		Posts:      listing.Posts,
		Page:       listing.Page,
		Q:          p.Q,
		Collection: p.Collection,
		Price:      p.Price,
		Query:      filterValues(p).Encode(),
		IsLT10:     p.Price == query.PriceBelow10,
		Is10To50:   p.Price == "10-50",
		IsGT50:     p.Price == query.PriceAbove50,
	}
	for _, l := range listing.Page.Links() {
		view.Pages = append(view.Pages, pageLink{Link: l, URL: indexURL(p, l.Num)})
	}
	if listing.Page.HasPrev {
		view.PrevURL = indexURL(p, listing.Page.PrevPage)
	}
	if listing.Page.HasNext {
		view.NextURL = indexURL(p, listing.Page.NextPage)
	}

	all := p
	all.Collection = ""
	view.AllCollectionsURL = indexURL(all, 1)
	for _, c := range collections {
		withC := p
		withC.Collection = c
		view.Collections = append(view.Collections, collectionButton{
			Name:    c,
			URL:     indexURL(withC, 1),
			Current: c == p.Collection,
		})
	}
	return view
}

// Index renders the first (or ?page=N) page of the filtered listing
func (pc *PostController) Index(w http.ResponseWriter, r *http.Request) {
	params := paramsFrom(r)
	page := pagination.ParsePage(r.URL.Query().Get("page"))

	var (
		listing     *services.Listing
		collections []string
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		listing, err = pc.posts.ListPosts(ctx, params, page)
		return err
	})
	g.Go(func() error {
		var err error
		collections, err = pc.posts.Collections(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		pc.views.sendError(w, r, err)
		return
	}

	if wantsJSON(r) {
		pagination.RecordRequest("json", listing.Page.Number)
		sendJSON(w, http.StatusOK, listResponse{Posts: listing.Posts, Page: listing.Page})
		return
	}
	pagination.RecordRequest("html", listing.Page.Number)
	pc.views.Render(w, r, http.StatusOK, tmplIndex, buildIndexView(listing, collections))
}

// List serves /api/posts for infinite scroll
func (pc *PostController) List(w http.ResponseWriter, r *http.Request) {
	listing, err := pc.posts.ListPosts(r.Context(), paramsFrom(r), pagination.ParsePage(r.URL.Query().Get("page")))
	if err != nil {
		pc.views.sendError(w, r, err)
		return
	}
	pagination.RecordRequest("json", listing.Page.Number)
	sendJSON(w, http.StatusOK, listResponse{Posts: listing.Posts, Page: listing.Page})
}

type formView struct {
	PageTitle   string
	Action      string
	Editing     bool
	Post        *models.Post
	Values      validation.Values
	Errors      map[string]string
	Messages    []string
	Rules       string
	Collections []string
}

func (pc *PostController) renderForm(w http.ResponseWriter, r *http.Request, status int, view formView) {
	if view.Post == nil {
		view.Post = &models.Post{}
	}
	if view.Values == nil {
		view.Values = validation.Values{}
	}
	view.Rules = validation.RulesJSON(validation.PostRules)
	if collections, err := pc.posts.Collections(r.Context()); err == nil {
		view.Collections = collections
	}
	pc.views.Render(w, r, status, tmplForm, view)
}

func postValues(p *models.Post) validation.Values {
	return validation.PostInput{
		Title:       p.Title,
		Price:       p.Price,
		Collection:  p.Collection,
		ReleaseDate: p.ReleaseDate,
		Description: p.Description,
		Illustrator: p.Illustrator,
	}.Values()
}

// New displays the form for creating a new post
func (pc *PostController) New(w http.ResponseWriter, r *http.Request) {
	pc.renderForm(w, r, http.StatusOK, formView{
		PageTitle: "Sell a card",
		Action:    "/posts",
	})
}

// Create handles creating a new post
func (pc *PostController) Create(w http.ResponseWriter, r *http.Request) {
	form, err := readPostForm(r, pc.maxUpload)
	if err != nil {
		pc.views.sendError(w, r, err)
		return
	}

	post, err := pc.posts.CreatePost(r.Context(), form.Input, form.Upload)
	if err != nil {
		if ve, ok := services.AsValidation(err); ok && !wantsJSON(r) {
			pc.renderForm(w, r, http.StatusUnprocessableEntity, formView{
				PageTitle: "Sell a card",
				Action:    "/posts",
				Values:    form.Input.Values(),
				Errors:    ve.Violations.ByField(),
				Messages:  ve.Violations.Messages(),
			})
			return
		}
		pc.views.sendError(w, r, err)
		return
	}

	if wantsJSON(r) {
		sendJSON(w, http.StatusCreated, Response{Success: true, PostID: post.ID, Message: "Post created", Data: post})
		return
	}
	http.Redirect(w, r, "/posts/"+post.ID, http.StatusSeeOther)
}

type showView struct {
	PageTitle      string
	Post           *models.Post
	ReviewValues   validation.Values
	ReviewErrors   map[string]string
	ReviewMessages []string
	ReviewRules    string
	RatingOptions  []int
}

func newShowView(post *models.Post) showView {
	return showView{
		PageTitle:     post.Title,
		Post:          post,
		ReviewValues:  validation.Values{},
		ReviewRules:   validation.RulesJSON(validation.ReviewRules),
		RatingOptions: []int{1, 2, 3, 4, 5},
	}
}

// Show handles displaying a single post with its reviews
func (pc *PostController) Show(w http.ResponseWriter, r *http.Request) {
	post, err := pc.posts.GetPost(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		pc.views.sendError(w, r, err)
		return
	}

	if wantsJSON(r) {
		sendJSON(w, http.StatusOK, post)
		return
	}
	pc.views.Render(w, r, http.StatusOK, tmplShow, newShowView(post))
}

// Edit displays the edit form
func (pc *PostController) Edit(w http.ResponseWriter, r *http.Request) {
	post, err := pc.posts.GetPost(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		pc.views.sendError(w, r, err)
		return
	}
	pc.renderForm(w, r, http.StatusOK, formView{
		PageTitle: "Edit " + post.Title,
		Action:    "/posts/" + post.ID,
		Editing:   true,
		Post:      post,
		Values:    postValues(post),
	})
}

// Update handles the edit form and PUT /api/posts/{id}
func (pc *PostController) Update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	form, err := readPostForm(r, pc.maxUpload)
	if err != nil {
		pc.views.sendError(w, r, err)
		return
	}

	post, err := pc.posts.UpdatePost(r.Context(), id, form.Input, form.Upload, form.RemoveImage)
	if err != nil {
		if ve, ok := services.AsValidation(err); ok && !wantsJSON(r) {
			existing, getErr := pc.posts.GetPost(r.Context(), id)
			if getErr != nil {
				pc.views.sendError(w, r, getErr)
				return
			}
			pc.renderForm(w, r, http.StatusUnprocessableEntity, formView{
				PageTitle: "Edit " + existing.Title,
				Action:    "/posts/" + id,
				Editing:   true,
				Post:      existing,
				Values:    form.Input.Values(),
				Errors:    ve.Violations.ByField(),
				Messages:  ve.Violations.Messages(),
			})
			return
		}
		pc.views.sendError(w, r, err)
		return
	}

	if wantsJSON(r) {
		sendJSON(w, http.StatusOK, Response{Success: true, PostID: post.ID, Message: "Post updated", Data: post})
		return
	}
	http.Redirect(w, r, "/posts/"+post.ID, http.StatusSeeOther)
}

// Delete handles deleting a post with its reviews and image
func (pc *PostController) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := pc.posts.DeletePost(r.Context(), id); err != nil {
		pc.views.sendError(w, r, err)
		return
	}

	if wantsJSON(r) {
		sendJSON(w, http.StatusOK, Response{Success: true, PostID: id, Message: "Post deleted"})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Download sends a post's image as an attachment
func (pc *PostController) Download(w http.ResponseWriter, r *http.Request) {
	post, err := pc.posts.GetPost(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		pc.views.sendError(w, r, err)
		return
	}
	if !post.HasImage() {
		pc.views.sendError(w, r, services.ErrNotFound)
		return
	}
	pc.streamImage(w, r, post.Image, true)
}

// Image serves a stored image inline
func (pc *PostController) Image(w http.ResponseWriter, r *http.Request) {
	pc.streamImage(w, r, mux.Vars(r)["name"], false)
}

func (pc *PostController) streamImage(w http.ResponseWriter, r *http.Request, name string, attachment bool) {
	obj, err := pc.posts.OpenImage(r.Context(), name)
	if err != nil {
		pc.views.sendError(w, r, err)
		return
	}
	defer obj.Close()

	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	if attachment {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := io.Copy(w, obj); err != nil {
		logging.FromContext(r.Context()).Warn("image stream interrupted", "image", name, "error", err)
	}
}

// TitleAvailable answers the live title uniqueness probe
func (pc *PostController) TitleAvailable(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	available, err := pc.posts.TitleAvailable(r.Context(), q.Get("title"), q.Get("excludeId"))
	if err != nil {
		pc.views.sendError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]bool{"available": available})
}

// Collections lists the distinct collection labels
func (pc *PostController) Collections(w http.ResponseWriter, r *http.Request) {
	collections, err := pc.posts.Collections(r.Context())
	if err != nil {
		pc.views.sendError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string][]string{"collections": collections})
}
