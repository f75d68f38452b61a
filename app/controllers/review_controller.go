package controllers

import (
	"net/http"
	"strconv"

	"cardboard/app/models"
	"cardboard/app/services"
	"cardboard/app/validation"

	"github.com/gorilla/mux"
)

// ReviewController handles HTTP requests for reviews
type ReviewController struct {
	reviews *services.ReviewService
	posts   *services.PostService
	views   *Renderer
}

// NewReviewController creates a new ReviewController
func NewReviewController(reviews *services.ReviewService, posts *services.PostService, views *Renderer) *ReviewController {
	return &ReviewController{reviews: reviews, posts: posts, views: views}
}

func reviewValues(rv *models.Review) validation.Values {
	return validation.ReviewInput{
		PostID:   rv.PostID,
		Nickname: rv.Nickname,
		Text:     rv.Text,
		Rating:   strconv.Itoa(rv.Rating),
	}.Values()
}

// Create handles adding a review to a post
func (rc *ReviewController) Create(w http.ResponseWriter, r *http.Request) {
	postID := mux.Vars(r)["id"]
	in, err := readReviewForm(r)
	if err != nil {
		rc.views.sendError(w, r, err)
		return
	}

	review, err := rc.reviews.CreateReview(r.Context(), postID, in)
	if err != nil {
		if ve, ok := services.AsValidation(err); ok && !wantsJSON(r) {
			post, getErr := rc.posts.GetPost(r.Context(), postID)
			if getErr != nil {
				rc.views.sendError(w, r, getErr)
				return
			}
			view := newShowView(post)
			view.ReviewValues = in.Values()
			view.ReviewErrors = ve.Violations.ByField()
			view.ReviewMessages = ve.Violations.Messages()
			rc.views.Render(w, r, http.StatusUnprocessableEntity, tmplShow, view)
			return
		}
		rc.views.sendError(w, r, err)
		return
	}

	if wantsJSON(r) {
		sendJSON(w, http.StatusCreated, Response{
			Success:  true,
			PostID:   review.PostID,
			ReviewID: review.ID,
			Message:  "Review added",
			Data:     review,
		})
		return
	}
	http.Redirect(w, r, "/posts/"+review.PostID+"#review-"+review.ID, http.StatusSeeOther)
}

// List returns a post's reviews as JSON
func (rc *ReviewController) List(w http.ResponseWriter, r *http.Request) {
	reviews, err := rc.reviews.ListReviews(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		rc.views.sendError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string][]*models.Review{"reviews": reviews})
}

type reviewEditView struct {
	PageTitle string
	Review    *models.Review
	Values    validation.Values
	Errors    map[string]string
	Messages  []string
	Rules     string
}

// Edit displays the review edit form
func (rc *ReviewController) Edit(w http.ResponseWriter, r *http.Request) {
	review, err := rc.reviews.GetReview(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		rc.views.sendError(w, r, err)
		return
	}
	if wantsJSON(r) {
		sendJSON(w, http.StatusOK, review)
		return
	}
	rc.views.Render(w, r, http.StatusOK, tmplReviewEdit, reviewEditView{
		PageTitle: "Edit review",
		Review:    review,
		Values:    reviewValues(review),
		Rules:     validation.RulesJSON(validation.ReviewRules),
	})
}

// Update handles the review edit form and PUT /api/reviews/{id}
func (rc *ReviewController) Update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	in, err := readReviewForm(r)
	if err != nil {
		rc.views.sendError(w, r, err)
		return
	}

	review, err := rc.reviews.UpdateReview(r.Context(), id, in)
	if err != nil {
		if ve, ok := services.AsValidation(err); ok && !wantsJSON(r) {
			existing, getErr := rc.reviews.GetReview(r.Context(), id)
			if getErr != nil {
				rc.views.sendError(w, r, getErr)
				return
			}
			rc.views.Render(w, r, http.StatusUnprocessableEntity, tmplReviewEdit, reviewEditView{
				PageTitle: "Edit review",
				Review:    existing,
				Values:    in.Values(),
				Errors:    ve.Violations.ByField(),
				Messages:  ve.Violations.Messages(),
				Rules:     validation.RulesJSON(validation.ReviewRules),
			})
			return
		}
		rc.views.sendError(w, r, err)
		return
	}

	if wantsJSON(r) {
		sendJSON(w, http.StatusOK, Response{
			Success:  true,
			PostID:   review.PostID,
			ReviewID: review.ID,
			Message:  "Review updated",
			Data:     review,
		})
		return
	}
	http.Redirect(w, r, "/posts/"+review.PostID+"#review-"+review.ID, http.StatusSeeOther)
}

// Delete handles deleting a review
func (rc *ReviewController) Delete(w http.ResponseWriter, r *http.Request) {
	review, err := rc.reviews.DeleteReview(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		rc.views.sendError(w, r, err)
		return
	}

	if wantsJSON(r) {
		sendJSON(w, http.StatusOK, Response{
			Success:  true,
			PostID:   review.PostID,
			ReviewID: review.ID,
			Message:  "Review deleted",
		})
		return
	}
	http.Redirect(w, r, "/posts/"+review.PostID, http.StatusSeeOther)
}
