package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"cardboard/app/storage"
	"cardboard/app/validation"
)

// multipartOverhead is the form-field allowance on top of the image limit.
const multipartOverhead = 1 << 20

func isJSONBody(r *http.Request) bool {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return ct == "application/json"
}

// flexString accepts a JSON string or number, so API clients may send
// "price": 12.5 or "price": "12.5".
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number")
	}
	*f = flexString(n.String())
	return nil
}

type postPayload struct {
	Title       flexString `json:"title"`
	Price       flexString `json:"price"`
	Collection  flexString `json:"collection"`
	ReleaseDate flexString `json:"releaseDate"`
	Description flexString `json:"description"`
	Illustrator flexString `json:"illustrator"`
	RemoveImage bool       `json:"removeImage"`
}

// postForm is a parsed post submission.
type postForm struct {
	Input       validation.PostInput
	Upload      *storage.Upload
	RemoveImage bool
}

// readPostForm parses a multipart form (or a JSON body, which cannot carry
// an image). A rejected image becomes a validation message, not an error.
func readPostForm(r *http.Request, maxUpload int64) (*postForm, error) {
	if isJSONBody(r) {
		var p postPayload
		if err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, multipartOverhead)).Decode(&p); err != nil {
			return nil, badRequest("%s: %v", msgBadRequest, err)
		}
		return &postForm{
			Input: validation.PostInput{
				Title:       string(p.Title),
				Price:       string(p.Price),
				Collection:  string(p.Collection),
				ReleaseDate: string(p.ReleaseDate),
				Description: string(p.Description),
				Illustrator: string(p.Illustrator),
			},
			RemoveImage: p.RemoveImage,
		}, nil
	}

	r.Body = http.MaxBytesReader(nil, r.Body, maxUpload+multipartOverhead)
	if err := r.ParseMultipartForm(multipartOverhead); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return &postForm{Input: postInputFrom(r, validation.MsgImageTooLarge)}, nil
		}
		return nil, badRequest("%s: %v", msgBadRequest, err)
	}
	if r.MultipartForm == nil {
		if err := r.ParseForm(); err != nil {
			return nil, badRequest("%s: %v", msgBadRequest, err)
		}
	}

	form := &postForm{RemoveImage: truthy(r.FormValue("removeImage"))}
	problem := ""

	file, _, err := r.FormFile(validation.FieldImage)
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	case err != nil:
		return nil, badRequest("%s: %v", msgBadRequest, err)
	default:
		defer file.Close()
		upload, err := storage.PrepareUpload(file, maxUpload)
		switch {
		case errors.Is(err, storage.ErrTooLarge):
			problem = validation.MsgImageTooLarge
		case errors.Is(err, storage.ErrUnsupportedType):
			problem = validation.MsgInvalidImageUpload
		case err != nil:
			return nil, err
		default:
			form.Upload = upload
		}
	}

	form.Input = postInputFrom(r, problem)
	return form, nil
}

func postInputFrom(r *http.Request, imageProblem string) validation.PostInput {
	return validation.PostInput{
		Title:        r.FormValue(validation.FieldTitle),
		Price:        r.FormValue(validation.FieldPrice),
		Collection:   r.FormValue(validation.FieldCollection),
		ReleaseDate:  r.FormValue(validation.FieldReleaseDate),
		Description:  r.FormValue(validation.FieldDescription),
		Illustrator:  r.FormValue(validation.FieldIllustrator),
		ImageProblem: imageProblem,
	}
}

type reviewPayload struct {
	Nickname flexString `json:"nickname"`
	Text     flexString `json:"text"`
	Rating   flexString `json:"rating"`
}

// readReviewForm parses an urlencoded form or a JSON body.
func readReviewForm(r *http.Request) (validation.ReviewInput, error) {
	if isJSONBody(r) {
		var p reviewPayload
		if err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, multipartOverhead)).Decode(&p); err != nil {
			return validation.ReviewInput{}, badRequest("%s: %v", msgBadRequest, err)
		}
		return validation.ReviewInput{
			Nickname: string(p.Nickname),
			Text:     string(p.Text),
			Rating:   string(p.Rating),
		}, nil
	}
	if err := r.ParseForm(); err != nil {
		return validation.ReviewInput{}, badRequest("%s: %v", msgBadRequest, err)
	}
	return validation.ReviewInput{
		Nickname: r.FormValue(validation.FieldNickname),
		Text:     r.FormValue(validation.FieldText),
		Rating:   r.FormValue(validation.FieldRating),
	}, nil
}

func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "yes":
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}
