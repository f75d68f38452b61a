// Package validation holds the single validator used by every post and
// review mutation, on create and on edit, and the declarative rule tables
// the browser forms are rendered with.
package validation

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"
)

// Messages used outside the field rule tables.
const (
	MsgImageRequired      = "Image is required"
	MsgTitleTaken         = "A card with this title already exists (titles must be unique)"
	MsgNicknameTaken      = "This nickname has already reviewed this card"
	MsgInvalidImageUpload = "Image must be a JPEG, PNG, GIF or WebP file"
	MsgImageTooLarge      = "Image is too large"
)

// Violation is one failed rule.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Violations is an ordered list of failed rules.
type Violations []Violation

// Empty reports whether nothing failed.
func (vs Violations) Empty() bool {
	return len(vs) == 0
}

// Messages returns the human-readable messages in order.
func (vs Violations) Messages() []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Message)
	}
	return out
}

// ByField indexes the first message per field, for form rendering.
func (vs Violations) ByField() map[string]string {
	out := make(map[string]string, len(vs))
	for _, v := range vs {
		if _, ok := out[v.Field]; !ok {
			out[v.Field] = v.Message
		}
	}
	return out
}

// Values maps form field names to submitted values.
type Values map[string]string

// Mode says whether a mutation creates a record or edits the one with ID.
// Uniqueness checks exclude ID when editing.
type Mode struct {
	Editing bool
	ID      string
}

// Create is the mode for new records.
func Create() Mode { return Mode{} }

// Edit is the mode for changing the record with the given id.
func Edit(id string) Mode { return Mode{Editing: true, ID: id} }

// ExcludeID is the id uniqueness checks must ignore.
func (m Mode) ExcludeID() string {
	if m.Editing {
		return m.ID
	}
	return ""
}

// TitleChecker looks up existing titles, case-insensitively.
type TitleChecker interface {
	TitleExists(ctx context.Context, title, excludeID string) (bool, error)
}

// NicknameChecker looks up reviewers of a post.
type NicknameChecker interface {
	NicknameExists(ctx context.Context, postID, nickname, excludeID string) (bool, error)
}

// PostInput is a submitted post form.
type PostInput struct {
	Title       string
	Price       string
	Collection  string
	ReleaseDate string
	Description string
	Illustrator string
	// HasImage is true when an image file accompanies the submission.
	HasImage bool
	// ImageProblem is set when an uploaded file was rejected before
	// validation, e.g. for its type or size.
	ImageProblem string
}

// Normalize trims every text field. The title is also put in Unicode NFC so
// stored titles compare the same way in every store.
func (in PostInput) Normalize() PostInput {
	in.Title = norm.NFC.String(strings.TrimSpace(in.Title))
	in.Price = strings.TrimSpace(in.Price)
	in.Collection = strings.TrimSpace(in.Collection)
	in.ReleaseDate = strings.TrimSpace(in.ReleaseDate)
	in.Description = strings.TrimSpace(in.Description)
	in.Illustrator = strings.TrimSpace(in.Illustrator)
	return in
}

// Values returns the trimmed form values keyed by field name.
func (in PostInput) Values() Values {
	in = in.Normalize()
	return Values{
		FieldTitle:       in.Title,
		FieldPrice:       in.Price,
		FieldCollection:  in.Collection,
		FieldReleaseDate: in.ReleaseDate,
		FieldDescription: in.Description,
		FieldIllustrator: in.Illustrator,
	}
}

// ReviewInput is a submitted review form.
type ReviewInput struct {
	PostID   string
	Nickname string
	Text     string
	Rating   string
}

// Normalize trims every field.
func (in ReviewInput) Normalize() ReviewInput {
	in.PostID = strings.TrimSpace(in.PostID)
	in.Nickname = strings.TrimSpace(in.Nickname)
	in.Text = strings.TrimSpace(in.Text)
	in.Rating = strings.TrimSpace(in.Rating)
	return in
}

// Values returns the trimmed form values keyed by field name.
func (in ReviewInput) Values() Values {
	in = in.Normalize()
	return Values{
		FieldPostID:   in.PostID,
		FieldNickname: in.Nickname,
		FieldText:     in.Text,
		FieldRating:   in.Rating,
	}
}

// Validator wraps go-playground/validator with the app's rules.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator with the custom tags registered.
func New() *Validator {
	v := validator.New()
	if err := registerRules(v); err != nil {
		panic(fmt.Sprintf("validation: registering rules: %v", err))
	}
	return &Validator{validate: v}
}

// Check applies rules to values and collects every violation, one per field.
func (v *Validator) Check(rules []FieldRule, values Values) Violations {
	var out Violations
	for _, rule := range rules {
		value := strings.TrimSpace(values[rule.Field])
		for _, c := range rule.Checks {
			if err := v.validate.Var(value, c.Tag); err != nil {
				out = append(out, Violation{Field: rule.Field, Message: c.Message})
				break
			}
		}
	}
	return out
}

// ValidatePost validates a post submission. The returned error is only
// set when the uniqueness lookup itself fails.
func (v *Validator) ValidatePost(ctx context.Context, titles TitleChecker, in PostInput, mode Mode) (Violations, error) {
	in = in.Normalize()
	out := v.Check(PostRules, in.Values())

	if in.Title != "" && titles != nil {
		taken, err := titles.TitleExists(ctx, in.Title, mode.ExcludeID())
		if err != nil {
			return out, fmt.Errorf("checking title uniqueness: %w", err)
		}
		if taken {
			out = append(out, Violation{Field: FieldTitle, Message: MsgTitleTaken})
		}
	}

	switch {
	case in.ImageProblem != "":
		out = append(out, Violation{Field: FieldImage, Message: in.ImageProblem})
	case !mode.Editing && !in.HasImage:
		out = append(out, Violation{Field: FieldImage, Message: MsgImageRequired})
	}
	return out, nil
}

// ValidateReview validates a review submission. Nickname uniqueness is
// scoped to the review's post.
func (v *Validator) ValidateReview(ctx context.Context, nicknames NicknameChecker, in ReviewInput, mode Mode) (Violations, error) {
	in = in.Normalize()
	out := v.Check(ReviewRules, in.Values())

	if in.Nickname != "" && in.PostID != "" && nicknames != nil {
		taken, err := nicknames.NicknameExists(ctx, in.PostID, in.Nickname, mode.ExcludeID())
		if err != nil {
			return out, fmt.Errorf("checking nickname uniqueness: %w", err)
		}
		if taken {
			out = append(out, Violation{Field: FieldNickname, Message: MsgNicknameTaken})
		}
	}
	return out, nil
}
