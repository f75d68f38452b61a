package validation

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Client-side predicate kinds understood by form-validation.js.
const (
	KindRequired  = "required"
	KindUppercase = "uppercase"
	KindPositive  = "positive"
	KindRange     = "range"
)

// Check is one rule applied to a field. Tag is evaluated on the server with
// go-playground/validator; Kind (plus Min/Max) is the same rule for the browser.
type Check struct {
	Tag     string `json:"-"`
	Kind    string `json:"kind"`
	Min     int    `json:"min,omitempty"`
	Max     int    `json:"max,omitempty"`
	Message string `json:"message"`
}

// FieldRule lists the checks for one form field, in order. The first failing
// check produces the field's violation.
type FieldRule struct {
	Field  string  `json:"field"`
	Checks []Check `json:"checks"`
}

// Form field names.
const (
	FieldTitle       = "title"
	FieldPrice       = "price"
	FieldCollection  = "collection"
	FieldReleaseDate = "releaseDate"
	FieldDescription = "description"
	FieldIllustrator = "illustrator"
	FieldImage       = "image"

	FieldPostID   = "postId"
	FieldNickname = "nickname"
	FieldText     = "text"
	FieldRating   = "rating"
)

const (
	minRating = 1
	maxRating = 5
)

// PostRules is shared by the create and edit forms.
var PostRules = []FieldRule{
	{Field: FieldTitle, Checks: []Check{
		{Tag: "required", Kind: KindRequired, Message: "Title is required"},
		{Tag: "upperfirst", Kind: KindUppercase, Message: "Title must start with an uppercase letter"},
	}},
	{Field: FieldPrice, Checks: []Check{
		{Tag: "required", Kind: KindRequired, Message: "Price is required"},
		{Tag: "positivenum", Kind: KindPositive, Message: "Price must be greater than 0"},
	}},
	{Field: FieldCollection, Checks: []Check{
		{Tag: "required", Kind: KindRequired, Message: "Collection is required"},
	}},
	{Field: FieldReleaseDate, Checks: []Check{
		{Tag: "required", Kind: KindRequired, Message: "Release date is required"},
	}},
	{Field: FieldDescription, Checks: []Check{
		{Tag: "required", Kind: KindRequired, Message: "Description is required"},
	}},
}

// ReviewRules is shared by the review create and edit forms.
var ReviewRules = []FieldRule{
	{Field: FieldNickname, Checks: []Check{
		{Tag: "required", Kind: KindRequired, Message: "Nickname is required"},
	}},
	{Field: FieldText, Checks: []Check{
		{Tag: "required", Kind: KindRequired, Message: "Review text is required"},
	}},
	{Field: FieldRating, Checks: []Check{
		{Tag: "required", Kind: KindRequired, Message: "Rating is required"},
		{Tag: "rating", Kind: KindRange, Min: minRating, Max: maxRating, Message: "Rating must be a whole number between 1 and 5"},
	}},
	{Field: FieldPostID, Checks: []Check{
		{Tag: "required", Kind: KindRequired, Message: "Review must belong to a post"},
	}},
}

// RulesJSON encodes rules for embedding in a form's data attribute.
func RulesJSON(rules []FieldRule) string {
	data, err := json.Marshal(rules)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func registerRules(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"upperfirst":  startsUppercase,
		"positivenum": positiveNumber,
		"rating":      ratingInRange,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

func startsUppercase(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // 'required' handles empty values
	}
	r, _ := utf8.DecodeRuneInString(value)
	return unicode.IsUpper(r)
}

// decimalPattern is the plain decimal notation every store can convert.
// strconv also accepts hex floats, exponents and Inf, which are rejected.
var decimalPattern = regexp.MustCompile(`^\d+(\.\d+)?$`)

func positiveNumber(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	if !decimalPattern.MatchString(value) {
		return false
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsInf(f, 0) {
		return false
	}
	return f > 0
}

func ratingInRange(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return false
	}
	return n >= minRating && n <= maxRating
}
