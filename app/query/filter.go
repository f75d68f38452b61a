// Package query turns the listing's optional search parameters into a single
// filter that every document store in the app can evaluate.
package query

import (
	"regexp"
	"strconv"
	"strings"

	"cardboard/app/models"

	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/text/unicode/norm"
)

// Document field names shared by every store.
const (
	FieldTitle      = "title"
	FieldCollection = "collection"
	FieldPrice      = "price"
)

// Price tokens understood by ParsePrice besides the "<min>-<max>" form.
const (
	PriceBelow10 = "lt10"
	PriceAbove50 = "gt50"
)

var priceRangePattern = regexp.MustCompile(`^(\d+)-(\d+)$`)

// Params are the raw listing parameters as they arrive on the request.
type Params struct {
	Q          string
	Collection string
	Price      string
}

// PriceRange is a numeric interval over the post price.
type PriceRange struct {
	Min          float64
	Max          float64
	HasMin       bool
	HasMax       bool
	MinExclusive bool
	MaxExclusive bool
}

// Contains reports whether v lies inside the range.
func (r PriceRange) Contains(v float64) bool {
	if r.HasMin {
		if r.MinExclusive && v <= r.Min {
			return false
		}
		if !r.MinExclusive && v < r.Min {
			return false
		}
	}
	if r.HasMax {
		if r.MaxExclusive && v >= r.Max {
			return false
		}
		if !r.MaxExclusive && v > r.Max {
			return false
		}
	}
	return true
}

// ParsePrice parses a price token. Unknown tokens report false and
// contribute no constraint.
//
//	lt10      price < 10
//	gt50      price > 50
//	<a>-<b>   a <= price <= b
func ParsePrice(token string) (PriceRange, bool) {
	token = strings.TrimSpace(token)
	switch token {
	case "":
		return PriceRange{}, false
	case PriceBelow10:
		return PriceRange{Max: 10, HasMax: true, MaxExclusive: true}, true
	case PriceAbove50:
		return PriceRange{Min: 50, HasMin: true, MinExclusive: true}, true
	}

	m := priceRangePattern.FindStringSubmatch(token)
	if m == nil {
		return PriceRange{}, false
	}
	lo, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return PriceRange{}, false
	}
	hi, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return PriceRange{}, false
	}
	return PriceRange{Min: lo, Max: hi, HasMin: true, HasMax: true}, true
}

// Filter is the composed listing predicate. The zero value matches everything.
type Filter struct {
	Title      string
	Collection string
	Price      *PriceRange
}

// Build composes the filter for p. Blank parameters and malformed price
// tokens contribute nothing.
func Build(p Params) Filter {
	var f Filter
	f.Title = CanonicalTitle(p.Q)
	f.Collection = strings.TrimSpace(p.Collection)
	if r, ok := ParsePrice(p.Price); ok {
		f.Price = &r
	}
	return f
}

// Empty reports whether the filter has no active constraint.
func (f Filter) Empty() bool {
	return f.Title == "" && f.Collection == "" && f.Price == nil
}

// Matches evaluates the filter against a post held in memory.
func (f Filter) Matches(p *models.Post) bool {
	if p == nil {
		return false
	}
	if f.Title != "" && !containsFold(CanonicalTitle(p.Title), f.Title) {
		return false
	}
	if f.Collection != "" && strings.TrimSpace(p.Collection) != f.Collection {
		return false
	}
	if f.Price != nil {
		v, ok := p.PriceValue()
		if !ok || !f.Price.Contains(v) {
			return false
		}
	}
	return true
}

// BSON renders the filter as a MongoDB query document. Active constraints
// are combined under $and; an empty filter renders as an empty document.
func (f Filter) BSON() bson.M {
	var clauses bson.A
	if f.Title != "" {
		clauses = append(clauses, bson.M{FieldTitle: bson.M{
			"$regex":   regexp.QuoteMeta(f.Title),
			"$options": "i",
		}})
	}
	if f.Collection != "" {
		clauses = append(clauses, bson.M{FieldCollection: f.Collection})
	}
	if f.Price != nil {
		clauses = append(clauses, bson.M{"$expr": f.Price.expr()})
	}
	if len(clauses) == 0 {
		return bson.M{}
	}
	return bson.M{"$and": clauses}
}

// expr coerces the stored decimal string with $convert. Prices that do not
// convert become null and are rejected by the leading $ne guard.
func (r PriceRange) expr() bson.M {
	price := bson.M{"$convert": bson.M{
		"input":   "$" + FieldPrice,
		"to":      "double",
		"onError": nil,
		"onNull":  nil,
	}}
	conds := bson.A{bson.M{"$ne": bson.A{price, nil}}}
	if r.HasMin {
		op := "$gte"
		if r.MinExclusive {
			op = "$gt"
		}
		conds = append(conds, bson.M{op: bson.A{price, r.Min}})
	}
	if r.HasMax {
		op := "$lte"
		if r.MaxExclusive {
			op = "$lt"
		}
		conds = append(conds, bson.M{op: bson.A{price, r.Max}})
	}
	return bson.M{"$and": conds}
}

// CanonicalTitle trims s and puts it in Unicode NFC, the form titles are
// stored and searched in.
func CanonicalTitle(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// containsFold reports whether substr occurs in s under simple Unicode case
// folding, the rune-for-rune folding MongoDB's case-insensitive $regex uses.
func containsFold(s, substr string) bool {
	sub := []rune(substr)
	rs := []rune(s)
	for i := 0; i+len(sub) <= len(rs); i++ {
		if strings.EqualFold(string(rs[i:i+len(sub)]), substr) {
			return true
		}
	}
	return false
}

// SameTitle reports whether two titles are equal ignoring case and
// surrounding whitespace.
func SameTitle(a, b string) bool {
	return strings.EqualFold(CanonicalTitle(a), CanonicalTitle(b))
}

// TitleEqualsBSON matches a title exactly, ignoring case.
func TitleEqualsBSON(title string) bson.M {
	return bson.M{FieldTitle: bson.M{
		"$regex":   "^" + regexp.QuoteMeta(CanonicalTitle(title)) + "$",
		"$options": "i",
	}}
}
