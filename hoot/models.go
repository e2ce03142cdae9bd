// Package hoot implements the core posting service: hoots with embedded
// comments, persisted as single documents.
package hoot

import (
	"time"

	"github.com/asaskevich/govalidator"

	"github.com/hootbox/hootbox/roost"
)

// Category enumerates the available hoot categories.
type Category string

// The available categories.
const (
	News       Category = "News"
	Sports     Category = "Sports"
	Games      Category = "Games"
	Movies     Category = "Movies"
	Music      Category = "Music"
	Television Category = "Television"
)

// Categories returns the fixed list of valid categories.
func Categories() []Category {
	return []Category{News, Sports, Games, Movies, Music, Television}
}

// Valid returns whether the category is part of the fixed enumeration.
func (c Category) Valid() bool {
	for _, category := range Categories() {
		if c == category {
			return true
		}
	}

	return false
}

// Comment is a reply owned by a single hoot. Comments are embedded in their
// parent document and are never addressable on their own.
type Comment struct {
	ID         roost.ID  `json:"id" bson:"_id"`
	Text       string    `json:"text" valid:"required" bson:"text"`
	Author     roost.ID  `json:"author" bson:"author"`
	AuthorName string    `json:"authorName,omitempty" bson:"-"`
	Created    time.Time `json:"created" bson:"created"`
	Updated    time.Time `json:"updated" bson:"updated"`
}

// Hoot is the primary user generated post entity. The comment sequence is
// part of the aggregate: it is stored inside the hoot document and preserves
// insertion order.
type Hoot struct {
	roost.Base `bson:",inline"`
	Title      string    `json:"title" valid:"required" bson:"title"`
	Text       string    `json:"text" valid:"required" bson:"text"`
	Category   Category  `json:"category" valid:"required" bson:"category"`
	Author     roost.ID  `json:"author" bson:"author"`
	AuthorName string    `json:"authorName,omitempty" bson:"-"`
	Comments   []Comment `json:"comments" bson:"comments"`
	Created    time.Time `json:"created" bson:"created"`
	Updated    time.Time `json:"updated" bson:"updated"`
}

// Collection implements the roost.Model interface.
func (h *Hoot) Collection() string {
	return "hoots"
}

// Validate will validate the hoot.
func (h *Hoot) Validate() error {
	// validate required fields
	ok, err := govalidator.ValidateStruct(h)
	if err != nil {
		return E(KindValidation, "%s", err.Error())
	} else if !ok {
		return E(KindValidation, "validation failed")
	}

	// check category
	if !h.Category.Valid() {
		return E(KindValidation, "invalid category %q", string(h.Category))
	}

	// check author
	if h.Author.IsZero() {
		return E(KindValidation, "missing author")
	}

	return nil
}
