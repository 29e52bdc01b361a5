package books

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// Form keys that are never treated as book columns.
var ignoredFormKeys = map[string]bool{
	"gorilla.csrf.Token": true,
}

// Fields is the allow-listed set of book columns a caller may write.
// A nil field is "not supplied" and is left untouched on update.
type Fields struct {
	Title         *string
	Author        *string
	PublishedDate *string
	ImageURL      *string
	Description   *string
	CreatedBy     *string
	CreatedByID   *string
	Rating        *int
}

// ValidationError reports a create/update payload that names something other
// than a book column, or carries a value the column cannot hold.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}

// ParseForm builds Fields from submitted form values. Unknown keys are
// rejected rather than ignored. An empty rating counts as not supplied.
func ParseForm(values url.Values) (Fields, error) {
	var f Fields

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if ignoredFormKeys[key] {
			continue
		}
		value := values.Get(key)

		switch key {
		case "title":
			f.Title = &value
		case "author":
			f.Author = &value
		case "publishedDate":
			f.PublishedDate = &value
		case "imageUrl":
			f.ImageURL = &value
		case "description":
			f.Description = &value
		case "createdBy":
			f.CreatedBy = &value
		case "createdById":
			f.CreatedByID = &value
		case "rating":
			trimmed := strings.TrimSpace(value)
			if trimmed == "" {
				continue
			}
			rating, err := strconv.Atoi(trimmed)
			if err != nil {
				return Fields{}, &ValidationError{Field: key, Reason: "must be an integer"}
			}
			f.Rating = &rating
		default:
			return Fields{}, &ValidationError{Field: key, Reason: "not a book column"}
		}
	}

	return f, nil
}

// IsEmpty reports whether no field was supplied.
func (f Fields) IsEmpty() bool {
	return len(f.columns()) == 0
}

// SetOwner stamps the creator identity onto the fields.
func (f *Fields) SetOwner(userID uint, name string) {
	id := strconv.FormatUint(uint64(userID), 10)
	f.CreatedByID = &id
	f.CreatedBy = &name
}

// apply copies every supplied field onto book.
func (f Fields) apply(book *entities.Book) {
	if f.Title != nil {
		book.Title = *f.Title
	}
	if f.Author != nil {
		book.Author = *f.Author
	}
	if f.PublishedDate != nil {
		book.PublishedDate = *f.PublishedDate
	}
	if f.ImageURL != nil {
		book.ImageURL = *f.ImageURL
	}
	if f.Description != nil {
		book.Description = *f.Description
	}
	if f.CreatedBy != nil {
		book.CreatedBy = *f.CreatedBy
	}
	if f.CreatedByID != nil {
		book.CreatedByID = *f.CreatedByID
	}
	if f.Rating != nil {
		book.Rating = *f.Rating
	}
}

// columns maps supplied fields to their column names for a gorm update.
func (f Fields) columns() map[string]any {
	cols := make(map[string]any)
	if f.Title != nil {
		cols["title"] = *f.Title
	}
	if f.Author != nil {
		cols["author"] = *f.Author
	}
	if f.PublishedDate != nil {
		cols["publishedDate"] = *f.PublishedDate
	}
	if f.ImageURL != nil {
		cols["imageUrl"] = *f.ImageURL
	}
	if f.Description != nil {
		cols["description"] = *f.Description
	}
	if f.CreatedBy != nil {
		cols["createdBy"] = *f.CreatedBy
	}
	if f.CreatedByID != nil {
		cols["createdById"] = *f.CreatedByID
	}
	if f.Rating != nil {
		cols["rating"] = *f.Rating
	}
	return cols
}
