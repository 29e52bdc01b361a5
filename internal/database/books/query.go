package books

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// DefaultPageSize is used by List when no positive limit is given.
const DefaultPageSize = 10

// SearchCategory selects which book attribute a search matches against.
type SearchCategory int

const (
	SearchUnknown SearchCategory = iota
	SearchTitle
	SearchAuthor
	SearchDescription
	SearchRating
	SearchYear
	SearchMonth
	SearchDay
)

var categoryNames = map[SearchCategory]string{
	SearchTitle:       "Title",
	SearchAuthor:      "Author",
	SearchDescription: "Description",
	SearchRating:      "Rating",
	SearchYear:        "Year",
	SearchMonth:       "Month",
	SearchDay:         "Day",
}

func (c SearchCategory) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "Unknown"
}

// SearchCategories returns every known category in display order.
func SearchCategories() []SearchCategory {
	return []SearchCategory{
		SearchTitle, SearchAuthor, SearchDescription,
		SearchRating, SearchYear, SearchMonth, SearchDay,
	}
}

// ParseSearchCategory maps a form value to a category, ignoring case.
func ParseSearchCategory(s string) (SearchCategory, bool) {
	s = strings.TrimSpace(s)
	for c, name := range categoryNames {
		if strings.EqualFold(name, s) {
			return c, true
		}
	}
	return SearchUnknown, false
}

// SearchQuery is a category together with the user-entered value.
type SearchQuery struct {
	Category SearchCategory
	Value    string
}

// List returns one page of books ordered by title, starting at offset cursor.
// The returned next cursor is nil when the page came back short.
func (r *Repository) List(limit, cursor int) ([]entities.Book, *int, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if cursor < 0 {
		cursor = 0
	}

	var result []entities.Book
	err := r.db.
		Order("title ASC").
		Order("id ASC").
		Limit(limit).
		Offset(cursor).
		Find(&result).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list books: %w", err)
	}

	var next *int
	if len(result) == limit {
		n := cursor + limit
		next = &n
	}
	return result, next, nil
}

// Search returns every book matching the query. Unknown categories and
// non-numeric ratings match nothing.
func (r *Repository) Search(q SearchQuery) ([]entities.Book, error) {
	tx := r.db.Model(&entities.Book{})
	dialect := r.db.Dialector.Name()

	switch q.Category {
	case SearchTitle:
		tx = tx.Where(containsClause(dialect, "title"), q.Value)
	case SearchAuthor:
		tx = tx.Where(containsClause(dialect, "author"), q.Value)
	case SearchDescription:
		tx = tx.Where(containsClause(dialect, "description"), q.Value)
	case SearchRating:
		rating, err := strconv.Atoi(strings.TrimSpace(q.Value))
		if err != nil {
			return []entities.Book{}, nil
		}
		tx = tx.Where("rating = ?", rating)
	case SearchYear:
		// A date may hold only the year.
		tx = tx.Where("publishedDate = ? OR publishedDate LIKE ? ESCAPE '!'", q.Value, escapeLike(q.Value)+".%.%")
	case SearchMonth:
		tx = tx.Where("publishedDate LIKE ? ESCAPE '!'", "%."+escapeLike(q.Value)+".%")
	case SearchDay:
		tx = tx.Where("publishedDate LIKE ? ESCAPE '!'", "%.%."+escapeLike(q.Value))
	default:
		return []entities.Book{}, nil
	}

	var result []entities.Book
	if err := tx.Order("title ASC").Order("id ASC").Find(&result).Error; err != nil {
		return nil, fmt.Errorf("failed to search books by %s: %w", q.Category, err)
	}
	return result, nil
}

// ListByOwner returns the books whose creator id equals ownerID.
func (r *Repository) ListByOwner(ownerID string) ([]entities.Book, error) {
	var result []entities.Book
	err := r.db.Where("createdById = ?", ownerID).Order("id ASC").Find(&result).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list books for owner %s: %w", ownerID, err)
	}
	return result, nil
}

// containsClause is a case-sensitive containment test on column. MySQL
// compares with the column collation unless one side is binary.
func containsClause(dialect, column string) string {
	if dialect == "mysql" {
		return fmt.Sprintf("INSTR(BINARY %s, ?) > 0", column)
	}
	return fmt.Sprintf("INSTR(%s, ?) > 0", column)
}

// escapeLike makes user input literal inside a LIKE pattern using '!' as the
// escape character.
func escapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}
