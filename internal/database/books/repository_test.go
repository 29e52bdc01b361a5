package books

import (
	"fmt"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookshelf/internal/entities"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "books.db")

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.Book{}))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	return NewRepository(db)
}

func str(s string) *string { return &s }
func num(n int) *int       { return &n }

func mustCreate(t *testing.T, repo *Repository, f Fields) *entities.Book {
	t.Helper()
	book, err := repo.Create(f)
	require.NoError(t, err)
	return book
}

func TestRepository_CreateAndRead(t *testing.T) {
	repo := setupTestDB(t)

	created := mustCreate(t, repo, Fields{
		Title:         str("Dune"),
		Author:        str("Frank Herbert"),
		PublishedDate: str("1965.08.01"),
		Rating:        num(5),
	})
	require.NotZero(t, created.ID)

	got, err := repo.Read(created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Dune", got.Title)
	assert.Equal(t, "Frank Herbert", got.Author)
	assert.Equal(t, "1965.08.01", got.PublishedDate)
	assert.Equal(t, 5, got.Rating)
	assert.Empty(t, got.Description)
}

func TestRepository_ReadMissing(t *testing.T) {
	repo := setupTestDB(t)

	got, err := repo.Read(42)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRepository_Update(t *testing.T) {
	repo := setupTestDB(t)
	created := mustCreate(t, repo, Fields{Title: str("Dune"), Author: str("Frank Herbert"), Rating: num(3)})

	t.Run("applies only supplied fields", func(t *testing.T) {
		updated, err := repo.Update(Fields{Rating: num(5)}, created.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, updated.Rating)
		assert.Equal(t, "Dune", updated.Title)

		got, err := repo.Read(created.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, got.Rating)
		assert.Equal(t, "Frank Herbert", got.Author)
	})

	t.Run("empty fields leave the record unchanged", func(t *testing.T) {
		updated, err := repo.Update(Fields{}, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Dune", updated.Title)
	})

	t.Run("can clear a text field", func(t *testing.T) {
		_, err := repo.Update(Fields{Author: str("")}, created.ID)
		require.NoError(t, err)

		got, err := repo.Read(created.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Author)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := repo.Update(Fields{Title: str("x")}, 9999)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRepository_DeleteIsIdempotent(t *testing.T) {
	repo := setupTestDB(t)
	created := mustCreate(t, repo, Fields{Title: str("Dune")})

	require.NoError(t, repo.Delete(created.ID))
	require.NoError(t, repo.Delete(created.ID))

	got, err := repo.Read(created.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRepository_List(t *testing.T) {
	repo := setupTestDB(t)

	t.Run("empty store", func(t *testing.T) {
		page, next, err := repo.List(10, 0)
		require.NoError(t, err)
		assert.Empty(t, page)
		assert.Nil(t, next)
	})

	for _, title := range []string{"Charlie", "Alpha", "Bravo"} {
		mustCreate(t, repo, Fields{Title: str(title)})
	}

	t.Run("sorted by title with short page", func(t *testing.T) {
		page, next, err := repo.List(10, 0)
		require.NoError(t, err)
		require.Len(t, page, 3)
		assert.Equal(t, "Alpha", page[0].Title)
		assert.Equal(t, "Bravo", page[1].Title)
		assert.Equal(t, "Charlie", page[2].Title)
		assert.Nil(t, next)
	})

	t.Run("full page yields next cursor", func(t *testing.T) {
		page, next, err := repo.List(2, 0)
		require.NoError(t, err)
		require.Len(t, page, 2)
		require.NotNil(t, next)
		assert.Equal(t, 2, *next)

		page, next, err = repo.List(2, *next)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "Charlie", page[0].Title)
		assert.Nil(t, next)
	})

	t.Run("defaults for non-positive limit and negative cursor", func(t *testing.T) {
		page, _, err := repo.List(0, -5)
		require.NoError(t, err)
		assert.Len(t, page, 3)
	})
}

func TestRepository_ListOneByOne(t *testing.T) {
	repo := setupTestDB(t)
	mustCreate(t, repo, Fields{Title: str("Beta")})
	mustCreate(t, repo, Fields{Title: str("Alpha")})

	page, next, err := repo.List(1, 0)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Alpha", page[0].Title)
	require.NotNil(t, next)
	assert.Equal(t, 1, *next)

	// A full page always carries a cursor, even when nothing follows it.
	page, next, err = repo.List(1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Beta", page[0].Title)
	require.NotNil(t, next)
	assert.Equal(t, 2, *next)

	page, next, err = repo.List(1, 2)
	require.NoError(t, err)
	assert.Empty(t, page)
	assert.Nil(t, next)
}

func TestRepository_ListSecondPage(t *testing.T) {
	repo := setupTestDB(t)

	mustCreate(t, repo, Fields{Title: str("Beta")})
	mustCreate(t, repo, Fields{Title: str("Alpha")})
	for i := 0; i < 10; i++ {
		mustCreate(t, repo, Fields{Title: str(fmt.Sprintf("Gamma %02d", i))})
	}

	first, next, err := repo.List(10, 0)
	require.NoError(t, err)
	require.Len(t, first, 10)
	assert.Equal(t, "Alpha", first[0].Title)
	assert.Equal(t, "Beta", first[1].Title)
	require.NotNil(t, next)
	assert.Equal(t, 10, *next)

	second, next, err := repo.List(10, *next)
	require.NoError(t, err)
	assert.Len(t, second, 2)
	assert.Nil(t, next)
}

func TestRepository_Search(t *testing.T) {
	repo := setupTestDB(t)

	dune := mustCreate(t, repo, Fields{
		Title:         str("Dune"),
		Author:        str("Frank Herbert"),
		Description:   str("Spice and sand"),
		PublishedDate: str("1965.08.01"),
		Rating:        num(5),
	})
	mustCreate(t, repo, Fields{
		Title:         str("Neuromancer"),
		Author:        str("William Gibson"),
		Description:   str("Cyberspace 100% noir"),
		PublishedDate: str("1984.07.01"),
		Rating:        num(4),
	})
	mustCreate(t, repo, Fields{
		Title:         str("Stranger in a Strange Land"),
		PublishedDate: str("1961"),
	})

	tests := []struct {
		name   string
		query  SearchQuery
		titles []string
	}{
		{"title substring", SearchQuery{SearchTitle, "un"}, []string{"Dune"}},
		{"title is case sensitive", SearchQuery{SearchTitle, "dune"}, nil},
		{"author", SearchQuery{SearchAuthor, "Gibson"}, []string{"Neuromancer"}},
		{"description", SearchQuery{SearchDescription, "sand"}, []string{"Dune"}},
		{"percent is literal", SearchQuery{SearchDescription, "100%"}, []string{"Neuromancer"}},
		{"rating exact", SearchQuery{SearchRating, "5"}, []string{"Dune"}},
		{"rating non-numeric", SearchQuery{SearchRating, "five"}, nil},
		{"year", SearchQuery{SearchYear, "1965"}, []string{"Dune"}},
		{"year no match", SearchQuery{SearchYear, "2000"}, nil},
		{"year only date", SearchQuery{SearchYear, "1961"}, []string{"Stranger in a Strange Land"}},
		{"year is not a substring", SearchQuery{SearchYear, "96"}, nil},
		{"month", SearchQuery{SearchMonth, "07"}, []string{"Neuromancer"}},
		{"day", SearchQuery{SearchDay, "01"}, []string{"Dune", "Neuromancer"}},
		{"unknown category", SearchQuery{SearchUnknown, "Dune"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := repo.Search(tt.query)
			require.NoError(t, err)

			var titles []string
			for _, b := range result {
				titles = append(titles, b.Title)
			}
			assert.Equal(t, tt.titles, titles)
		})
	}

	t.Run("result carries full record", func(t *testing.T) {
		result, err := repo.Search(SearchQuery{SearchYear, "1965"})
		require.NoError(t, err)
		require.Len(t, result, 1)
		assert.Equal(t, dune.ID, result[0].ID)
		assert.Equal(t, "Frank Herbert", result[0].Author)
	})
}

func TestContainsClause(t *testing.T) {
	assert.Equal(t, "INSTR(title, ?) > 0", containsClause("sqlite", "title"))
	assert.Equal(t, "INSTR(BINARY title, ?) > 0", containsClause("mysql", "title"))
}

func TestRepository_ListByOwner(t *testing.T) {
	repo := setupTestDB(t)

	mine := Fields{Title: str("Mine")}
	mine.SetOwner(7, "alice")
	mustCreate(t, repo, mine)
	mustCreate(t, repo, Fields{Title: str("Anonymous")})

	theirs := Fields{Title: str("Theirs")}
	theirs.SetOwner(8, "bob")
	mustCreate(t, repo, theirs)

	result, err := repo.ListByOwner("7")
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "Mine", result[0].Title)
	assert.Equal(t, "alice", result[0].CreatedBy)

	result, err = repo.ListByOwner("99")
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestParseSearchCategory(t *testing.T) {
	c, ok := ParseSearchCategory("title")
	assert.True(t, ok)
	assert.Equal(t, SearchTitle, c)

	c, ok = ParseSearchCategory(" YEAR ")
	assert.True(t, ok)
	assert.Equal(t, SearchYear, c)

	c, ok = ParseSearchCategory("isbn")
	assert.False(t, ok)
	assert.Equal(t, SearchUnknown, c)

	assert.Len(t, SearchCategories(), 7)
	assert.Equal(t, "Rating", SearchRating.String())
}

func TestParseForm(t *testing.T) {
	t.Run("known fields", func(t *testing.T) {
		f, err := ParseForm(url.Values{
			"title":              {"Dune"},
			"publishedDate":      {"1965.08.01"},
			"imageUrl":           {"http://img"},
			"rating":             {" 4 "},
			"gorilla.csrf.Token": {"abc"},
		})
		require.NoError(t, err)
		require.NotNil(t, f.Title)
		assert.Equal(t, "Dune", *f.Title)
		assert.Equal(t, "1965.08.01", *f.PublishedDate)
		assert.Equal(t, "http://img", *f.ImageURL)
		assert.Equal(t, 4, *f.Rating)
		assert.Nil(t, f.Author)
	})

	t.Run("empty rating is not supplied", func(t *testing.T) {
		f, err := ParseForm(url.Values{"rating": {""}})
		require.NoError(t, err)
		assert.Nil(t, f.Rating)
		assert.True(t, f.IsEmpty())
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := ParseForm(url.Values{"title": {"x"}, "isbn": {"123"}})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "isbn", verr.Field)
	})

	t.Run("non-integer rating", func(t *testing.T) {
		_, err := ParseForm(url.Values{"rating": {"great"}})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "rating", verr.Field)
	})
}
