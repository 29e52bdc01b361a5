package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mrlokans/bookshelf/internal/database/books"
)

// Accepted form keys, newest first. Older templates posted the capitalised
// or underscored names.
var (
	categoryKeys = []string{"category", "Category", "Search_Category"}
	queryKeys    = []string{"q", "search_query"}
)

// SearchController dispatches a search form to the query layer.
type SearchController struct {
	store BookStore
	log   logrus.FieldLogger
}

func NewSearchController(store BookStore, log logrus.FieldLogger) *SearchController {
	return &SearchController{store: store, log: log}
}

// SearchPage renders the empty search form. A GET that already carries a
// category runs the search, so result pages can be linked.
func (sc *SearchController) SearchPage(c *gin.Context) {
	if firstNonEmpty(c, categoryKeys...) != "" {
		sc.Search(c)
		return
	}

	render(c, http.StatusOK, templateSearch, gin.H{
		"Title":      "Search",
		"Categories": books.SearchCategories(),
		"Category":   books.SearchTitle,
	})
}

// Search runs the submitted query. An unknown category matches nothing.
func (sc *SearchController) Search(c *gin.Context) {
	rawCategory := firstNonEmpty(c, categoryKeys...)
	value := firstNonEmpty(c, queryKeys...)

	category, _ := books.ParseSearchCategory(rawCategory)
	results, err := sc.store.Search(books.SearchQuery{Category: category, Value: value})
	if err != nil {
		renderInternalError(c, sc.log, err, "search books")
		return
	}

	render(c, http.StatusOK, templateSearch, gin.H{
		"Title":      "Search",
		"Categories": books.SearchCategories(),
		"Category":   category,
		"Query":      value,
		"Searched":   true,
		"Results":    results,
	})
}
