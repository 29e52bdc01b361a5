package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/entities"
)

// BooksController serves the catalog pages: list, view, add, edit and delete.
type BooksController struct {
	store    BookStore
	audit    ActivityLog
	covers   CoverCache // optional
	log      logrus.FieldLogger
	pageSize int
}

func NewBooksController(store BookStore, auditLog ActivityLog, coverCache CoverCache, log logrus.FieldLogger, pageSize int) *BooksController {
	if pageSize <= 0 {
		pageSize = books.DefaultPageSize
	}
	return &BooksController{
		store:    store,
		audit:    auditLog,
		covers:   coverCache,
		log:      log,
		pageSize: pageSize,
	}
}

// List renders one page of books ordered by title.
func (bc *BooksController) List(c *gin.Context) {
	cursor, ok := parsePageToken(c)
	if !ok {
		renderError(c, http.StatusBadRequest, "Invalid page token.")
		return
	}

	page, next, err := bc.store.List(bc.pageSize, cursor)
	if err != nil {
		renderInternalError(c, bc.log, err, "list books")
		return
	}

	render(c, http.StatusOK, templateList, gin.H{
		"Title":         "Books",
		"Books":         page,
		"HasNext":       next != nil,
		"NextPageToken": derefInt(next),
	})
}

// View renders a single book, or the not-found state.
func (bc *BooksController) View(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		bc.renderNotFound(c)
		return
	}

	book, err := bc.store.Read(id)
	if err != nil {
		renderInternalError(c, bc.log, err, "read book")
		return
	}
	if book == nil {
		bc.renderNotFound(c)
		return
	}

	render(c, http.StatusOK, templateView, gin.H{
		"Title": book.Title,
		"Book":  book,
	})
}

// AddPage renders an empty book form.
func (bc *BooksController) AddPage(c *gin.Context) {
	render(c, http.StatusOK, templateForm, gin.H{
		"Title":  "Add book",
		"Action": "Add",
		"Book":   &entities.Book{},
	})
}

// Add creates a book from the submitted form and shows it. Books added by a
// signed-in user are stamped with that user as creator.
func (bc *BooksController) Add(c *gin.Context) {
	fields, ok := bc.parseForm(c, "Add", &entities.Book{})
	if !ok {
		return
	}

	userID := auth.GetUserID(c)
	if userID != 0 {
		fields.SetOwner(userID, auth.GetUsername(c))
	}

	book, err := bc.store.Create(fields)
	if err != nil {
		renderInternalError(c, bc.log, err, "create book")
		return
	}

	bc.audit.LogBookCreate(userID, book, c.ClientIP())
	c.Redirect(http.StatusSeeOther, bookPath(book.ID))
}

// EditPage renders the form pre-filled with the book's current values.
func (bc *BooksController) EditPage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		bc.renderNotFound(c)
		return
	}

	book, err := bc.store.Read(id)
	if err != nil {
		renderInternalError(c, bc.log, err, "read book")
		return
	}
	if book == nil {
		bc.renderNotFound(c)
		return
	}

	render(c, http.StatusOK, templateForm, gin.H{
		"Title":  "Edit book",
		"Action": "Edit",
		"Book":   book,
	})
}

// Edit overwrites the submitted fields of an existing book.
func (bc *BooksController) Edit(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		bc.renderNotFound(c)
		return
	}

	fields, ok := bc.parseForm(c, "Edit", &entities.Book{ID: id})
	if !ok {
		return
	}

	book, err := bc.store.Update(fields, id)
	if err != nil {
		if errors.Is(err, books.ErrNotFound) {
			bc.renderNotFound(c)
			return
		}
		renderInternalError(c, bc.log, err, "update book")
		return
	}

	invalidateCover(bc.covers, bc.log, book.ID)
	bc.audit.LogBookUpdate(auth.GetUserID(c), book, c.ClientIP())
	c.Redirect(http.StatusSeeOther, bookPath(book.ID))
}

// Delete removes a book and always returns to the list.
func (bc *BooksController) Delete(c *gin.Context) {
	if id, ok := parseID(c, "id"); ok {
		if err := bc.store.Delete(id); err != nil {
			bc.log.WithError(err).WithField("book_id", id).Error("failed to delete book")
		} else {
			invalidateCover(bc.covers, bc.log, id)
			bc.audit.LogBookDelete(auth.GetUserID(c), id, c.ClientIP())
		}
	}
	c.Redirect(http.StatusFound, "/")
}

// parseForm validates the posted book form. On failure it re-renders the form
// with the submitted values and reports false.
func (bc *BooksController) parseForm(c *gin.Context, action string, book *entities.Book) (books.Fields, bool) {
	if err := c.Request.ParseForm(); err != nil {
		renderError(c, http.StatusBadRequest, "Malformed form submission.")
		return books.Fields{}, false
	}

	fields, err := books.ParseForm(c.Request.PostForm)
	if err != nil {
		var verr *books.ValidationError
		if !errors.As(err, &verr) {
			renderInternalError(c, bc.log, err, "parse book form")
			return books.Fields{}, false
		}

		// Echo back what the user typed.
		book.Title = c.PostForm("title")
		book.Author = c.PostForm("author")
		book.PublishedDate = c.PostForm("publishedDate")
		book.ImageURL = c.PostForm("imageUrl")
		book.Description = c.PostForm("description")

		render(c, http.StatusBadRequest, templateForm, gin.H{
			"Title":       action + " book",
			"Action":      action,
			"Book":        book,
			"RatingInput": c.PostForm("rating"),
			"Error":       verr.Error(),
		})
		return books.Fields{}, false
	}

	return fields, true
}

func (bc *BooksController) renderNotFound(c *gin.Context) {
	render(c, http.StatusNotFound, templateView, gin.H{
		"Title":    "Book not found",
		"NotFound": true,
	})
}

func bookPath(id uint) string {
	return "/" + uintToString(id)
}
