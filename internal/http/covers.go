package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mrlokans/bookshelf/internal/covers"
	"github.com/mrlokans/bookshelf/internal/logging"
)

// CoverCache keeps local copies of book cover images.
type CoverCache interface {
	GetCover(ctx context.Context, bookID uint, coverURL string) (string, error)
	Invalidate(bookID uint) error
}

// CoversController serves cached book covers.
type CoversController struct {
	cache CoverCache
	store BookStore
	log   logrus.FieldLogger
}

func NewCoversController(cache CoverCache, store BookStore, log logrus.FieldLogger) *CoversController {
	return &CoversController{cache: cache, store: store, log: log}
}

// GetCover serves the cached cover of a book, fetching it on first use.
// Without a cache it redirects to the cover URL.
// GET /:id/cover
func (cc *CoversController) GetCover(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}

	book, err := cc.store.Read(id)
	if err != nil || book == nil || book.ImageURL == "" {
		c.Status(http.StatusNotFound)
		return
	}

	if cc.cache == nil {
		if !covers.IsFetchable(book.ImageURL) {
			c.Status(http.StatusNotFound)
			return
		}
		c.Redirect(http.StatusFound, book.ImageURL)
		return
	}

	cachePath, err := cc.cache.GetCover(c.Request.Context(), id, book.ImageURL)
	switch {
	case errors.Is(err, covers.ErrUnsupportedURL):
		c.Status(http.StatusNotFound)
		return
	case err != nil:
		// Let the browser try the original.
		logging.WithRequest(cc.log, c).WithError(err).WithField("book_id", id).Warn("failed to cache cover")
		c.Redirect(http.StatusTemporaryRedirect, book.ImageURL)
		return
	}

	c.Header("Cache-Control", "public, max-age=86400")
	c.File(cachePath)
}

// invalidateCover drops a cached cover after the book changed.
func invalidateCover(cache CoverCache, log logrus.FieldLogger, bookID uint) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(bookID); err != nil {
		log.WithError(err).WithField("book_id", bookID).Warn("failed to invalidate cover")
	}
}
