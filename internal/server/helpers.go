package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"yatube/internal/middleware"
	"yatube/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parseID extracts a route parameter as a positive uint. Object ids live in
// the URL path, so a malformed one is answered like a missing page.
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Page", c.Params(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// respondError maps a service error to the page-level response.
func (s *Server) respondError(c *fiber.Ctx, err error) error {
	appErr, ok := models.AsAppError(err)
	if !ok {
		appErr = models.NewInternalError(err)
	}

	switch appErr.Code {
	case models.CodeUnauthorized:
		return c.Redirect(loginURL(c.OriginalURL()), fiber.StatusFound)
	case models.CodeInternal:
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("path", c.Path()),
			slog.String("error", appErr.Error()),
		)
	}
	return models.RespondWithError(c, models.StatusFor(appErr), appErr)
}

func loginURL(next string) string {
	// Keep slashes readable, as in /auth/login/?next=/create/.
	return "/auth/login/?next=" + strings.ReplaceAll(url.QueryEscape(next), "%2F", "/")
}

func postURL(id uint) string {
	return fmt.Sprintf("/posts/%d/", id)
}

func profileURL(username string) string {
	return "/profile/" + url.PathEscape(username) + "/"
}

// safeNext accepts only local absolute paths so login cannot redirect off-site.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return next
}
