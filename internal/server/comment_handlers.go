package server

import (
	"yatube/internal/models"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

// AddComment handles POST /posts/:id/comment/. Whether or not the comment
// was valid, the viewer lands back on the post page.
func (s *Server) AddComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Text string `json:"text" form:"text"`
	}
	// An unparsable body is treated like empty text.
	_ = c.BodyParser(&req)

	_, err = s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		AuthorID: currentUserID(c),
		PostID:   id,
		Text:     req.Text,
	})
	if err != nil && !models.HasCode(err, models.CodeValidation) {
		return s.respondError(c, err)
	}
	return c.Redirect(postURL(id), fiber.StatusFound)
}
