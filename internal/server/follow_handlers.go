package server

import (
	"github.com/gofiber/fiber/v2"
)

// FollowIndex handles GET /follow/
func (s *Server) FollowIndex(c *fiber.Ctx) error {
	page, err := s.followService.Feed(c.UserContext(), currentUserID(c), c.Query("page"))
	if err != nil {
		return s.respondError(c, err)
	}
	return render(c, fiber.StatusOK, tplFollow, fiber.Map{"page_obj": page})
}

// ProfileFollow handles GET /profile/:username/follow/
func (s *Server) ProfileFollow(c *fiber.Ctx) error {
	author, err := s.followService.Follow(c.UserContext(), currentUserID(c), c.Params("username"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Redirect(profileURL(author.Username), fiber.StatusFound)
}

// ProfileUnfollow handles GET /profile/:username/unfollow/
func (s *Server) ProfileUnfollow(c *fiber.Ctx) error {
	author, err := s.followService.Unfollow(c.UserContext(), currentUserID(c), c.Params("username"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Redirect(profileURL(author.Username), fiber.StatusFound)
}
