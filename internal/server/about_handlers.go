package server

import "github.com/gofiber/fiber/v2"

// AboutAuthor handles GET /about/author/
func (s *Server) AboutAuthor(c *fiber.Ctx) error {
	return render(c, fiber.StatusOK, tplAboutAuthor, nil)
}

// AboutTech handles GET /about/tech/
func (s *Server) AboutTech(c *fiber.Ctx) error {
	return render(c, fiber.StatusOK, tplAboutTech, nil)
}
