package server

import (
	"errors"
	"log/slog"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

type signupRequest struct {
	FirstName string `json:"first_name" form:"first_name"`
	LastName  string `json:"last_name" form:"last_name"`
	Username  string `json:"username" form:"username"`
	Email     string `json:"email" form:"email"`
	Password  string `json:"password" form:"password"`
}

// form echoes the submitted values back, never the password.
func (r signupRequest) form() fiber.Map {
	return fiber.Map{
		"first_name": r.FirstName,
		"last_name":  r.LastName,
		"username":   r.Username,
		"email":      r.Email,
	}
}

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
	Next     string `json:"next" form:"next"`
}

// SignupForm handles GET /auth/signup/
func (s *Server) SignupForm(c *fiber.Ctx) error {
	return render(c, fiber.StatusOK, tplSignup, fiber.Map{"form": signupRequest{}.form()})
}

// Signup handles POST /auth/signup/
func (s *Server) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.Signup(c.UserContext(), service.SignupInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		if appErr, ok := models.AsAppError(err); ok && appErr.Code == models.CodeValidation {
			return render(c, fiber.StatusBadRequest, tplSignup, fiber.Map{
				"form":   req.form(),
				"errors": appErr.Fields,
			})
		}
		return s.respondError(c, err)
	}

	token, err := s.generateToken(user.ID, user.Username)
	if err != nil {
		return s.respondError(c, models.NewInternalError(err))
	}
	s.setSessionCookie(c, token)
	return c.Redirect("/", fiber.StatusFound)
}

// LoginForm handles GET /auth/login/
func (s *Server) LoginForm(c *fiber.Ctx) error {
	return render(c, fiber.StatusOK, tplLogin, fiber.Map{
		"form": fiber.Map{"username": ""},
		"next": c.Query("next"),
	})
}

// Login handles POST /auth/login/
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.Next == "" {
		req.Next = c.Query("next")
	}

	user, err := s.userService.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			appErr, _ := models.AsAppError(err)
			return render(c, fiber.StatusBadRequest, tplLogin, fiber.Map{
				"form":   fiber.Map{"username": req.Username},
				"next":   req.Next,
				"errors": fiber.Map{"__all__": appErr.Message},
			})
		}
		return s.respondError(c, err)
	}

	token, err := s.generateToken(user.ID, user.Username)
	if err != nil {
		return s.respondError(c, models.NewInternalError(err))
	}
	s.setSessionCookie(c, token)
	return c.Redirect(safeNext(req.Next), fiber.StatusFound)
}

// Logout handles GET /auth/logout/. The current token is revoked so copies
// of it stop working too.
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.revoke(c.UserContext(), currentToken(c)); err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "failed to revoke token", slog.String("error", err.Error()))
	}
	clearSessionCookie(c)
	c.Locals("userID", nil)
	return render(c, fiber.StatusOK, tplLoggedOut, nil)
}
