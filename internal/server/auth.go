package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"yatube/internal/middleware"
	"yatube/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenCookie   = "access_token"
	tokenIssuer   = "yatube"
	tokenAudience = "yatube-web"
	tokenLifetime = 7 * 24 * time.Hour
	blacklistKey  = "blacklist:"
)

var errTokenRevoked = errors.New("token has been revoked")

// tokenInfo is what a verified access token tells us about the viewer.
type tokenInfo struct {
	UserID    uint
	Username  string
	JTI       string
	ExpiresAt time.Time
}

// generateToken creates a JWT token for the given user ID and username
func (s *Server) generateToken(userID uint, username string) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(userID), 10),
		"username": username,
		"iss":      tokenIssuer,
		"aud":      tokenAudience,
		"exp":      now.Add(tokenLifetime).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// parseToken verifies signature, issuer, audience and revocation.
func (s *Server) parseToken(ctx context.Context, tokenString string) (*tokenInfo, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return nil, err
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return nil, errors.New("invalid user ID in token")
	}

	info := &tokenInfo{UserID: uint(userID)}
	info.Username, _ = claims["username"].(string)
	info.JTI, _ = claims["jti"].(string)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}

	if info.JTI != "" && s.redis != nil {
		revoked, err := s.redis.Exists(ctx, blacklistKey+info.JTI).Result()
		if err == nil && revoked > 0 {
			return nil, errTokenRevoked
		}
	}
	return info, nil
}

// tokenFromRequest reads the session cookie, falling back to a Bearer header.
func tokenFromRequest(c *fiber.Ctx) string {
	if v := c.Cookies(tokenCookie); v != "" {
		return v
	}
	parts := strings.Split(c.Get("Authorization"), " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// Identify resolves the viewer from the request token, if any. Anonymous
// requests pass through untouched; routes that need a user add AuthRequired.
func (s *Server) Identify() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := tokenFromRequest(c)
		if raw == "" {
			return c.Next()
		}
		info, err := s.parseToken(c.UserContext(), raw)
		if err != nil {
			return c.Next()
		}
		// Accounts removed after the token was issued browse anonymously.
		if _, err := s.userService.GetUser(c.UserContext(), info.UserID); err != nil {
			if models.HasCode(err, models.CodeNotFound) {
				clearSessionCookie(c)
			} else {
				middleware.Logger.WarnContext(c.UserContext(), "viewer lookup failed",
					slog.Uint64("user_id", uint64(info.UserID)),
					slog.String("error", err.Error()),
				)
			}
			return c.Next()
		}
		c.Locals("userID", info.UserID)
		c.Locals("token", info)
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, info.UserID)
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// AuthRequired redirects anonymous viewers to the login page.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if currentUserID(c) == 0 {
			return c.Redirect(loginURL(c.OriginalURL()), fiber.StatusFound)
		}
		return c.Next()
	}
}

// currentUserID returns the authenticated viewer, or 0 for anonymous requests.
func currentUserID(c *fiber.Ctx) uint {
	if uid, ok := c.Locals("userID").(uint); ok {
		return uid
	}
	return 0
}

func currentToken(c *fiber.Ctx) *tokenInfo {
	info, _ := c.Locals("token").(*tokenInfo)
	return info
}

func (s *Server) setSessionCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     tokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(tokenLifetime),
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     tokenCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// revoke blacklists the token's jti until it would have expired anyway.
func (s *Server) revoke(ctx context.Context, info *tokenInfo) error {
	if s.redis == nil || info == nil || info.JTI == "" {
		return nil
	}
	ttl := time.Until(info.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.redis.Set(ctx, blacklistKey+info.JTI, "1", ttl).Err()
}
