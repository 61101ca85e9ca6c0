package devserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/zuvy/assess/internal/assessment"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour

	kindAccess  = "access"
	kindRefresh = "refresh"

	roleAdmin   = "admin"
	roleStudent = "student"

	claimsKey = "claims"
)

var errInvalidToken = errors.New("invalid or expired token")

// Claims are carried by both access and refresh tokens.
type Claims struct {
	UserID string   `json:"uid"`
	Email  string   `json:"email"`
	Name   string   `json:"name"`
	Roles  []string `json:"roles"`
	Kind   string   `json:"kind"`
	jwt.RegisteredClaims
}

// User rebuilds the account the token was issued for.
func (c *Claims) User() assessment.User {
	return assessment.User{ID: c.UserID, Name: c.Name, Email: c.Email, RolesList: c.Roles}
}

// TokenPair is the body of the login and refresh responses.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// tokenService signs HS256 tokens and tracks revoked ids in the repository.
type tokenService struct {
	secret []byte
	repo   Repository
	now    func() time.Time
}

func (s *tokenService) sign(u assessment.User, kind string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
		Roles:  u.RolesList,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, nil
}

// Issue creates a fresh access/refresh pair for u.
func (s *tokenService) Issue(u assessment.User) (TokenPair, error) {
	access, err := s.sign(u, kindAccess, accessTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.sign(u, kindRefresh, refreshTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Parse verifies raw, its kind and that it has not been revoked.
func (s *tokenService) Parse(ctx context.Context, raw, kind string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, errInvalidToken
	}
	if claims.Kind != kind || claims.ID == "" {
		return nil, errInvalidToken
	}
	revoked, err := s.repo.Revoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, errInvalidToken
	}
	return claims, nil
}

// Revoke blocks the token until it would have expired anyway.
func (s *tokenService) Revoke(ctx context.Context, c *Claims) error {
	until := s.now().Add(refreshTokenTTL)
	if c.ExpiresAt != nil {
		until = c.ExpiresAt.Time
	}
	return s.repo.RevokeToken(ctx, c.ID, until)
}

// requireAuth rejects requests without a valid bearer access token and
// stores its claims on the context.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			abortMessage(c, http.StatusUnauthorized, "Authorization header must be in the format: Bearer {token}")
			return
		}
		claims, err := s.tokens.Parse(c.Request.Context(), raw, kindAccess)
		if err != nil {
			if !errors.Is(err, errInvalidToken) {
				s.logger.Error("token check failed", "error", err)
				abortMessage(c, http.StatusInternalServerError, "Failed to verify token")
				return
			}
			abortMessage(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// requireAdmin must run after requireAuth.
func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !currentClaims(c).User().HasRole(roleAdmin) {
			abortMessage(c, http.StatusForbidden, "Admin role required")
			return
		}
		c.Next()
	}
}

func currentClaims(c *gin.Context) *Claims {
	v, _ := c.Get(claimsKey)
	claims, _ := v.(*Claims)
	if claims == nil {
		return &Claims{}
	}
	return claims
}

type loginBody struct {
	Email         string `json:"email" binding:"required,email"`
	GoogleIDToken string `json:"googleIdToken" binding:"required"`
}

type loginResponse struct {
	TokenPair
	User assessment.User `json:"user"`
}

// login trusts any non-empty Google ID token; accounts are created on
// first sign-in.
func (s *Server) login(c *gin.Context) {
	var body loginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBindError(c, err)
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	role := roleStudent
	if s.admins[email] {
		role = roleAdmin
	}
	name, _, _ := strings.Cut(email, "@")
	user, err := s.repo.UpsertUser(c.Request.Context(), assessment.User{
		Name:      name,
		Email:     email,
		RolesList: []string{role},
	})
	if err != nil {
		s.internalError(c, "upsert user", err)
		return
	}
	pair, err := s.tokens.Issue(user)
	if err != nil {
		s.internalError(c, "issue tokens", err)
		return
	}
	s.logger.Info("user signed in", "user_id", user.ID, "role", role)
	c.JSON(http.StatusOK, loginResponse{TokenPair: pair, User: user})
}

type refreshBody struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// refresh rotates the pair; the presented refresh token cannot be reused.
func (s *Server) refresh(c *gin.Context) {
	var body refreshBody
	if err := c.ShouldBindJSON(&body); err != nil {
		abortMessage(c, http.StatusUnauthorized, "Refresh token is required")
		return
	}
	ctx := c.Request.Context()
	claims, err := s.tokens.Parse(ctx, body.RefreshToken, kindRefresh)
	if err != nil {
		if !errors.Is(err, errInvalidToken) {
			s.internalError(c, "verify refresh token", err)
			return
		}
		abortMessage(c, http.StatusUnauthorized, "Invalid or expired refresh token")
		return
	}
	if err := s.tokens.Revoke(ctx, claims); err != nil {
		s.internalError(c, "revoke refresh token", err)
		return
	}
	pair, err := s.tokens.Issue(claims.User())
	if err != nil {
		s.internalError(c, "issue tokens", err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (s *Server) logout(c *gin.Context) {
	if err := s.tokens.Revoke(c.Request.Context(), currentClaims(c)); err != nil {
		s.internalError(c, "revoke access token", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}
