// Package auth signs admins into the back office. The identity provider
// verifies the password; the admins collection decides who is actually
// staff; the service then issues its own short-lived session tokens so the
// provider credential never circulates past sign-in.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/api"
	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/models"
	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/security/validate"
)

// ErrNotAdmin is returned when the provider accepts the credentials but the
// subject has no admins entry.
var ErrNotAdmin = errors.New("subject is not an admin")

// Claims is the session token payload.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Service authenticates admins and manages their sessions.
type Service struct {
	idp      *api.IdentityClient
	store    *api.Docstore
	sessions *SessionStore
	secret   []byte
	ttl      time.Duration
	log      zerolog.Logger
}

// New creates the auth service. secret signs session tokens; ttl bounds a
// session's life.
func New(idp *api.IdentityClient, store *api.Docstore, secret []byte, ttl time.Duration, log zerolog.Logger) *Service {
	return &Service{
		idp:      idp,
		store:    store,
		sessions: NewSessionStore(ttl),
		secret:   secret,
		ttl:      ttl,
		log:      log,
	}
}

// Sessions exposes the store for the sweeper in main.
func (s *Service) Sessions() *SessionStore { return s.sessions }

// SignIn checks email/password with the identity provider, cross-checks the
// subject UID against the admins collection and issues a session token.
func (s *Service) SignIn(ctx context.Context, email, password string) (string, models.AdminUser, error) {
	user, err := s.idp.SignIn(ctx, email, password)
	if err != nil {
		return "", models.AdminUser{}, err
	}

	doc, err := s.store.First(ctx, "admins", api.Query{WhereField: "uid", WhereValue: user.UID})
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			s.log.Warn().Str("uid", user.UID).Str("email", email).Msg("sign-in by non-admin subject")
			return "", models.AdminUser{}, ErrNotAdmin
		}
		return "", models.AdminUser{}, fmt.Errorf("admin lookup: %w", err)
	}
	var admin models.AdminUser
	if err := doc.Decode(&admin); err != nil {
		return "", models.AdminUser{}, fmt.Errorf("decode admin: %w", err)
	}

	jti := uuid.NewString()
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   user.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			Issuer:    "thanathep-law/backoffice",
		},
		Email: admin.Email,
		Role:  admin.Role,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", models.AdminUser{}, fmt.Errorf("sign session token: %w", err)
	}
	s.sessions.Issue(jti, admin)
	s.log.Info().Str("uid", user.UID).Str("role", admin.Role).Msg("admin signed in")
	return token, admin, nil
}

// Verify parses a session token and returns its admin while the session is
// live. Revoked or expired sessions fail even with a valid signature.
func (s *Service) Verify(token string) (models.AdminUser, error) {
	claims, err := s.parse(token)
	if err != nil {
		return models.AdminUser{}, err
	}
	admin, ok := s.sessions.Active(claims.ID)
	if !ok {
		return models.AdminUser{}, fmt.Errorf("session revoked or expired: %w", api.ErrCredentialInvalid)
	}
	return admin, nil
}

// ErrWeakPassword rejects password changes that do not meet the strength
// policy.
var ErrWeakPassword = errors.New("password does not meet strength requirements")

// ChangePassword re-verifies the current credential with the identity
// provider, enforces the strength policy on the replacement and stores it.
func (s *Service) ChangePassword(ctx context.Context, email, current, next string) error {
	if !validate.IsStrongPassword(next) {
		return ErrWeakPassword
	}
	user, err := s.idp.SignIn(ctx, email, current)
	if err != nil {
		return err
	}
	if err := s.idp.UpdatePassword(ctx, user.ProviderToken, next); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	s.log.Info().Str("uid", user.UID).Msg("admin password changed")
	return nil
}

// SignOut revokes the token's session.
func (s *Service) SignOut(token string) {
	claims, err := s.parse(token)
	if err != nil {
		return
	}
	s.sessions.Revoke(claims.ID)
	s.log.Info().Str("uid", claims.Subject).Msg("admin signed out")
}

func (s *Service) parse(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("parse session token: %v: %w", err, api.ErrCredentialInvalid)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("session token invalid: %w", api.ErrCredentialInvalid)
	}
	return claims, nil
}
