package domain

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/Vovarama1992/grenades/internal/models"
	"github.com/Vovarama1992/grenades/internal/ports"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/multierr"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenIssuer       = "grenades"
	tokenTTL          = 7 * 24 * time.Hour
	minPasswordLength = 6
)

type authService struct {
	users  ports.UserRepository
	secret []byte
	now    func() time.Time
}

func NewAuthService(users ports.UserRepository, secret string) ports.AuthService {
	return &authService{
		users:  users,
		secret: []byte(secret),
		now:    time.Now,
	}
}

func (s *authService) SignUp(ctx context.Context, email, password, username string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var errs error
	if _, err := mail.ParseAddress(email); err != nil {
		errs = multierr.Append(errs, FieldError{Field: "email", Message: "invalid email"})
	}
	if len(password) < minPasswordLength {
		errs = multierr.Append(errs, FieldError{Field: "password", Message: "too short"})
	}
	if errs != nil {
		return nil, &ValidationError{err: errs}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		Username:     optional(clean(username)),
	}
	created, err := s.users.Insert(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	return created, nil
}

func (s *authService) SignIn(ctx context.Context, email, password string) (string, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return "", ports.ErrUnauthorized
		}
		return "", fmt.Errorf("sign in: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", ports.ErrUnauthorized
	}

	return s.sign(u.ID)
}

func (s *authService) ValidateToken(ctx context.Context, token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", ports.ErrUnauthorized
	}
	return claims.Subject, nil
}

func (s *authService) Profile(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, ports.ErrUnauthorized
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	return u, nil
}

func (s *authService) sign(userID string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}
