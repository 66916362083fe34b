package ports

import (
	"context"

	"github.com/Vovarama1992/grenades/internal/models"
)

type AuthService interface {
	SignUp(ctx context.Context, email, password, username string) (*models.User, error)
	SignIn(ctx context.Context, email, password string) (string, error)
	// ValidateToken returns the user id carried by token.
	ValidateToken(ctx context.Context, token string) (string, error)
	Profile(ctx context.Context, userID string) (*models.User, error)
}
