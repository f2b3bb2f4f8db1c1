package users

import (
	"context"

	"github.com/angel-serrato/authweb/internal/server/models"
)

// Repository is the persistence boundary for user records.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdatePassword(ctx context.Context, email string, passwordHash string) error
}
