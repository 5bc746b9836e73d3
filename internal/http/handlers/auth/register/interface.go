package register

import (
	"context"

	"github.com/magabrotheeeer/multiuser-auth/internal/models"
)

type Service interface {
	Register(ctx context.Context, email, username, password string) (*models.User, error)
}
