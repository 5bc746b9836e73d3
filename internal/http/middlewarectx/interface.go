package middlewarectx

import (
	"context"

	"github.com/magabrotheeeer/multiuser-auth/internal/models"
)

type Service interface {
	ResolveUser(ctx context.Context, token string) (*models.User, error)
}
