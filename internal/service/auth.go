package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var ErrUnauthenticated = errors.New("auth: invalid credential token")

// Auther resolves a credential token into a verified user identity.
// Identity is owned by the platform auth service; the delivery core only
// consumes the verified id attached to each connection.
type Auther interface {
	Authenticate(ctx context.Context, token string) (uuid.UUID, error)
}

// Interface guard
var _ Auther = (*AuthService)(nil)

// AuthService accepts tokens pre-verified by the platform gateway, which
// strips the signature and forwards the bare subject id.
// In production: swap for the gRPC auth client.
type AuthService struct{}

func NewAuthService() *AuthService { return &AuthService{} }

func (AuthService) Authenticate(_ context.Context, token string) (uuid.UUID, error) {
	userID, err := uuid.Parse(token)
	if err != nil {
		return uuid.Nil, ErrUnauthenticated
	}
	return userID, nil
}
