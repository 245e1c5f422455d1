package jwttoken

import (
	"ballotgate/internal/platform/middleware"
)

// MiddlewareAdapter lets the auth middleware depend on its own claims type
// instead of this package's.
type MiddlewareAdapter struct {
	service *Service
}

func NewMiddlewareAdapter(service *Service) *MiddlewareAdapter {
	return &MiddlewareAdapter{service: service}
}

func (a *MiddlewareAdapter) Validate(tokenString string) (*middleware.TokenClaims, error) {
	claims, err := a.service.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.TokenClaims{IdentityID: claims.IdentityID}, nil
}
