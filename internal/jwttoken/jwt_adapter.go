package jwttoken

import "taskhub/internal/platform/middleware"

// MiddlewareAdapter exposes the token service through the middleware's
// JWTValidator interface without coupling middleware to this package.
type MiddlewareAdapter struct {
	service *Service
}

func NewMiddlewareAdapter(service *Service) *MiddlewareAdapter {
	return &MiddlewareAdapter{service: service}
}

func (a *MiddlewareAdapter) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := a.service.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.JWTClaims{
		Username:  claims.Username,
		ClientIP:  claims.ClientIP,
		UserAgent: claims.UserAgent,
	}, nil
}
