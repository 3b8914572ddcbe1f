package jwttoken

import (
	"regoffice/internal/platform/middleware"
)

// Adapter bridges the validator to the middleware auth contract.
type Adapter struct {
	validator *Validator
}

func NewAdapter(validator *Validator) *Adapter {
	return &Adapter{validator: validator}
}

func (a *Adapter) ValidateToken(tokenString string) (*middleware.Claims, error) {
	claims, err := a.validator.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.Claims{UserID: claims.UserID, Role: claims.Role}, nil
}
