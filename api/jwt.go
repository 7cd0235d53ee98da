package main

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// parseJWT returns the token subject. With a secret the HS256 signature and expiry
// are verified; without one the gatekeeper is trusted and the claims are only decoded.
func parseJWT(secret, tokenStr string) (string, error) {
	claims := jwt.MapClaims{}
	if secret == "" {
		if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
			return "", errors.New("invalid token")
		}
	} else {
		tok, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !tok.Valid {
			return "", errors.New("invalid token")
		}
	}
	return subject(claims)
}

// subject reads "sub", falling back to the "user_id" claim issued by the gatekeeper.
func subject(claims jwt.MapClaims) (string, error) {
	if sub, ok := claims["sub"].(string); ok && sub != "" {
		return sub, nil
	}
	switch v := claims["user_id"].(type) {
	case string:
		if v != "" {
			return v, nil
		}
	case float64:
		return fmt.Sprintf("%.0f", v), nil
	}
	return "", errors.New("no subject")
}
