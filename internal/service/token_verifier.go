package service

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/academic-marks-api/internal/models"
	appErrors "github.com/noah-isme/academic-marks-api/pkg/errors"
)

// TokenVerifier validates HS256 access tokens issued by the portal's identity provider.
// The service never issues tokens itself.
type TokenVerifier struct {
	secret []byte
	issuer string
}

// NewTokenVerifier constructs a verifier. An empty issuer disables the iss check.
func NewTokenVerifier(secret, issuer string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret), issuer: issuer}
}

// ValidateToken parses tokenString and returns its claims.
func (v *TokenVerifier) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	if claims.Role == models.RoleStudent && claims.USN == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "student token without usn")
	}
	claims.USN = NormalizeUSN(claims.USN)
	return claims, nil
}
