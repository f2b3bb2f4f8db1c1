package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/angel-serrato/authweb/internal/common"
)

// Claims carries the token payload in the subject plus a purpose tag that
// namespaces the token to a single use case, so a token issued for one
// feature cannot be replayed against another.
type Claims struct {
	jwt.RegisteredClaims
	Purpose string `json:"purpose"`
}

// IssueToken produces a signed (HS256), time-stamped token binding payload
// and purpose. Validity is not encoded in the token; it is checked against a
// max age at redemption time.
func IssueToken(payload, purpose string, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  payload,
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
		Purpose: purpose,
	})
	return token.SignedString(secret)
}

// RedeemToken verifies the token signature and purpose and returns the
// payload. It fails with common.ErrTokenInvalid on a malformed or tampered
// token, common.ErrWrongPurpose on a purpose mismatch, and
// common.ErrTokenExpired when the token is older than maxAge.
func RedeemToken(tokenString, purpose string, maxAge time.Duration, secret []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", common.ErrTokenInvalid
	}

	if claims.Purpose != purpose {
		return "", common.ErrWrongPurpose
	}
	if claims.IssuedAt == nil {
		return "", common.ErrTokenInvalid
	}
	if time.Since(claims.IssuedAt.Time) > maxAge {
		return "", common.ErrTokenExpired
	}

	return claims.Subject, nil
}
