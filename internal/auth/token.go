package auth // package auth implements password hashing and access token issuing

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// PurposeAccess is the purpose tag carried in the token's sub claim.
// Tokens with any other purpose are rejected by the middleware.
const PurposeAccess = "access_token"

// ErrTokenMalformed is returned by Decode when the token structure is
// broken or the signature does not verify. Expiry is NOT part of this
// check; see Decode.
var ErrTokenMalformed = errors.New("malformed access token")

// Claims is the decoded payload of an access token.
type Claims struct {
	Email     string    // subject email
	Purpose   string    // token purpose tag (sub claim)
	ExpiresAt time.Time // absolute expiry, UTC
}

// Expired reports whether the claims are past their expiry at now.
func (c Claims) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// NewAccessToken builds and signs an HS256 JWT for a user. The claim set
// is {email, sub: "access_token", exp: now+ttlMin}. Verification of the
// signature is stateless so request handling never needs a session
// lookup.
func NewAccessToken(secret, email string, ttlMin int) (string, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"email": email,
		"sub":   PurposeAccess,
		"exp":   exp.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// Decode verifies the signature and structure of a token and returns its
// claims. Expiry is deliberately not validated here: an expired token
// still decodes, and the caller compares Claims.ExpiresAt against the
// clock. This keeps "signature valid" and "token usable" as two separate
// questions.
func Decode(secret, raw string) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	tok, err := parser.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return Claims{}, ErrTokenMalformed
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrTokenMalformed
	}
	email, _ := mc["email"].(string)
	purpose, _ := mc["sub"].(string)
	expVal, ok := mc["exp"].(float64)
	if email == "" || purpose == "" || !ok {
		return Claims{}, ErrTokenMalformed
	}
	return Claims{
		Email:     email,
		Purpose:   purpose,
		ExpiresAt: time.Unix(int64(expVal), 0).UTC(),
	}, nil
}
