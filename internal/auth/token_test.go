package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "unit-test-secret"

func signClaims(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return raw
}

func TestNewAccessTokenRoundTrip(t *testing.T) {
	raw, err := NewAccessToken(testSecret, "user@example.com", 5)
	if err != nil {
		t.Fatalf("NewAccessToken() error = %v", err)
	}
	claims, err := Decode(testSecret, raw)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if claims.Email != "user@example.com" {
		t.Errorf("Email = %q, want user@example.com", claims.Email)
	}
	if claims.Purpose != PurposeAccess {
		t.Errorf("Purpose = %q, want %q", claims.Purpose, PurposeAccess)
	}
	if claims.Expired(time.Now().UTC()) {
		t.Error("fresh token should not be expired")
	}
}

// An expired token must still decode: signature validity and expiry are
// checked by different layers.
func TestDecodeExpiredToken(t *testing.T) {
	raw := signClaims(t, testSecret, jwt.MapClaims{
		"email": "late@example.com",
		"sub":   PurposeAccess,
		"exp":   time.Now().UTC().Add(-time.Hour).Unix(),
	})
	claims, err := Decode(testSecret, raw)
	if err != nil {
		t.Fatalf("Decode() of expired token error = %v, want nil", err)
	}
	if !claims.Expired(time.Now().UTC()) {
		t.Error("Expired() = false for a token an hour past exp")
	}
}

func TestDecodeRejects(t *testing.T) {
	valid, _ := NewAccessToken(testSecret, "user@example.com", 5)

	tests := []struct {
		name   string
		secret string
		raw    string
	}{
		{"wrong secret", "other-secret", valid},
		{"garbage", testSecret, "not.a.token"},
		{"empty", testSecret, ""},
		{"missing email claim", testSecret, signClaims(t, testSecret, jwt.MapClaims{
			"sub": PurposeAccess,
			"exp": time.Now().Add(time.Hour).Unix(),
		})},
		{"missing exp claim", testSecret, signClaims(t, testSecret, jwt.MapClaims{
			"email": "user@example.com",
			"sub":   PurposeAccess,
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.secret, tt.raw); err != ErrTokenMalformed {
				t.Errorf("Decode() error = %v, want ErrTokenMalformed", err)
			}
		})
	}
}
