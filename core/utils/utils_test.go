package utils

import (
	"errors"
	"strings"
	"testing"
	"time"

	"go-schedule-api/core/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestGenerateRandomString(t *testing.T) {
	a := GenerateRandomString(32)
	b := GenerateRandomString(32)
	if len(a) != 32 {
		t.Fatalf("len = %d, want 32", len(a))
	}
	if a == b {
		t.Fatal("two random strings are equal")
	}
}

func TestBlobKey(t *testing.T) {
	tt := []struct {
		name     string
		filename string
		suffix   string
	}{
		{name: "plain", filename: "Team Photo.PNG", suffix: "-team-photo.png"},
		{name: "no extension", filename: "icon", suffix: "-icon"},
		{name: "only symbols", filename: "!!!.jpg", suffix: "-file.jpg"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			key := BlobKey("icons/", tc.filename)
			if !strings.HasPrefix(key, "icons/") {
				t.Errorf("key %q missing prefix", key)
			}
			if !strings.HasSuffix(key, tc.suffix) {
				t.Errorf("key %q, want suffix %q", key, tc.suffix)
			}
		})
	}
}

func TestHashSecret(t *testing.T) {
	hash, err := HashSecret("owner-token")
	if err != nil {
		t.Fatalf("HashSecret() error = %v", err)
	}
	if !CompareSecret(hash, "owner-token") {
		t.Error("CompareSecret() = false for matching secret")
	}
	if CompareSecret(hash, "other") {
		t.Error("CompareSecret() = true for wrong secret")
	}
	if CompareSecret(hash, "") {
		t.Error("CompareSecret() = true for empty secret")
	}
}

// signToken issues a token the way the identity provider does.
func signToken(t *testing.T, userID uuid.UUID, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	claims := TokenClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    config.Get().Auth.Issuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(config.Get().Auth.JWTSecret))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	return token
}

func TestTokenRoundTrip(t *testing.T) {
	config.Set(&config.Config{Auth: config.AuthConfig{JWTSecret: "test-secret", Issuer: "test"}})
	defer config.Set(nil)

	userID := uuid.New()
	token := signToken(t, userID, time.Hour)

	claims, err := ValidateAndParseToken(token)
	if err != nil {
		t.Fatalf("ValidateAndParseToken() error = %v", err)
	}
	if claims.UserID != userID {
		t.Errorf("UserID = %s, want %s", claims.UserID, userID)
	}

	expired := signToken(t, userID, -time.Minute)
	if _, err := ValidateAndParseToken(expired); !errors.Is(err, jwt.ErrTokenExpired) {
		t.Errorf("expired token error = %v, want ErrTokenExpired", err)
	}
}
