package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-jwt-secret"

func TestGenerateAndValidateAccessToken(t *testing.T) {
	token, err := GenerateAccessToken(testSecret, "user-1", true)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	claims, err := ValidateToken(testSecret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("expected user ID user-1, got %q", claims.UserID)
	}
	if !claims.IsAdmin {
		t.Error("expected admin claim to survive the round trip")
	}
	if claims.TokenType != "access" {
		t.Errorf("expected token type access, got %q", claims.TokenType)
	}
}

func TestRefreshTokenCarriesTokenID(t *testing.T) {
	token, err := GenerateRefreshToken(testSecret, "user-2", "tok-abc")
	if err != nil {
		t.Fatalf("GenerateRefreshToken: %v", err)
	}

	claims, err := ValidateToken(testSecret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.TokenType != "refresh" {
		t.Errorf("expected token type refresh, got %q", claims.TokenType)
	}
	if claims.TokenID != "tok-abc" {
		t.Errorf("expected token ID tok-abc, got %q", claims.TokenID)
	}
	if claims.IsAdmin {
		t.Error("refresh tokens must not carry the admin claim")
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := GenerateAccessToken(testSecret, "user-1", false)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if _, err := ValidateToken("other-secret", token); err == nil {
		t.Fatal("expected error for token signed with a different secret")
	}
}

func TestValidateToken_Expired(t *testing.T) {
	claims := &Claims{
		UserID:    "user-1",
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := ValidateToken(testSecret, signed); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestValidateToken_RejectsUnexpectedAlgorithm(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "user-1", TokenType: "access"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := ValidateToken(testSecret, signed); err == nil {
		t.Fatal("expected error for token signed with none algorithm")
	}
}
