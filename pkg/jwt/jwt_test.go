package jwt

import (
	"testing"
	"time"
)

func TestGenerateAndValidate(t *testing.T) {
	token, err := GenerateToken("admin-1", AccessToken, "secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken(token, "secret")
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.AdminID != "admin-1" {
		t.Errorf("AdminID = %q", claims.AdminID)
	}
	if claims.TokenType != AccessToken {
		t.Errorf("TokenType = %q", claims.TokenType)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("admin-1", AccessToken, "secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ValidateToken(token, "other-secret"); err == nil {
		t.Error("expected validation to fail with wrong secret")
	}
}

func TestValidateRejectsExpired(t *testing.T) {
	token, err := GenerateToken("admin-1", AccessToken, "secret", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ValidateToken(token, "secret"); err == nil {
		t.Error("expected validation to fail for expired token")
	}
}

func TestIsTokenValidChecksType(t *testing.T) {
	token, err := GenerateToken("admin-1", RefreshToken, "secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if IsTokenValid(token, "secret", AccessToken) {
		t.Error("refresh token accepted as access token")
	}
	if !IsTokenValid(token, "secret", RefreshToken) {
		t.Error("refresh token rejected as refresh token")
	}
}
