package auth_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/kiwari-pos/tablepos/internal/auth"
)

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret"
	userID := uuid.New()
	restaurantID := uuid.New()
	role := "CASHIER"

	token, err := auth.GenerateToken(secret, userID, restaurantID, role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	claims, err := auth.ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}

	if claims.UserID != userID {
		t.Errorf("user ID: got %v, want %v", claims.UserID, userID)
	}
	if claims.RestaurantID != restaurantID {
		t.Errorf("restaurant ID: got %v, want %v", claims.RestaurantID, restaurantID)
	}
	if claims.Role != role {
		t.Errorf("role: got %v, want %v", claims.Role, role)
	}
}

func TestValidateTokenWithWrongSecret(t *testing.T) {
	token, err := auth.GenerateToken("secret-a", uuid.New(), uuid.New(), "CASHIER")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	_, err = auth.ValidateToken("secret-b", token)
	if err == nil {
		t.Fatal("expected error validating with wrong secret")
	}
}

func TestValidateTokenWithInvalidString(t *testing.T) {
	_, err := auth.ValidateToken("secret", "not-a-jwt")
	if err == nil {
		t.Fatal("expected error validating invalid token string")
	}
}

func TestServiceToken(t *testing.T) {
	token, err := auth.GenerateServiceToken("svc-secret", "tablepos")
	if err != nil {
		t.Fatalf("generate service token: %v", err)
	}

	claims, err := auth.ValidateServiceToken("svc-secret", token)
	if err != nil {
		t.Fatalf("validate service token: %v", err)
	}
	if claims.Subject != "tablepos" {
		t.Errorf("subject: got %q, want tablepos", claims.Subject)
	}

	if _, err := auth.ValidateServiceToken("other", token); err == nil {
		t.Fatal("expected error validating with wrong secret")
	}
}

func TestServiceTokenRequiresAudience(t *testing.T) {
	// A staff token carries no back-office audience.
	staff, err := auth.GenerateToken("svc-secret", uuid.New(), uuid.New(), "OWNER")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if _, err := auth.ValidateServiceToken("svc-secret", staff); err == nil {
		t.Fatal("expected audience check to reject staff token")
	}
}
