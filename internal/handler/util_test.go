package handler_test

import (
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jun/formdesk/internal/handler"
)

const (
	testJWTSecret = "test-secret"
	testUserID    = "user-abc"
)

func makeToken(userID string, anonymous bool) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID,
		"email": "user@example.com",
		"anon":  anonymous,
		"exp":   time.Now().Add(1 * time.Hour).Unix(),
	})
	signed, _ := token.SignedString([]byte(testJWTSecret))
	return signed
}

func TestGetPrincipal_BearerToken(t *testing.T) {
	req := events.APIGatewayProxyRequest{
		Headers: map[string]string{
			"Authorization": "Bearer " + makeToken(testUserID, false),
		},
	}

	p, err := handler.GetPrincipal(req, testJWTSecret)
	if err != nil {
		t.Fatalf("GetPrincipal failed: %v", err)
	}
	if p.UserID != testUserID {
		t.Errorf("Expected userID '%s', got '%s'", testUserID, p.UserID)
	}
	if p.Anonymous {
		t.Error("Expected non-anonymous principal")
	}
}

func TestGetPrincipal_Cookie(t *testing.T) {
	req := events.APIGatewayProxyRequest{
		Headers: map[string]string{
			"Cookie": "session_token=" + makeToken(testUserID, false) + "; Path=/",
		},
	}

	p, err := handler.GetPrincipal(req, testJWTSecret)
	if err != nil {
		t.Fatalf("GetPrincipal from cookie failed: %v", err)
	}
	if p.UserID != testUserID {
		t.Errorf("Expected userID '%s', got '%s'", testUserID, p.UserID)
	}
}

func TestGetPrincipal_AnonymousClaim(t *testing.T) {
	req := events.APIGatewayProxyRequest{
		Headers: map[string]string{
			"Authorization": "Bearer " + makeToken("anon-1", true),
		},
	}

	p, err := handler.GetPrincipal(req, testJWTSecret)
	if err != nil {
		t.Fatalf("GetPrincipal failed: %v", err)
	}
	if !p.Anonymous {
		t.Error("Expected anonymous principal")
	}
}

func TestGetPrincipal_NoToken(t *testing.T) {
	req := events.APIGatewayProxyRequest{
		Headers: map[string]string{},
	}

	if _, err := handler.GetPrincipal(req, testJWTSecret); err == nil {
		t.Error("Expected error for missing token, got nil")
	}
}

func TestGetPrincipal_ExpiredToken(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": testUserID,
		"exp": time.Now().Add(-1 * time.Hour).Unix(),
	})
	signed, _ := token.SignedString([]byte(testJWTSecret))

	req := events.APIGatewayProxyRequest{
		Headers: map[string]string{
			"Authorization": "Bearer " + signed,
		},
	}

	if _, err := handler.GetPrincipal(req, testJWTSecret); err == nil {
		t.Error("Expected error for expired token, got nil")
	}
}

func TestGetPrincipal_CaseInsensitiveHeaders(t *testing.T) {
	req := events.APIGatewayProxyRequest{
		Headers: map[string]string{
			"authorization": "Bearer " + makeToken(testUserID, false), // lowercase
		},
	}

	p, err := handler.GetPrincipal(req, testJWTSecret)
	if err != nil {
		t.Fatalf("GetPrincipal with lowercase header failed: %v", err)
	}
	if p.UserID != testUserID {
		t.Errorf("Expected userID '%s', got '%s'", testUserID, p.UserID)
	}
}
