package handler

import (
	"fmt"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/golang-jwt/jwt/v5"
)

const sessionCookie = "session_token"

// Principal is the authenticated identity extracted from a request token.
type Principal struct {
	UserID    string
	Email     string
	Anonymous bool
}

// GetPrincipal validates the session token carried by the request and
// returns the principal encoded in its claims. A bearer Authorization
// header wins over the session cookie.
func GetPrincipal(req events.APIGatewayProxyRequest, jwtSecret string) (*Principal, error) {
	tokenString := bearerToken(req)
	if tokenString == "" {
		tokenString = cookieToken(req)
	}
	if tokenString == "" {
		return nil, fmt.Errorf("no authorization token found")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %v", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, fmt.Errorf("invalid token claims")
	}

	p := &Principal{UserID: sub}
	if email, ok := claims["email"].(string); ok {
		p.Email = email
	}
	if anon, ok := claims["anon"].(bool); ok {
		p.Anonymous = anon
	}
	return p, nil
}

// header does a case-insensitive lookup; API Gateway does not normalize
// header casing.
func header(req events.APIGatewayProxyRequest, name string) string {
	for k, v := range req.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func bearerToken(req events.APIGatewayProxyRequest) string {
	auth := header(req, "Authorization")
	if token, found := strings.CutPrefix(auth, "Bearer "); found {
		return token
	}
	return ""
}

func cookieToken(req events.APIGatewayProxyRequest) string {
	for _, part := range strings.Split(header(req, "Cookie"), ";") {
		part = strings.TrimSpace(part)
		if token, found := strings.CutPrefix(part, sessionCookie+"="); found {
			return token
		}
	}
	return ""
}

func jsonResponse(status int, body string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Body:       body,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}
}

func errorResponse(status int, message string) events.APIGatewayProxyResponse {
	return jsonResponse(status, fmt.Sprintf(`{"error":%q}`, message))
}
