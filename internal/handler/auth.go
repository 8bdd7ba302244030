package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/jun/formdesk/internal/config"
	"github.com/jun/formdesk/internal/identity"
)

// AuthHandler handles account and session requests.
type AuthHandler struct {
	identity *identity.Service
	cfg      *config.Config
	log      zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(s *identity.Service, cfg *config.Config, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{identity: s, cfg: cfg, log: log}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a new account and returns a session token.
func (h *AuthHandler) Register(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var body credentialsRequest
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		return errorResponse(http.StatusBadRequest, "invalid request body"), nil
	}
	if !h.emailDomainAllowed(body.Email) {
		return errorResponse(http.StatusBadRequest, "email domain is not allowed"), nil
	}
	if len(body.Password) < 8 {
		return errorResponse(http.StatusBadRequest, "password must be at least 8 characters"), nil
	}

	principal, err := h.identity.CreateAccount(ctx, body.Email, body.Password)
	if err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			return errorResponse(http.StatusConflict, "an account with this email already exists"), nil
		}
		h.log.Error().Err(err).Msg("create account failed")
		return errorResponse(http.StatusInternalServerError, "could not create account"), nil
	}

	return h.sessionResponse(principal, h.provisionCredential(ctx, principal), h.cfg.SessionTTL), nil
}

// Login authenticates with email and password.
func (h *AuthHandler) Login(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var body credentialsRequest
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		return errorResponse(http.StatusBadRequest, "invalid request body"), nil
	}
	if !h.emailDomainAllowed(body.Email) {
		return errorResponse(http.StatusBadRequest, "email domain is not allowed"), nil
	}

	principal, err := h.identity.SignInWithPassword(ctx, body.Email, body.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			return errorResponse(http.StatusUnauthorized, "email or password is incorrect"), nil
		}
		h.log.Error().Err(err).Msg("password sign-in failed")
		return errorResponse(http.StatusInternalServerError, "sign in failed"), nil
	}

	return h.sessionResponse(principal, h.provisionCredential(ctx, principal), h.cfg.SessionTTL), nil
}

// Anonymous issues a short-lived session without an account.
func (h *AuthHandler) Anonymous(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	principal, err := h.identity.SignInAnonymously(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("anonymous sign-in failed")
		return errorResponse(http.StatusInternalServerError, "could not start a session"), nil
	}

	return h.sessionResponse(principal, "", h.cfg.AnonymousSessionTTL), nil
}

// Credential exchanges a stored long-lived credential for a session. The
// credential is issued by ProvisionCredential and kept by the client.
func (h *AuthHandler) Credential(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var body struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		return errorResponse(http.StatusBadRequest, "invalid request body"), nil
	}

	principal, err := h.identity.SignInWithCredential(ctx, body.Token)
	if err != nil {
		return errorResponse(http.StatusUnauthorized, "credential rejected"), nil
	}

	return h.sessionResponse(principal, "", h.cfg.SessionTTL), nil
}

// GetUser returns the profile of the signed-in user.
func (h *AuthHandler) GetUser(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	p, err := GetPrincipal(req, h.cfg.JWTSecret)
	if err != nil {
		return errorResponse(http.StatusUnauthorized, "unauthorized"), nil
	}

	profile := map[string]any{
		"id":        p.UserID,
		"email":     p.Email,
		"anonymous": p.Anonymous,
	}
	body, _ := json.Marshal(profile)
	return jsonResponse(http.StatusOK, string(body)), nil
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	cookie := fmt.Sprintf("session_token=; HttpOnly; Path=/; Max-Age=0; SameSite=%s; Secure", h.sameSite())

	resp := jsonResponse(http.StatusOK, `{"success":true}`)
	resp.MultiValueHeaders = map[string][]string{
		"Set-Cookie": {cookie},
	}
	return resp, nil
}

// provisionCredential issues a long-lived credential the browser stores for
// silent session restore. A failure here is not fatal; the session itself is
// still issued.
func (h *AuthHandler) provisionCredential(ctx context.Context, p *identity.Principal) string {
	credential, err := h.identity.ProvisionCredential(ctx, p.UserID)
	if err != nil {
		h.log.Warn().Err(err).Str("user_id", p.UserID).Msg("credential provisioning failed")
		return ""
	}
	return credential
}

func (h *AuthHandler) sessionResponse(p *identity.Principal, credential string, ttl time.Duration) events.APIGatewayProxyResponse {
	claims := jwt.MapClaims{
		"sub":  p.UserID,
		"anon": p.Anonymous,
		"exp":  time.Now().Add(ttl).Unix(),
	}
	if p.Email != "" {
		claims["email"] = p.Email
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(h.cfg.JWTSecret))
	if err != nil {
		return errorResponse(http.StatusInternalServerError, "failed to sign token")
	}

	fields := map[string]any{
		"token":     signed,
		"id":        p.UserID,
		"email":     p.Email,
		"anonymous": p.Anonymous,
	}
	if credential != "" {
		fields["credential"] = credential
	}
	payload, _ := json.Marshal(fields)

	cookie := fmt.Sprintf("session_token=%s; HttpOnly; Path=/; Max-Age=%d; SameSite=%s; Secure",
		signed, int(ttl.Seconds()), h.sameSite())

	resp := jsonResponse(http.StatusOK, string(payload))
	resp.MultiValueHeaders = map[string][]string{
		"Set-Cookie": {cookie},
	}
	return resp
}

func (h *AuthHandler) sameSite() string {
	// Production serves the frontend and API from different origins.
	if h.cfg.DevMode {
		return "Lax"
	}
	return "None"
}

func (h *AuthHandler) emailDomainAllowed(email string) bool {
	if len(h.cfg.AllowedEmailDomains) == 0 {
		return true
	}
	_, domain, ok := strings.Cut(email, "@")
	if !ok {
		return false
	}
	domain = strings.ToLower(domain)
	for _, d := range h.cfg.AllowedEmailDomains {
		if domain == d {
			return true
		}
	}
	return false
}
