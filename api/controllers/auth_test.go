package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/wovenlane/wovenlane-backend/api/middleware"
	"github.com/wovenlane/wovenlane-backend/internal/auth"
	"github.com/wovenlane/wovenlane-backend/internal/users"
	pkgerrors "github.com/wovenlane/wovenlane-backend/pkg/errors"
	"github.com/wovenlane/wovenlane-backend/pkg/types"
)

type stubAuthService struct {
	resp        *auth.AuthResponse
	user        *users.UserDTO
	err         error
	revokedJTIs []string
}

func (s *stubAuthService) Register(_ context.Context, _ auth.RegisterRequest) (*auth.AuthResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func (s *stubAuthService) Login(_ context.Context, _ auth.LoginRequest) (*auth.AuthResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func (s *stubAuthService) Logout(_ context.Context, jti string) error {
	s.revokedJTIs = append(s.revokedJTIs, jti)
	return s.err
}

func (s *stubAuthService) Me(context.Context, uuid.UUID) (*users.UserDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

func TestAuthRegisterReturnsToken(t *testing.T) {
	svc := &stubAuthService{resp: &auth.AuthResponse{
		Token: "token-1",
		User:  &users.UserDTO{ID: uuid.New(), Email: "asha@example.com"},
	}}

	body := `{"email":"asha@example.com","password":"hunter2hunter2","first_name":"Asha","last_name":"Rao"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
	resp := httptest.NewRecorder()
	AuthRegister(svc, nil)(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope types.SuccessEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.(map[string]any)["token"] != "token-1" {
		t.Fatalf("token missing from payload")
	}
}

func TestAuthRegisterValidatesPayload(t *testing.T) {
	svc := &stubAuthService{}
	body := `{"email":"not-an-email","password":"short","first_name":"","last_name":""}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
	resp := httptest.NewRecorder()
	AuthRegister(svc, nil)(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAuthLoginMapsInvalidCredentials(t *testing.T) {
	svc := &stubAuthService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	body := `{"email":"asha@example.com","password":"wrong-password"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	resp := httptest.NewRecorder()
	AuthLogin(svc, nil)(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthLogoutRevokesSession(t *testing.T) {
	svc := &stubAuthService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req = req.WithContext(middleware.WithSessionID(req.Context(), "jti-1"))
	resp := httptest.NewRecorder()
	AuthLogout(svc, nil)(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if len(svc.revokedJTIs) != 1 || svc.revokedJTIs[0] != "jti-1" {
		t.Fatalf("session not revoked: %v", svc.revokedJTIs)
	}
}

func TestMeFetchesProfile(t *testing.T) {
	userID := uuid.New()
	svc := &stubAuthService{user: &users.UserDTO{ID: userID, Email: "asha@example.com"}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
	resp := httptest.NewRecorder()
	Me(svc, nil)(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope types.SuccessEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.(map[string]any)["email"] != "asha@example.com" {
		t.Fatalf("unexpected payload %v", envelope.Data)
	}
}
